// Package notification subscribes to lifecycle events. It keeps an audit
// trail of every committed change in the structured log and surfaces task
// reminders to the assignee's feed.
package notification

import (
	"context"
	"log/slog"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/platform/logger"

	"github.com/google/uuid"
)

// Module handles lifecycle events after the originating transaction committed.
type Module struct {
	log *logger.Logger
}

// New creates the notification module.
func New(log *logger.Logger) *Module {
	return &Module{log: log}
}

// RegisterHandlers subscribes the module to every lifecycle event.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	// Intake events
	bus.Subscribe(events.LeadSubmitted{}.EventName(), m)
	bus.Subscribe(events.LeadTriaged{}.EventName(), m)
	bus.Subscribe(events.LeadAccepted{}.EventName(), m)

	// Pipeline events
	bus.Subscribe(events.OpportunityStageChanged{}.EventName(), m)
	bus.Subscribe(events.TaskCompletionToggled{}.EventName(), m)
	bus.Subscribe(events.TaskScheduled{}.EventName(), m)
	bus.Subscribe(events.StageChangeRolledBack{}.EventName(), m)
	bus.Subscribe(events.TaskDue{}.EventName(), m)
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	log := m.log.WithContext(ctx)
	attrs := []any{slog.String("event", event.EventName()), slog.Time("occurred_at", event.OccurredAt())}

	switch e := event.(type) {
	case events.LeadSubmitted:
		attrs = append(attrs, slog.String("intake_id", e.IntakeID.String()), slog.String("lead_status", e.Status))
		if e.ContactID != nil {
			attrs = append(attrs, slog.String("duplicate_of_contact_id", e.ContactID.String()))
		}
	case events.LeadTriaged:
		attrs = append(attrs,
			slog.String("intake_id", e.IntakeID.String()),
			slog.String("action", e.Action),
			slog.String("from", e.From),
			slog.String("to", e.To),
		)
	case events.LeadAccepted:
		attrs = append(attrs,
			slog.String("intake_id", e.IntakeID.String()),
			slog.String("contact_id", e.ContactID.String()),
			slog.String("opportunity_id", e.OpportunityID.String()),
		)
	case events.OpportunityStageChanged:
		attrs = append(attrs,
			slog.String("opportunity_id", e.OpportunityID.String()),
			slog.String("stage_change_id", e.StageChangeID.String()),
			slog.String("pipeline", e.Pipeline),
			slog.String("stage", e.Stage),
			slog.Int("tasks_created", len(e.TaskIDs)),
			slog.Bool("automated", e.Automated),
		)
	case events.TaskCompletionToggled:
		attrs = append(attrs, slog.String("task_id", e.TaskID.String()), slog.Bool("completed", e.Completed))
		attrs = appendOpportunity(attrs, e.OpportunityID)
	case events.TaskScheduled:
		attrs = append(attrs, slog.String("task_id", e.TaskID.String()), slog.Time("due_at", e.DueAt))
		attrs = appendOpportunity(attrs, e.OpportunityID)
	case events.StageChangeRolledBack:
		attrs = append(attrs,
			slog.String("opportunity_id", e.OpportunityID.String()),
			slog.String("stage_change_id", e.StageChangeID.String()),
			slog.String("restored_stage", e.RestoredStage),
			slog.Int64("tasks_deleted", e.DeletedTaskIDs),
		)
	case events.TaskDue:
		return m.handleTaskDue(log, e)
	default:
		return nil
	}

	log.Info("lifecycle_event", attrs...)
	return nil
}

func (m *Module) handleTaskDue(log *logger.Logger, e events.TaskDue) error {
	assignee := "unassigned"
	if e.AssignedTo != nil && *e.AssignedTo != "" {
		assignee = *e.AssignedTo
	}
	attrs := []any{
		slog.String("task_id", e.TaskID.String()),
		slog.String("title", e.Title),
		slog.String("assigned_to", assignee),
		slog.Time("due_at", e.DueAt),
	}
	log.Warn("task_due", appendOpportunity(attrs, e.OpportunityID)...)
	return nil
}

func appendOpportunity(attrs []any, id *uuid.UUID) []any {
	if id == nil {
		return attrs
	}
	return append(attrs, slog.String("opportunity_id", id.String()))
}
