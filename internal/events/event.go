// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"legal_intake_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// =============================================================================
// Intake Domain Events
// =============================================================================

// LeadSubmitted is published when an intake submission is stored.
type LeadSubmitted struct {
	BaseEvent
	IntakeID  uuid.UUID  `json:"intakeId"`
	Status    string     `json:"leadStatus"`
	ContactID *uuid.UUID `json:"duplicateOfContactId,omitempty"`
}

func (e LeadSubmitted) EventName() string { return "intake.lead.submitted" }

// LeadTriaged is published after any triage action changed a lead.
type LeadTriaged struct {
	BaseEvent
	IntakeID uuid.UUID `json:"intakeId"`
	Action   string    `json:"action"`
	From     string    `json:"from"`
	To       string    `json:"to"`
}

func (e LeadTriaged) EventName() string { return "intake.lead.triaged" }

// LeadAccepted is published when a lead became a contact and opportunity.
type LeadAccepted struct {
	BaseEvent
	IntakeID      uuid.UUID `json:"intakeId"`
	ContactID     uuid.UUID `json:"contactId"`
	OpportunityID uuid.UUID `json:"opportunityId"`
}

func (e LeadAccepted) EventName() string { return "intake.lead.accepted" }

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// OpportunityStageChanged is published after an opportunity entered a stage.
type OpportunityStageChanged struct {
	BaseEvent
	OpportunityID uuid.UUID   `json:"opportunityId"`
	StageChangeID uuid.UUID   `json:"stageChangeId"`
	Pipeline      string      `json:"pipeline"`
	StageID       uuid.UUID   `json:"stageId"`
	Stage         string      `json:"stage"`
	PreviousStage *string     `json:"previousStage,omitempty"`
	TaskIDs       []uuid.UUID `json:"taskIds"`
	Automated     bool        `json:"automated"`
}

func (e OpportunityStageChanged) EventName() string { return "pipeline.opportunity.stage_changed" }

// TaskCompletionToggled is published after a task was completed or reopened.
type TaskCompletionToggled struct {
	BaseEvent
	TaskID        uuid.UUID  `json:"taskId"`
	OpportunityID *uuid.UUID `json:"opportunityId,omitempty"`
	Completed     bool       `json:"completed"`
}

func (e TaskCompletionToggled) EventName() string { return "pipeline.task.completion_toggled" }

// TaskScheduled is published for every task carrying a due date, so
// reminders can be queued.
type TaskScheduled struct {
	BaseEvent
	TaskID        uuid.UUID  `json:"taskId"`
	OpportunityID *uuid.UUID `json:"opportunityId,omitempty"`
	Title         string     `json:"title"`
	AssignedTo    *string    `json:"assignedTo,omitempty"`
	DueAt         time.Time  `json:"dueAt"`
}

func (e TaskScheduled) EventName() string { return "pipeline.task.scheduled" }

// StageChangeRolledBack is published after a stage change was undone.
type StageChangeRolledBack struct {
	BaseEvent
	OpportunityID  uuid.UUID `json:"opportunityId"`
	StageChangeID  uuid.UUID `json:"stageChangeId"`
	RestoredStage  string    `json:"restoredStage"`
	DeletedTaskIDs int64     `json:"deletedTasks"`
}

func (e StageChangeRolledBack) EventName() string { return "pipeline.stage_change.rolled_back" }

// TaskDue is published when a reminder fires for a task that is still open.
type TaskDue struct {
	BaseEvent
	TaskID        uuid.UUID  `json:"taskId"`
	OpportunityID *uuid.UUID `json:"opportunityId,omitempty"`
	Title         string     `json:"title"`
	AssignedTo    *string    `json:"assignedTo,omitempty"`
	DueAt         time.Time  `json:"dueAt"`
}

func (e TaskDue) EventName() string { return "pipeline.task.due" }
