// Package pipeline moves opportunities between pipeline stages and runs the
// task automation attached to each stage.
package pipeline

import (
	"context"
	"time"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/repository"
	"legal_intake_backend/platform/config"
	"legal_intake_backend/platform/logger"

	"github.com/google/uuid"
)

// DocumentLinker produces a download URL for a stored document.
type DocumentLinker interface {
	DocumentURL(ctx context.Context, objectKey string) (string, error)
}

// Service provides the stage automation and transition operations.
type Service struct {
	repo   repository.Repository
	bus    events.Bus
	cfg    config.LifecycleConfig
	log    *logger.Logger
	linker DocumentLinker
	now    func() time.Time
}

// New creates a new pipeline service.
func New(repo repository.Repository, bus events.Bus, cfg config.LifecycleConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo: repo,
		bus:  bus,
		cfg:  cfg,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetDocumentLinker enables download URLs on documents returned by
// GetWithRelated.
func (s *Service) SetDocumentLinker(linker DocumentLinker) {
	s.linker = linker
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Transition is the outcome of one stage entry.
type Transition struct {
	Opportunity domain.Opportunity
	From        *domain.PipelineStage
	Stage       domain.PipelineStage
	Change      domain.StageChange
	Tasks       []domain.Task
	Automated   bool
}

// Announce logs a committed transition and publishes its events. Call it
// only after the transaction that produced t has committed.
func (s *Service) Announce(ctx context.Context, t Transition) {
	fromStage := ""
	if t.From != nil {
		fromStage = t.From.Name
	}
	s.log.WithContext(ctx).StageTransition(t.Opportunity.ID.String(), fromStage, t.Stage.Pipeline, t.Stage.Name, len(t.Tasks), t.Automated)

	s.bus.Publish(ctx, events.OpportunityStageChanged{
		BaseEvent:     events.NewBaseEventAt(s.now()),
		OpportunityID: t.Opportunity.ID,
		StageChangeID: t.Change.ID,
		Pipeline:      t.Stage.Pipeline,
		StageID:       t.Stage.ID,
		Stage:         t.Stage.Name,
		PreviousStage: t.Change.PreviousStage,
		TaskIDs:       t.Change.TaskIDs,
		Automated:     t.Automated,
	})
	for _, task := range t.Tasks {
		s.announceTask(ctx, task)
	}
}

func (s *Service) announceTask(ctx context.Context, task domain.Task) {
	if task.DueDate == nil {
		return
	}
	s.bus.Publish(ctx, events.TaskScheduled{
		BaseEvent:     events.NewBaseEventAt(s.now()),
		TaskID:        task.ID,
		OpportunityID: task.OpportunityID,
		Title:         task.Title,
		AssignedTo:    task.AssignedTo,
		DueAt:         *task.DueDate,
	})
}

func taskIDs(tasks []domain.Task) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
