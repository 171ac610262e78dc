package pipeline

import (
	"context"
	"fmt"
	"time"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/repository"
	"legal_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

// MovedTo names where a task completion moved the opportunity.
type MovedTo struct {
	Pipeline string
	Stage    string
}

// ToggleResult is returned by ToggleComplete.
type ToggleResult struct {
	Task             domain.Task
	OpportunityMoved bool
	MovedTo          *MovedTo
}

// onStageEnter creates one task per template resolved for stage. It must run
// exactly once per stage entry, in the transaction that writes the stage
// change referencing the returned tasks.
func (s *Service) onStageEnter(ctx context.Context, tx repository.Store, opp domain.Opportunity, stage domain.PipelineStage, enteredAt time.Time) ([]domain.Task, error) {
	candidates, err := tx.ListTemplatesForStage(ctx, stage)
	if err != nil {
		return nil, err
	}
	templates := domain.ResolveTemplates(candidates, stage)

	tasks := make([]domain.Task, 0, len(templates))
	for _, t := range templates {
		due, err := domain.DueDate(enteredAt, t.DueDateValue, t.DueDateUnit)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindIntegrity, fmt.Sprintf("task template %q has an invalid due date", t.TaskName), err).WithOp("onStageEnter")
		}

		oppID, contactID, templateID, stageID := opp.ID, opp.ContactID, t.ID, stage.ID
		task := domain.Task{
			ID:             uuid.New(),
			OpportunityID:  &oppID,
			ContactID:      &contactID,
			TaskTemplateID: &templateID,
			StageID:        &stageID,
			Title:          t.TaskName,
			Description:    t.TaskDescription,
			AssignedTo:     t.AssignedTo,
			AssignedToName: t.AssignedToName,
			DueDate:        &due,
			Status:         domain.TaskStatusPending,
			CreatedAt:      enteredAt,
			UpdatedAt:      enteredAt,
		}
		if err := tx.CreateTask(ctx, task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ToggleComplete flips a task's completion. Completing the triggering task
// of the opportunity's current stage applies the stage's completion
// mapping. Reopening a task never reverses a move.
func (s *Service) ToggleComplete(ctx context.Context, taskID uuid.UUID) (ToggleResult, error) {
	var (
		result     ToggleResult
		transition *Transition
	)

	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		task, err := tx.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		now := s.now()
		task.ToggleCompletion(now)
		if err := tx.UpdateTaskCompletion(ctx, task); err != nil {
			return err
		}
		result.Task = task

		if !task.Completed {
			return nil
		}
		transition, err = s.advanceOnCompletion(ctx, tx, task, now)
		return err
	})
	if err != nil {
		return ToggleResult{}, err
	}

	s.bus.Publish(ctx, events.TaskCompletionToggled{
		BaseEvent:     events.NewBaseEventAt(s.now()),
		TaskID:        result.Task.ID,
		OpportunityID: result.Task.OpportunityID,
		Completed:     result.Task.Completed,
	})
	if transition != nil {
		s.Announce(ctx, *transition)
		result.OpportunityMoved = true
		result.MovedTo = &MovedTo{Pipeline: transition.Stage.Pipeline, Stage: transition.Stage.Name}
	}
	return result, nil
}

// advanceOnCompletion returns nil when the completed task does not move the
// opportunity.
func (s *Service) advanceOnCompletion(ctx context.Context, tx repository.Store, task domain.Task, now time.Time) (*Transition, error) {
	if task.OpportunityID == nil || task.StageID == nil || task.TaskTemplateID == nil {
		return nil, nil
	}

	opp, err := tx.GetOpportunityForUpdate(ctx, *task.OpportunityID)
	if err != nil {
		return nil, err
	}
	if opp.StageID != *task.StageID {
		return nil, nil
	}

	stage, err := tx.GetStage(ctx, opp.StageID)
	if err != nil {
		return nil, err
	}
	candidates, err := tx.ListTemplatesForStage(ctx, stage)
	if err != nil {
		return nil, err
	}
	if !domain.IsTriggeringTask(task, domain.ResolveTemplates(candidates, stage)) {
		return nil, nil
	}

	mappings, err := tx.ListMappingsForStage(ctx, stage)
	if err != nil {
		return nil, err
	}
	mapping, ok := domain.SelectMapping(mappings, stage, opp.PipelineID)
	if !ok {
		return nil, nil
	}

	target, err := findMappingTarget(ctx, tx, mapping)
	if err != nil {
		return nil, err
	}

	if mapping.TargetPipelineID == s.cfg.GetDidNotHirePipeline() {
		reason := mapping.TargetStageName
		opp.DidNotHireAt = &now
		opp.DidNotHireReason = &reason
	}

	t, err := s.moveTx(ctx, tx, opp, target, now, true)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func findMappingTarget(ctx context.Context, tx repository.Store, m domain.StageCompletionMapping) (domain.PipelineStage, error) {
	stages, err := tx.ListPipelineStages(ctx, m.TargetPipelineID)
	if err != nil {
		return domain.PipelineStage{}, err
	}
	for _, st := range stages {
		if domain.MappingTargetsStage(m, st) {
			return st, nil
		}
	}
	return domain.PipelineStage{}, apperr.Integrity(
		fmt.Sprintf("completion mapping target %q does not exist in pipeline %q", m.TargetStageName, m.TargetPipelineID),
	).WithOp("toggleComplete")
}
