package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/repository"
	"legal_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

// MoveToPipeline places an opportunity on stageID of pipeline, creates the
// stage's tasks and records the stage change, all in one transaction.
func (s *Service) MoveToPipeline(ctx context.Context, opportunityID uuid.UUID, pipeline string, stageID uuid.UUID) (Transition, error) {
	pipeline = strings.TrimSpace(pipeline)

	var t Transition
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		stage, err := tx.GetStage(ctx, stageID)
		if err != nil {
			return err
		}
		if !domain.StageBelongsTo(stage, pipeline) {
			return apperr.Validation(fmt.Sprintf("stage %q does not belong to pipeline %q", stage.Name, pipeline)).WithOp("moveToPipeline")
		}

		opp, err := tx.GetOpportunityForUpdate(ctx, opportunityID)
		if err != nil {
			return err
		}

		t, err = s.moveTx(ctx, tx, opp, stage, s.now(), false)
		return err
	})
	if err != nil {
		return Transition{}, err
	}

	s.Announce(ctx, t)
	return t, nil
}

// EnterInitialStage records the first placement of a freshly created
// opportunity on its current stage. The caller owns the transaction and must
// call Announce after commit.
func (s *Service) EnterInitialStage(ctx context.Context, tx repository.Store, opp domain.Opportunity, now time.Time) (Transition, error) {
	stage, err := tx.GetStage(ctx, opp.StageID)
	if err != nil {
		return Transition{}, err
	}
	if !domain.StageBelongsTo(stage, opp.PipelineID) {
		return Transition{}, apperr.Validation(fmt.Sprintf("stage %q does not belong to pipeline %q", stage.Name, opp.PipelineID)).WithOp("enterInitialStage")
	}
	return s.enterStage(ctx, tx, opp, nil, stage, now, false)
}

// moveTx moves a locked opportunity to target inside tx. Leaving the Did Not
// Hire pipeline clears its stamps.
func (s *Service) moveTx(ctx context.Context, tx repository.Store, opp domain.Opportunity, target domain.PipelineStage, now time.Time, automated bool) (Transition, error) {
	previous, err := tx.GetStage(ctx, opp.StageID)
	if err != nil {
		return Transition{}, err
	}

	if target.Pipeline != s.cfg.GetDidNotHirePipeline() {
		opp.DidNotHireAt = nil
		opp.DidNotHireReason = nil
	}
	opp.PipelineID = target.Pipeline
	opp.StageID = target.ID
	opp.UpdatedAt = now
	if err := tx.UpdateOpportunityPlacement(ctx, opp); err != nil {
		return Transition{}, err
	}

	return s.enterStage(ctx, tx, opp, &previous, target, now, automated)
}

func (s *Service) enterStage(ctx context.Context, tx repository.Store, opp domain.Opportunity, from *domain.PipelineStage, stage domain.PipelineStage, now time.Time, automated bool) (Transition, error) {
	tasks, err := s.onStageEnter(ctx, tx, opp, stage, now)
	if err != nil {
		return Transition{}, err
	}

	ids := taskIDs(tasks)
	change := domain.StageChange{
		ID:            uuid.New(),
		OpportunityID: opp.ID,
		NewStage:      stage.Name,
		NewStageID:    stage.ID,
		TaskIDs:       ids,
		CreatedAt:     now,
	}
	if from != nil {
		name, id := from.Name, from.ID
		change.PreviousStage = &name
		change.PreviousStageID = &id
	}
	if err := tx.CreateStageChange(ctx, change); err != nil {
		return Transition{}, err
	}

	stored, err := tx.ListTasksByIDs(ctx, ids)
	if err != nil {
		return Transition{}, err
	}
	if len(stored) != len(ids) {
		return Transition{}, apperr.Integrity(
			fmt.Sprintf("stage change references %d tasks but %d were stored", len(ids), len(stored)),
		).WithOp("moveToPipeline")
	}

	return Transition{
		Opportunity: opp,
		From:        from,
		Stage:       stage,
		Change:      change,
		Tasks:       tasks,
		Automated:   automated,
	}, nil
}

// Rollback undoes a stage change inside the grace window: the change's
// pending tasks are deleted, the previous stage is restored and the ledger
// row is removed.
func (s *Service) Rollback(ctx context.Context, stageChangeID uuid.UUID) (domain.Opportunity, error) {
	var (
		opp     domain.Opportunity
		change  domain.StageChange
		deleted int64
		prev    domain.PipelineStage
	)

	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		change, err = tx.GetStageChangeForUpdate(ctx, stageChangeID)
		if err != nil {
			return err
		}
		tasks, err := tx.ListTasksByIDs(ctx, change.TaskIDs)
		if err != nil {
			return err
		}
		latest, err := tx.GetLatestStageChange(ctx, change.OpportunityID)
		if err != nil {
			return err
		}
		opp, err = tx.GetOpportunityForUpdate(ctx, change.OpportunityID)
		if err != nil {
			return err
		}

		now := s.now()
		guard := domain.CanRollback(domain.RollbackContext{
			Change:         change,
			Tasks:          tasks,
			LatestChangeID: latest.ID,
			Opportunity:    opp,
			Now:            now,
			GracePeriod:    s.cfg.GetRollbackGracePeriod(),
		})
		if !guard.Allowed {
			return apperr.Conflict(guard.Reason).WithOp("rollback")
		}

		prev, err = tx.GetStage(ctx, *change.PreviousStageID)
		if err != nil {
			return err
		}
		if deleted, err = tx.DeleteTasks(ctx, change.TaskIDs); err != nil {
			return err
		}

		opp.PipelineID = prev.Pipeline
		opp.StageID = prev.ID
		opp.UpdatedAt = now
		if prev.Pipeline != s.cfg.GetDidNotHirePipeline() {
			opp.DidNotHireAt = nil
			opp.DidNotHireReason = nil
		}
		if err := tx.UpdateOpportunityPlacement(ctx, opp); err != nil {
			return err
		}
		return tx.DeleteStageChange(ctx, change.ID)
	})
	if err != nil {
		return domain.Opportunity{}, err
	}

	s.log.WithContext(ctx).Info("stage change rolled back",
		"opportunity_id", opp.ID,
		"stage_change_id", change.ID,
		"restored_stage", prev.Name,
		"deleted_tasks", deleted,
	)
	s.bus.Publish(ctx, events.StageChangeRolledBack{
		BaseEvent:      events.NewBaseEventAt(s.now()),
		OpportunityID:  opp.ID,
		StageChangeID:  change.ID,
		RestoredStage:  prev.Name,
		DeletedTaskIDs: deleted,
	})
	return opp, nil
}

// ListStageChanges returns an opportunity's stage history, newest first.
func (s *Service) ListStageChanges(ctx context.Context, opportunityID uuid.UUID) ([]domain.StageChange, error) {
	if _, err := s.repo.GetOpportunity(ctx, opportunityID); err != nil {
		return nil, err
	}
	return s.repo.ListStageChanges(ctx, opportunityID)
}
