package repository

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

const stageChangeColumns = `id, opportunity_id, previous_stage, previous_stage_id, new_stage, new_stage_id, task_ids, created_at`

func scanStageChange(row scanner) (domain.StageChange, error) {
	var sc domain.StageChange
	err := row.Scan(&sc.ID, &sc.OpportunityID, &sc.PreviousStage, &sc.PreviousStageID, &sc.NewStage, &sc.NewStageID,
		&sc.TaskIDs, &sc.CreatedAt)
	if sc.TaskIDs == nil {
		sc.TaskIDs = []uuid.UUID{}
	}
	return sc, err
}

func (r *PgRepository) CreateStageChange(ctx context.Context, sc domain.StageChange) error {
	taskIDs := sc.TaskIDs
	if taskIDs == nil {
		taskIDs = []uuid.UUID{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stage_changes (`+stageChangeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sc.ID, sc.OpportunityID, sc.PreviousStage, sc.PreviousStageID, sc.NewStage, sc.NewStageID, taskIDs, sc.CreatedAt)
	if err != nil {
		return fmt.Errorf("create stage change: %w", err)
	}
	return nil
}

func (r *PgRepository) GetStageChangeForUpdate(ctx context.Context, id uuid.UUID) (domain.StageChange, error) {
	sc, err := scanStageChange(r.q.QueryRow(ctx, `SELECT `+stageChangeColumns+` FROM stage_changes WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.StageChange{}, notFound(err, "stage change", "getStageChangeForUpdate")
	}
	return sc, nil
}

func (r *PgRepository) GetLatestStageChange(ctx context.Context, opportunityID uuid.UUID) (domain.StageChange, error) {
	sc, err := scanStageChange(r.q.QueryRow(ctx, `
		SELECT `+stageChangeColumns+`
		FROM stage_changes
		WHERE opportunity_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, opportunityID))
	if err != nil {
		return domain.StageChange{}, notFound(err, "stage change", "getLatestStageChange")
	}
	return sc, nil
}

func (r *PgRepository) ListStageChanges(ctx context.Context, opportunityID uuid.UUID) ([]domain.StageChange, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+stageChangeColumns+`
		FROM stage_changes
		WHERE opportunity_id = $1
		ORDER BY created_at DESC, id DESC
	`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list stage changes: %w", err)
	}
	changes, err := collect(rows, scanStageChange)
	if err != nil {
		return nil, fmt.Errorf("list stage changes: %w", err)
	}
	return changes, nil
}

func (r *PgRepository) DeleteStageChange(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stage_changes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stage change: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgxNoRows, "stage change", "deleteStageChange")
	}
	return nil
}
