package repository

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

const stageColumns = `id, pipeline, name, key, "order", created_at`

func scanStage(row scanner) (domain.PipelineStage, error) {
	var s domain.PipelineStage
	err := row.Scan(&s.ID, &s.Pipeline, &s.Name, &s.Key, &s.Order, &s.CreatedAt)
	return s, err
}

func (r *PgRepository) ListStages(ctx context.Context) ([]domain.PipelineStage, error) {
	rows, err := r.q.Query(ctx, `SELECT `+stageColumns+` FROM pipeline_stages ORDER BY pipeline ASC, "order" ASC`)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	stages, err := collect(rows, scanStage)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	return stages, nil
}

func (r *PgRepository) ListPipelineStages(ctx context.Context, pipeline string) ([]domain.PipelineStage, error) {
	rows, err := r.q.Query(ctx, `SELECT `+stageColumns+` FROM pipeline_stages WHERE pipeline = $1 ORDER BY "order" ASC`, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list pipeline stages: %w", err)
	}
	stages, err := collect(rows, scanStage)
	if err != nil {
		return nil, fmt.Errorf("list pipeline stages: %w", err)
	}
	return stages, nil
}

func (r *PgRepository) GetStage(ctx context.Context, id uuid.UUID) (domain.PipelineStage, error) {
	s, err := scanStage(r.q.QueryRow(ctx, `SELECT `+stageColumns+` FROM pipeline_stages WHERE id = $1`, id))
	if err != nil {
		return domain.PipelineStage{}, notFound(err, "pipeline stage", "getStage")
	}
	return s, nil
}

// UpsertStage inserts a stage or moves the stage with the same (pipeline,
// key) to s.Order. An existing name is kept so admin renames survive a
// re-seed. The stored row is returned.
func (r *PgRepository) UpsertStage(ctx context.Context, s domain.PipelineStage) (domain.PipelineStage, error) {
	out, err := scanStage(r.q.QueryRow(ctx, `
		INSERT INTO pipeline_stages (id, pipeline, name, key, "order", created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pipeline, key) DO UPDATE
		SET "order" = EXCLUDED."order"
		RETURNING `+stageColumns+`
	`, s.ID, s.Pipeline, s.Name, s.Key, s.Order, s.CreatedAt))
	if err != nil {
		return domain.PipelineStage{}, fmt.Errorf("upsert stage: %w", err)
	}
	return out, nil
}

func (r *PgRepository) RenameStage(ctx context.Context, id uuid.UUID, name string) (domain.PipelineStage, error) {
	s, err := scanStage(r.q.QueryRow(ctx, `
		UPDATE pipeline_stages SET name = $2 WHERE id = $1
		RETURNING `+stageColumns+`
	`, id, name))
	if err != nil {
		return domain.PipelineStage{}, notFound(err, "pipeline stage", "renameStage")
	}
	return s, nil
}

func (r *PgRepository) RefreshStageNameCache(ctx context.Context, stage domain.PipelineStage, oldName string) error {
	if _, err := r.q.Exec(ctx, `
		UPDATE task_templates
		SET stage_name = $1, stage_key = $2
		WHERE (pipeline_id IS NULL OR pipeline_id = $3)
		  AND (stage_key = $2 OR (stage_key = '' AND lower(btrim(stage_name)) = lower(btrim($4))))
	`, stage.Name, stage.Key, stage.Pipeline, oldName); err != nil {
		return fmt.Errorf("refresh template stage names: %w", err)
	}

	if _, err := r.q.Exec(ctx, `
		UPDATE stage_completion_mappings
		SET source_stage_name = $1, source_stage_key = $2
		WHERE (source_pipeline_id IS NULL OR source_pipeline_id = $3)
		  AND (source_stage_key = $2 OR (source_stage_key = '' AND lower(btrim(source_stage_name)) = lower(btrim($4))))
	`, stage.Name, stage.Key, stage.Pipeline, oldName); err != nil {
		return fmt.Errorf("refresh mapping source stage names: %w", err)
	}

	if _, err := r.q.Exec(ctx, `
		UPDATE stage_completion_mappings
		SET target_stage_name = $1, target_stage_key = $2
		WHERE target_pipeline_id = $3
		  AND (target_stage_key = $2 OR (target_stage_key = '' AND lower(btrim(target_stage_name)) = lower(btrim($4))))
	`, stage.Name, stage.Key, stage.Pipeline, oldName); err != nil {
		return fmt.Errorf("refresh mapping target stage names: %w", err)
	}
	return nil
}
