package repository

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/lifecycle/domain"
)

const mappingColumns = `id, source_stage_name, source_stage_key, source_pipeline_id, target_pipeline_id,
	target_stage_name, target_stage_key, is_active, created_at`

func scanMapping(row scanner) (domain.StageCompletionMapping, error) {
	var m domain.StageCompletionMapping
	err := row.Scan(&m.ID, &m.SourceStageName, &m.SourceStageKey, &m.SourcePipelineID, &m.TargetPipelineID,
		&m.TargetStageName, &m.TargetStageKey, &m.IsActive, &m.CreatedAt)
	return m, err
}

func (r *PgRepository) ListMappingsForStage(ctx context.Context, stage domain.PipelineStage) ([]domain.StageCompletionMapping, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+mappingColumns+`
		FROM stage_completion_mappings
		WHERE is_active
		  AND (source_stage_key = $1 OR (source_stage_key = '' AND lower(btrim(source_stage_name)) = lower(btrim($2))))
		ORDER BY created_at ASC
	`, stage.Key, stage.Name)
	if err != nil {
		return nil, fmt.Errorf("list mappings for stage: %w", err)
	}
	mappings, err := collect(rows, scanMapping)
	if err != nil {
		return nil, fmt.Errorf("list mappings for stage: %w", err)
	}
	return mappings, nil
}

func (r *PgRepository) ListMappings(ctx context.Context) ([]domain.StageCompletionMapping, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+mappingColumns+`
		FROM stage_completion_mappings
		ORDER BY source_stage_name ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	mappings, err := collect(rows, scanMapping)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return mappings, nil
}

func (r *PgRepository) CreateMapping(ctx context.Context, m domain.StageCompletionMapping) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stage_completion_mappings (`+mappingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ID, m.SourceStageName, m.SourceStageKey, m.SourcePipelineID, m.TargetPipelineID,
		m.TargetStageName, m.TargetStageKey, m.IsActive, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create mapping: %w", err)
	}
	return nil
}

// UpsertMapping inserts m or overwrites the row with the same id, keeping
// its is_active flag.
func (r *PgRepository) UpsertMapping(ctx context.Context, m domain.StageCompletionMapping) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stage_completion_mappings (`+mappingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			source_stage_name = EXCLUDED.source_stage_name,
			source_stage_key = EXCLUDED.source_stage_key,
			source_pipeline_id = EXCLUDED.source_pipeline_id,
			target_pipeline_id = EXCLUDED.target_pipeline_id,
			target_stage_name = EXCLUDED.target_stage_name,
			target_stage_key = EXCLUDED.target_stage_key
	`, m.ID, m.SourceStageName, m.SourceStageKey, m.SourcePipelineID, m.TargetPipelineID,
		m.TargetStageName, m.TargetStageKey, m.IsActive, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert mapping: %w", err)
	}
	return nil
}
