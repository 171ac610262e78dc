package repository

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

const templateColumns = `id, stage_name, stage_key, pipeline_id, task_number, task_name, task_description,
	due_date_value, due_date_unit, assigned_to, assigned_to_name, is_active, is_trigger, created_at`

func scanTemplate(row scanner) (domain.TaskTemplate, error) {
	var t domain.TaskTemplate
	err := row.Scan(&t.ID, &t.StageName, &t.StageKey, &t.PipelineID, &t.TaskNumber, &t.TaskName, &t.TaskDescription,
		&t.DueDateValue, &t.DueDateUnit, &t.AssignedTo, &t.AssignedToName, &t.IsActive, &t.IsTrigger, &t.CreatedAt)
	return t, err
}

func (r *PgRepository) ListTemplatesForStage(ctx context.Context, stage domain.PipelineStage) ([]domain.TaskTemplate, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+templateColumns+`
		FROM task_templates
		WHERE is_active
		  AND (pipeline_id IS NULL OR pipeline_id = $1)
		  AND (stage_key = $2 OR (stage_key = '' AND lower(btrim(stage_name)) = lower(btrim($3))))
		ORDER BY task_number ASC, created_at ASC
	`, stage.Pipeline, stage.Key, stage.Name)
	if err != nil {
		return nil, fmt.Errorf("list templates for stage: %w", err)
	}
	templates, err := collect(rows, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("list templates for stage: %w", err)
	}
	return templates, nil
}

func (r *PgRepository) ListTemplates(ctx context.Context) ([]domain.TaskTemplate, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+templateColumns+`
		FROM task_templates
		ORDER BY stage_name ASC, task_number ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	templates, err := collect(rows, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (r *PgRepository) CreateTemplate(ctx context.Context, t domain.TaskTemplate) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO task_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, t.ID, t.StageName, t.StageKey, t.PipelineID, t.TaskNumber, t.TaskName, t.TaskDescription,
		t.DueDateValue, t.DueDateUnit, t.AssignedTo, t.AssignedToName, t.IsActive, t.IsTrigger, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// UpsertTemplate inserts t or overwrites the row with the same id, keeping
// its is_active flag.
func (r *PgRepository) UpsertTemplate(ctx context.Context, t domain.TaskTemplate) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO task_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			stage_name = EXCLUDED.stage_name,
			stage_key = EXCLUDED.stage_key,
			pipeline_id = EXCLUDED.pipeline_id,
			task_number = EXCLUDED.task_number,
			task_name = EXCLUDED.task_name,
			task_description = EXCLUDED.task_description,
			due_date_value = EXCLUDED.due_date_value,
			due_date_unit = EXCLUDED.due_date_unit,
			assigned_to = EXCLUDED.assigned_to,
			assigned_to_name = EXCLUDED.assigned_to_name,
			is_trigger = EXCLUDED.is_trigger
	`, t.ID, t.StageName, t.StageKey, t.PipelineID, t.TaskNumber, t.TaskName, t.TaskDescription,
		t.DueDateValue, t.DueDateUnit, t.AssignedTo, t.AssignedToName, t.IsActive, t.IsTrigger, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	return nil
}

func (r *PgRepository) SetTemplateActive(ctx context.Context, id uuid.UUID, active bool) (domain.TaskTemplate, error) {
	t, err := scanTemplate(r.q.QueryRow(ctx, `
		UPDATE task_templates SET is_active = $2 WHERE id = $1
		RETURNING `+templateColumns, id, active))
	if err != nil {
		return domain.TaskTemplate{}, notFound(err, "task template", "setTemplateActive")
	}
	return t, nil
}
