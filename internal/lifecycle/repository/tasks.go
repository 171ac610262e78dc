package repository

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

const taskColumns = `id, opportunity_id, contact_id, task_template_id, stage_id, title, description,
	assigned_to, assigned_to_name, due_date, status, completed, completed_at, created_at, updated_at`

func scanTask(row scanner) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.OpportunityID, &t.ContactID, &t.TaskTemplateID, &t.StageID, &t.Title, &t.Description,
		&t.AssignedTo, &t.AssignedToName, &t.DueDate, &t.Status, &t.Completed, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *PgRepository) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, t.ID, t.OpportunityID, t.ContactID, t.TaskTemplateID, t.StageID, t.Title, t.Description,
		t.AssignedTo, t.AssignedToName, t.DueDate, t.Status, t.Completed, t.CompletedAt, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *PgRepository) GetTask(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	t, err := scanTask(r.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return domain.Task{}, notFound(err, "task", "getTask")
	}
	return t, nil
}

// GetTaskForUpdate loads a task and locks its row until the transaction ends.
func (r *PgRepository) GetTaskForUpdate(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	t, err := scanTask(r.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Task{}, notFound(err, "task", "getTaskForUpdate")
	}
	return t, nil
}

func (r *PgRepository) UpdateTaskCompletion(ctx context.Context, t domain.Task) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE tasks
		SET completed = $2, completed_at = $3, status = $4, updated_at = $5
		WHERE id = $1
	`, t.ID, t.Completed, t.CompletedAt, t.Status, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update task completion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgxNoRows, "task", "updateTaskCompletion")
	}
	return nil
}

func (r *PgRepository) ListTasksByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Task, error) {
	if len(ids) == 0 {
		return []domain.Task{}, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = ANY($1)
		ORDER BY created_at ASC, id ASC
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list tasks by ids: %w", err)
	}
	tasks, err := collect(rows, scanTask)
	if err != nil {
		return nil, fmt.Errorf("list tasks by ids: %w", err)
	}
	return tasks, nil
}

func (r *PgRepository) ListTasksByOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]domain.Task, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE opportunity_id = $1
		ORDER BY created_at ASC, id ASC
	`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by opportunity: %w", err)
	}
	tasks, err := collect(rows, scanTask)
	if err != nil {
		return nil, fmt.Errorf("list tasks by opportunity: %w", err)
	}
	return tasks, nil
}

func (r *PgRepository) DeleteTasks(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM tasks WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}
