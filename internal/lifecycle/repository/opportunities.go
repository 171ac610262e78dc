package repository

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

const opportunityColumns = `id, contact_id, intake_id, title, pipeline_id, stage_id, did_not_hire_at,
	did_not_hire_reason, created_at, updated_at`

func scanOpportunity(row scanner) (domain.Opportunity, error) {
	var o domain.Opportunity
	err := row.Scan(&o.ID, &o.ContactID, &o.IntakeID, &o.Title, &o.PipelineID, &o.StageID, &o.DidNotHireAt,
		&o.DidNotHireReason, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *PgRepository) CreateOpportunity(ctx context.Context, o domain.Opportunity) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO opportunities (`+opportunityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, o.ID, o.ContactID, o.IntakeID, o.Title, o.PipelineID, o.StageID, o.DidNotHireAt,
		o.DidNotHireReason, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create opportunity: %w", err)
	}
	return nil
}

func (r *PgRepository) GetOpportunity(ctx context.Context, id uuid.UUID) (domain.Opportunity, error) {
	o, err := scanOpportunity(r.q.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id))
	if err != nil {
		return domain.Opportunity{}, notFound(err, "opportunity", "getOpportunity")
	}
	return o, nil
}

// GetOpportunityForUpdate loads an opportunity and locks its row. Every
// operation touching an opportunity serializes on this lock.
func (r *PgRepository) GetOpportunityForUpdate(ctx context.Context, id uuid.UUID) (domain.Opportunity, error) {
	o, err := scanOpportunity(r.q.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Opportunity{}, notFound(err, "opportunity", "getOpportunityForUpdate")
	}
	return o, nil
}

func (r *PgRepository) UpdateOpportunityPlacement(ctx context.Context, o domain.Opportunity) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE opportunities
		SET pipeline_id = $2, stage_id = $3, did_not_hire_at = $4, did_not_hire_reason = $5, updated_at = $6
		WHERE id = $1
	`, o.ID, o.PipelineID, o.StageID, o.DidNotHireAt, o.DidNotHireReason, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update opportunity placement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgxNoRows, "opportunity", "updateOpportunityPlacement")
	}
	return nil
}

func (r *PgRepository) CountIntakeReferences(ctx context.Context, intakeID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM opportunities WHERE intake_id = $1`, intakeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count intake references: %w", err)
	}
	return n, nil
}
