package repository

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

const intakeColumns = `id, first_name, last_name, email, phone, case_type, message, source, lead_status,
	duplicate_of_contact_id, duplicate_match_type, contact_id, opportunity_id, created_at, updated_at`

func scanIntake(row scanner) (domain.Intake, error) {
	var (
		in        domain.Intake
		status    string
		matchType *string
	)
	err := row.Scan(&in.ID, &in.FirstName, &in.LastName, &in.Email, &in.Phone, &in.CaseType, &in.Message, &in.Source, &status,
		&in.DuplicateOfContactID, &matchType, &in.ContactID, &in.OpportunityID, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return domain.Intake{}, err
	}
	in.LeadStatus = domain.LeadStatus(status)
	if matchType != nil {
		mt := domain.MatchType(*matchType)
		in.DuplicateMatchType = &mt
	}
	return in, nil
}

func matchTypeArg(mt *domain.MatchType) *string {
	if mt == nil {
		return nil
	}
	s := string(*mt)
	return &s
}

func (r *PgRepository) CreateIntake(ctx context.Context, in domain.Intake) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO intake (`+intakeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, in.ID, in.FirstName, in.LastName, in.Email, in.Phone, in.CaseType, in.Message, in.Source, string(in.LeadStatus),
		in.DuplicateOfContactID, matchTypeArg(in.DuplicateMatchType), in.ContactID, in.OpportunityID, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create intake: %w", err)
	}
	return nil
}

func (r *PgRepository) GetIntake(ctx context.Context, id uuid.UUID) (domain.Intake, error) {
	in, err := scanIntake(r.q.QueryRow(ctx, `SELECT `+intakeColumns+` FROM intake WHERE id = $1`, id))
	if err != nil {
		return domain.Intake{}, notFound(err, "lead", "getIntake")
	}
	return in, nil
}

// GetIntakeForUpdate loads an intake and locks its row for triage.
func (r *PgRepository) GetIntakeForUpdate(ctx context.Context, id uuid.UUID) (domain.Intake, error) {
	in, err := scanIntake(r.q.QueryRow(ctx, `SELECT `+intakeColumns+` FROM intake WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Intake{}, notFound(err, "lead", "getIntakeForUpdate")
	}
	return in, nil
}

func (r *PgRepository) UpdateIntake(ctx context.Context, in domain.Intake) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE intake
		SET email = $2, phone = $3, lead_status = $4, duplicate_of_contact_id = $5, duplicate_match_type = $6,
			contact_id = $7, opportunity_id = $8, updated_at = $9
		WHERE id = $1
	`, in.ID, in.Email, in.Phone, string(in.LeadStatus), in.DuplicateOfContactID, matchTypeArg(in.DuplicateMatchType),
		in.ContactID, in.OpportunityID, in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update intake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgxNoRows, "lead", "updateIntake")
	}
	return nil
}

// DeleteIntake hard-deletes an intake. A foreign key still pointing at it
// surfaces as an integrity error.
func (r *PgRepository) DeleteIntake(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM intake WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Wrap(apperr.KindIntegrity, "lead is still referenced by other records", err).WithOp("deleteIntake")
		}
		return fmt.Errorf("delete intake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgxNoRows, "lead", "deleteIntake")
	}
	return nil
}

func (r *PgRepository) ListIntakeByStatus(ctx context.Context, status domain.LeadStatus, limit int) ([]domain.Intake, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+intakeColumns+`
		FROM intake
		WHERE lead_status = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list intake by status: %w", err)
	}
	items, err := collect(rows, scanIntake)
	if err != nil {
		return nil, fmt.Errorf("list intake by status: %w", err)
	}
	return items, nil
}
