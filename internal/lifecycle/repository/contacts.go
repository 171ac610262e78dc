package repository

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

const contactColumns = `id, first_name, last_name, email, phone, created_at, updated_at`

func scanContact(row scanner) (domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *PgRepository) CreateContact(ctx context.Context, c domain.Contact) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO contacts (id, first_name, last_name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *PgRepository) GetContact(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	c, err := scanContact(r.q.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if err != nil {
		return domain.Contact{}, notFound(err, "contact", "getContact")
	}
	return c, nil
}

func (r *PgRepository) FindContactsByEmailOrPhone(ctx context.Context, email string, phoneDigits []string) ([]domain.Contact, error) {
	if email == "" && len(phoneDigits) == 0 {
		return []domain.Contact{}, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE ($1 <> '' AND email_normalized = $1)
		   OR (phone_digits <> '' AND phone_digits = ANY($2::text[]))
		ORDER BY updated_at DESC, id ASC
	`, email, phoneDigits)
	if err != nil {
		return nil, fmt.Errorf("find contacts by email or phone: %w", err)
	}
	contacts, err := collect(rows, scanContact)
	if err != nil {
		return nil, fmt.Errorf("find contacts by email or phone: %w", err)
	}
	return contacts, nil
}
