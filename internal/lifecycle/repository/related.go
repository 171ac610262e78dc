package repository

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

func (r *PgRepository) ListAppointments(ctx context.Context, opportunityID uuid.UUID) ([]domain.Appointment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, opportunity_id, title, starts_at, ends_at, status
		FROM appointments
		WHERE opportunity_id = $1
		ORDER BY starts_at ASC
	`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	items, err := collect(rows, func(row scanner) (domain.Appointment, error) {
		var a domain.Appointment
		err := row.Scan(&a.ID, &a.OpportunityID, &a.Title, &a.StartsAt, &a.EndsAt, &a.Status)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return items, nil
}

func (r *PgRepository) ListDocuments(ctx context.Context, opportunityID uuid.UUID) ([]domain.Document, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, opportunity_id, name, object_key, content_type, created_at
		FROM documents
		WHERE opportunity_id = $1
		ORDER BY created_at ASC
	`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	items, err := collect(rows, func(row scanner) (domain.Document, error) {
		var d domain.Document
		err := row.Scan(&d.ID, &d.OpportunityID, &d.Name, &d.ObjectKey, &d.ContentType, &d.CreatedAt)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return items, nil
}

func (r *PgRepository) ListInvoices(ctx context.Context, opportunityID uuid.UUID) ([]domain.Invoice, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, opportunity_id, invoice_number, amount_cents, status, due_date, created_at
		FROM invoices
		WHERE opportunity_id = $1
		ORDER BY created_at ASC
	`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	items, err := collect(rows, func(row scanner) (domain.Invoice, error) {
		var inv domain.Invoice
		err := row.Scan(&inv.ID, &inv.OpportunityID, &inv.InvoiceNumber, &inv.AmountCents, &inv.Status, &inv.DueDate, &inv.CreatedAt)
		return inv, err
	})
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return items, nil
}
