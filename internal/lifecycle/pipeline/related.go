package pipeline

import (
	"context"

	"legal_intake_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// OpportunityDetail is an opportunity with every record attached to it.
type OpportunityDetail struct {
	Opportunity  domain.Opportunity
	Stage        domain.PipelineStage
	Contact      domain.Contact
	Tasks        []domain.Task
	Appointments []domain.Appointment
	Documents    []domain.Document
	Invoices     []domain.Invoice
}

// GetWithRelated loads an opportunity and its related records. The related
// reads run concurrently on the pool.
func (s *Service) GetWithRelated(ctx context.Context, opportunityID uuid.UUID) (OpportunityDetail, error) {
	opp, err := s.repo.GetOpportunity(ctx, opportunityID)
	if err != nil {
		return OpportunityDetail{}, err
	}

	detail := OpportunityDetail{Opportunity: opp}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail.Stage, err = s.repo.GetStage(gctx, opp.StageID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Contact, err = s.repo.GetContact(gctx, opp.ContactID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Tasks, err = s.repo.ListTasksByOpportunity(gctx, opp.ID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Appointments, err = s.repo.ListAppointments(gctx, opp.ID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Documents, err = s.repo.ListDocuments(gctx, opp.ID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Invoices, err = s.repo.ListInvoices(gctx, opp.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return OpportunityDetail{}, err
	}

	s.linkDocuments(ctx, detail.Documents)
	return detail, nil
}

// linkDocuments fills DownloadURL where the linker can produce one. A
// failing link leaves the document without a URL.
func (s *Service) linkDocuments(ctx context.Context, docs []domain.Document) {
	if s.linker == nil {
		return
	}
	for i := range docs {
		url, err := s.linker.DocumentURL(ctx, docs[i].ObjectKey)
		if err != nil {
			s.log.WithContext(ctx).Warn("document link failed", "document_id", docs[i].ID, "error", err)
			continue
		}
		docs[i].DownloadURL = &url
	}
}
