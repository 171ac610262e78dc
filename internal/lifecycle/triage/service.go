// Package triage runs the lead triage workflow: intake submission with
// duplicate detection and the user actions that move a lead between
// pending, duplicate, accepted and ignored.
package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/pipeline"
	"legal_intake_backend/internal/lifecycle/repository"
	"legal_intake_backend/internal/lifecycle/transport"
	"legal_intake_backend/platform/apperr"
	"legal_intake_backend/platform/config"
	"legal_intake_backend/platform/logger"
	"legal_intake_backend/platform/phone"
	"legal_intake_backend/platform/sanitize"

	"github.com/google/uuid"
)

const statusDeleted = "deleted"

// StageMover places a freshly created opportunity on its first stage.
type StageMover interface {
	EnterInitialStage(ctx context.Context, tx repository.Store, opp domain.Opportunity, now time.Time) (pipeline.Transition, error)
	Announce(ctx context.Context, t pipeline.Transition)
}

// Service provides the lead triage operations.
type Service struct {
	repo  repository.Repository
	mover StageMover
	bus   events.Bus
	cfg   config.LifecycleConfig
	log   *logger.Logger
	now   func() time.Time
}

// New creates a new triage service.
func New(repo repository.Repository, mover StageMover, bus events.Bus, cfg config.LifecycleConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:  repo,
		mover: mover,
		bus:   bus,
		cfg:   cfg,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// AcceptResult is returned by Accept.
type AcceptResult struct {
	Lead        domain.Intake
	Contact     domain.Contact
	Opportunity domain.Opportunity
}

// Submit stores a new intake submission as pending, or as duplicate when it
// matches an existing contact.
func (s *Service) Submit(ctx context.Context, req transport.SubmitIntakeRequest) (domain.Intake, error) {
	now := s.now()
	in := domain.Intake{
		ID:        uuid.New(),
		FirstName: sanitize.Name(req.FirstName),
		LastName:  sanitize.Name(req.LastName),
		Email:     cleanEmail(req.Email),
		Phone:     cleanPhone(req.Phone),
		CaseType:  sanitize.Optional(req.CaseType),
		Message:   sanitize.Optional(req.Message),
		Source:    sanitize.Optional(req.Source),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.FirstName == "" {
		return domain.Intake{}, apperr.Validation("firstName is required").WithOp("submitIntake")
	}
	if in.Email == nil && in.Phone == nil {
		return domain.Intake{}, apperr.Validation("an email address or phone number is required").WithOp("submitIntake")
	}

	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		if err := rematch(ctx, tx, &in); err != nil {
			return err
		}
		return tx.CreateIntake(ctx, in)
	})
	if err != nil {
		return domain.Intake{}, err
	}

	s.log.WithContext(ctx).LeadTriage(in.ID.String(), "submitIntake", "", string(in.LeadStatus))
	s.bus.Publish(ctx, events.LeadSubmitted{
		BaseEvent: events.NewBaseEventAt(s.now()),
		IntakeID:  in.ID,
		Status:    string(in.LeadStatus),
		ContactID: in.DuplicateOfContactID,
	})
	return in, nil
}

// Accept turns a pending lead into a contact and an opportunity placed on
// the first stage of the intake pipeline.
func (s *Service) Accept(ctx context.Context, id uuid.UUID) (AcceptResult, error) {
	var (
		result     AcceptResult
		transition pipeline.Transition
		from       domain.LeadStatus
	)

	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		in, err := tx.GetIntakeForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = in.LeadStatus
		if guard := domain.CanTriage(domain.ActionAccept, in.LeadStatus); !guard.Allowed {
			return apperr.Conflict(guard.Reason).WithOp(string(domain.ActionAccept))
		}

		intakePipeline := s.cfg.GetIntakePipeline()
		stages, err := tx.ListPipelineStages(ctx, intakePipeline)
		if err != nil {
			return err
		}
		initial, ok := domain.InitialStage(stages, intakePipeline)
		if !ok {
			return apperr.Integrity(fmt.Sprintf("intake pipeline %q has no stages", intakePipeline)).WithOp(string(domain.ActionAccept))
		}

		now := s.now()
		contact := domain.Contact{
			ID:        uuid.New(),
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Phone:     in.Phone,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateContact(ctx, contact); err != nil {
			return err
		}

		intakeID := in.ID
		opp := domain.Opportunity{
			ID:         uuid.New(),
			ContactID:  contact.ID,
			IntakeID:   &intakeID,
			Title:      opportunityTitle(in),
			PipelineID: initial.Pipeline,
			StageID:    initial.ID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.CreateOpportunity(ctx, opp); err != nil {
			return err
		}

		transition, err = s.mover.EnterInitialStage(ctx, tx, opp, now)
		if err != nil {
			return err
		}

		contactID, oppID := contact.ID, opp.ID
		in.LeadStatus = domain.LeadStatusAccepted
		in.ContactID = &contactID
		in.OpportunityID = &oppID
		in.UpdatedAt = now
		if err := tx.UpdateIntake(ctx, in); err != nil {
			return err
		}

		result = AcceptResult{Lead: in, Contact: contact, Opportunity: transition.Opportunity}
		return nil
	})
	if err != nil {
		return AcceptResult{}, err
	}

	s.mover.Announce(ctx, transition)
	s.announce(ctx, result.Lead.ID, domain.ActionAccept, from, string(result.Lead.LeadStatus))
	s.bus.Publish(ctx, events.LeadAccepted{
		BaseEvent:     events.NewBaseEventAt(s.now()),
		IntakeID:      result.Lead.ID,
		ContactID:     result.Contact.ID,
		OpportunityID: result.Opportunity.ID,
	})
	return result, nil
}

// Ignore parks a pending lead.
func (s *Service) Ignore(ctx context.Context, id uuid.UUID) (domain.Intake, error) {
	return s.apply(ctx, id, domain.ActionIgnore, func(_ context.Context, _ repository.Store, in *domain.Intake) (bool, error) {
		in.LeadStatus = domain.LeadStatusIgnored
		return true, nil
	})
}

// Restore returns an ignored lead to pending without re-matching. Restoring
// a pending lead changes nothing.
func (s *Service) Restore(ctx context.Context, id uuid.UUID) (domain.Intake, error) {
	return s.apply(ctx, id, domain.ActionRestore, func(_ context.Context, _ repository.Store, in *domain.Intake) (bool, error) {
		if in.LeadStatus == domain.LeadStatusPending {
			return false, nil
		}
		in.LeadStatus = domain.LeadStatusPending
		return true, nil
	})
}

// UpdateDuplicateEmail replaces a duplicate lead's email and re-runs
// duplicate detection.
func (s *Service) UpdateDuplicateEmail(ctx context.Context, id uuid.UUID, email string) (domain.Intake, error) {
	cleaned := cleanEmail(&email)
	if cleaned == nil {
		return domain.Intake{}, apperr.Validation("email is required").WithOp(string(domain.ActionUpdateEmail))
	}
	return s.apply(ctx, id, domain.ActionUpdateEmail, func(ctx context.Context, tx repository.Store, in *domain.Intake) (bool, error) {
		in.Email = cleaned
		return true, rematch(ctx, tx, in)
	})
}

// UpdateDuplicatePhone replaces a duplicate lead's phone and re-runs
// duplicate detection.
func (s *Service) UpdateDuplicatePhone(ctx context.Context, id uuid.UUID, phoneNumber string) (domain.Intake, error) {
	cleaned := cleanPhone(&phoneNumber)
	if cleaned == nil {
		return domain.Intake{}, apperr.Validation("phone is required").WithOp(string(domain.ActionUpdatePhone))
	}
	return s.apply(ctx, id, domain.ActionUpdatePhone, func(ctx context.Context, tx repository.Store, in *domain.Intake) (bool, error) {
		in.Phone = cleaned
		return true, rematch(ctx, tx, in)
	})
}

// CreateAsNewLead overrides duplicate detection and treats the lead as a
// distinct contact.
func (s *Service) CreateAsNewLead(ctx context.Context, id uuid.UUID) (domain.Intake, error) {
	return s.apply(ctx, id, domain.ActionCreateAsNew, func(_ context.Context, _ repository.Store, in *domain.Intake) (bool, error) {
		in.LeadStatus = domain.LeadStatusPending
		in.ClearDuplicateMarkers()
		return true, nil
	})
}

// RemoveDuplicate hard-deletes a duplicate lead. A lead that any other
// record still references is never deleted.
func (s *Service) RemoveDuplicate(ctx context.Context, id uuid.UUID) error {
	var from domain.LeadStatus
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		in, err := tx.GetIntakeForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = in.LeadStatus
		if guard := domain.CanTriage(domain.ActionRemoveDuplicate, in.LeadStatus); !guard.Allowed {
			return apperr.Conflict(guard.Reason).WithOp(string(domain.ActionRemoveDuplicate))
		}

		refs, err := tx.CountIntakeReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return apperr.Integrity(fmt.Sprintf("lead is still referenced by %d records", refs)).WithOp(string(domain.ActionRemoveDuplicate))
		}
		return tx.DeleteIntake(ctx, id)
	})
	if err != nil {
		return err
	}

	s.announce(ctx, id, domain.ActionRemoveDuplicate, from, statusDeleted)
	return nil
}

// ListPending returns pending leads, newest first.
func (s *Service) ListPending(ctx context.Context, limit int) ([]domain.Intake, int, error) {
	return s.list(ctx, domain.LeadStatusPending, limit)
}

// ListIgnored returns ignored leads, newest first.
func (s *Service) ListIgnored(ctx context.Context, limit int) ([]domain.Intake, int, error) {
	return s.list(ctx, domain.LeadStatusIgnored, limit)
}

// ListDuplicates returns duplicate leads, newest first.
func (s *Service) ListDuplicates(ctx context.Context, limit int) ([]domain.Intake, int, error) {
	return s.list(ctx, domain.LeadStatusDuplicate, limit)
}

// ListByStatus returns leads in status; the effective limit is returned
// alongside.
func (s *Service) ListByStatus(ctx context.Context, status domain.LeadStatus, limit int) ([]domain.Intake, int, error) {
	return s.list(ctx, status, limit)
}

func (s *Service) list(ctx context.Context, status domain.LeadStatus, limit int) ([]domain.Intake, int, error) {
	limit = s.clampLimit(limit)
	leads, err := s.repo.ListIntakeByStatus(ctx, status, limit)
	if err != nil {
		return nil, 0, err
	}
	return leads, limit, nil
}

// clampLimit maps a missing or oversized limit to the configured maximum.
func (s *Service) clampLimit(limit int) int {
	maxLimit := s.cfg.GetLeadListMaxLimit()
	if limit <= 0 || limit > maxLimit {
		return maxLimit
	}
	return limit
}

// apply runs one guarded triage action on a locked lead. mutate reports
// whether it changed anything; unchanged leads are not written.
func (s *Service) apply(ctx context.Context, id uuid.UUID, action domain.TriageAction, mutate func(context.Context, repository.Store, *domain.Intake) (bool, error)) (domain.Intake, error) {
	var (
		in      domain.Intake
		from    domain.LeadStatus
		changed bool
	)

	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		in, err = tx.GetIntakeForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = in.LeadStatus
		if guard := domain.CanTriage(action, in.LeadStatus); !guard.Allowed {
			return apperr.Conflict(guard.Reason).WithOp(string(action))
		}

		changed, err = mutate(ctx, tx, &in)
		if err != nil || !changed {
			return err
		}
		in.UpdatedAt = s.now()
		return tx.UpdateIntake(ctx, in)
	})
	if err != nil {
		return domain.Intake{}, err
	}

	if changed {
		s.announce(ctx, in.ID, action, from, string(in.LeadStatus))
	}
	return in, nil
}

func (s *Service) announce(ctx context.Context, id uuid.UUID, action domain.TriageAction, from domain.LeadStatus, to string) {
	s.log.WithContext(ctx).LeadTriage(id.String(), string(action), string(from), to)
	s.bus.Publish(ctx, events.LeadTriaged{
		BaseEvent: events.NewBaseEventAt(s.now()),
		IntakeID:  id,
		Action:    string(action),
		From:      string(from),
		To:        to,
	})
}

// rematch runs duplicate detection for in against the stored contacts.
func rematch(ctx context.Context, tx repository.Store, in *domain.Intake) error {
	contacts, err := tx.FindContactsByEmailOrPhone(ctx, domain.NormalizeEmail(in.Email), domain.PhoneDigitForms(in.Phone))
	if err != nil {
		return err
	}
	in.ApplyMatch(domain.MatchContacts(domain.Candidate{Email: in.Email, Phone: in.Phone}, contacts))
	return nil
}

func cleanEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*email)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// cleanPhone stores numbers in E.164 when they parse.
func cleanPhone(p *string) *string {
	if p == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*p)
	if phone.Digits(normalized) == "" {
		return nil
	}
	return &normalized
}

func opportunityTitle(in domain.Intake) string {
	name := strings.TrimSpace(in.FirstName + " " + in.LastName)
	if in.CaseType != nil && *in.CaseType != "" {
		return name + " - " + *in.CaseType
	}
	return name
}
