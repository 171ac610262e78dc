package pipeline

import (
	"context"

	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/transport"
	"legal_intake_backend/platform/apperr"
	"legal_intake_backend/platform/sanitize"

	"github.com/google/uuid"
)

// CreateTask adds a manual task. Manual tasks never trigger a stage move.
// Without an explicit assignee the task goes to actor.
func (s *Service) CreateTask(ctx context.Context, actor uuid.UUID, req transport.CreateTaskRequest) (domain.Task, error) {
	title := sanitize.Text(req.Title)
	if title == "" {
		return domain.Task{}, apperr.Validation("title is required").WithOp("createTask")
	}

	now := s.now()
	task := domain.Task{
		ID:             uuid.New(),
		Title:          title,
		Description:    sanitize.Text(req.Description),
		AssignedTo:     sanitize.Optional(req.AssignedTo),
		AssignedToName: sanitize.Optional(req.AssignedToName),
		DueDate:        req.DueDate,
		Status:         domain.TaskStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if task.AssignedTo == nil && actor != uuid.Nil {
		assignee := actor.String()
		task.AssignedTo = &assignee
	}

	switch {
	case req.OpportunityID != nil:
		opp, err := s.repo.GetOpportunity(ctx, *req.OpportunityID)
		if err != nil {
			return domain.Task{}, err
		}
		oppID, contactID := opp.ID, opp.ContactID
		task.OpportunityID = &oppID
		task.ContactID = &contactID
	case req.ContactID != nil:
		contact, err := s.repo.GetContact(ctx, *req.ContactID)
		if err != nil {
			return domain.Task{}, err
		}
		contactID := contact.ID
		task.ContactID = &contactID
	default:
		return domain.Task{}, apperr.Validation("a task needs an opportunityId or a contactId").WithOp("createTask")
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	s.announceTask(ctx, task)
	return task, nil
}

// ListTasks returns an opportunity's tasks.
func (s *Service) ListTasks(ctx context.Context, opportunityID uuid.UUID) ([]domain.Task, error) {
	if _, err := s.repo.GetOpportunity(ctx, opportunityID); err != nil {
		return nil, err
	}
	return s.repo.ListTasksByOpportunity(ctx, opportunityID)
}
