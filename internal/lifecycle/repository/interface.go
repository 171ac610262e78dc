package repository

import (
	"context"

	"legal_intake_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces
// =====================================

// ContactStore reads and creates contacts.
type ContactStore interface {
	CreateContact(ctx context.Context, c domain.Contact) error
	GetContact(ctx context.Context, id uuid.UUID) (domain.Contact, error)
	// FindContactsByEmailOrPhone returns contacts whose normalized email
	// equals email or whose phone digits equal one of phoneDigits. Empty
	// inputs never match.
	FindContactsByEmailOrPhone(ctx context.Context, email string, phoneDigits []string) ([]domain.Contact, error)
}

// StageStore manages pipeline stage reference data.
type StageStore interface {
	ListStages(ctx context.Context) ([]domain.PipelineStage, error)
	ListPipelineStages(ctx context.Context, pipeline string) ([]domain.PipelineStage, error)
	GetStage(ctx context.Context, id uuid.UUID) (domain.PipelineStage, error)
	UpsertStage(ctx context.Context, s domain.PipelineStage) (domain.PipelineStage, error)
	RenameStage(ctx context.Context, id uuid.UUID, name string) (domain.PipelineStage, error)
	// RefreshStageNameCache rewrites the cached stage name on templates and
	// mappings that point at stage (by key, or by oldName when they carry
	// no key) and pins them to the stage key.
	RefreshStageNameCache(ctx context.Context, stage domain.PipelineStage, oldName string) error
}

// TemplateStore manages task templates.
type TemplateStore interface {
	// ListTemplatesForStage returns the active templates referencing stage
	// by key or by name. Callers still apply domain.ResolveTemplates.
	ListTemplatesForStage(ctx context.Context, stage domain.PipelineStage) ([]domain.TaskTemplate, error)
	ListTemplates(ctx context.Context) ([]domain.TaskTemplate, error)
	CreateTemplate(ctx context.Context, t domain.TaskTemplate) error
	UpsertTemplate(ctx context.Context, t domain.TaskTemplate) error
	SetTemplateActive(ctx context.Context, id uuid.UUID, active bool) (domain.TaskTemplate, error)
}

// TaskStore manages tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, t domain.Task) error
	GetTask(ctx context.Context, id uuid.UUID) (domain.Task, error)
	GetTaskForUpdate(ctx context.Context, id uuid.UUID) (domain.Task, error)
	UpdateTaskCompletion(ctx context.Context, t domain.Task) error
	ListTasksByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Task, error)
	ListTasksByOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]domain.Task, error)
	DeleteTasks(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// MappingStore manages stage completion mappings.
type MappingStore interface {
	// ListMappingsForStage returns the active mappings whose source
	// references stage by key or by name.
	ListMappingsForStage(ctx context.Context, stage domain.PipelineStage) ([]domain.StageCompletionMapping, error)
	ListMappings(ctx context.Context) ([]domain.StageCompletionMapping, error)
	CreateMapping(ctx context.Context, m domain.StageCompletionMapping) error
	UpsertMapping(ctx context.Context, m domain.StageCompletionMapping) error
}

// OpportunityStore manages opportunities.
type OpportunityStore interface {
	CreateOpportunity(ctx context.Context, o domain.Opportunity) error
	GetOpportunity(ctx context.Context, id uuid.UUID) (domain.Opportunity, error)
	GetOpportunityForUpdate(ctx context.Context, id uuid.UUID) (domain.Opportunity, error)
	// UpdateOpportunityPlacement persists pipeline, stage, did-not-hire
	// stamps and updatedAt.
	UpdateOpportunityPlacement(ctx context.Context, o domain.Opportunity) error
	// CountIntakeReferences counts rows outside the intake table that
	// reference intakeID.
	CountIntakeReferences(ctx context.Context, intakeID uuid.UUID) (int, error)
}

// StageChangeStore manages the stage change ledger.
type StageChangeStore interface {
	CreateStageChange(ctx context.Context, sc domain.StageChange) error
	GetStageChangeForUpdate(ctx context.Context, id uuid.UUID) (domain.StageChange, error)
	GetLatestStageChange(ctx context.Context, opportunityID uuid.UUID) (domain.StageChange, error)
	ListStageChanges(ctx context.Context, opportunityID uuid.UUID) ([]domain.StageChange, error)
	DeleteStageChange(ctx context.Context, id uuid.UUID) error
}

// IntakeStore manages intake submissions.
type IntakeStore interface {
	CreateIntake(ctx context.Context, in domain.Intake) error
	GetIntake(ctx context.Context, id uuid.UUID) (domain.Intake, error)
	GetIntakeForUpdate(ctx context.Context, id uuid.UUID) (domain.Intake, error)
	UpdateIntake(ctx context.Context, in domain.Intake) error
	DeleteIntake(ctx context.Context, id uuid.UUID) error
	ListIntakeByStatus(ctx context.Context, status domain.LeadStatus, limit int) ([]domain.Intake, error)
}

// RelatedReader reads collaborator records attached to an opportunity.
type RelatedReader interface {
	ListAppointments(ctx context.Context, opportunityID uuid.UUID) ([]domain.Appointment, error)
	ListDocuments(ctx context.Context, opportunityID uuid.UUID) ([]domain.Document, error)
	ListInvoices(ctx context.Context, opportunityID uuid.UUID) ([]domain.Invoice, error)
}

// Store is every lifecycle data operation. Inside WithinTx it is bound to
// one transaction.
type Store interface {
	ContactStore
	StageStore
	TemplateStore
	TaskStore
	MappingStore
	OpportunityStore
	StageChangeStore
	IntakeStore
	RelatedReader
}

// Repository is a Store that can open transactions. fn's Store is bound to
// the transaction; returning an error rolls everything back.
type Repository interface {
	Store
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
