package transport

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Pipeline requests
// =============================================================================

// MoveToPipelineRequest is the request body for moving an opportunity.
type MoveToPipelineRequest struct {
	PipelineID string    `json:"pipelineId" validate:"required,max=100"`
	StageID    uuid.UUID `json:"stageId" validate:"required"`
}

// RenameStageRequest is the request body for renaming a pipeline stage.
type RenameStageRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateTaskRequest is the request body for a manual task.
type CreateTaskRequest struct {
	OpportunityID  *uuid.UUID `json:"opportunityId,omitempty"`
	ContactID      *uuid.UUID `json:"contactId,omitempty"`
	Title          string     `json:"title" validate:"required,min=1,max=200"`
	Description    string     `json:"description,omitempty" validate:"max=2000"`
	AssignedTo     *string    `json:"assignedTo,omitempty" validate:"omitempty,max=100"`
	AssignedToName *string    `json:"assignedToName,omitempty" validate:"omitempty,max=200"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
}

// CreateTemplateRequest is the request body for a task template. The
// template follows the stage's stable key; ScopeToPipeline limits it to the
// stage's own pipeline.
type CreateTemplateRequest struct {
	StageID         uuid.UUID `json:"stageId" validate:"required"`
	ScopeToPipeline bool      `json:"scopeToPipeline"`
	TaskNumber      int       `json:"taskNumber" validate:"min=1"`
	TaskName        string    `json:"taskName" validate:"required,min=1,max=200"`
	TaskDescription string    `json:"taskDescription,omitempty" validate:"max=2000"`
	DueDateValue    int       `json:"dueDateValue" validate:"min=0"`
	DueDateUnit     string    `json:"dueDateUnit,omitempty" validate:"max=20"`
	AssignedTo      *string   `json:"assignedTo,omitempty" validate:"omitempty,max=100"`
	AssignedToName  *string   `json:"assignedToName,omitempty" validate:"omitempty,max=200"`
	IsTrigger       bool      `json:"isTrigger"`
}

// SetActiveRequest toggles a template on or off.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// CreateMappingRequest is the request body for a stage completion mapping.
type CreateMappingRequest struct {
	SourceStageID   uuid.UUID `json:"sourceStageId" validate:"required"`
	ScopeToPipeline bool      `json:"scopeToPipeline"`
	TargetStageID   uuid.UUID `json:"targetStageId" validate:"required"`
}

// =============================================================================
// Intake requests
// =============================================================================

// SubmitIntakeRequest is the public intake form body.
type SubmitIntakeRequest struct {
	FirstName string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string  `json:"lastName" validate:"max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone_digits"`
	CaseType  *string `json:"caseType,omitempty" validate:"omitempty,max=100"`
	Message   *string `json:"message,omitempty" validate:"omitempty,max=5000"`
	Source    *string `json:"source,omitempty" validate:"omitempty,max=100"`
}

// UpdateEmailRequest replaces a duplicate lead's email.
type UpdateEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// UpdatePhoneRequest replaces a duplicate lead's phone.
type UpdatePhoneRequest struct {
	Phone string `json:"phone" validate:"required,phone_digits"`
}

// ListLeadsRequest is the query string for lead lists.
type ListLeadsRequest struct {
	Limit int `form:"limit" validate:"min=0"`
}

// =============================================================================
// Responses
// =============================================================================

// StageResponse is a pipeline stage.
type StageResponse struct {
	ID       uuid.UUID `json:"id"`
	Pipeline string    `json:"pipeline"`
	Name     string    `json:"name"`
	Key      string    `json:"key"`
	Order    int       `json:"order"`
}

// ContactResponse is a contact.
type ContactResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OpportunityResponse is an opportunity.
type OpportunityResponse struct {
	ID               uuid.UUID  `json:"id"`
	ContactID        uuid.UUID  `json:"contactId"`
	IntakeID         *uuid.UUID `json:"intakeId,omitempty"`
	Title            string     `json:"title"`
	PipelineID       string     `json:"pipelineId"`
	StageID          uuid.UUID  `json:"stageId"`
	DidNotHireAt     *time.Time `json:"didNotHireAt,omitempty"`
	DidNotHireReason *string    `json:"didNotHireReason,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// TaskResponse is a task.
type TaskResponse struct {
	ID             uuid.UUID  `json:"id"`
	OpportunityID  *uuid.UUID `json:"opportunityId,omitempty"`
	ContactID      *uuid.UUID `json:"contactId,omitempty"`
	TaskTemplateID *uuid.UUID `json:"taskTemplateId,omitempty"`
	StageID        *uuid.UUID `json:"stageId,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	AssignedTo     *string    `json:"assignedTo,omitempty"`
	AssignedToName *string    `json:"assignedToName,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	Status         string     `json:"status"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// MovedTo names where a completion moved the opportunity.
type MovedTo struct {
	Pipeline string `json:"pipeline"`
	Stage    string `json:"stage"`
}

// ToggleCompleteResponse is the result of toggleComplete.
type ToggleCompleteResponse struct {
	Task             TaskResponse `json:"task"`
	OpportunityMoved bool         `json:"opportunityMoved"`
	MovedTo          *MovedTo     `json:"movedTo,omitempty"`
}

// StageChangeResponse is one stage change ledger row.
type StageChangeResponse struct {
	ID              uuid.UUID   `json:"id"`
	OpportunityID   uuid.UUID   `json:"opportunityId"`
	PreviousStage   *string     `json:"previousStage,omitempty"`
	PreviousStageID *uuid.UUID  `json:"previousStageId,omitempty"`
	NewStage        string      `json:"newStage"`
	NewStageID      uuid.UUID   `json:"newStageId"`
	TaskIDs         []uuid.UUID `json:"taskIds"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// AppointmentResponse is a read-only appointment.
type AppointmentResponse struct {
	ID       uuid.UUID  `json:"id"`
	Title    string     `json:"title"`
	StartsAt time.Time  `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt,omitempty"`
	Status   string     `json:"status"`
}

// DocumentResponse is a read-only document.
type DocumentResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContentType *string   `json:"contentType,omitempty"`
	DownloadURL *string   `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// InvoiceResponse is a read-only invoice.
type InvoiceResponse struct {
	ID            uuid.UUID  `json:"id"`
	InvoiceNumber string     `json:"invoiceNumber"`
	AmountCents   int64      `json:"amountCents"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// OpportunityDetailResponse is getWithRelated.
type OpportunityDetailResponse struct {
	Opportunity  OpportunityResponse   `json:"opportunity"`
	Stage        StageResponse         `json:"stage"`
	Contact      ContactResponse       `json:"contact"`
	Tasks        []TaskResponse        `json:"tasks"`
	Appointments []AppointmentResponse `json:"appointments"`
	Documents    []DocumentResponse    `json:"documents"`
	Invoices     []InvoiceResponse     `json:"invoices"`
}

// TemplateResponse is a task template.
type TemplateResponse struct {
	ID              uuid.UUID `json:"id"`
	StageName       string    `json:"stageName"`
	StageKey        string    `json:"stageKey"`
	PipelineID      *string   `json:"pipelineId,omitempty"`
	TaskNumber      int       `json:"taskNumber"`
	TaskName        string    `json:"taskName"`
	TaskDescription string    `json:"taskDescription"`
	DueDateValue    int       `json:"dueDateValue"`
	DueDateUnit     string    `json:"dueDateUnit"`
	AssignedTo      *string   `json:"assignedTo,omitempty"`
	AssignedToName  *string   `json:"assignedToName,omitempty"`
	IsActive        bool      `json:"isActive"`
	IsTrigger       bool      `json:"isTrigger"`
	CreatedAt       time.Time `json:"createdAt"`
}

// MappingResponse is a stage completion mapping.
type MappingResponse struct {
	ID               uuid.UUID `json:"id"`
	SourceStageName  string    `json:"sourceStageName"`
	SourceStageKey   string    `json:"sourceStageKey"`
	SourcePipelineID *string   `json:"sourcePipelineId,omitempty"`
	TargetPipelineID string    `json:"targetPipelineId"`
	TargetStageName  string    `json:"targetStageName"`
	TargetStageKey   string    `json:"targetStageKey"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
}

// LeadResponse is an intake lead.
type LeadResponse struct {
	ID                   uuid.UUID  `json:"id"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	Email                *string    `json:"email,omitempty"`
	Phone                *string    `json:"phone,omitempty"`
	CaseType             *string    `json:"caseType,omitempty"`
	Message              *string    `json:"message,omitempty"`
	Source               *string    `json:"source,omitempty"`
	LeadStatus           string     `json:"leadStatus"`
	DuplicateOfContactID *uuid.UUID `json:"duplicateOfContactId"`
	DuplicateMatchType   *string    `json:"duplicateMatchType"`
	ContactID            *uuid.UUID `json:"contactId,omitempty"`
	OpportunityID        *uuid.UUID `json:"opportunityId,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// LeadListResponse wraps a lead list.
type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Limit int            `json:"limit"`
}

// RemoveLeadResponse confirms a hard delete.
type RemoveLeadResponse struct {
	ID      uuid.UUID `json:"id"`
	Removed bool      `json:"removed"`
}

// MoveResponse is the result of a manual move.
type MoveResponse struct {
	Opportunity OpportunityResponse `json:"opportunity"`
	Stage       StageResponse       `json:"stage"`
	StageChange StageChangeResponse `json:"stageChange"`
	Tasks       []TaskResponse      `json:"tasks"`
}

// AcceptLeadResponse is the result of accepting a lead.
type AcceptLeadResponse struct {
	Lead        LeadResponse        `json:"lead"`
	Contact     ContactResponse     `json:"contact"`
	Opportunity OpportunityResponse `json:"opportunity"`
}
