// Package domain holds the lifecycle engine's entities and its pure rules:
// template resolution, due-date arithmetic, trigger detection, duplicate
// matching, lead triage transitions and rollback guards. Nothing in this
// package performs I/O.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact is the root identity record an opportunity belongs to.
type Contact struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Opportunity is a matter moving through pipeline stages. PipelineID is the
// pipeline name and must equal the pipeline of StageID.
type Opportunity struct {
	ID               uuid.UUID
	ContactID        uuid.UUID
	IntakeID         *uuid.UUID
	Title            string
	PipelineID       string
	StageID          uuid.UUID
	DidNotHireAt     *time.Time
	DidNotHireReason *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PipelineStage is an ordered step of a pipeline. Key is stable across
// renames; Name is what users see.
type PipelineStage struct {
	ID        uuid.UUID
	Pipeline  string
	Name      string
	Key       string
	Order     int
	CreatedAt time.Time
}

// TaskTemplate spawns one task whenever an opportunity enters its stage.
type TaskTemplate struct {
	ID              uuid.UUID
	StageName       string
	StageKey        string
	PipelineID      *string
	TaskNumber      int
	TaskName        string
	TaskDescription string
	DueDateValue    int
	DueDateUnit     string
	AssignedTo      *string
	AssignedToName  *string
	IsActive        bool
	IsTrigger       bool
	CreatedAt       time.Time
}

const (
	TaskStatusPending   = "Pending"
	TaskStatusCompleted = "Completed"
)

// Task is a unit of work, created by stage automation or by hand.
type Task struct {
	ID             uuid.UUID
	OpportunityID  *uuid.UUID
	ContactID      *uuid.UUID
	TaskTemplateID *uuid.UUID
	StageID        *uuid.UUID
	Title          string
	Description    string
	AssignedTo     *string
	AssignedToName *string
	DueDate        *time.Time
	Status         string
	Completed      bool
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ToggleCompletion flips the completion flag and keeps Status and
// CompletedAt in step with it. Applying it twice restores the flag.
func (t *Task) ToggleCompletion(now time.Time) {
	t.Completed = !t.Completed
	if t.Completed {
		t.Status = TaskStatusCompleted
		t.CompletedAt = &now
	} else {
		t.Status = TaskStatusPending
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
}

// StageCompletionMapping redirects an opportunity once the triggering task
// of its source stage is completed.
type StageCompletionMapping struct {
	ID               uuid.UUID
	SourceStageName  string
	SourceStageKey   string
	SourcePipelineID *string
	TargetPipelineID string
	TargetStageName  string
	TargetStageKey   string
	IsActive         bool
	CreatedAt        time.Time
}

// StageChange is the append-only ledger row written for every stage move.
type StageChange struct {
	ID              uuid.UUID
	OpportunityID   uuid.UUID
	PreviousStage   *string
	PreviousStageID *uuid.UUID
	NewStage        string
	NewStageID      uuid.UUID
	TaskIDs         []uuid.UUID
	CreatedAt       time.Time
}

// Intake is one inbound lead submission under triage.
type Intake struct {
	ID                   uuid.UUID
	FirstName            string
	LastName             string
	Email                *string
	Phone                *string
	CaseType             *string
	Message              *string
	Source               *string
	LeadStatus           LeadStatus
	DuplicateOfContactID *uuid.UUID
	DuplicateMatchType   *MatchType
	ContactID            *uuid.UUID
	OpportunityID        *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ApplyMatch sets the lead status and duplicate markers from a match
// result. Markers are only ever populated while the lead is a duplicate.
func (i *Intake) ApplyMatch(m MatchResult) {
	if m.IsDuplicate() {
		matchType := m.MatchType
		contactID := m.ContactID
		i.LeadStatus = LeadStatusDuplicate
		i.DuplicateMatchType = &matchType
		i.DuplicateOfContactID = &contactID
		return
	}
	i.LeadStatus = LeadStatusPending
	i.ClearDuplicateMarkers()
}

// ClearDuplicateMarkers removes the duplicate-of references.
func (i *Intake) ClearDuplicateMarkers() {
	i.DuplicateMatchType = nil
	i.DuplicateOfContactID = nil
}

// Appointment is a read-only collaborator record.
type Appointment struct {
	ID            uuid.UUID
	OpportunityID uuid.UUID
	Title         string
	StartsAt      time.Time
	EndsAt        *time.Time
	Status        string
}

// Document is a read-only collaborator record. DownloadURL is filled in
// by the storage adapter when one is configured.
type Document struct {
	ID            uuid.UUID
	OpportunityID uuid.UUID
	Name          string
	ObjectKey     string
	ContentType   *string
	CreatedAt     time.Time
	DownloadURL   *string
}

// Invoice is a read-only collaborator record.
type Invoice struct {
	ID            uuid.UUID
	OpportunityID uuid.UUID
	InvoiceNumber string
	AmountCents   int64
	Status        string
	DueDate       *time.Time
	CreatedAt     time.Time
}
