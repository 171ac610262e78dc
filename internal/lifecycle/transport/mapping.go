package transport

import (
	"legal_intake_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

// ToStageResponse converts a stage.
func ToStageResponse(s domain.PipelineStage) StageResponse {
	return StageResponse{ID: s.ID, Pipeline: s.Pipeline, Name: s.Name, Key: s.Key, Order: s.Order}
}

// ToStageResponses converts a stage list.
func ToStageResponses(stages []domain.PipelineStage) []StageResponse {
	out := make([]StageResponse, 0, len(stages))
	for _, s := range stages {
		out = append(out, ToStageResponse(s))
	}
	return out
}

func ToContactResponse(c domain.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func ToOpportunityResponse(o domain.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		ID:               o.ID,
		ContactID:        o.ContactID,
		IntakeID:         o.IntakeID,
		Title:            o.Title,
		PipelineID:       o.PipelineID,
		StageID:          o.StageID,
		DidNotHireAt:     o.DidNotHireAt,
		DidNotHireReason: o.DidNotHireReason,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func ToTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:             t.ID,
		OpportunityID:  t.OpportunityID,
		ContactID:      t.ContactID,
		TaskTemplateID: t.TaskTemplateID,
		StageID:        t.StageID,
		Title:          t.Title,
		Description:    t.Description,
		AssignedTo:     t.AssignedTo,
		AssignedToName: t.AssignedToName,
		DueDate:        t.DueDate,
		Status:         t.Status,
		Completed:      t.Completed,
		CompletedAt:    t.CompletedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func ToTaskResponses(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToTaskResponse(t))
	}
	return out
}

func ToStageChangeResponse(sc domain.StageChange) StageChangeResponse {
	taskIDs := sc.TaskIDs
	if taskIDs == nil {
		taskIDs = []uuid.UUID{}
	}
	return StageChangeResponse{
		ID:              sc.ID,
		OpportunityID:   sc.OpportunityID,
		PreviousStage:   sc.PreviousStage,
		PreviousStageID: sc.PreviousStageID,
		NewStage:        sc.NewStage,
		NewStageID:      sc.NewStageID,
		TaskIDs:         taskIDs,
		CreatedAt:       sc.CreatedAt,
	}
}

func ToStageChangeResponses(changes []domain.StageChange) []StageChangeResponse {
	out := make([]StageChangeResponse, 0, len(changes))
	for _, sc := range changes {
		out = append(out, ToStageChangeResponse(sc))
	}
	return out
}

func ToTemplateResponse(t domain.TaskTemplate) TemplateResponse {
	return TemplateResponse{
		ID:              t.ID,
		StageName:       t.StageName,
		StageKey:        t.StageKey,
		PipelineID:      t.PipelineID,
		TaskNumber:      t.TaskNumber,
		TaskName:        t.TaskName,
		TaskDescription: t.TaskDescription,
		DueDateValue:    t.DueDateValue,
		DueDateUnit:     t.DueDateUnit,
		AssignedTo:      t.AssignedTo,
		AssignedToName:  t.AssignedToName,
		IsActive:        t.IsActive,
		IsTrigger:       t.IsTrigger,
		CreatedAt:       t.CreatedAt,
	}
}

func ToTemplateResponses(templates []domain.TaskTemplate) []TemplateResponse {
	out := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, ToTemplateResponse(t))
	}
	return out
}

func ToMappingResponse(m domain.StageCompletionMapping) MappingResponse {
	return MappingResponse{
		ID:               m.ID,
		SourceStageName:  m.SourceStageName,
		SourceStageKey:   m.SourceStageKey,
		SourcePipelineID: m.SourcePipelineID,
		TargetPipelineID: m.TargetPipelineID,
		TargetStageName:  m.TargetStageName,
		TargetStageKey:   m.TargetStageKey,
		IsActive:         m.IsActive,
		CreatedAt:        m.CreatedAt,
	}
}

func ToMappingResponses(mappings []domain.StageCompletionMapping) []MappingResponse {
	out := make([]MappingResponse, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, ToMappingResponse(m))
	}
	return out
}

// ToLeadResponse converts an intake lead. Duplicate markers are always
// present in the JSON, null when the lead is not a duplicate.
func ToLeadResponse(in domain.Intake) LeadResponse {
	var matchType *string
	if in.DuplicateMatchType != nil {
		mt := string(*in.DuplicateMatchType)
		matchType = &mt
	}
	return LeadResponse{
		ID:                   in.ID,
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		Email:                in.Email,
		Phone:                in.Phone,
		CaseType:             in.CaseType,
		Message:              in.Message,
		Source:               in.Source,
		LeadStatus:           string(in.LeadStatus),
		DuplicateOfContactID: in.DuplicateOfContactID,
		DuplicateMatchType:   matchType,
		ContactID:            in.ContactID,
		OpportunityID:        in.OpportunityID,
		CreatedAt:            in.CreatedAt,
		UpdatedAt:            in.UpdatedAt,
	}
}

func ToLeadResponses(leads []domain.Intake) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, in := range leads {
		out = append(out, ToLeadResponse(in))
	}
	return out
}

func ToAppointmentResponses(items []domain.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, AppointmentResponse{ID: a.ID, Title: a.Title, StartsAt: a.StartsAt, EndsAt: a.EndsAt, Status: a.Status})
	}
	return out
}

func ToDocumentResponses(items []domain.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(items))
	for _, d := range items {
		out = append(out, DocumentResponse{ID: d.ID, Name: d.Name, ContentType: d.ContentType, DownloadURL: d.DownloadURL, CreatedAt: d.CreatedAt})
	}
	return out
}

func ToInvoiceResponses(items []domain.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(items))
	for _, inv := range items {
		out = append(out, InvoiceResponse{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			AmountCents:   inv.AmountCents,
			Status:        inv.Status,
			DueDate:       inv.DueDate,
			CreatedAt:     inv.CreatedAt,
		})
	}
	return out
}
