package pipeline

import (
	"context"
	"errors"
	"testing"

	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/transport"
	"legal_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

func createTaskFor(opportunityID uuid.UUID) transport.CreateTaskRequest {
	return transport.CreateTaskRequest{OpportunityID: &opportunityID, Title: "Call the client"}
}

func TestRenameStageKeepsAutomationWorking(t *testing.T) {
	f := newFixture(t)
	f.addTemplate("Scheduled I/V", 1, "Send reminder", 1, "days")
	f.addMapping("Scheduled I/V", nil, mainFlow, "Retained")
	stage := f.stage(mainFlow, "Scheduled I/V")

	renamed, err := f.svc.RenameStage(f.ctx, stage.ID, "  Scheduled   Interview ")
	if err != nil {
		t.Fatalf("RenameStage: %v", err)
	}
	if renamed.Name != "Scheduled Interview" || renamed.Key != stage.Key {
		t.Fatalf("unexpected rename result %+v", renamed)
	}

	templates, _ := f.store.ListTemplates(f.ctx)
	if templates[0].StageName != "Scheduled Interview" || templates[0].StageKey != stage.Key {
		t.Fatalf("template cache not refreshed: %+v", templates[0])
	}

	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	tr := f.move(opp, mainFlow, "Scheduled I/V")
	if len(tr.Tasks) != 1 || tr.Stage.Name != "Scheduled Interview" {
		t.Fatalf("automation lost after rename: %d tasks on %q", len(tr.Tasks), tr.Stage.Name)
	}

	res, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[0].ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if !res.OpportunityMoved {
		t.Fatal("completion mapping lost after rename")
	}
}

func TestRenameStageRejectsDuplicateName(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RenameStage(f.ctx, f.stage(mainFlow, "Retained").ID, "new lead")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := f.svc.RenameStage(f.ctx, f.stage(mainFlow, "Retained").ID, "<b></b>"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
}

func TestRenameStageRollsBackOnCacheFailure(t *testing.T) {
	f := newFixture(t)
	stage := f.stage(mainFlow, "Retained")
	f.store.FailOn["RefreshStageNameCache"] = errors.New("cache write failed")

	if _, err := f.svc.RenameStage(f.ctx, stage.ID, "Signed"); err == nil {
		t.Fatal("expected error")
	}
	got, _ := f.store.GetStage(f.ctx, stage.ID)
	if got.Name != "Retained" {
		t.Fatalf("rename survived a failed transaction: %q", got.Name)
	}
}

func TestCreateTemplateBindsStageKey(t *testing.T) {
	f := newFixture(t)
	stage := f.stage(mainFlow, "Retained")

	tmpl, err := f.svc.CreateTemplate(f.ctx, transport.CreateTemplateRequest{
		StageID:         stage.ID,
		ScopeToPipeline: true,
		TaskNumber:      1,
		TaskName:        "Send engagement letter",
		DueDateValue:    2,
		DueDateUnit:     "Hours",
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if tmpl.StageKey != stage.Key || tmpl.PipelineID == nil || *tmpl.PipelineID != mainFlow || tmpl.DueDateUnit != domain.DueUnitHours {
		t.Fatalf("unexpected template %+v", tmpl)
	}

	_, err = f.svc.CreateTemplate(f.ctx, transport.CreateTemplateRequest{StageID: stage.ID, TaskNumber: 1, TaskName: "x", DueDateUnit: "fortnights"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unit, got %v", err)
	}
}

func TestCreateMapping(t *testing.T) {
	f := newFixture(t)
	src, dst := f.stage(mainFlow, "Scheduled I/V"), f.stage(didNotHire, "Declined")

	m, err := f.svc.CreateMapping(f.ctx, transport.CreateMappingRequest{SourceStageID: src.ID, TargetStageID: dst.ID})
	if err != nil {
		t.Fatalf("CreateMapping: %v", err)
	}
	if m.SourceStageKey != src.Key || m.TargetPipelineID != didNotHire || m.TargetStageKey != dst.Key || m.SourcePipelineID != nil {
		t.Fatalf("unexpected mapping %+v", m)
	}

	_, err = f.svc.CreateMapping(f.ctx, transport.CreateMappingRequest{SourceStageID: src.ID, TargetStageID: src.ID})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	actor := uuid.New()

	task, err := f.svc.CreateTask(f.ctx, actor, createTaskFor(opp.ID))
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ContactID == nil || *task.ContactID != opp.ContactID {
		t.Fatal("manual task not linked to the opportunity's contact")
	}
	if task.AssignedTo == nil || *task.AssignedTo != actor.String() {
		t.Fatal("manual task should default to the caller")
	}

	_, err = f.svc.CreateTask(f.ctx, actor, transport.CreateTaskRequest{Title: "orphan"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	tasks, err := f.svc.ListTasks(f.ctx, opp.ID)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("ListTasks = %d, %v", len(tasks), err)
	}
}

type fakeLinker struct{}

func (fakeLinker) DocumentURL(_ context.Context, key string) (string, error) {
	if key == "broken" {
		return "", errors.New("presign failed")
	}
	return "https://files.example.com/" + key, nil
}

func TestGetWithRelated(t *testing.T) {
	f := newFixture(t)
	f.svc.SetDocumentLinker(fakeLinker{})
	f.addTemplate("Scheduled I/V", 1, "Send reminder", 1, "days")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	f.move(opp, mainFlow, "Scheduled I/V")

	f.store.AddAppointment(domain.Appointment{ID: uuid.New(), OpportunityID: opp.ID, Title: "Consultation", StartsAt: f.now, Status: "scheduled"})
	f.store.AddDocument(domain.Document{ID: uuid.New(), OpportunityID: opp.ID, Name: "retainer.pdf", ObjectKey: "opp/retainer.pdf"})
	f.store.AddDocument(domain.Document{ID: uuid.New(), OpportunityID: opp.ID, Name: "scan.pdf", ObjectKey: "broken"})
	f.store.AddInvoice(domain.Invoice{ID: uuid.New(), OpportunityID: opp.ID, InvoiceNumber: "INV-1", AmountCents: 150000, Status: "open"})

	detail, err := f.svc.GetWithRelated(f.ctx, opp.ID)
	if err != nil {
		t.Fatalf("GetWithRelated: %v", err)
	}
	if detail.Contact.ID != opp.ContactID || detail.Stage.Name != "Scheduled I/V" {
		t.Fatalf("unexpected detail header %+v", detail)
	}
	if len(detail.Tasks) != 1 || len(detail.Appointments) != 1 || len(detail.Documents) != 2 || len(detail.Invoices) != 1 {
		t.Fatalf("unexpected related counts: %d %d %d %d", len(detail.Tasks), len(detail.Appointments), len(detail.Documents), len(detail.Invoices))
	}
	if detail.Documents[0].DownloadURL == nil || *detail.Documents[0].DownloadURL != "https://files.example.com/opp/retainer.pdf" {
		t.Fatalf("document link missing: %+v", detail.Documents[0])
	}
	if detail.Documents[1].DownloadURL != nil {
		t.Fatal("a failed link should leave the URL empty")
	}

	if _, err := f.svc.GetWithRelated(f.ctx, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
