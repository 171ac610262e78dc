package pipeline

import (
	"testing"

	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

// setupEngagement places an opportunity on "Pending Engagement Lvl 1" with
// two follow-up tasks and a mapping to the did-not-hire pipeline.
func setupEngagement(f *fixture) (domain.Opportunity, Transition) {
	f.addTemplate("Pending Engagement Lvl 1", 1, "First Follow Up", 1, "days")
	f.addTemplate("Pending Engagement Lvl 1", 2, "Final Follow Up", 3, "days")
	f.addMapping("Pending Engagement Lvl 1", nil, didNotHire, "Cancelled/No Show I/V")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	return opp, f.move(opp, mainFlow, "Pending Engagement Lvl 1")
}

func TestToggleCompleteNonTriggeringTaskDoesNotMove(t *testing.T) {
	f := newFixture(t)
	opp, tr := setupEngagement(f)

	res, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[0].ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if !res.Task.Completed || res.Task.CompletedAt == nil || res.Task.Status != domain.TaskStatusCompleted {
		t.Fatalf("task not completed: %+v", res.Task)
	}
	if res.OpportunityMoved || res.MovedTo != nil {
		t.Fatal("first follow up must not move the opportunity")
	}
	if f.opportunity(opp.ID).PipelineID != mainFlow {
		t.Fatal("opportunity left the main flow")
	}
}

func TestToggleCompleteTriggeringTaskAppliesMapping(t *testing.T) {
	f := newFixture(t)
	opp, tr := setupEngagement(f)

	res, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[1].ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if !res.OpportunityMoved || res.MovedTo == nil {
		t.Fatal("expected the opportunity to move")
	}
	if res.MovedTo.Stage != "Cancelled/No Show I/V" || res.MovedTo.Pipeline != didNotHire {
		t.Fatalf("unexpected destination %+v", res.MovedTo)
	}

	moved := f.opportunity(opp.ID)
	if moved.PipelineID != didNotHire || moved.StageID != f.stage(didNotHire, "Cancelled/No Show I/V").ID {
		t.Fatalf("unexpected placement %s %s", moved.PipelineID, moved.StageID)
	}
	if moved.DidNotHireAt == nil || moved.DidNotHireReason == nil || *moved.DidNotHireReason != "Cancelled/No Show I/V" {
		t.Fatalf("did-not-hire stamps missing: %+v", moved)
	}
	f.assertPlacementInvariant(opp.ID)

	changes, _ := f.store.ListStageChanges(f.ctx, opp.ID)
	if len(changes) != 2 || changes[0].NewStage != "Cancelled/No Show I/V" {
		t.Fatalf("expected the automated move in the ledger, got %+v", changes)
	}
}

func TestToggleCompleteTwiceKeepsTheMove(t *testing.T) {
	f := newFixture(t)
	opp, tr := setupEngagement(f)

	if _, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[1].ID); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	res, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[1].ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}

	if res.Task.Completed || res.Task.CompletedAt != nil || res.Task.Status != domain.TaskStatusPending {
		t.Fatalf("second toggle should reopen the task: %+v", res.Task)
	}
	if res.OpportunityMoved {
		t.Fatal("reopening a task must not move the opportunity")
	}
	if f.opportunity(opp.ID).PipelineID != didNotHire {
		t.Fatal("reopening the task reversed the move")
	}
}

func TestToggleCompleteExplicitTriggerWins(t *testing.T) {
	f := newFixture(t)
	first := f.addTemplate("Scheduled I/V", 1, "Hold interview", 0, "days")
	first.IsTrigger = true
	if err := f.store.UpsertTemplate(f.ctx, first); err != nil {
		t.Fatalf("UpsertTemplate: %v", err)
	}
	f.addTemplate("Scheduled I/V", 2, "Send notes", 1, "days")
	f.addMapping("Scheduled I/V", nil, mainFlow, "Pending Engagement Lvl 1")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	tr := f.move(opp, mainFlow, "Scheduled I/V")

	res, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[1].ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if res.OpportunityMoved {
		t.Fatal("highest task number must not trigger when a template is flagged")
	}

	res, err = f.svc.ToggleComplete(f.ctx, tr.Tasks[0].ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if !res.OpportunityMoved || res.MovedTo.Stage != "Pending Engagement Lvl 1" {
		t.Fatalf("flagged template should trigger, got %+v", res)
	}
}

func TestToggleCompleteStaleStageDoesNotMove(t *testing.T) {
	f := newFixture(t)
	opp, tr := setupEngagement(f)
	f.move(opp, mainFlow, "Retained")

	res, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[1].ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if res.OpportunityMoved {
		t.Fatal("a task of a stage the opportunity already left must not trigger")
	}
	if f.opportunity(opp.ID).StageID != f.stage(mainFlow, "Retained").ID {
		t.Fatal("opportunity moved from Retained")
	}
}

func TestToggleCompletePipelineScopedMappingWins(t *testing.T) {
	f := newFixture(t)
	f.addTemplate("Pending Engagement Lvl 1", 1, "Final Follow Up", 1, "days")
	f.addMapping("Pending Engagement Lvl 1", nil, didNotHire, "Cancelled/No Show I/V")
	f.addMapping("Pending Engagement Lvl 1", strPtr(mainFlow), didNotHire, "Declined")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	tr := f.move(opp, mainFlow, "Pending Engagement Lvl 1")

	res, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[0].ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if res.MovedTo == nil || res.MovedTo.Stage != "Declined" {
		t.Fatalf("pipeline scoped mapping should win, got %+v", res.MovedTo)
	}
}

func TestToggleCompleteManualTaskNeverTriggers(t *testing.T) {
	f := newFixture(t)
	f.addMapping("New Lead", nil, didNotHire, "Declined")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))

	task, err := f.svc.CreateTask(f.ctx, uuid.New(), createTaskFor(opp.ID))
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	res, err := f.svc.ToggleComplete(f.ctx, task.ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if res.OpportunityMoved {
		t.Fatal("manual task moved the opportunity")
	}
}

func TestToggleCompleteMissingTargetStageIsIntegrityError(t *testing.T) {
	f := newFixture(t)
	f.addTemplate("Scheduled I/V", 1, "Hold interview", 0, "days")
	f.addMapping("Scheduled I/V", nil, didNotHire, "No Such Stage")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	tr := f.move(opp, mainFlow, "Scheduled I/V")

	_, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[0].ID)
	if !apperr.Is(err, apperr.KindIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	task, _ := f.store.GetTask(f.ctx, tr.Tasks[0].ID)
	if task.Completed {
		t.Fatal("failed toggle must not persist the completion")
	}
}

func TestToggleCompleteUnknownTask(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ToggleComplete(f.ctx, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
