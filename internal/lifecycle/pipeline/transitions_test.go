package pipeline

import (
	"errors"
	"testing"
	"time"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestMoveToPipelineCreatesTasksFromTemplates(t *testing.T) {
	f := newFixture(t)
	f.addTemplate("Scheduled I/V", 2, "Confirm attendance", 3, "days")
	f.addTemplate("scheduled i/v ", 1, "Send reminder", 1, "days")
	inactive := f.addTemplate("Scheduled I/V", 3, "Old step", 1, "days")
	if _, err := f.store.SetTemplateActive(f.ctx, inactive.ID, false); err != nil {
		t.Fatalf("SetTemplateActive: %v", err)
	}
	scoped := f.addTemplate("Scheduled I/V", 4, "Other pipeline only", 1, "days")
	scoped.PipelineID = strPtr("Referral Flow")
	if err := f.store.UpsertTemplate(f.ctx, scoped); err != nil {
		t.Fatalf("UpsertTemplate: %v", err)
	}

	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	tr := f.move(opp, mainFlow, "Scheduled I/V")

	if len(tr.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tr.Tasks))
	}
	wantDue := []time.Time{f.now.AddDate(0, 0, 1), f.now.AddDate(0, 0, 3)}
	wantTitle := []string{"Send reminder", "Confirm attendance"}
	for i, task := range tr.Tasks {
		if task.Title != wantTitle[i] {
			t.Errorf("task %d: title %q, want %q", i, task.Title, wantTitle[i])
		}
		if task.DueDate == nil || !task.DueDate.Equal(wantDue[i]) {
			t.Errorf("task %d: due %v, want %v", i, task.DueDate, wantDue[i])
		}
		if task.Completed || task.Status != "Pending" {
			t.Errorf("task %d should start pending", i)
		}
		if task.ContactID == nil || *task.ContactID != opp.ContactID {
			t.Errorf("task %d not linked to the contact", i)
		}
	}

	if tr.Change.PreviousStage == nil || *tr.Change.PreviousStage != "New Lead" {
		t.Fatalf("previous stage not recorded: %+v", tr.Change.PreviousStage)
	}
	if len(tr.Change.TaskIDs) != 2 || tr.Change.TaskIDs[0] != tr.Tasks[0].ID {
		t.Fatalf("stage change task ids do not match created tasks")
	}

	stored, err := f.store.ListTasksByOpportunity(f.ctx, opp.ID)
	if err != nil {
		t.Fatalf("ListTasksByOpportunity: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored tasks, got %d", len(stored))
	}
	f.assertPlacementInvariant(opp.ID)

	f.bus.Wait()
	if got := len(f.rec.named(events.OpportunityStageChanged{}.EventName())); got != 1 {
		t.Fatalf("expected 1 stage changed event, got %d", got)
	}
	if got := len(f.rec.named(events.TaskScheduled{}.EventName())); got != 2 {
		t.Fatalf("expected 2 task scheduled events, got %d", got)
	}
}

func TestMoveToPipelineStageWithoutTemplates(t *testing.T) {
	f := newFixture(t)
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))

	tr := f.move(opp, mainFlow, "Retained")
	if len(tr.Tasks) != 0 || len(tr.Change.TaskIDs) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tr.Tasks))
	}
	if f.opportunity(opp.ID).StageID != f.stage(mainFlow, "Retained").ID {
		t.Fatal("opportunity not moved")
	}
}

func TestMoveToPipelineRejectsStageOfOtherPipeline(t *testing.T) {
	f := newFixture(t)
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))

	_, err := f.svc.MoveToPipeline(f.ctx, opp.ID, mainFlow, f.stage(didNotHire, "Declined").ID)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.opportunity(opp.ID).StageID != opp.StageID {
		t.Fatal("opportunity moved despite validation error")
	}
	changes, _ := f.store.ListStageChanges(f.ctx, opp.ID)
	if len(changes) != 0 {
		t.Fatalf("expected no stage changes, got %d", len(changes))
	}
}

func TestMoveToPipelineNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.MoveToPipeline(f.ctx, uuid.New(), mainFlow, f.stage(mainFlow, "Retained").ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown opportunity, got %v", err)
	}

	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	_, err = f.svc.MoveToPipeline(f.ctx, opp.ID, mainFlow, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown stage, got %v", err)
	}
}

func TestMoveToPipelineIsAtomic(t *testing.T) {
	f := newFixture(t)
	f.addTemplate("Scheduled I/V", 1, "Send reminder", 1, "days")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	f.store.FailOn["CreateStageChange"] = errors.New("ledger unavailable")

	if _, err := f.svc.MoveToPipeline(f.ctx, opp.ID, mainFlow, f.stage(mainFlow, "Scheduled I/V").ID); err == nil {
		t.Fatal("expected error when the ledger write fails")
	}

	if f.opportunity(opp.ID).StageID != opp.StageID {
		t.Fatal("opportunity placement survived a failed transaction")
	}
	tasks, _ := f.store.ListTasksByOpportunity(f.ctx, opp.ID)
	if len(tasks) != 0 {
		t.Fatalf("tasks survived a failed transaction: %d", len(tasks))
	}
}

func TestMoveToPipelineInvalidTemplateUnitIsIntegrityError(t *testing.T) {
	f := newFixture(t)
	f.addTemplate("Scheduled I/V", 1, "Broken", 1, "fortnights")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))

	_, err := f.svc.MoveToPipeline(f.ctx, opp.ID, mainFlow, f.stage(mainFlow, "Scheduled I/V").ID)
	if !apperr.Is(err, apperr.KindIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
}

func TestRollbackRestoresPreviousStage(t *testing.T) {
	f := newFixture(t)
	f.addTemplate("Scheduled I/V", 1, "Send reminder", 1, "days")
	f.addTemplate("Scheduled I/V", 2, "Confirm attendance", 3, "days")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	tr := f.move(opp, mainFlow, "Scheduled I/V")

	f.now = f.now.Add(5 * time.Minute)
	restored, err := f.svc.Rollback(f.ctx, tr.Change.ID)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if restored.StageID != f.stage(mainFlow, "New Lead").ID || restored.PipelineID != mainFlow {
		t.Fatalf("unexpected placement after rollback: %s %s", restored.PipelineID, restored.StageID)
	}
	tasks, _ := f.store.ListTasksByOpportunity(f.ctx, opp.ID)
	if len(tasks) != 0 {
		t.Fatalf("expected pending tasks to be deleted, %d left", len(tasks))
	}
	if _, err := f.store.GetStageChangeForUpdate(f.ctx, tr.Change.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected ledger row to be deleted, got %v", err)
	}
	f.assertPlacementInvariant(opp.ID)
}

func TestRollbackClearsDidNotHireStamp(t *testing.T) {
	f := newFixture(t)
	f.addTemplate("Pending Engagement Lvl 1", 1, "Final Follow Up", 2, "days")
	f.addMapping("Pending Engagement Lvl 1", nil, didNotHire, "Cancelled/No Show I/V")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	tr := f.move(opp, mainFlow, "Pending Engagement Lvl 1")

	if _, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[0].ID); err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	changes, _ := f.store.ListStageChanges(f.ctx, opp.ID)

	restored, err := f.svc.Rollback(f.ctx, changes[0].ID)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if restored.PipelineID != mainFlow || restored.DidNotHireAt != nil || restored.DidNotHireReason != nil {
		t.Fatalf("did-not-hire stamps should be cleared, got %+v", restored)
	}
}

func TestMoveOutOfDidNotHireClearsStamp(t *testing.T) {
	f := newFixture(t)
	f.addTemplate("Pending Engagement Lvl 1", 1, "Final Follow Up", 2, "days")
	f.addMapping("Pending Engagement Lvl 1", nil, didNotHire, "Cancelled/No Show I/V")
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	tr := f.move(opp, mainFlow, "Pending Engagement Lvl 1")

	if _, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[0].ID); err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if f.opportunity(opp.ID).DidNotHireAt == nil {
		t.Fatal("completion mapping into Did Not Hire should stamp the opportunity")
	}

	f.move(opp, didNotHire, "Declined")
	if stamped := f.opportunity(opp.ID); stamped.DidNotHireAt == nil || stamped.DidNotHireReason == nil {
		t.Fatalf("move within Did Not Hire dropped the stamps: %+v", stamped)
	}

	f.move(opp, mainFlow, "Scheduled I/V")
	reopened := f.opportunity(opp.ID)
	if reopened.PipelineID != mainFlow || reopened.DidNotHireAt != nil || reopened.DidNotHireReason != nil {
		t.Fatalf("did-not-hire stamps should be cleared, got %+v", reopened)
	}
	f.assertPlacementInvariant(opp.ID)
}

func TestRollbackConflicts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture, tr Transition)
	}{
		{
			name: "completed task",
			setup: func(f *fixture, tr Transition) {
				if _, err := f.svc.ToggleComplete(f.ctx, tr.Tasks[0].ID); err != nil {
					f.t.Fatalf("ToggleComplete: %v", err)
				}
			},
		},
		{
			name: "outside grace window",
			setup: func(f *fixture, _ Transition) {
				f.now = f.now.Add(11 * time.Minute)
			},
		},
		{
			name: "not the latest change",
			setup: func(f *fixture, tr Transition) {
				f.now = f.now.Add(time.Minute)
				f.move(tr.Opportunity, mainFlow, "Retained")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.addTemplate("Scheduled I/V", 1, "Send reminder", 1, "days")
			opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
			tr := f.move(opp, mainFlow, "Scheduled I/V")
			tc.setup(f, tr)
			before := f.opportunity(opp.ID)

			_, err := f.svc.Rollback(f.ctx, tr.Change.ID)
			if !apperr.Is(err, apperr.KindConflict) {
				t.Fatalf("expected conflict, got %v", err)
			}
			if after := f.opportunity(opp.ID); after.StageID != before.StageID {
				t.Fatal("rejected rollback changed the opportunity")
			}
			if _, err := f.store.GetTask(f.ctx, tr.Tasks[0].ID); err != nil {
				t.Fatalf("rejected rollback deleted a task: %v", err)
			}
		})
	}
}

func TestListStageChangesNewestFirst(t *testing.T) {
	f := newFixture(t)
	opp := f.addOpportunity(f.stage(mainFlow, "New Lead"))
	f.move(opp, mainFlow, "Scheduled I/V")
	f.now = f.now.Add(time.Minute)
	f.move(opp, mainFlow, "Retained")

	changes, err := f.svc.ListStageChanges(f.ctx, opp.ID)
	if err != nil {
		t.Fatalf("ListStageChanges: %v", err)
	}
	if len(changes) != 2 || changes[0].NewStage != "Retained" {
		t.Fatalf("unexpected history: %+v", changes)
	}
}
