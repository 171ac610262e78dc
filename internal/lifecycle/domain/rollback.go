package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RollbackContext provides the state a stage-change rollback is judged on.
type RollbackContext struct {
	Change         StageChange
	Tasks          []Task
	LatestChangeID uuid.UUID
	Opportunity    Opportunity
	Now            time.Time
	GracePeriod    time.Duration
}

// CanRollback evaluates whether a stage change may be undone.
// Rules:
// - no task created by the change may be completed
// - the change must be younger than the grace period
// - the change must be the opportunity's latest
// - the opportunity must still sit on the change's new stage
// - the change must have a previous stage to restore
func CanRollback(ctx RollbackContext) GuardResult {
	for _, t := range ctx.Tasks {
		if t.Completed {
			return GuardResult{Reason: fmt.Sprintf("task %q created by this stage change is already completed", t.Title)}
		}
	}
	if ctx.Now.Sub(ctx.Change.CreatedAt) > ctx.GracePeriod {
		return GuardResult{Reason: fmt.Sprintf("stage change is older than the %s rollback window", ctx.GracePeriod)}
	}
	if ctx.LatestChangeID != ctx.Change.ID {
		return GuardResult{Reason: "only the most recent stage change can be rolled back"}
	}
	if ctx.Opportunity.StageID != ctx.Change.NewStageID {
		return GuardResult{Reason: "opportunity is no longer in the stage this change moved it to"}
	}
	if ctx.Change.PreviousStageID == nil {
		return GuardResult{Reason: "initial placement has no previous stage to restore"}
	}
	return GuardResult{Allowed: true}
}
