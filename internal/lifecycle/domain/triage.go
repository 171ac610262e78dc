package domain

import "fmt"

// LeadStatus is the triage state of an intake.
type LeadStatus string

const (
	LeadStatusPending   LeadStatus = "pending"
	LeadStatusDuplicate LeadStatus = "duplicate"
	LeadStatusAccepted  LeadStatus = "accepted"
	LeadStatusIgnored   LeadStatus = "ignored"
)

// ParseLeadStatus validates a status string.
func ParseLeadStatus(s string) (LeadStatus, error) {
	switch st := LeadStatus(s); st {
	case LeadStatusPending, LeadStatusDuplicate, LeadStatusAccepted, LeadStatusIgnored:
		return st, nil
	default:
		return "", fmt.Errorf("unknown lead status %q", s)
	}
}

// TriageAction is a user-initiated transition on an intake.
type TriageAction string

const (
	ActionAccept          TriageAction = "acceptLead"
	ActionIgnore          TriageAction = "ignoreLead"
	ActionRestore         TriageAction = "restoreLead"
	ActionRemoveDuplicate TriageAction = "removeDuplicateLead"
	ActionUpdateEmail     TriageAction = "updateDuplicateEmail"
	ActionUpdatePhone     TriageAction = "updateDuplicatePhone"
	ActionCreateAsNew     TriageAction = "createAsNewLead"
)

// triageTransitions lists the statuses each action may start from.
// Outcomes that depend on re-matching are decided by the caller.
var triageTransitions = map[TriageAction]map[LeadStatus]bool{
	ActionAccept:          {LeadStatusPending: true},
	ActionIgnore:          {LeadStatusPending: true},
	ActionRestore:         {LeadStatusIgnored: true, LeadStatusPending: true},
	ActionRemoveDuplicate: {LeadStatusDuplicate: true},
	ActionUpdateEmail:     {LeadStatusDuplicate: true},
	ActionUpdatePhone:     {LeadStatusDuplicate: true},
	ActionCreateAsNew:     {LeadStatusDuplicate: true},
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CanTriage evaluates whether action may run on a lead in status.
// Rules:
// - accepting an accepted lead is refused explicitly
// - every other pair outside the transition table is refused
func CanTriage(action TriageAction, status LeadStatus) GuardResult {
	if action == ActionAccept && status == LeadStatusAccepted {
		return GuardResult{Reason: "lead has already been accepted"}
	}
	if triageTransitions[action][status] {
		return GuardResult{Allowed: true}
	}
	return GuardResult{
		Reason: fmt.Sprintf("cannot %s a lead in status %q", action, status),
	}
}
