package domain

import "github.com/google/uuid"

// TriggerTemplateIDs returns the ids of the templates whose task completion
// fires the stage's completion mapping. Explicitly flagged templates win;
// without any flag the active template with the highest TaskNumber is the
// trigger. resolved must already be filtered to one stage.
func TriggerTemplateIDs(resolved []TaskTemplate) map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{})
	for _, t := range resolved {
		if t.IsActive && t.IsTrigger {
			ids[t.ID] = struct{}{}
		}
	}
	if len(ids) > 0 {
		return ids
	}

	var (
		highest TaskTemplate
		found   bool
	)
	for _, t := range resolved {
		if !t.IsActive {
			continue
		}
		if !found || t.TaskNumber > highest.TaskNumber {
			highest = t
			found = true
		}
	}
	if found {
		ids[highest.ID] = struct{}{}
	}
	return ids
}

// IsTriggeringTask reports whether task, spawned from a template of stage,
// is a triggering task for that stage. Manual tasks never trigger.
func IsTriggeringTask(task Task, resolved []TaskTemplate) bool {
	if task.TaskTemplateID == nil {
		return false
	}
	_, ok := TriggerTemplateIDs(resolved)[*task.TaskTemplateID]
	return ok
}

// SelectMapping picks the active completion mapping for stage within
// pipeline. A mapping scoped to the pipeline wins over an unscoped one;
// among equals the earliest created wins.
func SelectMapping(mappings []StageCompletionMapping, stage PipelineStage, pipeline string) (StageCompletionMapping, bool) {
	var (
		best       StageCompletionMapping
		bestScoped bool
		found      bool
	)
	for _, m := range mappings {
		if !m.IsActive || !stageMatches(m.SourceStageKey, m.SourceStageName, stage) {
			continue
		}
		scoped := m.SourcePipelineID != nil
		if scoped && *m.SourcePipelineID != pipeline {
			continue
		}
		switch {
		case !found:
		case scoped && !bestScoped:
		case scoped == bestScoped && m.CreatedAt.Before(best.CreatedAt):
		default:
			continue
		}
		best, bestScoped, found = m, scoped, true
	}
	return best, found
}

// MappingTargetsStage reports whether stage is the target of m.
func MappingTargetsStage(m StageCompletionMapping, stage PipelineStage) bool {
	return stage.Pipeline == m.TargetPipelineID && stageMatches(m.TargetStageKey, m.TargetStageName, stage)
}
