package domain

import "sort"

// ResolveTemplates returns the active templates that apply to stage, ordered
// by TaskNumber. Templates scoped to a pipeline only apply to that pipeline;
// unscoped templates apply to every pipeline carrying the stage. Ties keep
// creation order. An empty result is valid.
func ResolveTemplates(templates []TaskTemplate, stage PipelineStage) []TaskTemplate {
	out := make([]TaskTemplate, 0, len(templates))
	for _, t := range templates {
		if !t.IsActive {
			continue
		}
		if t.PipelineID != nil && *t.PipelineID != stage.Pipeline {
			continue
		}
		if !stageMatches(t.StageKey, t.StageName, stage) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TaskNumber != out[j].TaskNumber {
			return out[i].TaskNumber < out[j].TaskNumber
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
