package domain

import (
	"strings"
	"unicode"
)

// NormalizeStageName is the comparison form for stage names: trimmed and
// lower-cased.
func NormalizeStageName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// StageKey derives a stable slug from a stage name, e.g.
// "Scheduled I/V" -> "scheduled-i-v". Keys are assigned once when the stage
// is created and are not recomputed on rename.
func StageKey(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// StageBelongsTo reports whether stage is part of pipeline.
func StageBelongsTo(stage PipelineStage, pipeline string) bool {
	return stage.Pipeline == pipeline
}

// InitialStage returns the lowest-ordered stage of the given pipeline.
func InitialStage(stages []PipelineStage, pipeline string) (PipelineStage, bool) {
	var (
		best  PipelineStage
		found bool
	)
	for _, s := range stages {
		if s.Pipeline != pipeline {
			continue
		}
		if !found || s.Order < best.Order {
			best = s
			found = true
		}
	}
	return best, found
}

// stageMatches reports whether a template or mapping reference (key and
// cached name) points at stage. A non-empty key always wins over the name.
func stageMatches(refKey, refName string, stage PipelineStage) bool {
	if refKey != "" {
		return refKey == stage.Key
	}
	return NormalizeStageName(refName) == NormalizeStageName(stage.Name)
}
