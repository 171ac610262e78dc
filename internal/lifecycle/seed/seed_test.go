package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/repository/memstore"
	"legal_intake_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seededAt = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func TestDefaultSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	f, err := Default()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		res, err := Apply(ctx, store, f, seededAt)
		require.NoError(t, err)
		assert.Equal(t, Result{Stages: 6, Templates: 5, Mappings: 1}, res)
	}

	stages, err := store.ListStages(ctx)
	require.NoError(t, err)
	assert.Len(t, stages, 6)

	templates, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 5)

	mappings, err := store.ListMappings(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "pending-engagement-lvl-1", mappings[0].SourceStageKey)
	assert.Equal(t, "Did Not Hire", mappings[0].TargetPipelineID)
	require.NotNil(t, mappings[0].SourcePipelineID)
	assert.Equal(t, "Main Lead Flow", *mappings[0].SourcePipelineID)
}

func TestSeededTemplatesResolveForStage(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	f, err := Default()
	require.NoError(t, err)
	_, err = Apply(ctx, store, f, seededAt)
	require.NoError(t, err)

	stages, err := store.ListPipelineStages(ctx, "Main Lead Flow")
	require.NoError(t, err)
	var scheduled domain.PipelineStage
	for _, s := range stages {
		if s.Name == "Scheduled I/V" {
			scheduled = s
		}
	}
	require.Equal(t, 2, scheduled.Order)

	candidates, err := store.ListTemplatesForStage(ctx, scheduled)
	require.NoError(t, err)
	resolved := domain.ResolveTemplates(candidates, scheduled)
	require.Len(t, resolved, 2)
	assert.Equal(t, 1, resolved[0].TaskNumber)
	assert.Equal(t, domain.DueUnitDays, resolved[1].DueDateUnit)
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unknown field", "pipelines:\n  - name: A\n    colour: red\n"},
		{"no pipelines", "templates: []\n"},
		{"duplicate stage key", "pipelines:\n  - name: A\n    stages:\n      - name: Intake\n      - name: intake\n"},
		{"bad unit", "pipelines:\n  - name: A\n    stages:\n      - name: S\ntemplates:\n  - stage: S\n    taskNumber: 1\n    taskName: T\n    dueDateUnit: fortnights\n"},
		{"missing task number", "pipelines:\n  - name: A\n    stages:\n      - name: S\ntemplates:\n  - stage: S\n    taskName: T\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.doc))
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
}

func TestApplyRollsBackOnUnknownStageReference(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	f, err := Load(strings.NewReader(`
pipelines:
  - name: Main Lead Flow
    stages:
      - name: New Lead
templates:
  - stage: Retained
    taskNumber: 1
    taskName: Send welcome pack
`))
	require.NoError(t, err)

	_, err = Apply(ctx, store, f, seededAt)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	stages, err := store.ListStages(ctx)
	require.NoError(t, err)
	assert.Empty(t, stages)
}

func TestAmbiguousStageNeedsPipeline(t *testing.T) {
	f, err := Load(strings.NewReader(`
pipelines:
  - name: A
    stages:
      - name: Review
  - name: B
    stages:
      - name: Review
templates:
  - stage: Review
    taskNumber: 1
    taskName: Check file
`))
	require.NoError(t, err)

	_, err = Apply(context.Background(), memstore.New(), f, seededAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "several pipelines")
}

func TestReapplyKeepsAdminEdits(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	f, err := Default()
	require.NoError(t, err)
	_, err = Apply(ctx, store, f, seededAt)
	require.NoError(t, err)

	stages, err := store.ListPipelineStages(ctx, "Main Lead Flow")
	require.NoError(t, err)
	renamed, err := store.RenameStage(ctx, stages[1].ID, "Initial Consultation")
	require.NoError(t, err)

	templates, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	_, err = store.SetTemplateActive(ctx, templates[0].ID, false)
	require.NoError(t, err)

	_, err = Apply(ctx, store, f, seededAt.Add(time.Hour))
	require.NoError(t, err)

	stage, err := store.GetStage(ctx, renamed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Initial Consultation", stage.Name)

	after, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(templates))
	for _, tmpl := range after {
		if tmpl.ID == templates[0].ID {
			assert.False(t, tmpl.IsActive, "re-seed reactivated %q", tmpl.TaskName)
		}
	}
}

func TestReapplyReordersStages(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	first, err := Load(strings.NewReader(`
pipelines:
  - name: Main Lead Flow
    stages:
      - name: New Lead
      - name: Retained
`))
	require.NoError(t, err)
	_, err = Apply(ctx, store, first, seededAt)
	require.NoError(t, err)

	swapped, err := Load(strings.NewReader(`
pipelines:
  - name: Main Lead Flow
    stages:
      - name: Retained
      - name: New Lead
`))
	require.NoError(t, err)
	_, err = Apply(ctx, store, swapped, seededAt)
	require.NoError(t, err)

	stages, err := store.ListPipelineStages(ctx, "Main Lead Flow")
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "Retained", stages[0].Name)
	assert.Equal(t, 1, stages[0].Order)
	assert.Equal(t, "New Lead", stages[1].Name)
}
