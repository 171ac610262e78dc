package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/repository/memstore"
	"legal_intake_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	mainFlow   = "Main Lead Flow"
	didNotHire = "Did Not Hire"
)

type testConfig struct {
	grace time.Duration
}

func (c testConfig) GetRollbackGracePeriod() time.Duration { return c.grace }
func (c testConfig) GetIntakePipeline() string             { return mainFlow }
func (c testConfig) GetDidNotHirePipeline() string         { return didNotHire }
func (c testConfig) GetLeadListMaxLimit() int              { return 50 }

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) named(name string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memstore.Store
	bus    *events.InMemoryBus
	rec    *recorder
	svc    *Service
	now    time.Time
	stages map[string]domain.PipelineStage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  memstore.New(),
		bus:    events.NewInMemoryBus(logger.Discard()),
		rec:    &recorder{},
		now:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		stages: map[string]domain.PipelineStage{},
	}
	for _, name := range []string{
		events.OpportunityStageChanged{}.EventName(),
		events.TaskScheduled{}.EventName(),
		events.TaskCompletionToggled{}.EventName(),
		events.StageChangeRolledBack{}.EventName(),
	} {
		f.bus.Subscribe(name, f.rec)
	}
	f.svc = New(f.store, f.bus, testConfig{grace: 10 * time.Minute}, logger.Discard())
	f.svc.SetClock(func() time.Time { return f.now })

	f.addStage(mainFlow, "New Lead", 1)
	f.addStage(mainFlow, "Scheduled I/V", 2)
	f.addStage(mainFlow, "Pending Engagement Lvl 1", 3)
	f.addStage(mainFlow, "Retained", 4)
	f.addStage(didNotHire, "Cancelled/No Show I/V", 1)
	f.addStage(didNotHire, "Declined", 2)
	return f
}

func (f *fixture) addStage(pipeline, name string, order int) domain.PipelineStage {
	f.t.Helper()
	st, err := f.store.UpsertStage(f.ctx, domain.PipelineStage{
		ID:        uuid.New(),
		Pipeline:  pipeline,
		Name:      name,
		Key:       domain.StageKey(name),
		Order:     order,
		CreatedAt: f.now,
	})
	if err != nil {
		f.t.Fatalf("UpsertStage: %v", err)
	}
	f.stages[pipeline+"/"+name] = st
	return st
}

func (f *fixture) stage(pipeline, name string) domain.PipelineStage {
	f.t.Helper()
	st, ok := f.stages[pipeline+"/"+name]
	if !ok {
		f.t.Fatalf("unknown stage %s/%s", pipeline, name)
	}
	return st
}

// addTemplate references the stage by name only.
func (f *fixture) addTemplate(stageName string, number int, name string, dueValue int, unit string) domain.TaskTemplate {
	f.t.Helper()
	tmpl := domain.TaskTemplate{
		ID:           uuid.New(),
		StageName:    stageName,
		TaskNumber:   number,
		TaskName:     name,
		DueDateValue: dueValue,
		DueDateUnit:  unit,
		IsActive:     true,
		CreatedAt:    f.now.Add(time.Duration(number) * time.Second),
	}
	if err := f.store.CreateTemplate(f.ctx, tmpl); err != nil {
		f.t.Fatalf("CreateTemplate: %v", err)
	}
	return tmpl
}

func (f *fixture) addMapping(sourceStage string, sourcePipeline *string, targetPipeline, targetStage string) domain.StageCompletionMapping {
	f.t.Helper()
	m := domain.StageCompletionMapping{
		ID:               uuid.New(),
		SourceStageName:  sourceStage,
		SourcePipelineID: sourcePipeline,
		TargetPipelineID: targetPipeline,
		TargetStageName:  targetStage,
		IsActive:         true,
		CreatedAt:        f.now,
	}
	if err := f.store.CreateMapping(f.ctx, m); err != nil {
		f.t.Fatalf("CreateMapping: %v", err)
	}
	return m
}

// addOpportunity creates a contact and an opportunity sitting on stage.
func (f *fixture) addOpportunity(stage domain.PipelineStage) domain.Opportunity {
	f.t.Helper()
	email := "client@example.com"
	contact := domain.Contact{ID: uuid.New(), FirstName: "Ada", LastName: "Client", Email: &email, CreatedAt: f.now, UpdatedAt: f.now}
	if err := f.store.CreateContact(f.ctx, contact); err != nil {
		f.t.Fatalf("CreateContact: %v", err)
	}
	opp := domain.Opportunity{
		ID:         uuid.New(),
		ContactID:  contact.ID,
		Title:      "Ada Client",
		PipelineID: stage.Pipeline,
		StageID:    stage.ID,
		CreatedAt:  f.now,
		UpdatedAt:  f.now,
	}
	if err := f.store.CreateOpportunity(f.ctx, opp); err != nil {
		f.t.Fatalf("CreateOpportunity: %v", err)
	}
	return opp
}

func (f *fixture) move(opp domain.Opportunity, pipeline, stage string) Transition {
	f.t.Helper()
	tr, err := f.svc.MoveToPipeline(f.ctx, opp.ID, pipeline, f.stage(pipeline, stage).ID)
	if err != nil {
		f.t.Fatalf("MoveToPipeline(%s/%s): %v", pipeline, stage, err)
	}
	return tr
}

func (f *fixture) opportunity(id uuid.UUID) domain.Opportunity {
	f.t.Helper()
	opp, err := f.store.GetOpportunity(f.ctx, id)
	if err != nil {
		f.t.Fatalf("GetOpportunity: %v", err)
	}
	return opp
}

// assertPlacementInvariant checks the opportunity's stage belongs to its
// pipeline.
func (f *fixture) assertPlacementInvariant(id uuid.UUID) {
	f.t.Helper()
	opp := f.opportunity(id)
	st, err := f.store.GetStage(f.ctx, opp.StageID)
	if err != nil {
		f.t.Fatalf("GetStage: %v", err)
	}
	if st.Pipeline != opp.PipelineID {
		f.t.Fatalf("stage %q belongs to %q but opportunity is in %q", st.Name, st.Pipeline, opp.PipelineID)
	}
}

func strPtr(s string) *string { return &s }
