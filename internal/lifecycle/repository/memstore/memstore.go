// Package memstore is an in-memory lifecycle Repository. Transactions are
// serialized and roll back by restoring a snapshot taken when they began.
// It backs service tests and local tooling that runs without Postgres.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/repository"
	"legal_intake_backend/platform/apperr"
	"legal_intake_backend/platform/phone"

	"github.com/google/uuid"
)

type state struct {
	contacts     map[uuid.UUID]domain.Contact
	stages       map[uuid.UUID]domain.PipelineStage
	templates    map[uuid.UUID]domain.TaskTemplate
	tasks        map[uuid.UUID]domain.Task
	mappings     map[uuid.UUID]domain.StageCompletionMapping
	opps         map[uuid.UUID]domain.Opportunity
	changes      map[uuid.UUID]domain.StageChange
	intake       map[uuid.UUID]domain.Intake
	appointments map[uuid.UUID]domain.Appointment
	documents    map[uuid.UUID]domain.Document
	invoices     map[uuid.UUID]domain.Invoice
	// seq records insertion order for stable listing.
	seq     map[uuid.UUID]int
	nextSeq int
}

func newState() state {
	return state{
		contacts:     map[uuid.UUID]domain.Contact{},
		stages:       map[uuid.UUID]domain.PipelineStage{},
		templates:    map[uuid.UUID]domain.TaskTemplate{},
		tasks:        map[uuid.UUID]domain.Task{},
		mappings:     map[uuid.UUID]domain.StageCompletionMapping{},
		opps:         map[uuid.UUID]domain.Opportunity{},
		changes:      map[uuid.UUID]domain.StageChange{},
		intake:       map[uuid.UUID]domain.Intake{},
		appointments: map[uuid.UUID]domain.Appointment{},
		documents:    map[uuid.UUID]domain.Document{},
		invoices:     map[uuid.UUID]domain.Invoice{},
		seq:          map[uuid.UUID]int{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		contacts:     cloneMap(s.contacts),
		stages:       cloneMap(s.stages),
		templates:    cloneMap(s.templates),
		tasks:        cloneMap(s.tasks),
		mappings:     cloneMap(s.mappings),
		opps:         cloneMap(s.opps),
		changes:      cloneMap(s.changes),
		intake:       cloneMap(s.intake),
		appointments: cloneMap(s.appointments),
		documents:    cloneMap(s.documents),
		invoices:     cloneMap(s.invoices),
		seq:          cloneMap(s.seq),
		nextSeq:      s.nextSeq,
	}
}

// Store is the in-memory Repository.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data state
	// FailOn makes the named operation return the given error, for
	// exercising rollback paths in tests.
	FailOn map[string]error
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newState(), FailOn: map[string]error{}}
}

// WithinTx runs fn with exclusive write access. On error every change fn
// made is discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) fail(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FailOn[op]
}

func (s *Store) track(id uuid.UUID) {
	if _, ok := s.data.seq[id]; ok {
		return
	}
	s.data.nextSeq++
	s.data.seq[id] = s.data.nextSeq
}

func (s *Store) bySeq(ids []uuid.UUID) {
	sort.SliceStable(ids, func(i, j int) bool { return s.data.seq[ids[i]] < s.data.seq[ids[j]] })
}

func notFound(what, op string) error {
	return apperr.NotFound(what + " not found").WithOp(op)
}

// =============================================================================
// Contacts
// =============================================================================

func (s *Store) CreateContact(ctx context.Context, c domain.Contact) error {
	if err := s.fail("CreateContact"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.contacts[c.ID] = c
	s.track(c.ID)
	return nil
}

func (s *Store) GetContact(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data.contacts[id]
	if !ok {
		return domain.Contact{}, notFound("contact", "getContact")
	}
	return c, nil
}

func (s *Store) FindContactsByEmailOrPhone(ctx context.Context, email string, phoneDigits []string) ([]domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Contact, 0)
	for _, c := range s.data.contacts {
		if (email != "" && domain.NormalizeEmail(c.Email) == email) ||
			hasDigits(phoneDigits, c.Phone) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

// hasDigits mirrors the phone_digits column: the stored number reduced to
// its digits, compared against the candidate forms.
func hasDigits(forms []string, stored *string) bool {
	if stored == nil {
		return false
	}
	digits := phone.Digits(*stored)
	if digits == "" {
		return false
	}
	for _, f := range forms {
		if f == digits {
			return true
		}
	}
	return false
}

// =============================================================================
// Stages
// =============================================================================

func (s *Store) sortedStages(filter func(domain.PipelineStage) bool) []domain.PipelineStage {
	out := make([]domain.PipelineStage, 0)
	for _, st := range s.data.stages {
		if filter(st) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pipeline != out[j].Pipeline {
			return out[i].Pipeline < out[j].Pipeline
		}
		return out[i].Order < out[j].Order
	})
	return out
}

func (s *Store) ListStages(ctx context.Context) ([]domain.PipelineStage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedStages(func(domain.PipelineStage) bool { return true }), nil
}

func (s *Store) ListPipelineStages(ctx context.Context, pipeline string) ([]domain.PipelineStage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedStages(func(st domain.PipelineStage) bool { return st.Pipeline == pipeline }), nil
}

func (s *Store) GetStage(ctx context.Context, id uuid.UUID) (domain.PipelineStage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data.stages[id]
	if !ok {
		return domain.PipelineStage{}, notFound("pipeline stage", "getStage")
	}
	return st, nil
}

func (s *Store) UpsertStage(ctx context.Context, st domain.PipelineStage) (domain.PipelineStage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.data.stages {
		if existing.Pipeline == st.Pipeline && existing.Key == st.Key {
			existing.Order = st.Order
			s.data.stages[id] = existing
			return existing, nil
		}
	}
	s.data.stages[st.ID] = st
	s.track(st.ID)
	return st, nil
}

func (s *Store) RenameStage(ctx context.Context, id uuid.UUID, name string) (domain.PipelineStage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data.stages[id]
	if !ok {
		return domain.PipelineStage{}, notFound("pipeline stage", "renameStage")
	}
	st.Name = name
	s.data.stages[id] = st
	return st, nil
}

func refersTo(key, name string, stage domain.PipelineStage, oldName string) bool {
	if key != "" {
		return key == stage.Key
	}
	return domain.NormalizeStageName(name) == domain.NormalizeStageName(oldName)
}

func (s *Store) RefreshStageNameCache(ctx context.Context, stage domain.PipelineStage, oldName string) error {
	if err := s.fail("RefreshStageNameCache"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.data.templates {
		if t.PipelineID != nil && *t.PipelineID != stage.Pipeline {
			continue
		}
		if refersTo(t.StageKey, t.StageName, stage, oldName) {
			t.StageName, t.StageKey = stage.Name, stage.Key
			s.data.templates[id] = t
		}
	}
	for id, m := range s.data.mappings {
		if (m.SourcePipelineID == nil || *m.SourcePipelineID == stage.Pipeline) &&
			refersTo(m.SourceStageKey, m.SourceStageName, stage, oldName) {
			m.SourceStageName, m.SourceStageKey = stage.Name, stage.Key
		}
		if m.TargetPipelineID == stage.Pipeline && refersTo(m.TargetStageKey, m.TargetStageName, stage, oldName) {
			m.TargetStageName, m.TargetStageKey = stage.Name, stage.Key
		}
		s.data.mappings[id] = m
	}
	return nil
}

// =============================================================================
// Templates
// =============================================================================

func (s *Store) templatesInOrder() []domain.TaskTemplate {
	ids := make([]uuid.UUID, 0, len(s.data.templates))
	for id := range s.data.templates {
		ids = append(ids, id)
	}
	s.bySeq(ids)
	out := make([]domain.TaskTemplate, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.data.templates[id])
	}
	return out
}

func (s *Store) ListTemplatesForStage(ctx context.Context, stage domain.PipelineStage) ([]domain.TaskTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ResolveTemplates(s.templatesInOrder(), stage), nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]domain.TaskTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templatesInOrder(), nil
}

func (s *Store) CreateTemplate(ctx context.Context, t domain.TaskTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.templates[t.ID] = t
	s.track(t.ID)
	return nil
}

func (s *Store) UpsertTemplate(ctx context.Context, t domain.TaskTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data.templates[t.ID]; ok {
		t.IsActive = existing.IsActive
		t.CreatedAt = existing.CreatedAt
		s.data.templates[t.ID] = t
		return nil
	}
	s.data.templates[t.ID] = t
	s.track(t.ID)
	return nil
}

func (s *Store) SetTemplateActive(ctx context.Context, id uuid.UUID, active bool) (domain.TaskTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data.templates[id]
	if !ok {
		return domain.TaskTemplate{}, notFound("task template", "setTemplateActive")
	}
	t.IsActive = active
	s.data.templates[id] = t
	return t, nil
}

// =============================================================================
// Tasks
// =============================================================================

func (s *Store) CreateTask(ctx context.Context, t domain.Task) error {
	if err := s.fail("CreateTask"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.tasks[t.ID] = t
	s.track(t.ID)
	return nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.data.tasks[id]
	if !ok {
		return domain.Task{}, notFound("task", "getTask")
	}
	return t, nil
}

func (s *Store) GetTaskForUpdate(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	return s.GetTask(ctx, id)
}

func (s *Store) UpdateTaskCompletion(ctx context.Context, t domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data.tasks[t.ID]
	if !ok {
		return notFound("task", "updateTaskCompletion")
	}
	existing.Completed = t.Completed
	existing.CompletedAt = t.CompletedAt
	existing.Status = t.Status
	existing.UpdatedAt = t.UpdatedAt
	s.data.tasks[t.ID] = existing
	return nil
}

func (s *Store) ListTasksByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.data.tasks[id]; ok {
			found = append(found, id)
		}
	}
	s.bySeq(found)
	out := make([]domain.Task, 0, len(found))
	for _, id := range found {
		out = append(out, s.data.tasks[id])
	}
	return out, nil
}

func (s *Store) ListTasksByOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0)
	for id, t := range s.data.tasks {
		if t.OpportunityID != nil && *t.OpportunityID == opportunityID {
			ids = append(ids, id)
		}
	}
	s.bySeq(ids)
	out := make([]domain.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.data.tasks[id])
	}
	return out, nil
}

func (s *Store) DeleteTasks(ctx context.Context, ids []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.data.tasks[id]; ok {
			delete(s.data.tasks, id)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// Mappings
// =============================================================================

func (s *Store) mappingsInOrder() []domain.StageCompletionMapping {
	ids := make([]uuid.UUID, 0, len(s.data.mappings))
	for id := range s.data.mappings {
		ids = append(ids, id)
	}
	s.bySeq(ids)
	out := make([]domain.StageCompletionMapping, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.data.mappings[id])
	}
	return out
}

func (s *Store) ListMappingsForStage(ctx context.Context, stage domain.PipelineStage) ([]domain.StageCompletionMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StageCompletionMapping, 0)
	for _, m := range s.mappingsInOrder() {
		if !m.IsActive {
			continue
		}
		if refersTo(m.SourceStageKey, m.SourceStageName, stage, stage.Name) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) ListMappings(ctx context.Context) ([]domain.StageCompletionMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mappingsInOrder(), nil
}

func (s *Store) CreateMapping(ctx context.Context, m domain.StageCompletionMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.mappings[m.ID] = m
	s.track(m.ID)
	return nil
}

func (s *Store) UpsertMapping(ctx context.Context, m domain.StageCompletionMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data.mappings[m.ID]; ok {
		m.IsActive = existing.IsActive
		m.CreatedAt = existing.CreatedAt
		s.data.mappings[m.ID] = m
		return nil
	}
	s.data.mappings[m.ID] = m
	s.track(m.ID)
	return nil
}

// =============================================================================
// Opportunities
// =============================================================================

func (s *Store) CreateOpportunity(ctx context.Context, o domain.Opportunity) error {
	if err := s.fail("CreateOpportunity"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.opps[o.ID] = o
	s.track(o.ID)
	return nil
}

func (s *Store) GetOpportunity(ctx context.Context, id uuid.UUID) (domain.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.data.opps[id]
	if !ok {
		return domain.Opportunity{}, notFound("opportunity", "getOpportunity")
	}
	return o, nil
}

func (s *Store) GetOpportunityForUpdate(ctx context.Context, id uuid.UUID) (domain.Opportunity, error) {
	return s.GetOpportunity(ctx, id)
}

func (s *Store) UpdateOpportunityPlacement(ctx context.Context, o domain.Opportunity) error {
	if err := s.fail("UpdateOpportunityPlacement"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data.opps[o.ID]
	if !ok {
		return notFound("opportunity", "updateOpportunityPlacement")
	}
	existing.PipelineID = o.PipelineID
	existing.StageID = o.StageID
	existing.DidNotHireAt = o.DidNotHireAt
	existing.DidNotHireReason = o.DidNotHireReason
	existing.UpdatedAt = o.UpdatedAt
	s.data.opps[o.ID] = existing
	return nil
}

func (s *Store) CountIntakeReferences(ctx context.Context, intakeID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, o := range s.data.opps {
		if o.IntakeID != nil && *o.IntakeID == intakeID {
			n++
		}
	}
	return n, nil
}

// =============================================================================
// Stage changes
// =============================================================================

func (s *Store) CreateStageChange(ctx context.Context, sc domain.StageChange) error {
	if err := s.fail("CreateStageChange"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc.TaskIDs = append([]uuid.UUID{}, sc.TaskIDs...)
	s.data.changes[sc.ID] = sc
	s.track(sc.ID)
	return nil
}

func (s *Store) GetStageChangeForUpdate(ctx context.Context, id uuid.UUID) (domain.StageChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.data.changes[id]
	if !ok {
		return domain.StageChange{}, notFound("stage change", "getStageChangeForUpdate")
	}
	return sc, nil
}

// changesNewestFirst orders by createdAt, then insertion order.
func (s *Store) changesNewestFirst(opportunityID uuid.UUID) []domain.StageChange {
	out := make([]domain.StageChange, 0)
	for _, sc := range s.data.changes {
		if sc.OpportunityID == opportunityID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.data.seq[out[i].ID] > s.data.seq[out[j].ID]
	})
	return out
}

func (s *Store) GetLatestStageChange(ctx context.Context, opportunityID uuid.UUID) (domain.StageChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	changes := s.changesNewestFirst(opportunityID)
	if len(changes) == 0 {
		return domain.StageChange{}, notFound("stage change", "getLatestStageChange")
	}
	return changes[0], nil
}

func (s *Store) ListStageChanges(ctx context.Context, opportunityID uuid.UUID) ([]domain.StageChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changesNewestFirst(opportunityID), nil
}

func (s *Store) DeleteStageChange(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.changes[id]; !ok {
		return notFound("stage change", "deleteStageChange")
	}
	delete(s.data.changes, id)
	return nil
}

// =============================================================================
// Intake
// =============================================================================

func (s *Store) CreateIntake(ctx context.Context, in domain.Intake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.intake[in.ID] = in
	s.track(in.ID)
	return nil
}

func (s *Store) GetIntake(ctx context.Context, id uuid.UUID) (domain.Intake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.data.intake[id]
	if !ok {
		return domain.Intake{}, notFound("lead", "getIntake")
	}
	return in, nil
}

func (s *Store) GetIntakeForUpdate(ctx context.Context, id uuid.UUID) (domain.Intake, error) {
	return s.GetIntake(ctx, id)
}

func (s *Store) UpdateIntake(ctx context.Context, in domain.Intake) error {
	if err := s.fail("UpdateIntake"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data.intake[in.ID]
	if !ok {
		return notFound("lead", "updateIntake")
	}
	existing.Email = in.Email
	existing.Phone = in.Phone
	existing.LeadStatus = in.LeadStatus
	existing.DuplicateOfContactID = in.DuplicateOfContactID
	existing.DuplicateMatchType = in.DuplicateMatchType
	existing.ContactID = in.ContactID
	existing.OpportunityID = in.OpportunityID
	existing.UpdatedAt = in.UpdatedAt
	s.data.intake[in.ID] = existing
	return nil
}

func (s *Store) DeleteIntake(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.intake[id]; !ok {
		return notFound("lead", "deleteIntake")
	}
	for _, o := range s.data.opps {
		if o.IntakeID != nil && *o.IntakeID == id {
			return apperr.Integrity("lead is still referenced by other records").WithOp("deleteIntake")
		}
	}
	delete(s.data.intake, id)
	return nil
}

func (s *Store) ListIntakeByStatus(ctx context.Context, status domain.LeadStatus, limit int) ([]domain.Intake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Intake, 0)
	for _, in := range s.data.intake {
		if in.LeadStatus == status {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// Related records
// =============================================================================

// AddAppointment, AddDocument and AddInvoice seed collaborator records.
func (s *Store) AddAppointment(a domain.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.appointments[a.ID] = a
	s.track(a.ID)
}

func (s *Store) AddDocument(d domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.documents[d.ID] = d
	s.track(d.ID)
}

func (s *Store) AddInvoice(inv domain.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.invoices[inv.ID] = inv
	s.track(inv.ID)
}

func (s *Store) ListAppointments(ctx context.Context, opportunityID uuid.UUID) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Appointment, 0)
	for _, a := range s.data.appointments {
		if a.OpportunityID == opportunityID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (s *Store) ListDocuments(ctx context.Context, opportunityID uuid.UUID) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0)
	for _, d := range s.data.documents {
		if d.OpportunityID == opportunityID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.data.seq[out[i].ID] < s.data.seq[out[j].ID] })
	return out, nil
}

func (s *Store) ListInvoices(ctx context.Context, opportunityID uuid.UUID) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Invoice, 0)
	for _, inv := range s.data.invoices {
		if inv.OpportunityID == opportunityID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.data.seq[out[i].ID] < s.data.seq[out[j].ID] })
	return out, nil
}

var _ repository.Repository = (*Store)(nil)
