package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/pipeline"
	"legal_intake_backend/internal/lifecycle/repository/memstore"
	"legal_intake_backend/internal/lifecycle/transport"
	"legal_intake_backend/internal/lifecycle/triage"
	"legal_intake_backend/platform/httpkit"
	"legal_intake_backend/platform/logger"
	"legal_intake_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testConfig struct{}

func (testConfig) GetRollbackGracePeriod() time.Duration { return 10 * time.Minute }
func (testConfig) GetIntakePipeline() string             { return "Main Lead Flow" }
func (testConfig) GetDidNotHirePipeline() string         { return "Did Not Hire" }
func (testConfig) GetLeadListMaxLimit() int              { return 25 }

type harness struct {
	engine   *gin.Engine
	store    *memstore.Store
	userID   uuid.UUID
	newLead  domain.PipelineStage
	retained domain.PipelineStage
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	bus := events.NewInMemoryBus(logger.Discard())
	pipelineSvc := pipeline.New(store, bus, testConfig{}, logger.Discard())
	triageSvc := triage.New(store, pipelineSvc, bus, testConfig{}, logger.Discard())
	h := New(pipelineSvc, triageSvc, validator.New())

	hr := &harness{store: store, userID: uuid.New()}
	var err error
	hr.newLead, err = store.UpsertStage(ctx, domain.PipelineStage{ID: uuid.New(), Pipeline: "Main Lead Flow", Name: "New Lead", Key: "new-lead", Order: 1})
	require.NoError(t, err)
	hr.retained, err = store.UpsertStage(ctx, domain.PipelineStage{ID: uuid.New(), Pipeline: "Main Lead Flow", Name: "Retained", Key: "retained", Order: 2})
	require.NoError(t, err)

	engine := gin.New()
	v1 := engine.Group("/api/v1")
	h.RegisterPublicRoutes(v1.Group("/public"))
	protected := v1.Group("", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, hr.userID)
		c.Set(httpkit.ContextRolesKey, []string{"admin"})
		c.Next()
	})
	h.RegisterRoutes(protected)
	h.RegisterAdminRoutes(protected.Group("/admin"))
	hr.engine = engine
	return hr
}

func (hr *harness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	hr.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSubmitAcceptAndMove(t *testing.T) {
	hr := newHarness(t)

	rec := hr.do(t, http.MethodPost, "/api/v1/public/intake", map[string]interface{}{
		"firstName": "Dana",
		"lastName":  "Reyes",
		"email":     "dana@example.com",
		"caseType":  "Personal Injury",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lead := decode[transport.LeadResponse](t, rec)
	assert.Equal(t, "pending", lead.LeadStatus)

	rec = hr.do(t, http.MethodGet, "/api/v1/leads/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[transport.LeadListResponse](t, rec)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 25, list.Limit)

	rec = hr.do(t, http.MethodPost, "/api/v1/leads/"+lead.ID.String()+"/accept", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decode[transport.AcceptLeadResponse](t, rec)
	assert.Equal(t, "accepted", accepted.Lead.LeadStatus)
	assert.Equal(t, hr.newLead.ID, accepted.Opportunity.StageID)
	assert.Equal(t, "Dana Reyes - Personal Injury", accepted.Opportunity.Title)

	oppPath := "/api/v1/opportunities/" + accepted.Opportunity.ID.String()
	rec = hr.do(t, http.MethodPost, oppPath+"/move", map[string]interface{}{
		"pipelineId": "Main Lead Flow",
		"stageId":    hr.retained.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[transport.MoveResponse](t, rec)
	assert.Equal(t, hr.retained.ID, moved.Opportunity.StageID)
	require.NotNil(t, moved.StageChange.PreviousStage)
	assert.Equal(t, "New Lead", *moved.StageChange.PreviousStage)

	rec = hr.do(t, http.MethodGet, oppPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[transport.OpportunityDetailResponse](t, rec)
	assert.Equal(t, "Retained", detail.Stage.Name)
	assert.Equal(t, "Dana", detail.Contact.FirstName)

	rec = hr.do(t, http.MethodGet, oppPath+"/stage-changes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	changes := decode[[]transport.StageChangeResponse](t, rec)
	require.Len(t, changes, 2)
	assert.Equal(t, "Retained", changes[0].NewStage)

	rec = hr.do(t, http.MethodPost, "/api/v1/stage-changes/"+changes[0].ID.String()+"/rollback", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	restored := decode[transport.OpportunityResponse](t, rec)
	assert.Equal(t, hr.newLead.ID, restored.StageID)
}

func TestSubmitIntakeValidation(t *testing.T) {
	hr := newHarness(t)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"malformed body", "not an object", http.StatusBadRequest},
		{"missing first name", map[string]interface{}{"email": "a@example.com"}, http.StatusBadRequest},
		{"bad email", map[string]interface{}{"firstName": "A", "email": "nope"}, http.StatusBadRequest},
		{"short phone", map[string]interface{}{"firstName": "A", "phone": "12"}, http.StatusBadRequest},
		{"no contact field", map[string]interface{}{"firstName": "A"}, http.StatusBadRequest},
		{"phone only", map[string]interface{}{"firstName": "A", "phone": "(555) 010-2030"}, http.StatusCreated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := hr.do(t, http.MethodPost, "/api/v1/public/intake", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestErrorKindsMapToStatus(t *testing.T) {
	hr := newHarness(t)

	rec := hr.do(t, http.MethodGet, "/api/v1/opportunities/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hr.do(t, http.MethodGet, "/api/v1/opportunities/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = hr.do(t, http.MethodPost, "/api/v1/tasks/"+uuid.NewString()+"/toggle-complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = hr.do(t, http.MethodPatch, "/api/v1/admin/pipeline-stages/"+hr.retained.ID.String(), map[string]string{"name": "New Lead"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateTaskUsesCallerAsDefaultAssignee(t *testing.T) {
	hr := newHarness(t)

	contactID := uuid.New()
	require.NoError(t, hr.store.CreateContact(context.Background(), domain.Contact{ID: contactID, FirstName: "Sam", CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	rec := hr.do(t, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"contactId": contactID,
		"title":     "Send retainer agreement",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[transport.TaskResponse](t, rec)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, hr.userID.String(), *task.AssignedTo)

	rec = hr.do(t, http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/toggle-complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decode[transport.ToggleCompleteResponse](t, rec)
	assert.True(t, toggled.Task.Completed)
	assert.False(t, toggled.OpportunityMoved)
	assert.Nil(t, toggled.MovedTo)
}

func TestAdminTemplateAndMappingRoutes(t *testing.T) {
	hr := newHarness(t)

	rec := hr.do(t, http.MethodPost, "/api/v1/admin/task-templates", map[string]interface{}{
		"stageId":      hr.newLead.ID,
		"taskNumber":   1,
		"taskName":     "Call the lead",
		"dueDateValue": 2,
		"dueDateUnit":  "hours",
		"isTrigger":    true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tmpl := decode[transport.TemplateResponse](t, rec)
	assert.Equal(t, "new-lead", tmpl.StageKey)

	rec = hr.do(t, http.MethodPatch, "/api/v1/admin/task-templates/"+tmpl.ID.String()+"/active", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hr.do(t, http.MethodPatch, "/api/v1/admin/task-templates/"+tmpl.ID.String()+"/active", map[string]interface{}{"isActive": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[transport.TemplateResponse](t, rec).IsActive)

	rec = hr.do(t, http.MethodPost, "/api/v1/admin/stage-mappings", map[string]interface{}{
		"sourceStageId": hr.newLead.ID,
		"targetStageId": hr.retained.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = hr.do(t, http.MethodGet, "/api/v1/admin/stage-mappings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]transport.MappingResponse](t, rec), 1)
}

func TestRemoveDuplicateLead(t *testing.T) {
	hr := newHarness(t)

	email := "lee@example.com"
	require.NoError(t, hr.store.CreateContact(context.Background(), domain.Contact{ID: uuid.New(), FirstName: "Lee", Email: &email, CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	rec := hr.do(t, http.MethodPost, "/api/v1/public/intake", map[string]interface{}{"firstName": "Lee", "email": email})
	require.Equal(t, http.StatusCreated, rec.Code)
	lead := decode[transport.LeadResponse](t, rec)
	require.Equal(t, "duplicate", lead.LeadStatus)

	rec = hr.do(t, http.MethodDelete, "/api/v1/leads/"+lead.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[transport.RemoveLeadResponse](t, rec).Removed)

	rec = hr.do(t, http.MethodPost, "/api/v1/leads/"+lead.ID.String()+"/ignore", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = hr.do(t, http.MethodPost, "/api/v1/public/intake", map[string]interface{}{"firstName": "Kim", "email": "kim@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	pending := decode[transport.LeadResponse](t, rec)

	rec = hr.do(t, http.MethodDelete, "/api/v1/leads/"+pending.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
