package handler

import (
	"net/http"

	"legal_intake_backend/internal/lifecycle/pipeline"
	"legal_intake_backend/internal/lifecycle/transport"
	"legal_intake_backend/internal/lifecycle/triage"
	"legal_intake_backend/platform/httpkit"
	"legal_intake_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the opportunity lifecycle.
type Handler struct {
	pipeline *pipeline.Service
	triage   *triage.Service
	val      *validator.Validator
}

// New creates a new lifecycle handler.
func New(pipelineSvc *pipeline.Service, triageSvc *triage.Service, val *validator.Validator) *Handler {
	return &Handler{pipeline: pipelineSvc, triage: triageSvc, val: val}
}

// RegisterRoutes registers the routes available to any authenticated user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/pipeline-stages", h.ListStages)

	rg.GET("/opportunities/:id", h.GetOpportunity)
	rg.POST("/opportunities/:id/move", h.MoveToPipeline)
	rg.GET("/opportunities/:id/tasks", h.ListTasks)
	rg.GET("/opportunities/:id/stage-changes", h.ListStageChanges)
	rg.POST("/stage-changes/:id/rollback", h.Rollback)

	rg.POST("/tasks", h.CreateTask)
	rg.POST("/tasks/:id/toggle-complete", h.ToggleComplete)

	leads := rg.Group("/leads")
	leads.GET("/pending", h.ListPendingLeads)
	leads.GET("/ignored", h.ListIgnoredLeads)
	leads.GET("/duplicates", h.ListDuplicateLeads)
	leads.POST("/:id/accept", h.AcceptLead)
	leads.POST("/:id/ignore", h.IgnoreLead)
	leads.POST("/:id/restore", h.RestoreLead)
	leads.POST("/:id/create-as-new", h.CreateAsNewLead)
	leads.PATCH("/:id/email", h.UpdateLeadEmail)
	leads.PATCH("/:id/phone", h.UpdateLeadPhone)
	leads.DELETE("/:id", h.RemoveLead)
}

// RegisterAdminRoutes registers the pipeline configuration routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/pipeline-stages/:id", h.RenameStage)

	rg.GET("/task-templates", h.ListTemplates)
	rg.POST("/task-templates", h.CreateTemplate)
	rg.PATCH("/task-templates/:id/active", h.SetTemplateActive)

	rg.GET("/stage-mappings", h.ListMappings)
	rg.POST("/stage-mappings", h.CreateMapping)
}

// RegisterPublicRoutes registers the unauthenticated intake form endpoint.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/intake", h.SubmitIntake)
}

// ListStages handles GET /api/v1/pipeline-stages
func (h *Handler) ListStages(c *gin.Context) {
	stages, err := h.pipeline.ListStages(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStageResponses(stages))
}

// RenameStage handles PATCH /api/v1/admin/pipeline-stages/:id
func (h *Handler) RenameStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.RenameStageRequest
	if !h.bind(c, &req) {
		return
	}

	stage, err := h.pipeline.RenameStage(c.Request.Context(), id, req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStageResponse(stage))
}

// GetOpportunity handles GET /api/v1/opportunities/:id
func (h *Handler) GetOpportunity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	detail, err := h.pipeline.GetWithRelated(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.OpportunityDetailResponse{
		Opportunity:  transport.ToOpportunityResponse(detail.Opportunity),
		Stage:        transport.ToStageResponse(detail.Stage),
		Contact:      transport.ToContactResponse(detail.Contact),
		Tasks:        transport.ToTaskResponses(detail.Tasks),
		Appointments: transport.ToAppointmentResponses(detail.Appointments),
		Documents:    transport.ToDocumentResponses(detail.Documents),
		Invoices:     transport.ToInvoiceResponses(detail.Invoices),
	})
}

// MoveToPipeline handles POST /api/v1/opportunities/:id/move
func (h *Handler) MoveToPipeline(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.MoveToPipelineRequest
	if !h.bind(c, &req) {
		return
	}

	t, err := h.pipeline.MoveToPipeline(c.Request.Context(), id, req.PipelineID, req.StageID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MoveResponse{
		Opportunity: transport.ToOpportunityResponse(t.Opportunity),
		Stage:       transport.ToStageResponse(t.Stage),
		StageChange: transport.ToStageChangeResponse(t.Change),
		Tasks:       transport.ToTaskResponses(t.Tasks),
	})
}

// ListTasks handles GET /api/v1/opportunities/:id/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tasks, err := h.pipeline.ListTasks(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTaskResponses(tasks))
}

// ListStageChanges handles GET /api/v1/opportunities/:id/stage-changes
func (h *Handler) ListStageChanges(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	changes, err := h.pipeline.ListStageChanges(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStageChangeResponses(changes))
}

// Rollback handles POST /api/v1/stage-changes/:id/rollback
func (h *Handler) Rollback(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	opp, err := h.pipeline.Rollback(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToOpportunityResponse(opp))
}

// CreateTask handles POST /api/v1/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req transport.CreateTaskRequest
	if !h.bind(c, &req) {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	task, err := h.pipeline.CreateTask(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToTaskResponse(task))
}

// ToggleComplete handles POST /api/v1/tasks/:id/toggle-complete
func (h *Handler) ToggleComplete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.pipeline.ToggleComplete(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ToggleCompleteResponse{
		Task:             transport.ToTaskResponse(result.Task),
		OpportunityMoved: result.OpportunityMoved,
	}
	if result.MovedTo != nil {
		resp.MovedTo = &transport.MovedTo{Pipeline: result.MovedTo.Pipeline, Stage: result.MovedTo.Stage}
	}
	httpkit.OK(c, resp)
}

// ListTemplates handles GET /api/v1/admin/task-templates
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.pipeline.ListTemplates(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTemplateResponses(templates))
}

// CreateTemplate handles POST /api/v1/admin/task-templates
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req transport.CreateTemplateRequest
	if !h.bind(c, &req) {
		return
	}

	tmpl, err := h.pipeline.CreateTemplate(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToTemplateResponse(tmpl))
}

// SetTemplateActive handles PATCH /api/v1/admin/task-templates/:id/active
func (h *Handler) SetTemplateActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.SetActiveRequest
	if !h.bind(c, &req) {
		return
	}

	tmpl, err := h.pipeline.SetTemplateActive(c.Request.Context(), id, *req.IsActive)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTemplateResponse(tmpl))
}

// ListMappings handles GET /api/v1/admin/stage-mappings
func (h *Handler) ListMappings(c *gin.Context) {
	mappings, err := h.pipeline.ListMappings(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToMappingResponses(mappings))
}

// CreateMapping handles POST /api/v1/admin/stage-mappings
func (h *Handler) CreateMapping(c *gin.Context) {
	var req transport.CreateMappingRequest
	if !h.bind(c, &req) {
		return
	}

	m, err := h.pipeline.CreateMapping(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToMappingResponse(m))
}

// bind decodes the JSON body into req and validates it, writing the 400
// response itself when either step fails.
func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
