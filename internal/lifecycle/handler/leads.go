package handler

import (
	"context"
	"net/http"

	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/transport"
	"legal_intake_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type leadList func(ctx context.Context, limit int) ([]domain.Intake, int, error)

type leadAction func(ctx context.Context, id uuid.UUID) (domain.Intake, error)

// SubmitIntake handles POST /api/v1/public/intake
func (h *Handler) SubmitIntake(c *gin.Context) {
	var req transport.SubmitIntakeRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.triage.Submit(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

// ListPendingLeads handles GET /api/v1/leads/pending
func (h *Handler) ListPendingLeads(c *gin.Context) {
	h.listLeads(c, h.triage.ListPending)
}

// ListIgnoredLeads handles GET /api/v1/leads/ignored
func (h *Handler) ListIgnoredLeads(c *gin.Context) {
	h.listLeads(c, h.triage.ListIgnored)
}

// ListDuplicateLeads handles GET /api/v1/leads/duplicates
func (h *Handler) ListDuplicateLeads(c *gin.Context) {
	h.listLeads(c, h.triage.ListDuplicates)
}

// AcceptLead handles POST /api/v1/leads/:id/accept
func (h *Handler) AcceptLead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.triage.Accept(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AcceptLeadResponse{
		Lead:        transport.ToLeadResponse(result.Lead),
		Contact:     transport.ToContactResponse(result.Contact),
		Opportunity: transport.ToOpportunityResponse(result.Opportunity),
	})
}

// IgnoreLead handles POST /api/v1/leads/:id/ignore
func (h *Handler) IgnoreLead(c *gin.Context) {
	h.leadAction(c, h.triage.Ignore)
}

// RestoreLead handles POST /api/v1/leads/:id/restore
func (h *Handler) RestoreLead(c *gin.Context) {
	h.leadAction(c, h.triage.Restore)
}

// CreateAsNewLead handles POST /api/v1/leads/:id/create-as-new
func (h *Handler) CreateAsNewLead(c *gin.Context) {
	h.leadAction(c, h.triage.CreateAsNewLead)
}

// UpdateLeadEmail handles PATCH /api/v1/leads/:id/email
func (h *Handler) UpdateLeadEmail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateEmailRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.triage.UpdateDuplicateEmail(c.Request.Context(), id, req.Email)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// UpdateLeadPhone handles PATCH /api/v1/leads/:id/phone
func (h *Handler) UpdateLeadPhone(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdatePhoneRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.triage.UpdateDuplicatePhone(c.Request.Context(), id, req.Phone)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// RemoveLead handles DELETE /api/v1/leads/:id
func (h *Handler) RemoveLead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.triage.RemoveDuplicate(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RemoveLeadResponse{ID: id, Removed: true})
}

func (h *Handler) listLeads(c *gin.Context, list leadList) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	leads, limit, err := list(c.Request.Context(), req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadListResponse{Items: transport.ToLeadResponses(leads), Limit: limit})
}

func (h *Handler) leadAction(c *gin.Context, action leadAction) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	lead, err := action(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}
