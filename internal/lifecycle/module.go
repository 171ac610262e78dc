// Package lifecycle provides the opportunity lifecycle module: pipeline
// automation, stage transitions and lead triage.
package lifecycle

import (
	"legal_intake_backend/internal/events"
	apphttp "legal_intake_backend/internal/http"
	"legal_intake_backend/internal/lifecycle/handler"
	"legal_intake_backend/internal/lifecycle/pipeline"
	"legal_intake_backend/internal/lifecycle/repository"
	"legal_intake_backend/internal/lifecycle/triage"
	"legal_intake_backend/platform/config"
	"legal_intake_backend/platform/logger"
	"legal_intake_backend/platform/validator"
)

// Module represents the lifecycle domain module
type Module struct {
	handler  *handler.Handler
	Repo     repository.Repository
	Pipeline *pipeline.Service
	Triage   *triage.Service
}

// NewModule creates a new lifecycle module with all dependencies wired
func NewModule(repo repository.Repository, bus events.Bus, val *validator.Validator, cfg config.LifecycleConfig, log *logger.Logger) *Module {
	pipelineSvc := pipeline.New(repo, bus, cfg, log)
	triageSvc := triage.New(repo, pipelineSvc, bus, cfg, log)

	return &Module{
		handler:  handler.New(pipelineSvc, triageSvc, val),
		Repo:     repo,
		Pipeline: pipelineSvc,
		Triage:   triageSvc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "lifecycle"
}

// RegisterRoutes registers the module's routes on the public, protected
// and admin groups.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.Public)
	m.handler.RegisterRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
