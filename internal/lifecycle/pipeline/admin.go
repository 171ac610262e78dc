package pipeline

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/repository"
	"legal_intake_backend/internal/lifecycle/transport"
	"legal_intake_backend/platform/apperr"
	"legal_intake_backend/platform/sanitize"

	"github.com/google/uuid"
)

// ListStages returns every pipeline stage ordered by pipeline and order.
func (s *Service) ListStages(ctx context.Context) ([]domain.PipelineStage, error) {
	return s.repo.ListStages(ctx)
}

// RenameStage changes a stage's display name and refreshes the cached name
// on templates and mappings that follow it. The stage key does not change.
func (s *Service) RenameStage(ctx context.Context, stageID uuid.UUID, name string) (domain.PipelineStage, error) {
	name = sanitize.Name(name)
	if name == "" {
		return domain.PipelineStage{}, apperr.Validation("stage name is required").WithOp("renameStage")
	}

	var (
		renamed domain.PipelineStage
		oldName string
	)
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		stage, err := tx.GetStage(ctx, stageID)
		if err != nil {
			return err
		}
		oldName = stage.Name
		if stage.Name == name {
			renamed = stage
			return nil
		}

		siblings, err := tx.ListPipelineStages(ctx, stage.Pipeline)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.ID != stage.ID && domain.NormalizeStageName(sib.Name) == domain.NormalizeStageName(name) {
				return apperr.Conflict(fmt.Sprintf("pipeline %q already has a stage named %q", stage.Pipeline, sib.Name)).WithOp("renameStage")
			}
		}

		renamed, err = tx.RenameStage(ctx, stage.ID, name)
		if err != nil {
			return err
		}
		return tx.RefreshStageNameCache(ctx, renamed, oldName)
	})
	if err != nil {
		return domain.PipelineStage{}, err
	}

	if oldName != renamed.Name {
		s.log.WithContext(ctx).Info("pipeline stage renamed",
			"stage_id", renamed.ID,
			"pipeline", renamed.Pipeline,
			"from", oldName,
			"to", renamed.Name,
		)
	}
	return renamed, nil
}

// ListTemplates returns every task template.
func (s *Service) ListTemplates(ctx context.Context) ([]domain.TaskTemplate, error) {
	return s.repo.ListTemplates(ctx)
}

// CreateTemplate adds a task template bound to a stage's key.
func (s *Service) CreateTemplate(ctx context.Context, req transport.CreateTemplateRequest) (domain.TaskTemplate, error) {
	unit, err := domain.NormalizeDueUnit(req.DueDateUnit)
	if err != nil {
		return domain.TaskTemplate{}, apperr.Validation(err.Error()).WithOp("createTemplate")
	}
	stage, err := s.repo.GetStage(ctx, req.StageID)
	if err != nil {
		return domain.TaskTemplate{}, err
	}

	t := domain.TaskTemplate{
		ID:              uuid.New(),
		StageName:       stage.Name,
		StageKey:        stage.Key,
		TaskNumber:      req.TaskNumber,
		TaskName:        sanitize.Text(req.TaskName),
		TaskDescription: sanitize.Text(req.TaskDescription),
		DueDateValue:    req.DueDateValue,
		DueDateUnit:     unit,
		AssignedTo:      sanitize.Optional(req.AssignedTo),
		AssignedToName:  sanitize.Optional(req.AssignedToName),
		IsActive:        true,
		IsTrigger:       req.IsTrigger,
		CreatedAt:       s.now(),
	}
	if req.ScopeToPipeline {
		pipeline := stage.Pipeline
		t.PipelineID = &pipeline
	}
	if t.TaskName == "" {
		return domain.TaskTemplate{}, apperr.Validation("taskName is required").WithOp("createTemplate")
	}

	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		return domain.TaskTemplate{}, err
	}
	return t, nil
}

// SetTemplateActive enables or disables a template. Tasks already created
// from it are unaffected.
func (s *Service) SetTemplateActive(ctx context.Context, id uuid.UUID, active bool) (domain.TaskTemplate, error) {
	return s.repo.SetTemplateActive(ctx, id, active)
}

// ListMappings returns every stage completion mapping.
func (s *Service) ListMappings(ctx context.Context) ([]domain.StageCompletionMapping, error) {
	return s.repo.ListMappings(ctx)
}

// CreateMapping adds a completion mapping from one stage to another.
func (s *Service) CreateMapping(ctx context.Context, req transport.CreateMappingRequest) (domain.StageCompletionMapping, error) {
	if req.SourceStageID == req.TargetStageID {
		return domain.StageCompletionMapping{}, apperr.Validation("source and target stage must differ").WithOp("createMapping")
	}
	source, err := s.repo.GetStage(ctx, req.SourceStageID)
	if err != nil {
		return domain.StageCompletionMapping{}, err
	}
	target, err := s.repo.GetStage(ctx, req.TargetStageID)
	if err != nil {
		return domain.StageCompletionMapping{}, err
	}

	m := domain.StageCompletionMapping{
		ID:               uuid.New(),
		SourceStageName:  source.Name,
		SourceStageKey:   source.Key,
		TargetPipelineID: target.Pipeline,
		TargetStageName:  target.Name,
		TargetStageKey:   target.Key,
		IsActive:         true,
		CreatedAt:        s.now(),
	}
	if req.ScopeToPipeline {
		pipeline := source.Pipeline
		m.SourcePipelineID = &pipeline
	}
	if err := s.repo.CreateMapping(ctx, m); err != nil {
		return domain.StageCompletionMapping{}, err
	}
	return m, nil
}
