// Package seed loads pipeline reference data (stages, task templates and
// completion mappings) from YAML and upserts it.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/repository"
	"legal_intake_backend/platform/apperr"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultSeed []byte

// namespace derives stable ids so re-running a seed updates rows in place.
var namespace = uuid.MustParse("6f1d7c1e-2b8a-4c55-9a34-0c7e3f1b9d21")

// File is the seed document.
type File struct {
	Pipelines []Pipeline `yaml:"pipelines"`
	Templates []Template `yaml:"templates"`
	Mappings  []Mapping  `yaml:"mappings"`
}

// Pipeline lists stages in order.
type Pipeline struct {
	Name   string  `yaml:"name"`
	Stages []Stage `yaml:"stages"`
}

// Stage is one pipeline step. Key defaults to the slug of Name.
type Stage struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

// Template is a task template bound to a stage by key or name. Pipeline
// picks the stage when the name exists in several pipelines.
type Template struct {
	Stage           string  `yaml:"stage"`
	Pipeline        string  `yaml:"pipeline"`
	ScopeToPipeline bool    `yaml:"scopeToPipeline"`
	TaskNumber      int     `yaml:"taskNumber"`
	TaskName        string  `yaml:"taskName"`
	TaskDescription string  `yaml:"taskDescription"`
	DueDateValue    int     `yaml:"dueDateValue"`
	DueDateUnit     string  `yaml:"dueDateUnit"`
	AssignedTo      *string `yaml:"assignedTo"`
	AssignedToName  *string `yaml:"assignedToName"`
	IsTrigger       bool    `yaml:"isTrigger"`
	Inactive        bool    `yaml:"inactive"`
}

// StageRef names a stage inside a pipeline.
type StageRef struct {
	Pipeline string `yaml:"pipeline"`
	Stage    string `yaml:"stage"`
}

// Mapping is a stage completion mapping.
type Mapping struct {
	Source          StageRef `yaml:"source"`
	ScopeToPipeline bool     `yaml:"scopeToPipeline"`
	Target          StageRef `yaml:"target"`
}

// Result counts the upserted rows.
type Result struct {
	Stages    int
	Templates int
	Mappings  int
}

// Default returns the built-in seed.
func Default() (File, error) {
	return Load(bytes.NewReader(defaultSeed))
}

// Load decodes a seed document. Unknown fields are rejected.
func Load(r io.Reader) (File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, apperr.Validation("seed file is empty")
		}
		return File{}, apperr.Wrap(apperr.KindValidation, "invalid seed file", err)
	}
	if err := f.validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

func (f File) validate() error {
	if len(f.Pipelines) == 0 {
		return apperr.Validation("seed file declares no pipelines")
	}
	for i, p := range f.Pipelines {
		if strings.TrimSpace(p.Name) == "" {
			return apperr.Validation(fmt.Sprintf("pipelines[%d]: name is required", i))
		}
		seen := map[string]bool{}
		for j, s := range p.Stages {
			if strings.TrimSpace(s.Name) == "" {
				return apperr.Validation(fmt.Sprintf("pipelines[%d].stages[%d]: name is required", i, j))
			}
			key := s.key()
			if key == "" || seen[key] {
				return apperr.Validation(fmt.Sprintf("pipelines[%d].stages[%d]: duplicate or empty key %q", i, j, key))
			}
			seen[key] = true
		}
	}
	for i, t := range f.Templates {
		if strings.TrimSpace(t.Stage) == "" || strings.TrimSpace(t.TaskName) == "" {
			return apperr.Validation(fmt.Sprintf("templates[%d]: stage and taskName are required", i))
		}
		if t.TaskNumber < 1 {
			return apperr.Validation(fmt.Sprintf("templates[%d]: taskNumber must be positive", i))
		}
		if _, err := domain.NormalizeDueUnit(t.DueDateUnit); err != nil {
			return apperr.Validation(fmt.Sprintf("templates[%d]: %v", i, err))
		}
	}
	for i, m := range f.Mappings {
		if m.Source.Stage == "" || m.Target.Stage == "" || m.Target.Pipeline == "" {
			return apperr.Validation(fmt.Sprintf("mappings[%d]: source.stage, target.pipeline and target.stage are required", i))
		}
	}
	return nil
}

func (s Stage) key() string {
	if s.Key != "" {
		return domain.StageKey(s.Key)
	}
	return domain.StageKey(s.Name)
}

// Apply upserts f in one transaction.
func Apply(ctx context.Context, repo repository.Repository, f File, now time.Time) (Result, error) {
	var res Result
	err := repo.WithinTx(ctx, func(tx repository.Store) error {
		idx := stageIndex{}
		for _, p := range f.Pipelines {
			for i, s := range p.Stages {
				stage, err := tx.UpsertStage(ctx, domain.PipelineStage{
					ID:        stableID("stage", p.Name, s.key()),
					Pipeline:  p.Name,
					Name:      strings.TrimSpace(s.Name),
					Key:       s.key(),
					Order:     i + 1,
					CreatedAt: now,
				})
				if err != nil {
					return err
				}
				idx.add(stage)
				res.Stages++
			}
		}

		for i, t := range f.Templates {
			stage, err := idx.find(t.Pipeline, t.Stage)
			if err != nil {
				return fmt.Errorf("templates[%d]: %w", i, err)
			}
			unit, _ := domain.NormalizeDueUnit(t.DueDateUnit)
			tmpl := domain.TaskTemplate{
				StageName:       stage.Name,
				StageKey:        stage.Key,
				TaskNumber:      t.TaskNumber,
				TaskName:        strings.TrimSpace(t.TaskName),
				TaskDescription: strings.TrimSpace(t.TaskDescription),
				DueDateValue:    t.DueDateValue,
				DueDateUnit:     unit,
				AssignedTo:      t.AssignedTo,
				AssignedToName:  t.AssignedToName,
				IsActive:        !t.Inactive,
				IsTrigger:       t.IsTrigger,
				CreatedAt:       now,
			}
			scope := ""
			if t.ScopeToPipeline {
				pipeline := stage.Pipeline
				tmpl.PipelineID = &pipeline
				scope = pipeline
			}
			tmpl.ID = stableID("template", stage.Key, scope, strconv.Itoa(t.TaskNumber))
			if err := tx.UpsertTemplate(ctx, tmpl); err != nil {
				return err
			}
			res.Templates++
		}

		for i, m := range f.Mappings {
			source, err := idx.find(m.Source.Pipeline, m.Source.Stage)
			if err != nil {
				return fmt.Errorf("mappings[%d].source: %w", i, err)
			}
			target, err := idx.find(m.Target.Pipeline, m.Target.Stage)
			if err != nil {
				return fmt.Errorf("mappings[%d].target: %w", i, err)
			}
			mapping := domain.StageCompletionMapping{
				SourceStageName:  source.Name,
				SourceStageKey:   source.Key,
				TargetPipelineID: target.Pipeline,
				TargetStageName:  target.Name,
				TargetStageKey:   target.Key,
				IsActive:         true,
				CreatedAt:        now,
			}
			scope := ""
			if m.ScopeToPipeline {
				pipeline := source.Pipeline
				mapping.SourcePipelineID = &pipeline
				scope = pipeline
			}
			mapping.ID = stableID("mapping", source.Key, scope)
			if err := tx.UpsertMapping(ctx, mapping); err != nil {
				return err
			}
			res.Mappings++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func stableID(parts ...string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(strings.Join(parts, "\x00")))
}

// stageIndex resolves seed stage references by key or name.
type stageIndex []domain.PipelineStage

func (idx *stageIndex) add(s domain.PipelineStage) {
	*idx = append(*idx, s)
}

func (idx stageIndex) find(pipeline, ref string) (domain.PipelineStage, error) {
	key := domain.StageKey(ref)
	var matches []domain.PipelineStage
	for _, s := range idx {
		if pipeline != "" && s.Pipeline != pipeline {
			continue
		}
		if s.Key == key || strings.EqualFold(s.Name, strings.TrimSpace(ref)) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return domain.PipelineStage{}, apperr.Validation(fmt.Sprintf("unknown stage %q", ref))
	case 1:
		return matches[0], nil
	default:
		return domain.PipelineStage{}, apperr.Validation(fmt.Sprintf("stage %q exists in several pipelines; set pipeline", ref))
	}
}
