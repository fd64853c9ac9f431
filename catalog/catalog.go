// ABOUTME: Read-only pipeline and stage catalog loaded once per session
// ABOUTME: Parses YAML pipeline definitions and enforces stage ordering invariants
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/harperreed/dealflow/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_pipelines.yaml
var defaultPipelines []byte

var (
	ErrNotFound         = errors.New("not found")
	ErrPipelineNotFound = fmt.Errorf("pipeline %w", ErrNotFound)
	ErrStageNotFound    = fmt.Errorf("stage %w", ErrNotFound)
	ErrInvalidCatalog   = errors.New("invalid pipeline catalog")
)

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	pipelines []models.Pipeline
	byID      map[string]int
}

type catalogFile struct {
	Pipelines []models.Pipeline `yaml:"pipelines"`
}

// New validates the pipelines and builds a catalog from copies of them.
func New(pipelines []models.Pipeline) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(pipelines))}
	defaults := 0

	for _, p := range pipelines {
		if err := validatePipeline(p); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate pipeline id %q", ErrInvalidCatalog, p.ID)
		}
		if p.IsDefault {
			defaults++
		}
		p.Stages = append([]models.Stage(nil), p.Stages...)
		c.byID[p.ID] = len(c.pipelines)
		c.pipelines = append(c.pipelines, p)
	}

	if defaults > 1 {
		return nil, fmt.Errorf("%w: %d pipelines marked default", ErrInvalidCatalog, defaults)
	}
	return c, nil
}

// Load parses a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline catalog: %w", err)
	}
	return New(f.Pipelines)
}

// LoadFile reads a catalog from path, or the built-in catalog when path is empty.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Default returns the built-in Sales and Enterprise pipelines.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultPipelines))
	if err != nil {
		panic(fmt.Sprintf("embedded pipeline catalog is invalid: %v", err))
	}
	return c
}

// Pipeline returns a copy of the pipeline with the given id.
func (c *Catalog) Pipeline(id string) (models.Pipeline, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.Pipeline{}, fmt.Errorf("%w: %s", ErrPipelineNotFound, id)
	}
	p := c.pipelines[i]
	p.Stages = append([]models.Stage(nil), p.Stages...)
	return p, nil
}

// Stage resolves a stage within a pipeline. Stage ids are not portable across pipelines.
func (c *Catalog) Stage(pipelineID, stageID string) (models.Stage, error) {
	i, ok := c.byID[pipelineID]
	if !ok {
		return models.Stage{}, fmt.Errorf("%w: %s", ErrPipelineNotFound, pipelineID)
	}
	s, ok := c.pipelines[i].Stage(stageID)
	if !ok {
		return models.Stage{}, fmt.Errorf("%w: %s in pipeline %s", ErrStageNotFound, stageID, pipelineID)
	}
	return s, nil
}

// Pipelines lists all pipelines in catalog order.
func (c *Catalog) Pipelines() []models.Pipeline {
	out := make([]models.Pipeline, 0, len(c.pipelines))
	for _, p := range c.pipelines {
		p.Stages = append([]models.Stage(nil), p.Stages...)
		out = append(out, p)
	}
	return out
}

// DefaultPipeline returns the pipeline flagged default, falling back to the first one.
func (c *Catalog) DefaultPipeline() (models.Pipeline, error) {
	if len(c.pipelines) == 0 {
		return models.Pipeline{}, fmt.Errorf("%w: catalog is empty", ErrPipelineNotFound)
	}
	for _, p := range c.pipelines {
		if p.IsDefault {
			return c.Pipeline(p.ID)
		}
	}
	return c.Pipeline(c.pipelines[0].ID)
}

// Status classifies a stage as open, won or lost. Unknown stages are reported with ok=false.
func (c *Catalog) Status(pipelineID, stageID string) (status string, ok bool) {
	s, err := c.Stage(pipelineID, stageID)
	if err != nil {
		return "", false
	}
	switch {
	case s.IsClosedWon:
		return models.StatusWon, true
	case s.IsClosedLost:
		return models.StatusLost, true
	}
	return models.StatusOpen, true
}

func validatePipeline(p models.Pipeline) error {
	if p.ID == "" {
		return fmt.Errorf("%w: pipeline without id", ErrInvalidCatalog)
	}
	if len(p.Stages) == 0 {
		return fmt.Errorf("%w: pipeline %s has no stages", ErrInvalidCatalog, p.ID)
	}

	seen := make(map[string]struct{}, len(p.Stages))
	for i, s := range p.Stages {
		if s.ID == "" {
			return fmt.Errorf("%w: pipeline %s stage %d has no id", ErrInvalidCatalog, p.ID, i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: pipeline %s repeats stage %s", ErrInvalidCatalog, p.ID, s.ID)
		}
		seen[s.ID] = struct{}{}

		if i > 0 && s.Position <= p.Stages[i-1].Position {
			return fmt.Errorf("%w: pipeline %s stage %s position %d does not follow %d",
				ErrInvalidCatalog, p.ID, s.ID, s.Position, p.Stages[i-1].Position)
		}
		if s.Probability < 0 || s.Probability > 100 {
			return fmt.Errorf("%w: stage %s probability %d out of range", ErrInvalidCatalog, s.ID, s.Probability)
		}
		if s.IsClosedWon && s.IsClosedLost {
			return fmt.Errorf("%w: stage %s is both won and lost", ErrInvalidCatalog, s.ID)
		}
	}
	return nil
}
