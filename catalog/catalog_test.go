// ABOUTME: Tests for pipeline catalog loading and lookups
// ABOUTME: Covers the embedded catalog, YAML parsing and invariant enforcement
package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/dealflow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	pipelines := c.Pipelines()
	require.Len(t, pipelines, 2)
	assert.Equal(t, "sales-pipeline", pipelines[0].ID)

	def, err := c.DefaultPipeline()
	require.NoError(t, err)
	assert.Equal(t, "sales-pipeline", def.ID)

	stage, err := c.Stage("sales-pipeline", "qualified")
	require.NoError(t, err)
	assert.Equal(t, 25, stage.Probability)
	assert.False(t, stage.IsClosed())

	won, err := c.Stage("enterprise-pipeline", "closed-won")
	require.NoError(t, err)
	assert.True(t, won.IsClosedWon)
}

func TestLookupErrors(t *testing.T) {
	c := Default()

	_, err := c.Pipeline("missing")
	assert.True(t, errors.Is(err, ErrPipelineNotFound))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.Stage("missing", "lead")
	assert.True(t, errors.Is(err, ErrPipelineNotFound))

	// legal-review only exists in the enterprise pipeline
	_, err = c.Stage("sales-pipeline", "legal-review")
	assert.True(t, errors.Is(err, ErrStageNotFound))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStatus(t *testing.T) {
	c := Default()

	tests := []struct {
		stage  string
		status string
		ok     bool
	}{
		{"lead", models.StatusOpen, true},
		{"negotiation", models.StatusOpen, true},
		{"closed-won", models.StatusWon, true},
		{"closed-lost", models.StatusLost, true},
		{"nowhere", "", false},
	}
	for _, tt := range tests {
		status, ok := c.Status("sales-pipeline", tt.stage)
		assert.Equal(t, tt.status, status, tt.stage)
		assert.Equal(t, tt.ok, ok, tt.stage)
	}
}

func TestPipelineReturnsCopy(t *testing.T) {
	c := Default()
	p, err := c.Pipeline("sales-pipeline")
	require.NoError(t, err)
	p.Stages[0].Probability = 99

	again, err := c.Pipeline("sales-pipeline")
	require.NoError(t, err)
	assert.Equal(t, 10, again.Stages[0].Probability)
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"non monotonic positions", `
pipelines:
  - id: p
    stages:
      - {id: a, position: 2}
      - {id: b, position: 1}
`},
		{"duplicate stage", `
pipelines:
  - id: p
    stages:
      - {id: a, position: 1}
      - {id: a, position: 2}
`},
		{"won and lost", `
pipelines:
  - id: p
    stages:
      - {id: a, position: 1, closed_won: true, closed_lost: true}
`},
		{"probability out of range", `
pipelines:
  - id: p
    stages:
      - {id: a, position: 1, probability: 120}
`},
		{"no stages", `
pipelines:
  - id: p
`},
		{"duplicate pipeline", `
pipelines:
  - id: p
    stages: [{id: a, position: 1}]
  - id: p
    stages: [{id: a, position: 1}]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog), err.Error())
		})
	}
}

func TestLoadUnknownField(t *testing.T) {
	_, err := Load(strings.NewReader("pipelines:\n  - id: p\n    colour: red\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Len(t, c.Pipelines(), 2)

	path := filepath.Join(t.TempDir(), "pipelines.yaml")
	content := `
pipelines:
  - id: renewals
    name: Renewals
    default: true
    stages:
      - {id: due, name: Due, position: 1, probability: 60}
      - {id: renewed, name: Renewed, position: 2, probability: 100, closed_won: true}
      - {id: churned, name: Churned, position: 3, probability: 0, closed_lost: true}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	c, err = LoadFile(path)
	require.NoError(t, err)
	def, err := c.DefaultPipeline()
	require.NoError(t, err)
	assert.Equal(t, "renewals", def.ID)
	assert.Len(t, def.Stages, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
