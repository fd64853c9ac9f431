// ABOUTME: Terminal kanban board using the bubbletea framework
// ABOUTME: One column per pipeline stage; deals move with [ and ]
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewDetail
	ViewConfirmDelete
)

// Model is the main bubbletea model
type Model struct {
	ctx    context.Context
	engine *engine.Engine
	user   string

	pipelines []models.Pipeline
	pipeline  int

	// columns holds the deals of each stage, highest value first.
	columns [][]models.Deal
	col     int
	row     int

	viewMode ViewMode
	keys     keyMap
	help     help.Model

	status string
	err    error

	width  int
	height int
}

// NewModel opens the board on pipelineID, or the default pipeline when empty.
func NewModel(ctx context.Context, e *engine.Engine, pipelineID, user string) (Model, error) {
	cat := e.Catalog()
	start, err := cat.DefaultPipeline()
	if pipelineID != "" {
		start, err = cat.Pipeline(pipelineID)
	}
	if err != nil {
		return Model{}, err
	}

	m := Model{
		ctx:       ctx,
		engine:    e,
		user:      user,
		pipelines: cat.Pipelines(),
		keys:      defaultKeys(),
		help:      help.New(),
		width:     100,
		height:    30,
	}
	for i, p := range m.pipelines {
		if p.ID == start.ID {
			m.pipeline = i
		}
	}
	m.refresh()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case dealMovedMsg:
		return m.handleMoved(msg), nil
	case dealDeletedMsg:
		return m.handleDeleted(msg), nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewDetail:
		return m.renderDetailView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return m.renderBoardView()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && m.viewMode != ViewConfirmDelete {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.viewMode {
	case ViewBoard:
		return m.handleBoardKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}
	return m, nil
}

// Pipeline is the pipeline currently on the board.
func (m Model) Pipeline() models.Pipeline {
	return m.pipelines[m.pipeline]
}

// Selected returns the deal under the cursor.
func (m Model) Selected() (models.Deal, bool) {
	if m.col >= len(m.columns) || m.row >= len(m.columns[m.col]) {
		return models.Deal{}, false
	}
	return m.columns[m.col][m.row], true
}

// refresh regroups the pipeline's deals by stage and clamps the cursor.
func (m *Model) refresh() {
	p := m.Pipeline()
	index := make(map[string]int, len(p.Stages))
	for i, s := range p.Stages {
		index[s.ID] = i
	}

	m.columns = make([][]models.Deal, len(p.Stages))
	for _, d := range m.engine.Deals() {
		i, ok := index[d.StageID]
		if d.PipelineID != p.ID || !ok || d.Health == models.HealthArchived {
			continue
		}
		m.columns[i] = append(m.columns[i], d)
	}
	for _, col := range m.columns {
		engine.SortDeals(col, engine.SortAmount, models.SortDesc)
	}
	m.clamp()
}

func (m *Model) clamp() {
	m.col = min(max(m.col, 0), len(m.columns)-1)
	m.row = min(max(m.row, 0), max(len(m.columns[m.col])-1, 0))
}

// focus puts the cursor on the deal with the given id, if it is on the board.
func (m *Model) focus(id string) {
	for c, col := range m.columns {
		for r, d := range col {
			if d.ID == id {
				m.col, m.row = c, r
				return
			}
		}
	}
}

type dealMovedMsg struct {
	from string
	deal models.Deal
	err  error
}

type dealDeletedMsg struct {
	deal models.Deal
	err  error
}

func (m Model) moveCmd(offset int) tea.Cmd {
	d, ok := m.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		moved, err := m.engine.Step(m.ctx, d.ID, offset, m.user)
		return dealMovedMsg{from: d.StageID, deal: moved, err: err}
	}
}

func (m Model) deleteCmd() tea.Cmd {
	d, ok := m.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return dealDeletedMsg{deal: d, err: m.engine.Delete(m.ctx, d.ID)}
	}
}

func (m Model) handleMoved(msg dealMovedMsg) Model {
	if msg.err != nil && msg.deal.ID == "" {
		m.err = msg.err
		return m
	}
	m.err = nil
	if msg.deal.StageID == msg.from {
		m.status = fmt.Sprintf("%s is already in %s", msg.deal.DealNumber, msg.deal.StageID)
	} else {
		m.status = fmt.Sprintf("%s moved %s → %s", msg.deal.DealNumber, msg.from, msg.deal.StageID)
	}
	if msg.err != nil {
		m.status += " (not persisted)"
	}
	m.refresh()
	m.focus(msg.deal.ID)
	return m
}

func (m Model) handleDeleted(msg dealDeletedMsg) Model {
	m.viewMode = ViewBoard
	if msg.err != nil && !isTransport(msg.err) {
		m.err = msg.err
		return m
	}
	m.err = nil
	m.status = fmt.Sprintf("Deleted %s", msg.deal.DealNumber)
	if msg.err != nil {
		m.status += " (not persisted)"
	}
	m.refresh()
	return m
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)
