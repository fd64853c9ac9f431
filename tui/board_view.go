package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/viz"
)

const minColumnWidth = 18

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("170"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func (m Model) renderBoardView() string {
	var s strings.Builder

	p := m.Pipeline()
	s.WriteString(titleStyle.Render(strings.ToUpper(p.Name)))
	s.WriteString("\n")
	s.WriteString(m.renderColumns())
	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keys))

	return s.String()
}

func (m Model) renderColumns() string {
	p := m.Pipeline()
	if len(p.Stages) == 0 {
		return dimStyle.Render("Pipeline has no stages")
	}

	// border and padding take four cells per column
	width := max(m.width/len(p.Stages)-4, minColumnWidth)
	visible := max(m.height-10, 3)

	rendered := make([]string, 0, len(p.Stages))
	for i, stage := range p.Stages {
		rendered = append(rendered, m.renderColumn(i, stage, width, visible))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderColumn(i int, stage models.Stage, width, visible int) string {
	deals := m.columns[i]

	var total float64
	for _, d := range deals {
		total += d.Amount
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(stage.Color)).
		Render(truncate(stage.Name, width))
	lines := []string{
		header,
		dimStyle.Render(truncate(fmt.Sprintf("%d · %s", len(deals), viz.FormatAmount(total)), width)),
		"",
	}

	start := 0
	if i == m.col && m.row >= visible {
		start = m.row - visible + 1
	}
	end := min(start+visible, len(deals))
	for r := start; r < end; r++ {
		d := deals[r]
		card := truncate(fmt.Sprintf("%s %s", viz.FormatAmount(d.Amount), d.Name), width)
		if i == m.col && r == m.row {
			lines = append(lines, selectedCardStyle.Width(width).Render(card))
		} else {
			lines = append(lines, cardStyle.Render(card))
		}
	}
	if hidden := len(deals) - end; hidden > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("+%d more", hidden)))
	}
	if len(deals) == 0 {
		lines = append(lines, dimStyle.Render("(empty)"))
	}

	style := columnStyle
	if i == m.col {
		style = activeColumnStyle
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return ""
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.col--
		m.clamp()
	case key.Matches(msg, m.keys.Right):
		m.col++
		m.clamp()
	case key.Matches(msg, m.keys.Up):
		m.row--
		m.clamp()
	case key.Matches(msg, m.keys.Down):
		m.row++
		m.clamp()
	case key.Matches(msg, m.keys.MoveBack):
		return m, m.moveCmd(-1)
	case key.Matches(msg, m.keys.MoveForward):
		return m, m.moveCmd(1)
	case key.Matches(msg, m.keys.Open):
		if _, ok := m.Selected(); ok {
			m.viewMode = ViewDetail
		}
	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.Selected(); ok {
			m.viewMode = ViewConfirmDelete
		}
	case key.Matches(msg, m.keys.NextPipeline):
		m.pipeline = (m.pipeline + 1) % len(m.pipelines)
		m.col, m.row = 0, 0
		m.status = ""
		m.refresh()
	case key.Matches(msg, m.keys.Refresh):
		m.refresh()
	}
	return m, nil
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
