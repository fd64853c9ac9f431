package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/engine"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

const recentHistory = 5

func (m Model) renderDetailView() string {
	d, ok := m.Selected()
	if !ok {
		return "No deal selected"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", d.DealNumber, d.Name)))
	s.WriteString("\n")

	s.WriteString(m.renderField("Stage", d.StageID))
	s.WriteString(m.renderField("Status", engine.DealStatus(m.engine.Catalog(), d)))
	s.WriteString(m.renderField("Amount", fmt.Sprintf("%.2f %s", d.Amount, d.Currency)))
	s.WriteString(m.renderField("Probability", fmt.Sprintf("%d%%", d.Probability)))
	s.WriteString(m.renderField("Weighted", fmt.Sprintf("%.2f", d.WeightedValue())))
	s.WriteString(m.renderField("Score", fmt.Sprintf("%d", engine.Score(d, time.Now()))))
	s.WriteString(m.renderField("Owner", d.OwnerID))
	s.WriteString(m.renderField("Priority", d.Priority))
	s.WriteString(m.renderField("Health", d.Health))
	if d.ExpectedCloseDate != nil {
		s.WriteString(m.renderField("Expected Close", d.ExpectedCloseDate.Format(time.DateOnly)))
	}
	if len(d.Tags) > 0 {
		s.WriteString(m.renderField("Tags", strings.Join(d.Tags, ", ")))
	}
	if d.NextSteps != "" {
		s.WriteString(m.renderField("Next Steps", d.NextSteps))
	}

	s.WriteString("\n")
	s.WriteString(fieldLabelStyle.Render("Stage History"))
	s.WriteString("\n")
	history := d.StageHistory[max(len(d.StageHistory)-recentHistory, 0):]
	for _, h := range history {
		from := h.FromStageID
		if from == "" {
			from = "start"
		}
		line := fmt.Sprintf("  %s  %s → %s  by %s", h.EnteredAt.Format(time.DateTime), from, h.ToStageID, h.ChangedBy)
		if h.Reason != "" {
			line += "  (" + h.Reason + ")"
		}
		s.WriteString(fieldValueStyle.Render(line))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(dimStyle.Render("[ / ] move  esc back  d delete  q quit"))
	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.viewMode = ViewBoard
	case key.Matches(msg, m.keys.MoveBack):
		return m, m.moveCmd(-1)
	case key.Matches(msg, m.keys.MoveForward):
		return m, m.moveCmd(1)
	case key.Matches(msg, m.keys.Delete):
		m.viewMode = ViewConfirmDelete
	}
	return m, nil
}
