// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Asks before removing the selected deal
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	d, ok := m.Selected()
	if !ok {
		return "No deal selected"
	}

	title := warningStyle.Render("⚠  DELETE DEAL  ⚠")
	info := fmt.Sprintf("\n%s  %s\n%.2f %s in %s\n", d.DealNumber, d.Name, d.Amount, d.Currency, d.StageID)
	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	box := confirmBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		title, info, "This action cannot be undone!\n", buttons))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m, m.deleteCmd()
	case key.Matches(msg, m.keys.Back), msg.String() == "n":
		m.viewMode = ViewBoard
	}
	return m, nil
}
