// ABOUTME: Table, date and amount formatting shared by CLI commands
// ABOUTME: Styles headings only when writing to a terminal
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
	"golang.org/x/term"
)

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func heading(w io.Writer, text string) {
	if isTerminal(w) {
		text = headingStyle.Render(text)
	}
	_, _ = fmt.Fprintln(w, text)
}

// writeRow writes tab separated cells followed by a newline.
func writeRow(w io.Writer, cells ...string) {
	_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
}

func formatMoney(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func printDeals(w io.Writer, status engine.StatusResolver, deals []models.Deal) {
	tw := newTable(w)
	writeRow(tw, "NUMBER", "NAME", "STAGE", "STATUS", "AMOUNT", "PROB", "OWNER", "CLOSE", "ID")
	writeRow(tw, "------", "----", "-----", "------", "------", "----", "-----", "-----", "--")
	for _, d := range deals {
		writeRow(tw,
			d.DealNumber,
			d.Name,
			d.StageID,
			engine.DealStatus(status, d),
			formatMoney(d.Amount, d.Currency),
			fmt.Sprintf("%d%%", d.Probability),
			d.OwnerID,
			formatDay(d.ExpectedCloseDate),
			shortID(d.ID))
	}
	_ = tw.Flush()
}

func printMetrics(w io.Writer, m engine.Metrics) {
	tw := newTable(w)
	writeRow(tw, "Deals", fmt.Sprintf("%d", m.TotalDeals))
	writeRow(tw, "Total value", fmt.Sprintf("%.2f", m.TotalValue))
	writeRow(tw, "Weighted value", fmt.Sprintf("%.2f", m.WeightedValue))
	writeRow(tw, "Average deal", fmt.Sprintf("%.2f", m.AvgDealSize))
	writeRow(tw, "Won", fmt.Sprintf("%d (%.2f)", m.WonCount, m.WonValue))
	writeRow(tw, "Lost", fmt.Sprintf("%d", m.LostCount))
	writeRow(tw, "Open", fmt.Sprintf("%d", m.OpenCount))
	writeRow(tw, "Win rate", fmt.Sprintf("%.1f%%", m.WinRate*100))
	_ = tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
