// ABOUTME: Deal CLI commands
// ABOUTME: Human-friendly commands for creating, moving, querying and exporting deals
package cli

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
	"github.com/spf13/cobra"
)

func newDealsCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deals",
		Aliases: []string{"deal"},
		Short:   "Create, move and query deals",
	}
	cmd.AddCommand(
		newDealsAddCommand(s),
		newDealsListCommand(s),
		newDealsShowCommand(s),
		newDealsUpdateCommand(s),
		newDealsMoveCommand(s),
		newDealsHistoryCommand(s),
		newDealsActivityCommand(s),
		newDealsDeleteCommand(s),
		newDealsBulkCommand(s),
		newDealsExportCommand(s),
		newDealsMetricsCommand(s),
	)
	return cmd
}

// filterFlags binds the deal filter to command flags.
type filterFlags struct {
	search, status, owner, pipeline, stage string
	dealType, priority, health             string
	minAmount, maxAmount                   float64
	closeAfter, closeBefore                string
	tags                                   []string

	maxSet func() bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	f.maxSet = func() bool { return fs.Changed("max-amount") }
	fs.StringVar(&f.search, "search", "", "Text to match in name, number, description or tags")
	fs.StringVar(&f.status, "status", "", "open, won or lost")
	fs.StringVar(&f.owner, "owner", "", "Owner id")
	fs.StringVar(&f.pipeline, "pipeline", "", "Pipeline id")
	fs.StringVar(&f.stage, "stage", "", "Stage id")
	fs.StringVar(&f.dealType, "type", "", "Deal type")
	fs.StringVar(&f.priority, "priority", "", "Priority")
	fs.StringVar(&f.health, "health", "", "Health")
	fs.Float64Var(&f.minAmount, "min-amount", 0, "Minimum amount")
	fs.Float64Var(&f.maxAmount, "max-amount", 0, "Maximum amount (no limit when unset)")
	fs.StringVar(&f.closeAfter, "close-after", "", "Expected close on or after (YYYY-MM-DD)")
	fs.StringVar(&f.closeBefore, "close-before", "", "Expected close on or before (YYYY-MM-DD)")
	fs.StringSliceVar(&f.tags, "tag", nil, "Required tag (repeatable)")
}

func (f *filterFlags) filter() (models.Filter, error) {
	out := models.Filter{
		Search:     f.search,
		Status:     f.status,
		OwnerID:    f.owner,
		PipelineID: f.pipeline,
		StageID:    f.stage,
		DealType:   f.dealType,
		Priority:   f.priority,
		Health:     f.health,
		Tags:       f.tags,
	}
	hasMax := f.maxSet != nil && f.maxSet()
	if f.minAmount != 0 || hasMax {
		out.AmountRange = &models.AmountRange{Min: f.minAmount}
		if hasMax {
			hi := f.maxAmount
			out.AmountRange.Max = &hi
		}
	}
	if f.closeAfter != "" || f.closeBefore != "" {
		r := &models.DateRange{}
		var err error
		if r.Start, err = parseDay(f.closeAfter); err != nil {
			return models.Filter{}, fmt.Errorf("invalid --close-after: %w", err)
		}
		if r.End, err = parseDay(f.closeBefore); err != nil {
			return models.Filter{}, fmt.Errorf("invalid --close-before: %w", err)
		}
		out.CloseDateRange = r
	}
	return out, nil
}

// queryFlags adds sort and paging to the filter.
type queryFlags struct {
	filterFlags
	sortKey  string
	dir      string
	page     int
	pageSize int
	view     string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	q.filterFlags.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&q.sortKey, "sort", "", "Sort key: "+strings.Join(engine.SortKeys(), ", "))
	fs.StringVar(&q.dir, "dir", models.SortAsc, "Sort direction: asc or desc")
	fs.IntVar(&q.page, "page", 1, "Page number")
	fs.IntVar(&q.pageSize, "page-size", 0, "Deals per page (0 for all)")
	fs.StringVar(&q.view, "view", "", "Run a saved view instead of the flags")
}

func (q *queryFlags) run(cmd *cobra.Command, e *engine.Engine) (engine.QueryResult, error) {
	if q.view != "" {
		return e.QueryView(cmd.Context(), q.view)
	}
	opts, err := q.options()
	if err != nil {
		return engine.QueryResult{}, err
	}
	return e.Query(opts)
}

func (q *queryFlags) options() (engine.QueryOptions, error) {
	f, err := q.filter()
	if err != nil {
		return engine.QueryOptions{}, err
	}
	return engine.QueryOptions{
		Filter:        f,
		SortKey:       q.sortKey,
		SortDirection: q.dir,
		Page:          q.page,
		PageSize:      q.pageSize,
	}, nil
}

func newDealsAddCommand(s *session) *cobra.Command {
	var (
		in          engine.NewDeal
		probability int
		closeDate   string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a deal in its pipeline's first stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("probability") {
				in.Probability = &probability
			}
			if closeDate != "" {
				t, err := parseDay(closeDate)
				if err != nil {
					return fmt.Errorf("invalid --close: %w", err)
				}
				in.ExpectedCloseDate = &t
			}
			in.CreatedBy = s.cfg.User

			d, err := app.Engine.Create(cmd.Context(), in)
			if err != nil && d.ID == "" {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✓ Deal created: %s (%s)\n", d.Name, d.DealNumber)
			_, _ = fmt.Fprintf(out, "  ID: %s\n", d.ID)
			_, _ = fmt.Fprintf(out, "  Pipeline: %s / %s\n", d.PipelineID, d.StageID)
			_, _ = fmt.Fprintf(out, "  Amount: %s at %d%%\n", formatMoney(d.Amount, d.Currency), d.Probability)
			return warnUnsynced(cmd, err)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&in.Name, "name", "", "Deal name (required)")
	fs.StringVar(&in.PipelineID, "pipeline", "", "Pipeline id (default: the default pipeline)")
	fs.StringVar(&in.StageID, "stage", "", "Initial stage id (default: first stage)")
	fs.Float64Var(&in.Amount, "amount", 0, "Deal amount")
	fs.StringVar(&in.Currency, "currency", "", "Currency code (default USD)")
	fs.IntVar(&probability, "probability", 0, "Win probability 0-100 (default: stage probability)")
	fs.StringVar(&closeDate, "close", "", "Expected close date (YYYY-MM-DD)")
	fs.StringVar(&in.AccountID, "account", "", "Account id")
	fs.StringVar(&in.ContactID, "contact", "", "Primary contact id")
	fs.StringVar(&in.OwnerID, "owner", "", "Owner (default: current user)")
	fs.StringVar(&in.DealType, "type", "", "new-business, existing-business, upsell or renewal")
	fs.StringVar(&in.Priority, "priority", "", "low, medium, high or urgent")
	fs.StringVar(&in.LeadSource, "source", "", "Lead source")
	fs.StringVar(&in.Description, "description", "", "Description")
	fs.StringSliceVar(&in.Tags, "tag", nil, "Tag (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newDealsListCommand(s *session) *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deals matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			res, err := q.run(cmd, app.Engine)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(res.Items) == 0 {
				_, _ = fmt.Fprintln(out, "No deals found")
				return nil
			}
			printDeals(out, app.Engine.Catalog(), res.Items)

			var total float64
			for _, d := range res.Items {
				total += d.Amount
			}
			_, _ = fmt.Fprintf(out, "\nPage %d of %d - %d of %d deal(s) - %.2f\n",
				res.Page, max(res.TotalPages, 1), len(res.Items), res.TotalFilteredCount, total)
			return nil
		},
	}
	q.register(cmd)
	return cmd
}

func newDealsShowCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <deal>",
		Short: "Show one deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			d, err := resolveDeal(app.Engine, args[0])
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			writeRow(tw, "Number", d.DealNumber)
			writeRow(tw, "Name", d.Name)
			writeRow(tw, "ID", d.ID)
			writeRow(tw, "Pipeline", d.PipelineID)
			writeRow(tw, "Stage", d.StageID)
			writeRow(tw, "Status", engine.DealStatus(app.Engine.Catalog(), d))
			writeRow(tw, "Amount", formatMoney(d.Amount, d.Currency))
			writeRow(tw, "Probability", fmt.Sprintf("%d%%", d.Probability))
			writeRow(tw, "Weighted", fmt.Sprintf("%.2f", d.WeightedValue()))
			writeRow(tw, "Score", fmt.Sprintf("%d", engine.Score(d, time.Now())))
			writeRow(tw, "Owner", d.OwnerID)
			writeRow(tw, "Priority", d.Priority)
			writeRow(tw, "Health", d.Health)
			writeRow(tw, "Expected close", formatDay(d.ExpectedCloseDate))
			writeRow(tw, "Closed", formatDay(d.ActualCloseDate))
			writeRow(tw, "Tags", strings.Join(d.Tags, ", "))
			writeRow(tw, "Activities", fmt.Sprintf("%d", len(d.Activities)))
			return tw.Flush()
		},
	}
}

func newDealsUpdateCommand(s *session) *cobra.Command {
	var (
		name, currency, owner, priority, health string
		nextSteps, notes, closeDate             string
		amount                                  float64
		tags                                    []string
		fields                                  map[string]string
	)
	cmd := &cobra.Command{
		Use:   "update <deal>",
		Short: "Edit a deal's details (use move to change stage)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			d, err := resolveDeal(app.Engine, args[0])
			if err != nil {
				return err
			}

			changed := cmd.Flags().Changed
			var patch engine.DealPatch
			setIf := func(flag string, dst **string, v *string) {
				if changed(flag) {
					*dst = v
				}
			}
			setIf("name", &patch.Name, &name)
			setIf("currency", &patch.Currency, &currency)
			setIf("owner", &patch.OwnerID, &owner)
			setIf("priority", &patch.Priority, &priority)
			setIf("health", &patch.Health, &health)
			setIf("next-steps", &patch.NextSteps, &nextSteps)
			setIf("notes", &patch.Notes, &notes)
			if changed("amount") {
				patch.Amount = &amount
			}
			if changed("tag") {
				patch.Tags = &tags
			}
			if changed("close") {
				if closeDate == "" {
					patch.ClearCloseDate = true
				} else {
					t, err := parseDay(closeDate)
					if err != nil {
						return fmt.Errorf("invalid --close: %w", err)
					}
					patch.ExpectedCloseDate = &t
				}
			}
			patch.CustomFields = fields

			updated, err := app.Engine.UpdateDetails(cmd.Context(), d.ID, patch)
			if err != nil && updated.ID == "" {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Deal updated: %s (%s)\n", updated.Name, updated.DealNumber)
			return warnUnsynced(cmd, err)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&name, "name", "", "Deal name")
	fs.Float64Var(&amount, "amount", 0, "Amount")
	fs.StringVar(&currency, "currency", "", "Currency code")
	fs.StringVar(&owner, "owner", "", "Owner")
	fs.StringVar(&priority, "priority", "", "Priority")
	fs.StringVar(&health, "health", "", "Health")
	fs.StringVar(&nextSteps, "next-steps", "", "Next steps")
	fs.StringVar(&notes, "notes", "", "Notes")
	fs.StringVar(&closeDate, "close", "", "Expected close date (YYYY-MM-DD, empty to clear)")
	fs.StringSliceVar(&tags, "tag", nil, "Replacement tags (repeatable)")
	fs.StringToStringVar(&fields, "field", nil, "Custom field key=value, empty value removes it")
	return cmd
}

func newDealsMoveCommand(s *session) *cobra.Command {
	var (
		reason      string
		probability int
	)
	cmd := &cobra.Command{
		Use:   "move <deal> <stage>",
		Short: "Move a deal to another stage of its pipeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			d, err := resolveDeal(app.Engine, args[0])
			if err != nil {
				return err
			}

			req := engine.TransitionRequest{
				DealID:    d.ID,
				ToStageID: args[1],
				ChangedBy: s.cfg.User,
				Reason:    reason,
			}
			if cmd.Flags().Changed("probability") {
				req.Probability = &probability
			}

			moved, err := app.Engine.Transition(cmd.Context(), req)
			if err != nil && moved.ID == "" {
				return err
			}
			if moved.StageID == d.StageID {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deal %s is already in %s\n", moved.DealNumber, moved.StageID)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s moved %s → %s (%d%%, %s)\n",
				moved.DealNumber, d.StageID, moved.StageID, moved.Probability,
				engine.DealStatus(app.Engine.Catalog(), moved))
			return warnUnsynced(cmd, err)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the deal moved")
	cmd.Flags().IntVar(&probability, "probability", 0, "Override the stage probability")
	return cmd
}

func newDealsHistoryCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "history <deal>",
		Short: "Show the stages a deal has passed through",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			d, err := resolveDeal(app.Engine, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			heading(out, fmt.Sprintf("%s %s", d.DealNumber, d.Name))
			tw := newTable(out)
			writeRow(tw, "FROM", "TO", "ENTERED", "EXITED", "HOURS", "BY", "REASON")
			for _, h := range d.StageHistory {
				exited, hours := "-", "-"
				if h.ExitedAt != nil {
					exited = h.ExitedAt.Format(time.DateTime)
				}
				if h.DurationHours != nil {
					hours = fmt.Sprintf("%.1f", *h.DurationHours)
				}
				writeRow(tw, orDash(h.FromStageID), h.ToStageID, h.EnteredAt.Format(time.DateTime),
					exited, hours, h.ChangedBy, orDash(h.Reason))
			}
			return tw.Flush()
		},
	}
}

func newDealsActivityCommand(s *session) *cobra.Command {
	var a models.Activity
	cmd := &cobra.Command{
		Use:   "activity <deal>",
		Short: "Log a call, email, meeting, task or note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			d, err := resolveDeal(app.Engine, args[0])
			if err != nil {
				return err
			}
			a.CreatedBy = s.cfg.User
			updated, err := app.Engine.LogActivity(cmd.Context(), d.ID, a)
			if err != nil && updated.ID == "" {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged %s on %s: %s\n", a.Type, updated.DealNumber, a.Subject)
			return warnUnsynced(cmd, err)
		},
	}
	cmd.Flags().StringVar(&a.Type, "type", models.ActivityNote, "call, email, meeting, task or note")
	cmd.Flags().StringVar(&a.Subject, "subject", "", "Subject (required)")
	cmd.Flags().StringVar(&a.Description, "description", "", "Details")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newDealsDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <deal>",
		Short: "Delete a deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			d, err := resolveDeal(app.Engine, args[0])
			if err != nil {
				return err
			}
			err = app.Engine.Delete(cmd.Context(), d.ID)
			if err != nil && !errors.Is(err, engine.ErrTransport) {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted deal: %s\n", d.DealNumber)
			return warnUnsynced(cmd, err)
		},
	}
}

func newDealsBulkCommand(s *session) *cobra.Command {
	var p engine.BulkParams
	actions := make([]string, 0, len(engine.BulkActions))
	for _, a := range engine.BulkActions {
		actions = append(actions, string(a))
	}

	cmd := &cobra.Command{
		Use:       "bulk <action> <deal>...",
		Short:     "Apply one action to many deals",
		Long:      "Apply one action to many deals. Actions: " + strings.Join(actions, ", "),
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: actions,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}

			// unresolvable references go through as-is and fail per item
			ids := make([]string, 0, len(args)-1)
			for _, ref := range args[1:] {
				if d, err := resolveDeal(app.Engine, ref); err == nil {
					ids = append(ids, d.ID)
				} else {
					ids = append(ids, ref)
				}
			}

			p.ChangedBy = s.cfg.User
			errOut := cmd.ErrOrStderr()
			if isTerminal(errOut) {
				p.Progress = func(done, total int) {
					_, _ = fmt.Fprintf(errOut, "\r  %d/%d", done, total)
					if done == total {
						_, _ = fmt.Fprintln(errOut)
					}
				}
			}

			res, err := app.Engine.Apply(cmd.Context(), engine.BulkAction(args[0]), ids, p)
			if err != nil {
				return err
			}
			printBatch(cmd.OutOrStdout(), args[0], res)
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d of %d deals failed", len(res.Failed), len(res.Failed)+len(res.Succeeded))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&p.OwnerID, "owner", "", "New owner (transfer)")
	cmd.Flags().StringVar(&p.StageID, "stage", "", "Target stage (update-stage)")
	cmd.Flags().StringSliceVar(&p.Tags, "tag", nil, "Tag (add-tags, remove-tags; repeatable)")
	cmd.Flags().StringVar(&p.Reason, "reason", "", "Reason recorded on stage changes")
	return cmd
}

func printBatch(w io.Writer, action string, res engine.BatchResult) {
	_, _ = fmt.Fprintf(w, "✓ %s: %d succeeded, %d failed\n", action, len(res.Succeeded), len(res.Failed))
	for _, f := range res.Failed {
		_, _ = fmt.Fprintf(w, "  ✗ %s [%s] %v\n", shortID(f.ID), engine.Kind(f.Err), f.Err)
	}
	for _, u := range res.Unsynced {
		_, _ = fmt.Fprintf(w, "  ! %s applied locally but not persisted: %v\n", shortID(u.ID), u.Err)
	}
}

func newDealsExportCommand(s *session) *cobra.Command {
	var (
		q      queryFlags
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching deals as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			res, err := q.run(cmd, app.Engine)
			if err != nil {
				return err
			}
			records := app.Engine.ExportRecords(nil, res.Items)

			write := func(w io.Writer) error {
				switch format {
				case "csv":
					return writeCSV(w, records)
				default:
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(records)
				}
			}
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (use csv or json)", format)
			}

			if output == "" {
				err = write(cmd.OutOrStdout())
			} else {
				var f *os.File
				if f, err = os.Create(output); err != nil {
					return err
				}
				err = writeAndClose(f, write)
			}
			if err != nil {
				return fmt.Errorf("failed to export deals: %w", err)
			}
			if output != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d deal(s) to %s\n", len(records), output)
			}
			return nil
		},
	}
	q.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	return cmd
}

func writeCSV(w io.Writer, records []engine.ExportRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(engine.ExportColumns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeAndClose reports a failed Close as well as a failed write.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	err := write(wc)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	return err
}

func newDealsMetricsCommand(s *session) *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Pipeline KPIs for matching deals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			filter, err := f.filter()
			if err != nil {
				return err
			}
			printMetrics(cmd.OutOrStdout(), app.Engine.Metrics(filter))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// resolveDeal accepts a full id, a deal number or a unique id prefix.
func resolveDeal(e *engine.Engine, ref string) (models.Deal, error) {
	if d, err := e.Deal(ref); err == nil {
		return d, nil
	}

	var matches []models.Deal
	for _, d := range e.Deals() {
		if strings.EqualFold(d.DealNumber, ref) {
			return d, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(d.ID, ref) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Deal{}, fmt.Errorf("%w: %s", engine.ErrUnknownDeal, ref)
	}
	return models.Deal{}, fmt.Errorf("deal reference %q is ambiguous (%d matches)", ref, len(matches))
}

// warnUnsynced reports a persistence failure without failing the command.
func warnUnsynced(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, engine.ErrTransport) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: change applied locally but not persisted: %v\n", err)
		return nil
	}
	return err
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
