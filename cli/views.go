// ABOUTME: Saved view CLI commands
// ABOUTME: Stores named filter, sort and paging state and runs it later
package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/harperreed/dealflow/models"
	"github.com/spf13/cobra"
)

func newViewsCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "views",
		Aliases: []string{"view"},
		Short:   "Manage saved deal views",
	}
	cmd.AddCommand(
		newViewsSaveCommand(s),
		newViewsListCommand(s),
		newViewsShowCommand(s),
		newViewsRunCommand(s),
		newViewsDeleteCommand(s),
	)
	return cmd
}

func newViewsSaveCommand(s *session) *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the given filter and sort as a named view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			opts, err := q.options()
			if err != nil {
				return err
			}
			v := models.ViewState{
				Name:          args[0],
				Filter:        opts.Filter,
				SortKey:       opts.SortKey,
				SortDirection: opts.SortDirection,
				Page:          opts.Page,
				PageSize:      opts.PageSize,
			}
			if err := app.Engine.SaveView(cmd.Context(), v); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ View saved: %s\n", v.Name)
			return nil
		},
	}
	q.register(cmd)
	_ = cmd.Flags().MarkHidden("view")
	return cmd
}

func newViewsListCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			views, err := app.Engine.Views(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				_, _ = fmt.Fprintln(out, "No saved views")
				return nil
			}
			tw := newTable(out)
			writeRow(tw, "NAME", "SORT", "PAGE SIZE", "FILTERED")
			for _, v := range views {
				sort := "-"
				if v.SortKey != "" {
					sort = v.SortKey + " " + v.SortDirection
				}
				filtered := "no"
				if !v.Filter.IsEmpty() {
					filtered = "yes"
				}
				writeRow(tw, v.Name, sort, fmt.Sprintf("%d", v.PageSize), filtered)
			}
			return tw.Flush()
		},
	}
}

func newViewsShowCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a saved view's parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			v, err := app.Engine.View(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			params := v.Encode()
			tw := newTable(cmd.OutOrStdout())
			for _, key := range slices.Sorted(maps.Keys(params)) {
				writeRow(tw, key, params[key])
			}
			return tw.Flush()
		},
	}
}

func newViewsRunCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "List the deals a saved view selects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			res, err := app.Engine.QueryView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(res.Items) == 0 {
				_, _ = fmt.Fprintln(out, "No deals found")
				return nil
			}
			printDeals(out, app.Engine.Catalog(), res.Items)
			_, _ = fmt.Fprintf(out, "\nPage %d of %d - %d deal(s) matched\n",
				res.Page, max(res.TotalPages, 1), res.TotalFilteredCount)
			return nil
		},
	}
}

func newViewsDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			if err := app.Engine.DeleteView(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ View deleted: %s\n", args[0])
			return nil
		},
	}
}
