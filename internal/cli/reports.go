package cli

import (
	"github.com/spf13/cobra"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
)

func newSummaryCommand(opts *rootOptions) *cobra.Command {
	var (
		display   displayFlags
		date      string
		analytics bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard: balance, monthly changes, latest expenses and pinned goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today, err := reportDate(date)
			if err != nil {
				return err
			}
			app, err := OpenApp(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer closeApp(app, opts.logger)

			currency := opts.cfg.DisplayCurrency
			md := report.Summary(app.Dashboard.Snapshot(cmd.Context(), today), currency)
			if analytics {
				md += "\n" + report.Analytics(app.Dashboard.Analytics(cmd.Context(), today), currency)
			}
			return display.print(cmd.OutOrStdout(), md)
		},
	}
	display.register(cmd)
	cmd.Flags().StringVar(&date, "date", "", "compute the summary as of this day (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&analytics, "analytics", false, "append category breakdowns")
	return cmd
}

func newGoalsCommand(opts *rootOptions) *cobra.Command {
	var (
		display displayFlags
		date    string
	)
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "List active and achieved savings goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today, err := reportDate(date)
			if err != nil {
				return err
			}
			app, err := OpenApp(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer closeApp(app, opts.logger)

			board := app.Goals.List(cmd.Context(), today)
			return display.print(cmd.OutOrStdout(), report.Goals(board, opts.cfg.DisplayCurrency))
		},
	}
	display.register(cmd)
	cmd.Flags().StringVar(&date, "date", "", "count days remaining from this day (YYYY-MM-DD, default today)")
	return cmd
}

func reportDate(s string) (core.Date, error) {
	if s == "" {
		return core.Today(), nil
	}
	return core.ParseDate(s)
}

func closeApp(app *App, logger *applog.Logger) {
	if err := app.Close(); err != nil {
		logger.Error("Backend cleanup failed", applog.FieldError, err)
	}
}
