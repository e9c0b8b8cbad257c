package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

func newConvertCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert AMOUNT FROM TO",
		Short: "Convert an amount between currencies",
		Long: `Convert an amount between currencies using the latest rates. When the
rate provider is unreachable the built-in fallback table is used and the
output says so.`,
		Example: "  fintrack convert 100 HKD USD\n  fintrack convert 12,50 eur jpy",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[0], err)
			}
			from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])

			board := NewRateBoard(opts.cfg, opts.logger)
			_ = board.Refresh(cmd.Context())

			result, table, err := board.Convert(amount, from, to)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (rates: %s)\n",
				core.FormatCurrency(amount, from), core.FormatCurrency(result, to), table.Source)
			return err
		},
	}
}

func newRatesCommand(opts *rootOptions) *cobra.Command {
	var (
		display displayFlags
		base    string
	)
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Show exchange rates for a base currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			board := NewRateBoard(opts.cfg, opts.logger)
			_ = board.Refresh(cmd.Context())

			table, err := board.For(cmd.Context(), base)
			if err != nil {
				return err
			}
			return display.print(cmd.OutOrStdout(), report.Rates(table))
		},
	}
	display.register(cmd)
	cmd.Flags().StringVar(&base, "base", "", "base currency (default the configured rates base)")
	return cmd
}
