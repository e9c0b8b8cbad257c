package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
)

// rootOptions is filled by the persistent pre-run and read by every
// subcommand.
type rootOptions struct {
	configPath string

	cfg    *config.Config
	logger *applog.Logger
}

// NewRootCommand builds the fintrack command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "fintrack",
		Short: "Track income, expenses and savings goals",
		Long: `fintrack keeps a ledger of income and expense transactions, tracks
savings goals against the running balance and converts between currencies
using live exchange rates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			LoadEnvFile()
			cfg, err := LoadAndValidateConfig(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = SetupLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to a TOML config file (default $"+ConfigEnv+")")

	cmd.AddCommand(
		newServeCommand(opts),
		newSummaryCommand(opts),
		newGoalsCommand(opts),
		newConvertCommand(opts),
		newRatesCommand(opts),
	)
	return cmd
}

// Execute runs the command tree with ctx and the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// displayFlags control how markdown output is printed.
type displayFlags struct {
	plain bool
	style string
	width int
}

func (f *displayFlags) register(cmd *cobra.Command) {
	def := report.DefaultOptions()
	cmd.Flags().BoolVar(&f.plain, "plain", false, "print raw markdown instead of styled output")
	cmd.Flags().StringVar(&f.style, "style", def.Style, "glamour style: auto, dark, light or notty")
	cmd.Flags().IntVar(&f.width, "width", def.Width, "word wrap width")
}

func (f *displayFlags) print(w io.Writer, md string) error {
	if f.plain {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := report.Render(md, report.Options{Style: f.style, Width: f.width})
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}
