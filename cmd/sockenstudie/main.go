package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/sockenstudie/config"
	"github.com/spektr-org/sockenstudie/logging"
)

// ============================================================================
// SOCKENSTUDIE CLI — Survey exports in, snapshots out
// ============================================================================

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "sockenstudie",
		Short: "Aggregate and serve Sockenstudie survey results",
		Long: `Turns survey exports (CSV or XLSX) into render-ready aggregates.

Examples:
  sockenstudie aggregate --file antworten.csv --format text
  sockenstudie aggregate --file antworten.csv --group schueler --format pretty
  sockenstudie aggregate --file antworten.xlsx --format xlsx --out ergebnisse.xlsx
  sockenstudie discover --file antworten.csv --out survey.yaml
  sockenstudie serve --config configs/config.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newAggregateCmd(opts),
		newDiscoverCmd(opts),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// logger writes human-readable logs to the command's stderr.
func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logging.NewWithWriter(config.LoggingConfig{Level: o.logLevel, Format: "text"}, cmd.ErrOrStderr())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sockenstudie %s\n", version)
		},
	}
}
