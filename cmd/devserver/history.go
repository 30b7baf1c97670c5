package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/devserver/pkg/cli"
	"mercator-hq/devserver/pkg/config"
	"mercator-hq/devserver/pkg/journal"
	"mercator-hq/devserver/pkg/telemetry/logging"
)

var historyFlags struct {
	limit  int
	kind   string
	output string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent server lifecycle events",
	Long: `Show the most recent entries of the lifecycle journal: initial starts,
completed restarts and failed restarts, newest first.

Examples:
  # Last 20 events
  devserver history

  # Only failed restarts, as JSON
  devserver history --kind restart-failed --output json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "maximum number of entries (0 for all)")
	historyCmd.Flags().StringVar(&historyFlags.kind, "kind", "", "only show one kind (listening, restart, restart-failed)")
	historyCmd.Flags().StringVarP(&historyFlags.output, "output", "o", "text", "output format (text, json, csv)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(historyFlags.output)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	return printHistory(cmd.Context(), cmd.OutOrStdout(), cfg.Journal, journal.Query{
		Limit: historyFlags.limit,
		Kind:  journal.Kind(historyFlags.kind),
	}, format)
}

func printHistory(ctx context.Context, w io.Writer, cfg config.JournalConfig, q journal.Query, format cli.OutputFormat) error {
	if !cfg.Enabled {
		return cli.NewCommandError("history", fmt.Errorf("journal is disabled in the configuration"))
	}
	if cfg.Backend == "memory" {
		return cli.NewCommandError("history", fmt.Errorf("the memory journal does not outlive the serve process"))
	}

	storage, err := journal.Open(cfg, logging.Discard())
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer storage.Close()

	entries, err := storage.List(ctx, q)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	if entries == nil {
		entries = []journal.Entry{}
	}
	if len(entries) == 0 && format == cli.FormatText {
		_, err := fmt.Fprintln(w, "No lifecycle events recorded.")
		return err
	}

	return cli.NewFormatter(format).FormatTo(w, journal.Entries(entries))
}
