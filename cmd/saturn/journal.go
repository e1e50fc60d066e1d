package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/journal"
)

var journalFlags struct {
	operation  string
	withErrors bool
	timeRange  string
	limit      int
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the local trace journal",
	Long: `Query the local trace journal for recorded traces.

The journal is an optional side channel: when enabled, every finalized
trace is also written to local storage for debugging and inspection.

Examples:
  # Show the most recent traces
  saturn journal

  # Show traces for a specific operation
  saturn journal --operation GetOrders

  # Show only traces that carry errors
  saturn journal --with-errors

  # Show traces in a time range
  saturn journal --time-range "2026-08-25T00:00:00Z/2026-08-26T00:00:00Z"`,
	RunE: queryJournal,
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune journal entries past the retention period",
	Long: `Delete journal entries whose traces are older than the configured
retention period. This runs the same pruning the agent schedules via
cron, once, immediately.`,
	RunE: pruneJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalPruneCmd)

	journalCmd.Flags().StringVar(&journalFlags.operation, "operation", "", "filter by operation name")
	journalCmd.Flags().BoolVar(&journalFlags.withErrors, "with-errors", false, "only traces that carry errors")
	journalCmd.Flags().StringVar(&journalFlags.timeRange, "time-range", "", "trace start time range (RFC3339 interval start/end)")
	journalCmd.Flags().IntVar(&journalFlags.limit, "limit", 50, "maximum entries to show")
}

// openJournal loads the configuration and opens the configured journal
// backend.
func openJournal() (journal.Storage, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Journal.Enabled {
		return nil, nil, fmt.Errorf("journal is disabled in %s", cfgFile)
	}

	storage, err := journal.NewStorage(&cfg.Journal)
	if err != nil {
		return nil, nil, err
	}
	return storage, cfg, nil
}

func queryJournal(cmd *cobra.Command, args []string) error {
	storage, _, err := openJournal()
	if err != nil {
		return err
	}
	defer storage.Close()

	query := &journal.Query{
		OperationName: journalFlags.operation,
		WithErrors:    journalFlags.withErrors,
		Limit:         journalFlags.limit,
	}

	if journalFlags.timeRange != "" {
		parts := strings.Split(journalFlags.timeRange, "/")
		if len(parts) != 2 {
			return fmt.Errorf("invalid time range format (expected: start/end)")
		}
		startTime, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}
		endTime, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return fmt.Errorf("invalid end time: %w", err)
		}
		query.StartTime = &startTime
		query.EndTime = &endTime
	}

	entries, err := storage.Query(context.Background(), query)
	if err != nil {
		return fmt.Errorf("journal query failed: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No journal entries found.")
		return nil
	}

	fmt.Printf("%-36s  %-24s  %-12s  %5s  %6s  %s\n",
		"TRACE ID", "OPERATION", "DURATION", "NODES", "ERRORS", "START TIME")
	for _, entry := range entries {
		op := entry.OperationName
		if op == "" {
			op = "(anonymous)"
		}
		fmt.Printf("%-36s  %-24s  %-12s  %5d  %6d  %s\n",
			entry.TraceID, op,
			time.Duration(entry.DurationNs).String(),
			entry.NodeCount, entry.ErrorCount,
			entry.StartTime.Format(time.RFC3339),
		)
	}
	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}

func pruneJournal(cmd *cobra.Command, args []string) error {
	storage, cfg, err := openJournal()
	if err != nil {
		return err
	}
	defer storage.Close()

	pruner := journal.NewPruner(storage, &cfg.Journal.Retention)
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		return fmt.Errorf("journal pruning failed: %w", err)
	}

	if cfg.Journal.Retention.Days <= 0 {
		fmt.Println("Retention is disabled (journal.retention.days = 0); nothing pruned.")
		return nil
	}
	fmt.Printf("Pruned %d journal entries older than %d days.\n", deleted, cfg.Journal.Retention.Days)
	return nil
}
