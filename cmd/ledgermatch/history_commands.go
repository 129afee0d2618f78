package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// openStore opens the configured SQLite database for the read-only
// inspection commands.
func openStore(c *cli.Context) (*storage.Storage, error) {
	cfg := loadConfig(c)
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

func runsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List reconcile run history",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   20,
				Usage:   "Maximum runs to show",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "jq expression applied to the JSON output (implies --json)",
			},
		},
		Action: func(c *cli.Context) error {
			store, err := openStore(c)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(c.Int("limit"))
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(runs, c.String("filter"))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tRETAILER\tMODE\tSTARTED\tSTATUS\tUPDATED\tSKIPPED\tFAILED")
			for _, run := range runs {
				mode := "live"
				if run.DryRun {
					mode = "dry-run"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
					run.ID,
					run.Retailer,
					mode,
					run.StartedAt,
					run.Status,
					run.Updated,
					run.SkippedAlreadyProcessed+run.SkippedLowConfidence,
					run.Failed,
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d runs\n", len(runs))
			return nil
		},
	}
}

func matchesCommand() *cli.Command {
	return &cli.Command{
		Name:  "matches",
		Usage: "List the per-match audit trail",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "run",
				Usage: "Only matches from this run id",
			},
			&cli.StringFlag{
				Name:    "retailer",
				Aliases: []string{"r"},
				Usage:   "Only matches for this retailer",
			},
			&cli.StringFlag{
				Name:    "status",
				Aliases: []string{"s"},
				Usage:   "Only matches with this outcome (applied, dry_run, failed, ...)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   50,
				Usage:   "Maximum records to show",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "jq expression applied to the JSON output (implies --json)",
			},
		},
		Action: func(c *cli.Context) error {
			store, err := openStore(c)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListMatchRecords(storage.MatchRecordFilters{
				RunID:    c.Int64("run"),
				Retailer: c.String("retailer"),
				Status:   c.String("status"),
				Limit:    c.Int("limit"),
			})
			if err != nil {
				return fmt.Errorf("listing match records: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(records, c.String("filter"))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tRETAILER\tTRANSACTION\tORDER\tCONF\tSTATUS\tREASON")
			for _, r := range records {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\t%s\t%s\n",
					r.RunID,
					r.Retailer,
					r.TransactionID,
					r.OrderID,
					r.Confidence,
					r.Status,
					r.MatchReason,
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d records\n", len(records))
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregate statistics across all runs",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "jq expression applied to the JSON output (implies --json)",
			},
		},
		Action: func(c *cli.Context) error {
			store, err := openStore(c)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.GetStats()
			if err != nil {
				return fmt.Errorf("fetching stats: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(stats, c.String("filter"))
			}

			fmt.Printf("Runs:                   %d\n", stats.TotalRuns)
			fmt.Printf("Memos written:          %d\n", stats.TotalUpdated)
			fmt.Printf("Skipped:                %d\n", stats.TotalSkipped)
			fmt.Printf("Failed:                 %d\n", stats.TotalFailed)
			fmt.Printf("Processed transactions: %d\n", stats.ProcessedTransactions)
			if stats.LastRunAt != "" {
				fmt.Printf("Last run:               %s\n", stats.LastRunAt)
			}

			if len(stats.RetailerStats) > 0 {
				fmt.Println("\nPer retailer:")
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "  RETAILER\tMATCHES\tAPPLIED\tAVG CONFIDENCE")
				for retailer, rs := range stats.RetailerStats {
					fmt.Fprintf(w, "  %s\t%d\t%d\t%.2f\n", retailer, rs.Matches, rs.Applied, rs.AvgConfidence)
				}
				w.Flush()
			}

			return nil
		},
	}
}
