package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ledgermatch/ledgermatch/internal/application/reconcile"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run one reconcile pass",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Value: true,
				Usage: "Preview matches without writing memos (pass --dry-run=false to apply)",
			},
			&cli.IntFlag{
				Name:    "days",
				Aliases: []string{"d"},
				Usage:   "Days of transactions to fetch (default: config lookback_days)",
			},
			&cli.StringFlag{
				Name:    "retailer",
				Aliases: []string{"r"},
				Usage:   "Only reconcile this retailer (amazon, walmart)",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Reapply memos to transactions already marked processed",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Verbose logging",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output the run summary as JSON",
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "jq expression applied to the JSON summary (implies --json)",
			},
		},
		Action: func(c *cli.Context) error {
			if r := c.String("retailer"); r != "" && !retail.Retailer(r).Known() {
				return fmt.Errorf("unknown retailer %q", r)
			}

			cfg := loadConfig(c)
			logger := newLogger(cfg, c.Bool("verbose"))

			store, err := storage.NewStorage(cfg.Storage.DatabasePath)
			if err != nil {
				return fmt.Errorf("opening storage: %w", err)
			}
			defer store.Close()

			client, err := newLedgerClient(cfg, logger, nil)
			if err != nil {
				return err
			}

			sources, err := buildSources(cfg, logger)
			if err != nil {
				return err
			}

			orchestrator := reconcile.NewOrchestrator(
				client,
				client,
				sources,
				store,
				store,
				reconcileConfig(cfg),
				nil,
				logger,
			)

			days := c.Int("days")
			if days <= 0 {
				days = cfg.Matching.LookbackDays
			}
			opts := reconcile.Options{
				DryRun:       c.Bool("dry-run"),
				Force:        c.Bool("force"),
				LookbackDays: days,
				Retailer:     c.String("retailer"),
				Verbose:      c.Bool("verbose"),
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := orchestrator.Run(ctx, opts)
			if err != nil {
				return fmt.Errorf("reconcile run failed: %w", err)
			}

			if c.Bool("json") || c.String("filter") != "" {
				return printJSON(summary, c.String("filter"))
			}
			printRunSummary(summary)
			return nil
		},
	}
}
