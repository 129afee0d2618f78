package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/ledgermatch/ledgermatch/internal/adapters/ledgerapi"
	"github.com/ledgermatch/ledgermatch/internal/adapters/retailers"
	"github.com/ledgermatch/ledgermatch/internal/adapters/retailers/amazon"
	"github.com/ledgermatch/ledgermatch/internal/adapters/retailers/walmart"
	"github.com/ledgermatch/ledgermatch/internal/application/reconcile"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/config"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/logging"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/metrics"
)

// loadConfig reads the config file named by the global flag, falling back
// to environment variables when the file does not exist.
func loadConfig(c *cli.Context) *config.Config {
	return config.LoadOrEnvWithPath(c.String("config"))
}

func newLogger(cfg *config.Config, verbose bool) *slog.Logger {
	loggingCfg := cfg.Logging
	if verbose {
		loggingCfg.Level = "debug"
	}
	return logging.NewLogger(loggingCfg)
}

// newLedgerClient builds the budgeting-service client, failing fast when no
// API token is configured.
func newLedgerClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*ledgerapi.Client, error) {
	token := cfg.GetAPIKey(cfg.Ledger.Token, "LEDGER_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("ledger API token not configured (set LEDGER_TOKEN or ledger.token)")
	}
	if cfg.Ledger.BudgetID == "" {
		return nil, fmt.Errorf("ledger budget id not configured (set LEDGER_BUDGET_ID or ledger.budget_id)")
	}
	return ledgerapi.NewClient(cfg.Ledger.BaseURL, cfg.Ledger.BudgetID, token, logger, m), nil
}

// buildSources registers the enabled retailer sources in config order.
// Registration order is pass order, so it also decides which retailer
// claims a transaction both could explain.
func buildSources(cfg *config.Config, logger *slog.Logger) ([]reconcile.OrderSource, error) {
	registry := retailers.NewRegistry(logger)

	if cfg.Retailers.Amazon.Enabled && cfg.Retailers.Amazon.OrdersCSV != "" {
		source := amazon.New(cfg.Retailers.Amazon.OrdersCSV, cfg.Retailers.Amazon.RefundsCSV, logger)
		if err := registry.Register(source); err != nil {
			return nil, err
		}
	}
	if cfg.Retailers.Walmart.Enabled && cfg.Retailers.Walmart.OrdersJSON != "" {
		source := walmart.New(cfg.Retailers.Walmart.OrdersJSON, logger)
		if err := registry.Register(source); err != nil {
			return nil, err
		}
	}

	all := registry.All()
	if len(all) == 0 {
		return nil, fmt.Errorf("no retailer sources configured (set amazon.orders_csv or walmart.orders_json)")
	}

	sources := make([]reconcile.OrderSource, len(all))
	for i, s := range all {
		sources[i] = s
	}
	return sources, nil
}

// reconcileConfig maps the file/env tunables onto the orchestrator config.
func reconcileConfig(cfg *config.Config) reconcile.Config {
	rc := reconcile.DefaultConfig()
	rc.Matcher.ConfidenceFloor = cfg.Matching.ConfidenceFloor
	rc.Matcher.Scoring.SingleDateWindow = cfg.Matching.SingleDateWindow
	rc.Matcher.Scoring.MultiDateWindow = cfg.Matching.MultiDateWindow
	rc.Thresholds.Medium = cfg.Matching.MediumThreshold
	rc.Thresholds.High = cfg.Matching.HighThreshold
	return rc
}
