package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ledgermatch/ledgermatch/internal/api"
	"github.com/ledgermatch/ledgermatch/internal/application/reconcile"
	"github.com/ledgermatch/ledgermatch/internal/application/service"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/metrics"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (default: config server.port)",
				EnvVars: []string{"PORT"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Verbose logging",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := loadConfig(c)
			logger := newLogger(cfg, c.Bool("verbose"))

			store, err := storage.NewStorage(cfg.Storage.DatabasePath)
			if err != nil {
				return fmt.Errorf("opening storage: %w", err)
			}
			defer store.Close()

			m := metrics.NewMetrics(nil)

			client, err := newLedgerClient(cfg, logger, m)
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
				m,
				logger,
			)

			runService := service.NewRunService(orchestrator, logger)
			runService.StartBackgroundCleanup(time.Hour)
			defer runService.StopBackgroundCleanup()

			apiCfg := api.DefaultConfig()
			apiCfg.Port = cfg.Server.Port
			if p := c.Int("port"); p != 0 {
				apiCfg.Port = p
			}

			server := api.NewServer(apiCfg, store, runService, m, logger)

			// Shut down cleanly on SIGINT/SIGTERM, letting in-flight
			// requests finish.
			done := make(chan struct{})
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				<-quit
				logger.Info("received shutdown signal")

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", slog.Any("error", err))
				}
				close(done)
			}()

			if err := server.Start(); err != nil {
				return err
			}

			<-done
			logger.Info("server stopped")
			return nil
		},
	}
}
