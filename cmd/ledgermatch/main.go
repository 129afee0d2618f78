package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "ledgermatch",
		Usage: "Reconcile retailer orders against budgeting-service transactions",
		Description: `Matches retailer order exports (Amazon CSV, Walmart JSON) against the
transactions in your budgeting service and annotates each matched
transaction's memo with the order that explains it.

Runs are dry by default; pass --dry-run=false to write memos.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			runCommand(),
			serveCommand(),
			runsCommand(),
			matchesCommand(),
			statsCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file path",
				EnvVars: []string{"LEDGERMATCH_CONFIG"},
				Value:   "config.yaml",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
