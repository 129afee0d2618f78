package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/ledgermatch/ledgermatch/internal/application/reconcile"
)

// printJSON writes v as indented JSON, optionally piped through a jq
// expression first. Each jq output value prints on its own line.
func printJSON(v any, filter string) error {
	if filter == "" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	query, err := gojq.Parse(filter)
	if err != nil {
		return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}

	// Round-trip through encoding/json so gojq sees plain maps and slices.
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}

	iter := code.Run(decoded)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			return fmt.Errorf("jq filter error: %w", err)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}
	return nil
}

// printRunSummary writes the human-readable outcome of a reconcile run.
func printRunSummary(summary *reconcile.RunSummary) {
	mode := "LIVE"
	if summary.DryRun {
		mode = "DRY-RUN"
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Reconcile complete (%s mode)\n", mode)
	fmt.Printf("Transactions: %d | Orders: %d | Window: %d days\n",
		summary.TransactionCount, summary.OrderCount, summary.LookbackDays)
	fmt.Printf("Updated=%d High=%d Medium=%d SkippedProcessed=%d SkippedLowConf=%d Failed=%d\n",
		summary.Stats.Updated,
		summary.Stats.HighConfidence,
		summary.Stats.MediumConfidence,
		summary.Stats.SkippedAlreadyProcessed,
		summary.Stats.SkippedLowConfidence,
		summary.Stats.Failed)

	for retailer, stats := range summary.Retailers {
		fmt.Printf("  %s: updated=%d skipped=%d failed=%d\n",
			retailer,
			stats.Updated,
			stats.SkippedAlreadyProcessed+stats.SkippedLowConfidence,
			stats.Failed)
	}

	if len(summary.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, msg := range summary.Errors {
			fmt.Printf("  - %s\n", msg)
		}
	}

	if summary.DryRun && summary.Stats.Updated > 0 {
		fmt.Fprintf(os.Stderr, "\nDry run: %d memo(s) would be written. Re-run with --dry-run=false to apply.\n",
			summary.Stats.Updated)
	}
}
