package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// legacyEntry is one record in the old file-based tracker. Early files
// stored a bare order id per transaction id; later ones an object with
// the order id and a timestamp.
type legacyEntry struct {
	OrderID     string `json:"order_id"`
	ProcessedAt string `json:"processed_at"`
}

func (e *legacyEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.OrderID = s
		return nil
	}
	type plain legacyEntry
	return json.Unmarshal(data, (*plain)(e))
}

func main() {
	var (
		input  = flag.String("input", "processed_transactions.json", "Legacy tracker file to import")
		dbPath = flag.String("db", "ledgermatch.db", "Target database file")
		dryRun = flag.Bool("dry-run", true, "Preview changes without applying")
	)
	flag.Parse()

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *input, err)
	}

	var entries map[string]legacyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Fatalf("Failed to parse %s: %v", *input, err)
	}

	if len(entries) == 0 {
		log.Println("No processed transactions found")
		return
	}

	fmt.Printf("Found %d processed transactions in %s\n", len(entries), *input)

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if *dryRun {
		fmt.Println("\n=== DRY RUN MODE ===")
		for _, id := range ids {
			fmt.Printf("  %s -> order %s\n", id, entries[id].OrderID)
		}
		fmt.Printf("\nWould import %d transactions into %s\n", len(entries), *dbPath)
		return
	}

	store, err := storage.NewStorage(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	imported := 0
	skipped := 0
	for _, id := range ids {
		done, err := store.IsProcessed(id)
		if err != nil {
			log.Fatalf("Failed to check %s: %v", id, err)
		}
		if done {
			skipped++
			continue
		}
		if err := store.MarkProcessed(id, entries[id].OrderID); err != nil {
			fmt.Printf("Warning: failed to import %s: %v\n", id, err)
			continue
		}
		imported++
	}

	fmt.Printf("\n=== IMPORT COMPLETE ===\n")
	fmt.Printf("Imported %d transactions (%d already present) into %s\n", imported, skipped, *dbPath)
}
