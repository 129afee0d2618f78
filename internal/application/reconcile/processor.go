package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ledgermatch/ledgermatch/internal/domain/matcher"
	"github.com/ledgermatch/ledgermatch/internal/domain/memo"
)

// Processor decides which matches to apply and performs the memo updates.
// It owns the dedup and confidence gates; the matcher upstream only scores.
type Processor struct {
	updater    LedgerUpdater
	tracker    Tracker
	thresholds Thresholds
	logger     *slog.Logger
}

// NewProcessor creates a processor with the given gates
func NewProcessor(updater LedgerUpdater, tracker Tracker, thresholds Thresholds, logger *slog.Logger) *Processor {
	if thresholds.Medium == 0 && thresholds.High == 0 {
		thresholds = DefaultThresholds()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		updater:    updater,
		tracker:    tracker,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Process walks matches in descending confidence order and applies each one
// that passes the dedup and threshold gates. A dry run mutates nothing but
// reports the counters a live run would have produced. Tracker errors abort
// the batch; a failed memo update does not.
func (p *Processor) Process(ctx context.Context, matches []matcher.Match, opts Options) (*ProcessResult, error) {
	result := &ProcessResult{
		Applications: make([]Application, 0, len(matches)),
	}

	ordered := make([]matcher.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Confidence > ordered[j].Confidence
	})

	for _, match := range ordered {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		tx := match.Transaction()

		if !opts.Force {
			processed, err := p.tracker.IsProcessed(tx.ID)
			if err != nil {
				return result, fmt.Errorf("tracker lookup for %s: %w", tx.ID, err)
			}
			if processed {
				p.logger.Debug("skipping already processed transaction",
					"transaction_id", tx.ID,
					"order_id", match.Order.OrderID)
				result.Stats.SkippedAlreadyProcessed++
				result.Applications = append(result.Applications, Application{Match: match, Outcome: OutcomeSkippedProcessed})
				continue
			}
		}

		if match.Confidence < p.thresholds.Medium {
			p.logger.Info("skipping low confidence match",
				"transaction_id", tx.ID,
				"order_id", match.Order.OrderID,
				"confidence", match.Confidence,
				"reason", match.MatchReason)
			result.Stats.SkippedLowConfidence++
			result.Applications = append(result.Applications, Application{Match: match, Outcome: OutcomeSkippedLowConf})
			continue
		}

		if match.Confidence >= p.thresholds.High {
			result.Stats.HighConfidence++
		} else {
			result.Stats.MediumConfidence++
		}

		proposed := memo.Append(tx.Memo, memo.Fragment(match.Order))

		if opts.DryRun {
			p.logger.Info("[DRY RUN] would update memo",
				"transaction_id", tx.ID,
				"order_id", match.Order.OrderID,
				"confidence", match.Confidence,
				"memo", proposed)
			result.Stats.Updated++
			result.Applications = append(result.Applications, Application{Match: match, Outcome: OutcomeDryRun, Memo: proposed})
			continue
		}

		if err := p.updater.UpdateMemo(ctx, tx.ID, proposed); err != nil {
			p.logger.Error("failed to update memo",
				"transaction_id", tx.ID,
				"order_id", match.Order.OrderID,
				"error", err)
			result.Stats.Failed++
			result.Applications = append(result.Applications, Application{Match: match, Outcome: OutcomeFailed, Memo: proposed, Error: err.Error()})
			continue
		}

		if err := p.tracker.MarkProcessed(tx.ID, match.Order.OrderID); err != nil {
			// The memo update went through but the dedup mark did not. Abort
			// so the tracker can be repaired before a rerun re-edits memos.
			result.Stats.Updated++
			result.Applications = append(result.Applications, Application{Match: match, Outcome: OutcomeApplied, Memo: proposed})
			return result, fmt.Errorf("marking %s processed: %w", tx.ID, err)
		}

		p.logger.Info("updated memo",
			"transaction_id", tx.ID,
			"order_id", match.Order.OrderID,
			"confidence", match.Confidence,
			"multi_transaction", match.IsMultiTransaction())
		result.Stats.Updated++
		result.Applications = append(result.Applications, Application{Match: match, Outcome: OutcomeApplied, Memo: proposed})
	}

	return result, nil
}
