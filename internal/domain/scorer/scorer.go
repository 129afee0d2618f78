// Package scorer computes the confidence that a ledger transaction pays for
// a given retailer order charge. Confidence is a weighted blend of amount
// closeness, date proximity, payee recognition, and (for Amazon) existing
// memo hints, always in [0, 1].
package scorer

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/ledgermatch/ledgermatch/internal/domain/ledger"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
)

// Config holds scoring tolerances.
type Config struct {
	EpsilonCents     int64   // exact-match band for amounts (default: 1 cent)
	ToleranceRatio   float64 // proportional decay width for amounts (default: 0.05)
	SingleDateWindow int     // days before the date factor reaches zero (default: 7)
	MultiDateWindow  int     // wider window for split-charge deliveries (default: 14)

	// PayeeAliases maps a retailer to the descriptor fragments banks print
	// for it. Comparison is case-insensitive substring.
	PayeeAliases map[retail.Retailer][]string
}

// DefaultConfig returns the tolerances reconcile runs use unless configured.
func DefaultConfig() Config {
	return Config{
		EpsilonCents:     1,
		ToleranceRatio:   0.05,
		SingleDateWindow: 7,
		MultiDateWindow:  14,
		PayeeAliases:     DefaultPayeeAliases(),
	}
}

// DefaultPayeeAliases returns the descriptor fragments seen on real
// statements for each retailer.
func DefaultPayeeAliases() map[retail.Retailer][]string {
	return map[retail.Retailer][]string{
		retail.Amazon: {
			"AMAZON", "AMZN", "AMZN MKTP", "AMAZON.COM", "AMAZON MKTPL", "AMAZON PRIME",
		},
		retail.Walmart: {
			"WALMART", "WAL-MART", "WALMART.COM", "WMT", "WM SUPERCENTER",
		},
	}
}

// Weights is the factor weighting for one retailer and charge mode. Each
// mode's weights sum to 1.0 so totals stay in [0, 1].
type Weights struct {
	Amount float64
	Date   float64
	Payee  float64
	Memo   float64
}

func singleWeights(r retail.Retailer) Weights {
	switch r {
	case retail.Amazon:
		return Weights{Amount: 0.40, Date: 0.30, Payee: 0.20, Memo: 0.10}
	case retail.Walmart:
		return Weights{Amount: 0.70, Date: 0.20, Payee: 0.10}
	}
	return Weights{}
}

// multiChargeWeights scores a split-charge group as a whole: mean amount
// agreement, mean date proximity, and payee consistency across the group.
var multiChargeWeights = Weights{Amount: 0.50, Date: 0.30, Payee: 0.20}

// Breakdown carries the per-factor sub-scores behind a confidence value.
type Breakdown struct {
	Amount float64
	Date   float64
	Payee  float64
	Memo   float64
	Total  float64
}

// Scorer scores order/transaction pairings.
type Scorer struct {
	config Config
}

// New creates a scorer with the given config. Zero-valued tolerances fall
// back to defaults so a partially filled config stays usable.
func New(config Config) *Scorer {
	def := DefaultConfig()
	if config.EpsilonCents <= 0 {
		config.EpsilonCents = def.EpsilonCents
	}
	if config.ToleranceRatio <= 0 {
		config.ToleranceRatio = def.ToleranceRatio
	}
	if config.SingleDateWindow <= 0 {
		config.SingleDateWindow = def.SingleDateWindow
	}
	if config.MultiDateWindow <= 0 {
		config.MultiDateWindow = def.MultiDateWindow
	}
	if config.PayeeAliases == nil {
		config.PayeeAliases = def.PayeeAliases
	}
	return &Scorer{config: config}
}

// ScoreSingle scores one transaction against a single-charge order. The
// boolean reports structural eligibility: a pair whose amount or date factor
// is zero can never match, whatever the weighted total would be.
func (s *Scorer) ScoreSingle(order retail.Order, tx ledger.TransactionRecord) (Breakdown, bool) {
	b := Breakdown{
		Amount: s.amountScore(order.MatchAmount(), tx.Amount),
		Date:   dateScore(order.Date, tx.Date, s.config.SingleDateWindow),
		Payee:  s.payeeScore(order.Retailer, tx.Payee),
	}
	if b.Amount == 0 || b.Date == 0 {
		return Breakdown{}, false
	}
	if order.Retailer == retail.Amazon {
		b.Memo = memoScore(order, tx.Memo)
	}
	w := singleWeights(order.Retailer)
	b.Total = w.Amount*b.Amount + w.Date*b.Date + w.Payee*b.Payee + w.Memo*b.Memo
	return b, true
}

// ScoreMulti scores a resolved split-charge group. txs must be aligned
// one-to-one with order.FinalCharges. The boolean reports eligibility the
// same way ScoreSingle does, applied to every pair in the group.
func (s *Scorer) ScoreMulti(order retail.Order, txs []ledger.TransactionRecord) (Breakdown, bool) {
	charges := order.FinalCharges
	if len(charges) == 0 || len(txs) != len(charges) {
		return Breakdown{}, false
	}

	var amountSum, dateSum float64
	payee := 1.0
	for i, tx := range txs {
		a := s.amountScore(charges[i], tx.Amount)
		d := dateScore(order.Date, tx.Date, s.config.MultiDateWindow)
		if a == 0 || d == 0 {
			return Breakdown{}, false
		}
		amountSum += a
		dateSum += d
		if s.payeeScore(order.Retailer, tx.Payee) == 0 {
			payee = 0
		}
	}

	b := Breakdown{
		Amount: amountSum / float64(len(txs)),
		Date:   dateSum / float64(len(txs)),
		Payee:  payee,
	}
	w := multiChargeWeights
	b.Total = w.Amount*b.Amount + w.Date*b.Date + w.Payee*b.Payee
	return b, true
}

// PairTolerance is the amount band used when pairing individual final
// charges to transactions. Final charges are exact billed amounts, so the
// band is the epsilon, not the proportional tolerance.
func (s *Scorer) PairTolerance() int64 {
	return s.config.EpsilonCents
}

// DateWindow returns the scoring window in days for the given charge mode.
func (s *Scorer) DateWindow(multi bool) int {
	if multi {
		return s.config.MultiDateWindow
	}
	return s.config.SingleDateWindow
}

// amountScore is 1.0 when the signed amounts agree within epsilon, decays
// linearly to 0 at the proportional tolerance, and is 0 for sign mismatches.
func (s *Scorer) amountScore(charge, txAmount int64) float64 {
	if charge == 0 || txAmount == 0 {
		return 0
	}
	if (charge < 0) != (txAmount < 0) {
		return 0
	}
	diff := abs64(charge - txAmount)
	eps := s.config.EpsilonCents
	if diff <= eps {
		return 1
	}
	tol := int64(math.Round(s.config.ToleranceRatio * math.Abs(float64(charge))))
	if tol < eps {
		tol = eps
	}
	if diff >= tol {
		return 0
	}
	return 1 - float64(diff-eps)/float64(tol-eps)
}

// dateScore is 1.0 same-day and decays linearly to 0 at the window edge.
func dateScore(orderDate, txDate time.Time, window int) float64 {
	days := DaysApart(orderDate, txDate)
	w := float64(window)
	if days >= w {
		return 0
	}
	if days <= 0 {
		return 1
	}
	return 1 - days/w
}

func (s *Scorer) payeeScore(r retail.Retailer, payee string) float64 {
	upper := strings.ToUpper(payee)
	for _, alias := range s.config.PayeeAliases[r] {
		if strings.Contains(upper, strings.ToUpper(alias)) {
			return 1
		}
	}
	return 0
}

// memoScore rewards transactions whose memo already references the order:
// full credit for the order id, half credit for a product-title token.
func memoScore(order retail.Order, memoText string) float64 {
	if memoText == "" {
		return 0
	}
	lower := strings.ToLower(memoText)
	if strings.Contains(lower, strings.ToLower(order.OrderID)) {
		return 1
	}
	for _, title := range order.ItemTitles() {
		for _, token := range titleTokens(title) {
			if strings.Contains(lower, token) {
				return 0.5
			}
		}
	}
	return 0
}

// titleTokens extracts lowercase alphabetic tokens of four or more runes
// from a product title. Short words and bare numbers match too easily.
func titleTokens(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 4 {
			continue
		}
		if _, ok := firstLetter(f); !ok {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func firstLetter(s string) (rune, bool) {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return r, true
		}
	}
	return 0, false
}

// DaysApart is the absolute distance between two dates in days.
func DaysApart(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Hours() / 24)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
