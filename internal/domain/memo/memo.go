// Package memo builds the annotation fragments that applied matches write
// into ledger transaction memos.
package memo

import (
	"strings"

	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
)

// Delimiter separates an existing memo from an appended fragment.
const Delimiter = " | "

// maxTitles caps how many item titles a fragment lists before truncating.
const maxTitles = 3

// Fragment renders the annotation for one order: retailer tag, order id,
// and up to three item titles with a truncation marker past that.
func Fragment(order retail.Order) string {
	var b strings.Builder
	b.WriteString(string(order.Retailer))
	if order.IsReturn {
		b.WriteString(" return ")
	} else {
		b.WriteString(" order ")
	}
	b.WriteString(order.OrderID)

	titles := order.ItemTitles()
	if len(titles) == 0 {
		return b.String()
	}

	shown := titles
	truncated := false
	if len(shown) > maxTitles {
		shown = shown[:maxTitles]
		truncated = true
	}
	b.WriteString(": ")
	b.WriteString(strings.Join(shown, ", "))
	if truncated {
		b.WriteString(", ...")
	}
	return b.String()
}

// Append joins an existing memo and a new fragment, preserving whatever the
// user already wrote. An empty memo takes the fragment alone.
func Append(existing, fragment string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return fragment
	}
	return existing + Delimiter + fragment
}
