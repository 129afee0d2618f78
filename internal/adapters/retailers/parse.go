package retailers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseCents parses a currency string like "$116.20", "-$45.99" or
// "$1,234.56" into signed minor units. Integer math throughout so amounts
// stay exact.
func ParseCents(s string) (int64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, nil
	}

	negative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	dollars := cleaned
	centsPart := "00"
	if idx := strings.IndexByte(cleaned, '.'); idx >= 0 {
		dollars = cleaned[:idx]
		centsPart = cleaned[idx+1:]
	}
	if dollars == "" {
		dollars = "0"
	}
	switch len(centsPart) {
	case 0:
		centsPart = "00"
	case 1:
		centsPart += "0"
	case 2:
	default:
		return 0, fmt.Errorf("invalid amount %q: too many decimal places", s)
	}

	d, err := strconv.ParseInt(dollars, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	c, err := strconv.ParseInt(centsPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	total := d*100 + c
	if negative {
		total = -total
	}
	return total, nil
}

// dateLayouts are the formats retailer exports use, most common first.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"January 2, 2006",
	"01/02/2006",
}

// ParseDate parses a retailer export date string.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date %q", s)
}
