package extraction

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a display string holding a monetary amount into an
// exact non-negative decimal. Thousands-separator commas are stripped before
// parsing; any currency glyph must already have been removed by the caller.
//
// Malformed input yields decimal.Zero rather than an error so that one bad
// line item cannot abort extraction of an otherwise valid receipt.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
