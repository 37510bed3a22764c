// Package amount formats numeric quantities for submission to the ledger.
// Issued-currency values are capped at the ledger's 15-significant-digit
// precision; native amounts are expressed in drops.
package amount

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DropsPerXRP is the subunit factor of the native asset.
const DropsPerXRP = 1_000_000

// Normalize renders value as a decimal string whose total significant digits
// (integer-part length plus fractional digits) never exceed 15, with no
// exponential notation and no trailing zeros. It is idempotent: normalizing
// an already-normalized value reproduces it exactly.
func Normalize(value float64) string {
	s := strconv.FormatFloat(value, 'f', -1, 64)

	digits := strings.TrimPrefix(s, "-")
	intLen := len(digits)
	hasFraction := false
	if dot := strings.IndexByte(digits, '.'); dot >= 0 {
		intLen = dot
		hasFraction = true
	}
	// Negative places rounds into the integer part, leaving non-significant
	// trailing zeros.
	if places := 15 - intLen; hasFraction || places < 0 {
		s = decimal.NewFromFloat(value).Round(int32(places)).String()
	}

	// Re-parse to drop redundant trailing zeros left by the rounding step.
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(parsed, 'f', -1, 64)
}

// XRPToDrops converts a decimal XRP quantity to an integer drops string.
func XRPToDrops(xrp float64) string {
	return decimal.NewFromFloat(xrp).
		Mul(decimal.NewFromInt(DropsPerXRP)).
		Truncate(0).
		String()
}

// DropsToXRP converts an integer drops string to decimal XRP.
func DropsToXRP(drops string) (float64, error) {
	n, err := strconv.ParseInt(drops, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid drops value %q: %w", drops, err)
	}
	return float64(n) / DropsPerXRP, nil
}
