// Package currency maps ledger-native currency codes to the human-readable
// symbols used for price-feed lookups and user-facing messages.
package currency

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// Native is the ledger's base-asset symbol.
const Native = "XRP"

// FakeNative is the sentinel returned for codes that impersonate the base
// asset (case variations of "XRP", plain or hidden inside a hex code). It can
// never collide with a real normalized symbol.
const FakeNative = "FakeXRP"

// stablecoinAliases collapses known stablecoin ticker variants to a single
// symbol per fiat peg. Extending support is a table edit, not a code change.
var stablecoinAliases = map[string]string{
	"USDT": "USD",
	"USDC": "USD",
	"USDS": "USD",
	"EURT": "EUR",
	"EURS": "EUR",
	"EURC": "EUR",
}

// Normalize converts a ledger currency code (a plain 3-letter code or a
// 40-character hex-encoded code) to its human-readable form. It is pure and
// idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(code string) string {
	if code == Native {
		return code
	}
	// A case variation of the native symbol is a disguised instrument, not
	// the base asset.
	if strings.EqualFold(code, Native) {
		return FakeNative
	}

	if isHexCurrency(code) {
		decoded, ok := decodeHexCurrency(code)
		if !ok {
			return code
		}
		if strings.EqualFold(strings.TrimSpace(decoded), Native) {
			return FakeNative
		}
		if canonical, found := stablecoinAliases[decoded]; found {
			return canonical
		}
		return decoded
	}

	if canonical, found := stablecoinAliases[code]; found {
		return canonical
	}
	return code
}

// isHexCurrency reports whether code looks like a 160-bit hex currency code.
func isHexCurrency(code string) bool {
	if len(code) != 40 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// decodeHexCurrency interprets a 40-character hex code as UTF-8 text. Codes
// whose first byte marks the extended-metadata encoding carry an 8-byte
// header before the text. Returns ok == false when the payload is not valid
// UTF-8 or decodes to nothing, in which case the raw hex should be kept.
func decodeHexCurrency(code string) (string, bool) {
	raw, err := hex.DecodeString(code)
	if err != nil {
		return "", false
	}
	if len(raw) > 0 && raw[0] == 0x02 {
		if len(raw) <= 8 {
			return "", false
		}
		raw = raw[8:]
	}
	if !utf8.Valid(raw) {
		return "", false
	}
	text := strings.Map(func(r rune) rune {
		switch r {
		case 0, '\r', '\n':
			return -1
		}
		return r
	}, string(raw))
	if text == "" {
		return "", false
	}
	return text, true
}
