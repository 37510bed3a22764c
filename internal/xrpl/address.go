package xrpl

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
)

// base58Alphabet is the XRPL base58 dictionary. Index 0 is 'r', which is why
// classic addresses (version byte 0x00) start with it.
const base58Alphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

// classicAddressLength is version byte + 20-byte account id + 4-byte checksum.
const classicAddressLength = 25

// ValidateClassicAddress checks that addr is a well-formed classic address:
// XRPL base58, account version byte, and a matching double-sha256 checksum.
func ValidateClassicAddress(addr string) error {
	decoded, err := decodeBase58(addr)
	if err != nil {
		return fmt.Errorf("address %q: %w", addr, err)
	}
	if len(decoded) != classicAddressLength {
		return fmt.Errorf("address %q: wrong payload length %d", addr, len(decoded))
	}
	if decoded[0] != 0x00 {
		return fmt.Errorf("address %q: not an account address", addr)
	}

	payload := decoded[:21]
	checksum := decoded[21:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	for i := 0; i < 4; i++ {
		if checksum[i] != second[i] {
			return fmt.Errorf("address %q: checksum mismatch", addr)
		}
	}
	return nil
}

// decodeBase58 decodes s using the XRPL alphabet.
func decodeBase58(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty address")
	}

	value := new(big.Int)
	radix := big.NewInt(58)
	for i := 0; i < len(s); i++ {
		digit := strings.IndexByte(base58Alphabet, s[i])
		if digit < 0 {
			return nil, fmt.Errorf("invalid base58 character %q", s[i])
		}
		value.Mul(value, radix)
		value.Add(value, big.NewInt(int64(digit)))
	}

	// Leading alphabet[0] characters encode leading zero bytes.
	leadingZeros := 0
	for leadingZeros < len(s) && s[leadingZeros] == base58Alphabet[0] {
		leadingZeros++
	}

	digits := value.Bytes()
	decoded := make([]byte, leadingZeros+len(digits))
	copy(decoded[leadingZeros:], digits)
	return decoded, nil
}
