// Package identity normalizes the external account identifiers members
// register with.
package identity

import (
	"encoding/hex"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidAccount is returned for empty identifiers or identifiers that
// contain whitespace.
var ErrInvalidAccount = errors.New("identity: invalid account identifier")

// Normalize returns the canonical storage form of an account identifier.
//
// Hex addresses (0x followed by 40 hex digits) are lowercased so that any
// checksum casing maps to the same member. Other identifiers are kept as is.
func Normalize(account string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", ErrInvalidAccount
	}
	for _, r := range account {
		if unicode.IsSpace(r) {
			return "", ErrInvalidAccount
		}
	}
	if IsHexAddress(account) {
		return "0x" + strings.ToLower(account[2:]), nil
	}
	return account, nil
}

// IsHexAddress reports whether s looks like a 20-byte hex address.
func IsHexAddress(s string) bool {
	if len(s) != 42 || (s[:2] != "0x" && s[:2] != "0X") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// Checksum returns the EIP-55 mixed-case form of a hex address.
// Non-address identifiers are returned unchanged.
func Checksum(account string) string {
	if !IsHexAddress(account) {
		return account
	}
	lower := strings.ToLower(account[2:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}
