// Package money converts between base-unit integers and their textual forms.
package money

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// DefaultDecimals is the number of fractional digits of 18-decimal assets.
const DefaultDecimals = 18

var ErrInvalidAmount = errors.New("invalid amount")

// ParseBaseUnits parses a non-negative integer amount in base units.
// An empty string is zero.
func ParseBaseUnits(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return v, nil
}

// FormatUnits renders a signed base-unit amount as a decimal string.
func FormatUnits(v *big.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -decimals).String()
}

// BigString renders a signed amount in base units, treating nil as zero.
func BigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// UintString renders an unsigned amount in base units, treating nil as zero.
func UintString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// ParseSigned parses a signed base-unit integer.
func ParseSigned(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}
