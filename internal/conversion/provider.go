// Package conversion swaps one asset for another so members can settle in
// an asset other than a pot's denomination.
package conversion

import (
	"context"
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrNoRoute is returned when no pool trades the requested pair.
	ErrNoRoute = errors.New("conversion: no route for asset pair")

	// ErrInsufficientOutput is returned when the conversion would yield
	// less than the requested minimum.
	ErrInsufficientOutput = errors.New("conversion: output below minimum")

	// ErrInsufficientReserves is returned when a pool cannot cover the trade.
	ErrInsufficientReserves = errors.New("conversion: insufficient reserves")

	// ErrInvalidAmount is returned for zero inputs or arithmetic overflow.
	ErrInvalidAmount = errors.New("conversion: invalid amount")
)

// Request describes an exact-input conversion.
type Request struct {
	AssetIn      string
	AssetOut     string
	AmountIn     *uint256.Int
	MinAmountOut *uint256.Int
}

// Receipt records an executed conversion. It is enough to undo the trade.
type Receipt struct {
	AssetIn   string
	AssetOut  string
	AmountIn  *uint256.Int
	AmountOut *uint256.Int
}

// Provider executes conversions.
//
// Convert either fills the request with at least MinAmountOut or fails
// without side effects. Unwind reverses a receipt returned by Convert; the
// ledger calls it when the state change that depended on the conversion
// could not be committed.
//
// Both methods run while the ledger holds the pot's lock. An implementation
// that calls back into the ledger must pass on the ctx it received: that
// ctx marks the pot as held, so a nested call fails fast with a reentrancy
// error. A fresh context would wait on the held lock until it times out.
type Provider interface {
	Convert(ctx context.Context, req Request) (*Receipt, error)
	Unwind(ctx context.Context, receipt *Receipt) error
}
