package conversion

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
)

// FeeDenominator is the basis-point denominator for pool fees.
const FeeDenominator = 10_000

// PoolConfig seeds a constant-product pool.
type PoolConfig struct {
	AssetA   string
	AssetB   string
	ReserveA *uint256.Int
	ReserveB *uint256.Int
	FeeBps   uint32
}

type pool struct {
	reserves map[string]*uint256.Int
	feeBps   uint32
}

// Router is an in-memory Provider that routes each pair to a single
// constant-product (x*y=k) pool.
type Router struct {
	mu    sync.Mutex
	pools map[string]*pool
}

var _ Provider = (*Router)(nil)

// NewRouter builds a router from pool configs. Duplicate pairs are rejected.
func NewRouter(configs ...PoolConfig) (*Router, error) {
	r := &Router{pools: make(map[string]*pool)}
	for _, cfg := range configs {
		if cfg.AssetA == "" || cfg.AssetB == "" || cfg.AssetA == cfg.AssetB {
			return nil, fmt.Errorf("invalid pool pair %q/%q", cfg.AssetA, cfg.AssetB)
		}
		if cfg.FeeBps >= FeeDenominator {
			return nil, fmt.Errorf("invalid pool fee %d bps", cfg.FeeBps)
		}
		if cfg.ReserveA == nil || cfg.ReserveB == nil {
			return nil, fmt.Errorf("pool %s/%s: %w", cfg.AssetA, cfg.AssetB, ErrInsufficientReserves)
		}
		key := pairKey(cfg.AssetA, cfg.AssetB)
		if _, exists := r.pools[key]; exists {
			return nil, fmt.Errorf("duplicate pool %s", key)
		}
		r.pools[key] = &pool{
			reserves: map[string]*uint256.Int{
				cfg.AssetA: new(uint256.Int).Set(cfg.ReserveA),
				cfg.AssetB: new(uint256.Int).Set(cfg.ReserveB),
			},
			feeBps: cfg.FeeBps,
		}
	}
	return r, nil
}

// Quote returns the output of converting amountIn without executing it.
func (r *Router) Quote(assetIn, assetOut string, amountIn *uint256.Int) (*uint256.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.route(assetIn, assetOut)
	if err != nil {
		return nil, err
	}
	return p.amountOut(assetIn, assetOut, amountIn)
}

// Convert implements Provider.
func (r *Router) Convert(ctx context.Context, req Request) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.route(req.AssetIn, req.AssetOut)
	if err != nil {
		return nil, err
	}

	out, err := p.amountOut(req.AssetIn, req.AssetOut, req.AmountIn)
	if err != nil {
		return nil, err
	}
	if req.MinAmountOut != nil && out.Lt(req.MinAmountOut) {
		return nil, fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutput, out.Dec(), req.MinAmountOut.Dec())
	}

	// Commit the trade to the reserves
	in, overflow := new(uint256.Int).AddOverflow(p.reserves[req.AssetIn], req.AmountIn)
	if overflow {
		return nil, ErrInvalidAmount
	}
	p.reserves[req.AssetIn] = in
	p.reserves[req.AssetOut] = new(uint256.Int).Sub(p.reserves[req.AssetOut], out)

	return &Receipt{
		AssetIn:   req.AssetIn,
		AssetOut:  req.AssetOut,
		AmountIn:  new(uint256.Int).Set(req.AmountIn),
		AmountOut: out,
	}, nil
}

// Unwind implements Provider by restoring the reserves a receipt moved.
func (r *Router) Unwind(_ context.Context, receipt *Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.route(receipt.AssetIn, receipt.AssetOut)
	if err != nil {
		return err
	}

	in := p.reserves[receipt.AssetIn]
	if in.Lt(receipt.AmountIn) {
		return fmt.Errorf("unwind %s->%s: %w", receipt.AssetIn, receipt.AssetOut, ErrInsufficientReserves)
	}
	p.reserves[receipt.AssetIn] = new(uint256.Int).Sub(in, receipt.AmountIn)
	p.reserves[receipt.AssetOut] = new(uint256.Int).Add(p.reserves[receipt.AssetOut], receipt.AmountOut)
	return nil
}

// Reserves returns a copy of the reserves of the pool trading a and b.
func (r *Router) Reserves(a, b string) (*uint256.Int, *uint256.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.route(a, b)
	if err != nil {
		return nil, nil, err
	}
	return new(uint256.Int).Set(p.reserves[a]), new(uint256.Int).Set(p.reserves[b]), nil
}

func (r *Router) route(assetIn, assetOut string) (*pool, error) {
	p, ok := r.pools[pairKey(assetIn, assetOut)]
	if !ok || assetIn == assetOut {
		return nil, fmt.Errorf("%w: %s->%s", ErrNoRoute, assetIn, assetOut)
	}
	return p, nil
}

// amountOut applies the constant-product formula with the fee taken from the input:
//
//	out = in*(D-fee)*rOut / (rIn*D + in*(D-fee))
func (p *pool) amountOut(assetIn, assetOut string, amountIn *uint256.Int) (*uint256.Int, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, ErrInvalidAmount
	}
	rIn, rOut := p.reserves[assetIn], p.reserves[assetOut]
	if rIn.IsZero() || rOut.IsZero() {
		return nil, ErrInsufficientReserves
	}

	inWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, uint256.NewInt(uint64(FeeDenominator-p.feeBps)))
	if overflow {
		return nil, ErrInvalidAmount
	}
	numerator, overflow := new(uint256.Int).MulOverflow(inWithFee, rOut)
	if overflow {
		return nil, ErrInvalidAmount
	}
	denominator, overflow := new(uint256.Int).MulOverflow(rIn, uint256.NewInt(FeeDenominator))
	if overflow {
		return nil, ErrInvalidAmount
	}
	if _, overflow := denominator.AddOverflow(denominator, inWithFee); overflow {
		return nil, ErrInvalidAmount
	}

	out := new(uint256.Int).Div(numerator, denominator)
	if out.IsZero() || !out.Lt(rOut) {
		return nil, ErrInsufficientReserves
	}
	return out, nil
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "/" + b
}
