// Package ledger implements the pot ledger: membership, pending batches,
// cutting with interest, and settlement of debts and credits.
//
// Every mutating operation on a pot holds that pot's lock and runs in a
// single storage transaction, so it either applies completely or not at all.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/cakepot/internal/conversion"
	"github.com/mmynk/cakepot/internal/lock"
	"github.com/mmynk/cakepot/internal/metrics"
	"github.com/mmynk/cakepot/internal/storage"
)

// DefaultMaxBatchesPerCut bounds the work done by a single Cut call.
const DefaultMaxBatchesPerCut = 256

// Overpayment selects what happens to the part of a payment above the debt.
type Overpayment string

const (
	// OverpaymentForfeit keeps the whole received amount as pot liquidity.
	OverpaymentForfeit Overpayment = "forfeit"
	// OverpaymentRefund keeps only the debt and reports the rest as a refund.
	OverpaymentRefund Overpayment = "refund"
)

// Config holds ledger policy.
type Config struct {
	MaxBatchesPerCut int
	Overpayment      Overpayment
}

// DefaultConfig returns the default ledger policy.
func DefaultConfig() Config {
	return Config{
		MaxBatchesPerCut: DefaultMaxBatchesPerCut,
		Overpayment:      OverpaymentForfeit,
	}
}

// Ledger coordinates storage, locking and conversion for pot operations.
type Ledger struct {
	store     storage.Store
	locker    lock.Locker
	converter conversion.Provider
	metrics   *metrics.LedgerMetrics
	cfg       Config
	now       func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLocker replaces the default in-process locker.
func WithLocker(l lock.Locker) Option {
	return func(lg *Ledger) { lg.locker = l }
}

// WithConverter sets the provider used for cross-asset settlement.
// Without one, settling in a non-denomination asset fails with ErrConversionFailed.
func WithConverter(p conversion.Provider) Option {
	return func(lg *Ledger) { lg.converter = p }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.LedgerMetrics) Option {
	return func(lg *Ledger) { lg.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(lg *Ledger) { lg.now = now }
}

// New creates a Ledger on top of store.
func New(store storage.Store, cfg Config, opts ...Option) (*Ledger, error) {
	if cfg.MaxBatchesPerCut <= 0 {
		cfg.MaxBatchesPerCut = DefaultMaxBatchesPerCut
	}
	switch cfg.Overpayment {
	case "":
		cfg.Overpayment = OverpaymentForfeit
	case OverpaymentForfeit, OverpaymentRefund:
	default:
		return nil, fmt.Errorf("unknown overpayment policy %q", cfg.Overpayment)
	}

	lg := &Ledger{
		store:  store,
		locker: lock.NewLocal(),
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(lg)
	}
	return lg, nil
}

// withPot runs fn holding the pot lock and inside one transaction.
//
// When the transaction fails, every onAbort hook runs before the lock is
// released, so compensating actions finish before another call can load
// the pot. Hooks receive the lock-holding ctx.
func (l *Ledger) withPot(ctx context.Context, potID int64, fn func(ctx context.Context, q storage.Queries) error, onAbort ...func(ctx context.Context)) error {
	ctx, release, err := lock.Hold(ctx, l.locker, lock.PotKey(potID))
	if err != nil {
		if errors.Is(err, lock.ErrReentrant) {
			return fmt.Errorf("%w: pot %d", ErrReentrantCall, potID)
		}
		return fmt.Errorf("failed to lock pot %d: %w", potID, err)
	}
	defer release()

	err = l.store.InTx(ctx, func(q storage.Queries) error {
		return fn(ctx, q)
	})
	if err != nil {
		for _, undo := range onAbort {
			undo(ctx)
		}
	}
	return err
}

// track starts timing an operation. Use as: defer l.track("op")(&err).
func (l *Ledger) track(operation string) func(*error) {
	start := time.Now()
	return func(err *error) {
		l.metrics.ObserveOperation(operation, *err, time.Since(start))
	}
}
