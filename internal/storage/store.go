// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/cakepot/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// Queries defines the ledger read and write operations.
// The same methods run either directly or inside a transaction (see Store.InTx).
type Queries interface {
	// RegisterMember returns the member for account, inserting it with the
	// next dense id if it does not exist yet. created reports whether a new
	// row was inserted.
	RegisterMember(ctx context.Context, account string, at time.Time) (member *models.Member, created bool, err error)

	// GetMemberByAccount returns ErrNotFound for unknown accounts.
	GetMemberByAccount(ctx context.Context, account string) (*models.Member, error)

	// GetMember returns ErrNotFound for unknown ids.
	GetMember(ctx context.Context, id int64) (*models.Member, error)

	// CreatePot persists a new pot and its membership.
	// The pot.ID field will be populated by the store.
	CreatePot(ctx context.Context, pot *models.Pot) error

	// GetPot returns ErrNotFound for unknown pots.
	GetPot(ctx context.Context, id int64) (*models.Pot, error)

	// UpdatePot writes the mutable pot state: balances, cut bookkeeping,
	// liquidity and the active flag.
	UpdatePot(ctx context.Context, pot *models.Pot) error

	// ListPotIDsByMember returns the pots a member belongs to, ascending.
	ListPotIDsByMember(ctx context.Context, memberID int64) ([]int64, error)

	// AppendBatch stores a batch with id = previous batch count + 1.
	// The batch.ID field will be populated by the store.
	AppendBatch(ctx context.Context, batch *models.Batch) error

	// GetBatch returns ErrNotFound for unknown batches.
	GetBatch(ctx context.Context, potID, batchID int64) (*models.Batch, error)

	// ListBatchesAfter returns up to limit batches with id > afterID, ascending.
	ListBatchesAfter(ctx context.Context, potID, afterID int64, limit int) ([]*models.Batch, error)

	// RecordCut appends a cut to the audit log.
	RecordCut(ctx context.Context, cut *models.Cut) error

	// CreateSettlement persists a settlement. ID and CreatedAt are generated if unset.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByPot returns a pot's settlements, newest first.
	ListSettlementsByPot(ctx context.Context, potID int64) ([]*models.Settlement, error)

	// EnqueueEvent writes an event to the outbox.
	EnqueueEvent(ctx context.Context, msg *models.OutboxMessage) error
}

// OutboxStore is the storage used by the outbox relay.
type OutboxStore interface {
	ListPendingEvents(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	MarkEventSent(ctx context.Context, id int64) error
	// MarkEventRetry increments the retry count and, if failed is set, moves
	// the event to the failed state.
	MarkEventRetry(ctx context.Context, id int64, failed bool) error
}

// Store is the full storage backend.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger.
type Store interface {
	Queries
	OutboxStore

	// InTx runs fn inside a single transaction. The transaction commits if
	// fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(q Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}
