// Package models defines the core domain models for cakepot.
//
// # Models
//
//   - Member: a registered account with a dense numeric id
//   - Pot: a shared expense ledger ("cake") with fixed membership and weights
//   - Batch: a pending expense entry ("ingredient") queued against a pot
//   - Cut: the audit record of one settlement pass over pending batches
//   - Settlement: a debt payment or credit claim by one member
//   - OutboxMessage: an event waiting to be relayed to downstream consumers
//
// # Amounts
//
// All amounts are integers in the smallest unit of their asset (wei-style).
// Non-negative quantities use *uint256.Int; signed balances use *big.Int.
// Weights and rates are basis points, where 10000 is one whole.
//
// # Relationships
//
// Models reference each other by id rather than by pointer. Per-member
// values on a pot are maps keyed by member id, so iterating MemberIDs is the
// only place where member order matters.
package models
