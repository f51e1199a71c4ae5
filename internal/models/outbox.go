package models

import "time"

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// Event topics written to the outbox.
const (
	TopicPotCreated = "pot.created"
	TopicBatchAdded = "batch.added"
	TopicPotCut     = "pot.cut"
	TopicPayment    = "pot.payment"
	TopicClaim      = "pot.claim"
	TopicPotClosed  = "pot.deactivated"
)

// OutboxMessage is an event committed together with the ledger change that
// produced it and relayed afterwards.
type OutboxMessage struct {
	ID         int64
	EventID    string
	Topic      string
	MessageKey string
	Payload    string
	Status     string
	RetryCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
