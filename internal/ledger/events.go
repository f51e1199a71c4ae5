package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/money"
	"github.com/mmynk/cakepot/internal/storage"
)

// Event payloads. Amounts are base-unit decimal strings.

type potCreatedEvent struct {
	PotID             int64    `json:"pot_id"`
	DenominationAsset string   `json:"denomination_asset"`
	MemberIDs         []int64  `json:"member_ids"`
	WeightsBps        []uint32 `json:"weights_bps"`
	InterestRateBps   uint32   `json:"interest_rate_bps"`
	BillingPeriodSecs int64    `json:"billing_period_seconds"`
}

type batchAddedEvent struct {
	PotID   int64  `json:"pot_id"`
	BatchID int64  `json:"batch_id"`
	Total   string `json:"total"`
}

type balanceEntry struct {
	MemberID int64  `json:"member_id"`
	Balance  string `json:"balance"`
}

type potCutEvent struct {
	PotID          int64          `json:"pot_id"`
	FirstBatchID   int64          `json:"first_batch_id"`
	LastBatchID    int64          `json:"last_batch_id"`
	PeriodsCharged int64          `json:"periods_charged"`
	Balances       []balanceEntry `json:"balances"`
}

type settlementEvent struct {
	SettlementID       string `json:"settlement_id"`
	PotID              int64  `json:"pot_id"`
	MemberID           int64  `json:"member_id"`
	Account            string `json:"account"`
	Asset              string `json:"asset"`
	AssetAmount        string `json:"asset_amount"`
	DenominationAmount string `json:"denomination_amount"`
	Refund             string `json:"refund,omitempty"`
}

type potDeactivatedEvent struct {
	PotID int64 `json:"pot_id"`
}

func balanceVector(pot *models.Pot) []balanceEntry {
	entries := make([]balanceEntry, 0, len(pot.MemberIDs))
	for _, id := range pot.MemberIDs {
		entries = append(entries, balanceEntry{MemberID: id, Balance: money.BigString(pot.Balances[id])})
	}
	return entries
}

// emit writes an event to the outbox within the caller's transaction.
// Events are keyed by pot id so a partitioned consumer sees them in order.
func (l *Ledger) emit(ctx context.Context, q storage.Queries, topic string, potID int64, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", topic, err)
	}
	return q.EnqueueEvent(ctx, &models.OutboxMessage{
		Topic:      topic,
		MessageKey: strconv.FormatInt(potID, 10),
		Payload:    string(data),
		CreatedAt:  l.now(),
	})
}
