// Package api defines the cakepot.v1.LedgerService wire messages and the
// Connect handler and client for them.
//
// Amounts are base-unit decimal strings. Signed balances additionally carry
// a display string with 18 decimals.
package api

import "google.golang.org/protobuf/types/known/timestamppb"

// Member is a registered ledger participant.
type Member struct {
	ID              int64                  `json:"id"`
	Account         string                 `json:"account"`
	ChecksumAccount string                 `json:"checksum_account,omitempty"`
	CreatedAt       *timestamppb.Timestamp `json:"created_at,omitempty"`
}

// SignedAmount is a signed base-unit amount with a human-readable form.
type SignedAmount struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

// PotMember is a member's weight and balance inside a pot.
type PotMember struct {
	MemberID  int64         `json:"member_id"`
	WeightBps uint32        `json:"weight_bps"`
	Balance   *SignedAmount `json:"balance"`
}

// Pot is the public state of a pot.
type Pot struct {
	ID                   int64                  `json:"id"`
	DenominationAsset    string                 `json:"denomination_asset"`
	Members              []*PotMember           `json:"members"`
	InterestRateBps      uint32                 `json:"interest_rate_bps"`
	BillingPeriodSeconds int64                  `json:"billing_period_seconds"`
	LastCutAt            *timestamppb.Timestamp `json:"last_cut_at"`
	NextDueAt            *timestamppb.Timestamp `json:"next_due_at"`
	LastAppliedBatchID   int64                  `json:"last_applied_batch_id"`
	BatchCount           int64                  `json:"batch_count"`
	Liquidity            string                 `json:"liquidity"`
	Active               bool                   `json:"active"`
	CreatedAt            *timestamppb.Timestamp `json:"created_at"`
}

// Payment is one payer entry of a batch.
type Payment struct {
	MemberID int64  `json:"member_id"`
	Amount   string `json:"amount"`
}

// Batch is a pending or applied expense entry.
type Batch struct {
	PotID int64 `json:"pot_id"`
	ID    int64 `json:"id"`
	// WeightsOverride is aligned with the pot's member order; empty means default weights.
	WeightsOverride []uint32               `json:"weights_override,omitempty"`
	Payments        []*Payment             `json:"payments"`
	Total           string                 `json:"total"`
	CreatedAt       *timestamppb.Timestamp `json:"created_at"`
}

// Settlement is a recorded debt payment or credit claim.
type Settlement struct {
	ID                 string                 `json:"id"`
	PotID              int64                  `json:"pot_id"`
	MemberID           int64                  `json:"member_id"`
	Direction          string                 `json:"direction"`
	Asset              string                 `json:"asset"`
	AssetAmount        string                 `json:"asset_amount"`
	DenominationAmount string                 `json:"denomination_amount"`
	Refund             string                 `json:"refund"`
	CreatedAt          *timestamppb.Timestamp `json:"created_at"`
}

// RegisterRequest registers the calling account.
type RegisterRequest struct{}

type RegisterResponse struct {
	Member *Member `json:"member"`
}

type CreatePotRequest struct {
	DenominationAsset    string   `json:"denomination_asset"`
	MemberAccounts       []string `json:"member_accounts"`
	WeightsBps           []uint32 `json:"weights_bps"`
	InterestRateBps      uint32   `json:"interest_rate_bps"`
	BillingPeriodSeconds int64    `json:"billing_period_seconds"`
}

type CreatePotResponse struct {
	Pot *Pot `json:"pot"`
}

type AddBatchRequest struct {
	PotID int64 `json:"pot_id"`
	// WeightsOverride is optional and aligned with the pot's member order.
	WeightsOverride []uint32 `json:"weights_override,omitempty"`
	Payers          []int64  `json:"payers"`
	Amounts         []string `json:"amounts"`
}

type AddBatchResponse struct {
	Batch *Batch `json:"batch"`
}

type CutRequest struct {
	PotID int64 `json:"pot_id"`
}

type CutResponse struct {
	Pot            *Pot   `json:"pot"`
	FirstBatchID   int64  `json:"first_batch_id"`
	LastBatchID    int64  `json:"last_batch_id"`
	PeriodsCharged int64  `json:"periods_charged"`
	Residue        string `json:"residue"`
	// Remaining is true when more batches are pending than one cut processes.
	Remaining bool `json:"remaining"`
}

type PayDebtRequest struct {
	PotID int64 `json:"pot_id"`
	// Asset defaults to the native asset when empty.
	Asset      string `json:"asset"`
	AmountSent string `json:"amount_sent"`
}

type PayDebtResponse struct {
	Settlement *Settlement `json:"settlement"`
	Liquidity  string      `json:"liquidity"`
}

type ClaimCreditRequest struct {
	PotID int64 `json:"pot_id"`
	// PayoutAsset defaults to the pot's denomination when empty.
	PayoutAsset string `json:"payout_asset"`
	MinPayout   string `json:"min_payout"`
}

type ClaimCreditResponse struct {
	Settlement *Settlement `json:"settlement"`
	Liquidity  string      `json:"liquidity"`
}

type DeactivatePotRequest struct {
	PotID int64 `json:"pot_id"`
}

type DeactivatePotResponse struct {
	Pot *Pot `json:"pot"`
}

type GetPotRequest struct {
	PotID int64 `json:"pot_id"`
}

type GetPotResponse struct {
	Pot *Pot `json:"pot"`
}

type GetBalanceRequest struct {
	PotID    int64 `json:"pot_id"`
	MemberID int64 `json:"member_id"`
}

type GetBalanceResponse struct {
	Balance *SignedAmount `json:"balance"`
}

type GetBatchRequest struct {
	PotID   int64 `json:"pot_id"`
	BatchID int64 `json:"batch_id"`
}

type GetBatchResponse struct {
	Batch *Batch `json:"batch"`
}

type GetMemberRequest struct {
	Account string `json:"account"`
}

type GetMemberResponse struct {
	Member *Member `json:"member"`
}

type ListMemberPotsRequest struct {
	MemberID int64 `json:"member_id"`
}

type ListMemberPotsResponse struct {
	PotIDs []int64 `json:"pot_ids"`
}

type ListSettlementsRequest struct {
	PotID int64 `json:"pot_id"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}
