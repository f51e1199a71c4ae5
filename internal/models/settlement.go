package models

import (
	"time"

	"github.com/holiman/uint256"
)

// SettlementDirection tells whether a member paid in or claimed out.
type SettlementDirection string

const (
	SettlementPayment SettlementDirection = "payment"
	SettlementClaim   SettlementDirection = "claim"
)

// Settlement represents a debt payment or a credit claim that brought a
// member's balance in a pot to zero.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// PotID is the pot this settlement belongs to.
	PotID int64

	// MemberID is the member who settled.
	MemberID int64

	// Direction is payment (debtor paying in) or claim (creditor paying out).
	Direction SettlementDirection

	// Asset is the asset sent (payments) or received (claims) by the member.
	Asset string

	// AssetAmount is the amount of Asset sent or received.
	AssetAmount *uint256.Int

	// DenominationAmount is the settled amount in the pot's denomination asset.
	DenominationAmount *uint256.Int

	// Refund is the overpayment returned to the member, in the denomination asset.
	Refund *uint256.Int

	// CreatedAt is when the settlement was recorded.
	CreatedAt time.Time
}
