package models

import "time"

// Member is a registered account.
//
// Members are created once per unique account on first registration and are
// never modified or deleted afterwards.
type Member struct {
	// ID is the dense, 1-based member identifier.
	ID int64

	// Account is the normalized external identifier (e.g. a wallet address).
	Account string

	// CreatedAt is when the account was first registered.
	CreatedAt time.Time
}
