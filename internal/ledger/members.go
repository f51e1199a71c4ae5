package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/cakepot/internal/identity"
	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/storage"
)

// Register returns the member for account, creating it on first use.
func (l *Ledger) Register(ctx context.Context, account string) (member *models.Member, err error) {
	defer l.track("register")(&err)

	normalized, err := identity.Normalize(account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}

	err = l.store.InTx(ctx, func(q storage.Queries) error {
		var txErr error
		member, _, txErr = q.RegisterMember(ctx, normalized, l.now())
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// GetMember looks up a member by account.
func (l *Ledger) GetMember(ctx context.Context, account string) (*models.Member, error) {
	return lookupMember(ctx, l.store, account)
}

// ListMemberPots returns the ids of every pot the member belongs to.
func (l *Ledger) ListMemberPots(ctx context.Context, memberID int64) ([]int64, error) {
	if _, err := l.store.GetMember(ctx, memberID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: member %d", ErrMemberNotRegistered, memberID)
		}
		return nil, err
	}
	return l.store.ListPotIDsByMember(ctx, memberID)
}

// lookupMember resolves an account to its member, failing with
// ErrMemberNotRegistered for unknown or malformed accounts.
func lookupMember(ctx context.Context, q storage.Queries, account string) (*models.Member, error) {
	normalized, err := identity.Normalize(account)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMemberNotRegistered, account)
	}
	member, err := q.GetMemberByAccount(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotRegistered, normalized)
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// callerInPot resolves the caller and checks pot membership. Unknown
// callers are not members of any pot.
func callerInPot(ctx context.Context, q storage.Queries, pot *models.Pot, account string) (*models.Member, error) {
	member, err := lookupMember(ctx, q, account)
	if errors.Is(err, ErrMemberNotRegistered) {
		return nil, fmt.Errorf("%w: %v", ErrNotMember, err)
	}
	if err != nil {
		return nil, err
	}
	if !pot.IsMember(member.ID) {
		return nil, fmt.Errorf("%w: member %d, pot %d", ErrNotMember, member.ID, pot.ID)
	}
	return member, nil
}
