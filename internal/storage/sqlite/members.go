package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/storage"
)

// RegisterMember returns the existing member for account or inserts a new one.
// INTEGER PRIMARY KEY without AUTOINCREMENT assigns max(id)+1, and members
// are never deleted, so ids stay dense.
func (s *SQLiteStore) RegisterMember(ctx context.Context, account string, at time.Time) (*models.Member, bool, error) {
	existing, err := s.GetMemberByAccount(ctx, account)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}

	res, err := s.q.ExecContext(ctx,
		"INSERT INTO members (account, created_at) VALUES (?, ?)",
		account, toNanos(at),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read member id: %w", err)
	}

	return &models.Member{ID: id, Account: account, CreatedAt: fromNanos(toNanos(at))}, true, nil
}

// GetMemberByAccount retrieves a member by account.
func (s *SQLiteStore) GetMemberByAccount(ctx context.Context, account string) (*models.Member, error) {
	return s.getMember(ctx, "SELECT id, account, created_at FROM members WHERE account = ?", account)
}

// GetMember retrieves a member by id.
func (s *SQLiteStore) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	return s.getMember(ctx, "SELECT id, account, created_at FROM members WHERE id = ?", id)
}

func (s *SQLiteStore) getMember(ctx context.Context, query string, arg any) (*models.Member, error) {
	member := &models.Member{}
	var createdAt int64
	err := s.q.QueryRowContext(ctx, query, arg).Scan(&member.ID, &member.Account, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %v: %w", arg, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	member.CreatedAt = fromNanos(createdAt)
	return member, nil
}
