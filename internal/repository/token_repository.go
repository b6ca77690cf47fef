package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
)

// TokenRepo persists refresh token records.  Revocation is deletion: a
// signed refresh token is live only while a row with its jti and subject
// exists and has not expired.
type TokenRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db, Now: time.Now} }

func (r *TokenRepo) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// Create inserts a refresh token row for userID and returns it with its id.
func (r *TokenRepo) Create(ctx context.Context, userID uint64, expiresAt time.Time) (model.RefreshToken, error) {
	now := r.now()
	expiresAt = expiresAt.UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, expires_at, created_at, updated_at) VALUES (?,?,?,?)",
		userID, expiresAt, now, now)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("insert refresh token: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("refresh token last insert id: %w", err)
	}
	return model.RefreshToken{
		ID:        uint64(id),
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FindActive returns the record with the given id owned by userID, or
// ErrNotFound when it was deleted or has expired.
func (r *TokenRepo) FindActive(ctx context.Context, id, userID uint64) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, created_at, updated_at FROM refresh_tokens WHERE id=? AND user_id=? AND expires_at>? LIMIT 1",
		id, userID, r.now()).Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RefreshToken{}, ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("select refresh token: %w", err)
	}
	return t, nil
}

// Delete revokes the record with the given id owned by userID.  It returns
// ErrNotFound when no row was removed, so concurrent callers holding the
// same refresh token see exactly one success.
func (r *TokenRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete refresh token rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes every record past its expiry and reports how many
// rows went away.
func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at<=?", r.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired refresh tokens rows affected: %w", err)
	}
	return n, nil
}
