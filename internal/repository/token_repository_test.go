package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func newTokenRepo(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	repo.Now = fixedNow
	return repo, mock
}

func TestTokenRepo_Create(t *testing.T) {
	repo, mock := newTokenRepo(t)
	exp := fixedNow().Add(365 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens (user_id, expires_at, created_at, updated_at) VALUES (?,?,?,?)")).
		WithArgs(uint64(5), exp, fixedNow(), fixedNow()).
		WillReturnResult(sqlmock.NewResult(31, 1))

	rec, err := repo.Create(context.Background(), 5, exp)
	require.NoError(t, err)
	assert.Equal(t, uint64(31), rec.ID)
	assert.Equal(t, uint64(5), rec.UserID)
	assert.Equal(t, exp, rec.ExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_Create_Error(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), 5, fixedNow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

const findActiveQ = "SELECT id, user_id, expires_at, created_at, updated_at FROM refresh_tokens WHERE id=? AND user_id=? AND expires_at>? LIMIT 1"

func TestTokenRepo_FindActive(t *testing.T) {
	repo, mock := newTokenRepo(t)
	exp := fixedNow().Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(findActiveQ)).
		WithArgs(uint64(31), uint64(5), fixedNow()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at", "updated_at"}).
			AddRow(31, 5, exp, fixedNow(), fixedNow()))

	rec, err := repo.FindActive(context.Background(), 31, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(31), rec.ID)
	assert.Equal(t, uint64(5), rec.UserID)
	assert.False(t, rec.Expired(fixedNow()))
}

func TestTokenRepo_FindActive_Missing(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(findActiveQ)).
		WithArgs(uint64(31), uint64(6), fixedNow()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at", "updated_at"}))

	_, err := repo.FindActive(context.Background(), 31, 6)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRepo_Delete(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE id=? AND user_id=?")).
		WithArgs(uint64(31), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 31, 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_DeleteMissingRecord(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE id=? AND user_id=?")).
		WithArgs(uint64(31), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 31, 5), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_DeleteExpired(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE expires_at<=?")).
		WithArgs(fixedNow()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
