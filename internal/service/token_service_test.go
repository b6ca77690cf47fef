package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/keys"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/testutil"
	"github.com/iliyamo/auth-service/internal/utils"
)

const (
	testSecret = "refresh-secret"
	testIssuer = "auth-service"
)

func newTokenService(t *testing.T) (*TokenService, *testutil.RefreshTokens) {
	t.Helper()
	store := testutil.NewRefreshTokens()
	ts := NewTokenService(keys.NewStaticLoader(testutil.RSAKey(t)), testSecret, testIssuer, time.Hour, 365*24*time.Hour, store)
	return ts, store
}

func TestIssueAccessToken_RoundTrip(t *testing.T) {
	ts, _ := newTokenService(t)

	tok, err := ts.IssueAccessToken(TokenClaims{UserID: 7, Role: model.RoleCustomer})
	require.NoError(t, err)

	claims, err := utils.ParseAccess(tok.Token, &testutil.RSAKey(t).PublicKey, testIssuer)
	require.NoError(t, err)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), uid)
	assert.Equal(t, model.RoleCustomer, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)
}

func TestIssueAccessToken_KeyUnavailable(t *testing.T) {
	ts, _ := newTokenService(t)
	ts.Keys = testutil.FailingKeys{}

	_, err := ts.IssueAccessToken(TokenClaims{UserID: 1, Role: model.RoleCustomer})
	assert.ErrorIs(t, err, ErrSigningKey)
}

func TestIssuePair_PersistsRecordNamedByJTI(t *testing.T) {
	ts, store := newTokenService(t)

	pair, err := ts.IssuePair(context.Background(), model.User{ID: 3, Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, store.Has(pair.RecordID))

	claims, err := utils.ParseRefresh(pair.Refresh.Token, []byte(testSecret), testIssuer)
	require.NoError(t, err)
	rid, err := claims.RecordID()
	require.NoError(t, err)
	assert.Equal(t, pair.RecordID, rid)
	assert.Equal(t, model.RoleAdmin, claims.Role)

	rec, err := store.FindActive(context.Background(), rid, 3)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(365*24*time.Hour), rec.ExpiresAt, time.Minute)
}

func TestIssuePair_NoRecordWithoutKey(t *testing.T) {
	ts, store := newTokenService(t)
	ts.Keys = testutil.FailingKeys{}

	_, err := ts.IssuePair(context.Background(), model.User{ID: 3, Role: model.RoleCustomer})
	assert.ErrorIs(t, err, ErrSigningKey)
	assert.Zero(t, store.Len())
}

func TestPurgeExpired(t *testing.T) {
	ts, store := newTokenService(t)
	ctx := context.Background()

	_, err := store.Create(ctx, 1, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	live, err := store.Create(ctx, 1, time.Now().Add(time.Hour))
	require.NoError(t, err)

	n, err := ts.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, store.Has(live.ID))
}
