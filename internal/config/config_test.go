package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "auth")
	t.Setenv("REFRESH_TOKEN_SECRET", "s3cret")
}

func TestParse_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, ":5501", cfg.Addr())
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.Equal(t, "auth-service", cfg.Token.Issuer)
	assert.Equal(t, time.Hour, cfg.Token.AccessTTL)
	assert.Equal(t, 365*24*time.Hour, cfg.Token.RefreshTTL)
	assert.Equal(t, 10, cfg.Token.BcryptCost)
	assert.Equal(t, "localhost", cfg.Cookie.Domain)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Events.Enabled)
	assert.True(t, cfg.App.MigrateOnStart)
}

func TestParse_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_PORT", "8080")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("EVENTS_ENABLED", "true")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 15*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, 12, cfg.Token.BcryptCost)
	assert.True(t, cfg.Cookie.Secure)
	assert.True(t, cfg.Events.Enabled)
}

func TestParse_MissingRequired(t *testing.T) {
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "auth")
	t.Setenv("REFRESH_TOKEN_SECRET", "")

	_, err := Parse()
	require.Error(t, err)
}

func TestParse_RejectsBadCost(t *testing.T) {
	setRequired(t)
	t.Setenv("BCRYPT_COST", "2")

	_, err := Parse()
	require.Error(t, err)
}
