package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DenylistRepo remembers access tokens presented at logout until they
// expire.  Keys are <prefix>:denylist:<sha256 of token>.
type DenylistRepo struct {
	rdb    *redis.Client
	prefix string
}

func NewDenylistRepo(rdb *redis.Client, prefix string) *DenylistRepo {
	if prefix == "" {
		prefix = "auth"
	}
	return &DenylistRepo{rdb: rdb, prefix: prefix}
}

func (d *DenylistRepo) key(tokenHash string) string {
	return d.prefix + ":denylist:" + tokenHash
}

// Add denylists tokenHash for ttl.  Non-positive ttls are ignored since the
// token has already expired.
func (d *DenylistRepo) Add(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	value := time.Now().UTC().Add(ttl).Unix()
	if err := d.rdb.Set(ctx, d.key(tokenHash), value, ttl).Err(); err != nil {
		return fmt.Errorf("denylist add: %w", err)
	}
	return nil
}

// Contains reports whether tokenHash is denylisted.
func (d *DenylistRepo) Contains(ctx context.Context, tokenHash string) (bool, error) {
	n, err := d.rdb.Exists(ctx, d.key(tokenHash)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist lookup: %w", err)
	}
	return n > 0, nil
}
