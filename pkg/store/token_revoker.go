package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker records revoked session token IDs until their natural expiry.
type TokenRevoker struct {
	client *redis.Client
	prefix string
}

func NewTokenRevoker(client *redis.Client) *TokenRevoker {
	return &TokenRevoker{client: client, prefix: "windexai:revoked:"}
}

// Revoke marks a token ID as revoked for the remaining token lifetime.
func (r *TokenRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return r.client.Set(ctx, r.prefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether a token ID has been revoked. Redis errors are
// treated as revoked so a broken revocation list cannot be bypassed.
func (r *TokenRevoker) IsRevoked(ctx context.Context, jti string) bool {
	if r == nil || r.client == nil {
		return false
	}
	n, err := r.client.Exists(ctx, r.prefix+jti).Result()
	if err != nil {
		return true
	}
	return n > 0
}
