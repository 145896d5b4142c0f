package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"windexai/internal/util"
)

// ErrInvalidSession is returned for expired, malformed or revoked tokens.
var ErrInvalidSession = errors.New("invalid session token")

// SessionStore issues and validates signed session tokens. Revoked token IDs
// are tracked in Redis so logout takes effect before expiry.
type SessionStore struct {
	secret  []byte
	ttl     time.Duration
	revoker *TokenRevoker
}

func NewSessionStore(secret string, ttl time.Duration, revoker *TokenRevoker) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{secret: []byte(secret), ttl: ttl, revoker: revoker}
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// NewSession creates a signed token for the user.
func (s *SessionStore) NewSession(userID string) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "windexai",
			Subject:   userID,
			ID:        util.NewID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// UserIDByToken validates the token and returns the user it belongs to.
func (s *SessionStore) UserIDByToken(ctx context.Context, raw string) (string, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return "", err
	}
	if s.revoker.IsRevoked(ctx, claims.ID) {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}

// DeleteSession revokes the token for the rest of its lifetime.
func (s *SessionStore) DeleteSession(ctx context.Context, raw string) error {
	claims, err := s.parse(raw)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return s.revoker.Revoke(ctx, claims.ID, ttl)
}

func (s *SessionStore) parse(raw string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithIssuer("windexai"), jwt.WithLeeway(30*time.Second))
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
