package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestSessions(t *testing.T) *SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore("test-secret", time.Hour, NewTokenRevoker(client))
}

func TestSessionRoundTrip(t *testing.T) {
	sessions := newTestSessions(t)
	token, err := sessions.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	userID, err := sessions.UserIDByToken(context.Background(), token)
	if err != nil {
		t.Fatalf("validate session: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("got user %q, want user-1", userID)
	}
}

func TestSessionRejectsGarbage(t *testing.T) {
	sessions := newTestSessions(t)
	if _, err := sessions.UserIDByToken(context.Background(), "not.a.token"); err == nil {
		t.Fatalf("garbage token must be rejected")
	}
}

func TestSessionRejectsWrongSecret(t *testing.T) {
	sessions := newTestSessions(t)
	other := NewSessionStore("other-secret", time.Hour, nil)
	token, err := other.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := sessions.UserIDByToken(context.Background(), token); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}
}

func TestDeleteSessionRevokes(t *testing.T) {
	sessions := newTestSessions(t)
	token, err := sessions.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sessions.DeleteSession(context.Background(), token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := sessions.UserIDByToken(context.Background(), token); err == nil {
		t.Fatalf("revoked token must be rejected")
	}
}
