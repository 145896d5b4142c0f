package app

import (
	"context"
	"fmt"
	"strings"

	"windexai/internal/util"
	"windexai/pkg/auth"
	"windexai/pkg/domain"
)

// Register creates a user. Username and email must both be unused.
func (a *App) Register(username, email, password string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || password == "" {
		return domain.User{}, "", ErrFieldsRequired
	}
	taken, err := a.store.HasUsername(username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check username: %w", err)
	}
	if taken {
		return domain.User{}, "", ErrUsernameTaken
	}
	taken, err = a.store.HasEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if taken {
		return domain.User{}, "", ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           util.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    nowUTC(),
	}
	if err := a.store.CreateUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("create user: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	a.log.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login verifies credentials and issues a session token.
func (a *App) Login(username, password string) (domain.User, string, error) {
	user, ok, err := a.store.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Logout revokes the session token.
func (a *App) Logout(ctx context.Context, token string) error {
	return a.sessions.DeleteSession(ctx, token)
}

// UserFromToken resolves the authenticated user from a bearer token.
func (a *App) UserFromToken(ctx context.Context, token string) (domain.User, bool) {
	userID, err := a.sessions.UserIDByToken(ctx, token)
	if err != nil {
		return domain.User{}, false
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil || !ok {
		return domain.User{}, false
	}
	return user, true
}
