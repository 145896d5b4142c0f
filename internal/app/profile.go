package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"windexai/pkg/auth"
	"windexai/pkg/domain"
)

// ProfileInfo is the user's account page: the user record with usage totals.
type ProfileInfo struct {
	domain.User
	TotalConversations int64      `json:"totalConversations"`
	TotalMessages      int64      `json:"totalMessages"`
	TotalDocuments     int64      `json:"totalDocuments"`
	TotalDeployments   int64      `json:"totalDeployments"`
	LastActivity       *time.Time `json:"lastActivity,omitempty"`
}

// ProfileStats extends the totals with current-month activity.
type ProfileStats struct {
	TotalConversations         int64   `json:"totalConversations"`
	TotalMessages              int64   `json:"totalMessages"`
	ConversationsThisMonth     int64   `json:"conversationsThisMonth"`
	MessagesThisMonth          int64   `json:"messagesThisMonth"`
	MostActiveDay              string  `json:"mostActiveDay,omitempty"`
	AvgMessagesPerConversation float64 `json:"averageMessagesPerConversation"`
}

// ConversationSummary is a conversation with its message count.
type ConversationSummary struct {
	domain.Conversation
	MessageCount int64 `json:"messageCount"`
}

// ActivityReport lists the user's most recent work.
type ActivityReport struct {
	Conversations []ConversationSummary `json:"recentConversations"`
	Documents     []domain.Document     `json:"recentDocuments"`
	Deployments   []domain.Deployment   `json:"recentDeployments"`
}

// PlanFeatures are the limits of a subscription plan. -1 means unlimited.
type PlanFeatures struct {
	MaxConversations int      `json:"maxConversations"`
	MaxDocuments     int      `json:"maxDocuments"`
	MaxDeployments   int      `json:"maxDeployments"`
	Models           []string `json:"aiModels"`
}

// SubscriptionInfo describes the user's current plan.
type SubscriptionInfo struct {
	Plan      string       `json:"plan"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
	IsActive  bool         `json:"isActive"`
	Features  PlanFeatures `json:"features"`
}

var planFeatures = map[string]PlanFeatures{
	"free": {MaxConversations: 10, MaxDocuments: 5, MaxDeployments: 2,
		Models: []string{"gpt-4o-mini"}},
	"pro": {MaxConversations: -1, MaxDocuments: -1, MaxDeployments: -1,
		Models: []string{"gpt-4o-mini", "gpt-4o", "gpt-4-turbo"}},
}

const recentActivityLimit = 10

// Profile returns the user with aggregated usage totals.
func (a *App) Profile(user domain.User) (ProfileInfo, error) {
	info := ProfileInfo{User: user}
	var err error
	if info.TotalConversations, err = a.store.CountConversationsByUser(user.ID, time.Time{}); err != nil {
		return ProfileInfo{}, fmt.Errorf("count conversations: %w", err)
	}
	if info.TotalMessages, err = a.store.CountMessagesByUser(user.ID, time.Time{}); err != nil {
		return ProfileInfo{}, fmt.Errorf("count messages: %w", err)
	}
	if info.TotalDocuments, err = a.store.CountDocumentsByOwner(user.ID); err != nil {
		return ProfileInfo{}, fmt.Errorf("count documents: %w", err)
	}
	if info.TotalDeployments, err = a.store.CountDeploymentsByOwner(user.ID); err != nil {
		return ProfileInfo{}, fmt.Errorf("count deployments: %w", err)
	}
	last, ok, err := a.store.LastMessageTimeByUser(user.ID)
	if err != nil {
		return ProfileInfo{}, fmt.Errorf("last activity: %w", err)
	}
	if ok {
		info.LastActivity = &last
	}
	return info, nil
}

// ProfileStats returns detailed usage statistics. The current month starts on
// the first day at midnight UTC.
func (a *App) ProfileStats(user domain.User) (ProfileStats, error) {
	now := nowUTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := ProfileStats{}
	var err error
	if stats.TotalConversations, err = a.store.CountConversationsByUser(user.ID, time.Time{}); err != nil {
		return ProfileStats{}, fmt.Errorf("count conversations: %w", err)
	}
	if stats.TotalMessages, err = a.store.CountMessagesByUser(user.ID, time.Time{}); err != nil {
		return ProfileStats{}, fmt.Errorf("count messages: %w", err)
	}
	if stats.ConversationsThisMonth, err = a.store.CountConversationsByUser(user.ID, monthStart); err != nil {
		return ProfileStats{}, fmt.Errorf("count month conversations: %w", err)
	}
	if stats.MessagesThisMonth, err = a.store.CountMessagesByUser(user.ID, monthStart); err != nil {
		return ProfileStats{}, fmt.Errorf("count month messages: %w", err)
	}

	byDay, err := a.store.MessageCountsByDay(user.ID)
	if err != nil {
		return ProfileStats{}, fmt.Errorf("count messages by day: %w", err)
	}
	var best int64
	for day, count := range byDay {
		if count > best || (count == best && day > stats.MostActiveDay) {
			best = count
			stats.MostActiveDay = day
		}
	}

	if stats.TotalConversations > 0 {
		avg := float64(stats.TotalMessages) / float64(stats.TotalConversations)
		stats.AvgMessagesPerConversation = math.Round(avg*100) / 100
	}
	return stats, nil
}

// RecentActivity returns the user's latest conversations with message counts
// plus the five newest documents and deployments.
func (a *App) RecentActivity(user domain.User, limit int) (ActivityReport, error) {
	if limit <= 0 || limit > 50 {
		limit = recentActivityLimit
	}
	convs, err := a.store.ListConversationsByUser(user.ID, "", limit)
	if err != nil {
		return ActivityReport{}, fmt.Errorf("list conversations: %w", err)
	}
	report := ActivityReport{
		Conversations: make([]ConversationSummary, 0, len(convs)),
		Documents:     []domain.Document{},
		Deployments:   []domain.Deployment{},
	}
	for _, conv := range convs {
		count, err := a.store.CountMessagesInConversation(conv.ID)
		if err != nil {
			return ActivityReport{}, fmt.Errorf("count messages: %w", err)
		}
		report.Conversations = append(report.Conversations, ConversationSummary{Conversation: conv, MessageCount: count})
	}

	docs, err := a.store.ListDocumentsByOwner(user.ID)
	if err != nil {
		return ActivityReport{}, fmt.Errorf("list documents: %w", err)
	}
	if len(docs) > 5 {
		docs = docs[:5]
	}
	report.Documents = append(report.Documents, docs...)

	deps, err := a.store.ListDeploymentsByOwner(user.ID)
	if err != nil {
		return ActivityReport{}, fmt.Errorf("list deployments: %w", err)
	}
	if len(deps) > 5 {
		deps = deps[:5]
	}
	report.Deployments = append(report.Deployments, deps...)
	return report, nil
}

// UpdateProfile changes username and/or email. Empty fields keep the current
// value; changed values must be unused by other accounts.
func (a *App) UpdateProfile(user domain.User, username, email string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if username != "" && username != user.Username {
		taken, err := a.store.HasUsername(username)
		if err != nil {
			return domain.User{}, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return domain.User{}, ErrUsernameTaken
		}
		user.Username = username
	}
	if email != "" && email != user.Email {
		taken, err := a.store.HasEmail(email)
		if err != nil {
			return domain.User{}, fmt.Errorf("check email: %w", err)
		}
		if taken {
			return domain.User{}, ErrEmailTaken
		}
		user.Email = email
	}
	if err := a.store.UpdateUser(user); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a hash of the new one.
func (a *App) ChangePassword(user domain.User, current, newPassword string) error {
	if !auth.CheckPassword(current, user.PasswordHash) {
		return ErrWrongPassword
	}
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if err := a.store.UpdateUser(user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	a.log.Info("password changed", "user_id", user.ID)
	return nil
}

// DeleteAccount removes the user and all owned data. Stored document originals
// are deleted best effort before the rows go.
func (a *App) DeleteAccount(ctx context.Context, user domain.User) error {
	if a.objects != nil {
		docs, err := a.store.ListDocumentsByOwner(user.ID)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		for _, doc := range docs {
			if doc.StorageKey == "" {
				continue
			}
			if err := a.objects.Delete(ctx, doc.StorageKey); err != nil {
				a.log.Warn("delete original failed", "document_id", doc.ID, "error", err)
			}
		}
	}
	if err := a.store.DeleteUser(user.ID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	a.log.Info("account deleted", "user_id", user.ID)
	return nil
}

// Subscription returns the user's plan with its feature limits. Accounts
// without a plan are on the free tier; a plan without an expiry never expires.
func (a *App) Subscription(user domain.User) SubscriptionInfo {
	plan := user.SubscriptionPlan
	if plan == "" {
		plan = "free"
	}
	features, ok := planFeatures[plan]
	if !ok {
		features = planFeatures["free"]
	}
	active := true
	if user.SubscriptionExpiry != nil {
		active = user.SubscriptionExpiry.After(nowUTC())
	}
	return SubscriptionInfo{
		Plan:      plan,
		ExpiresAt: user.SubscriptionExpiry,
		IsActive:  active,
		Features:  features,
	}
}
