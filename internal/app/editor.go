package app

import (
	"context"
	"fmt"

	"windexai/internal/util"
	"windexai/pkg/domain"
)

// GenerateSite runs the architect/developer/combiner pipeline for a request
// and records the run with the conversation.
func (a *App) GenerateSite(ctx context.Context, user domain.User, conversationID, request, mode string) (domain.Generation, error) {
	if mode == "" {
		mode = "lite"
	}
	conv, err := a.ensureConversation(ctx, user, conversationID, domain.ConversationEditor)
	if err != nil {
		return domain.Generation{}, err
	}

	userMsg := domain.Message{
		ID:             util.NewID(),
		ConversationID: conv.ID,
		Role:           "user",
		Content:        request,
		Type:           domain.MessageText,
		CreatedAt:      nowUTC(),
	}
	if err := a.store.AppendMessage(userMsg); err != nil {
		return domain.Generation{}, fmt.Errorf("append message: %w", err)
	}

	result, err := a.pipeline.Generate(ctx, request, mode)
	if err != nil {
		return domain.Generation{}, err
	}

	gen := domain.Generation{
		ID:             util.NewID(),
		ConversationID: conv.ID,
		UserID:         user.ID,
		Mode:           mode,
		Plan:           result.Plan,
		HTML:           result.HTML,
		CreatedAt:      nowUTC(),
	}
	if err := a.store.SaveGeneration(gen); err != nil {
		return domain.Generation{}, fmt.Errorf("save generation: %w", err)
	}

	assistantMsg := domain.Message{
		ID:             util.NewID(),
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        result.HTML,
		Type:           domain.MessageText,
		CreatedAt:      nowUTC(),
	}
	if err := a.store.AppendMessage(assistantMsg); err != nil {
		return domain.Generation{}, fmt.Errorf("append reply: %w", err)
	}
	_ = a.store.TouchConversation(conv.ID)

	a.log.Info("site generation complete",
		"conversation_id", conv.ID, "mode", mode, "steps", len(result.Plan.Steps))
	return gen, nil
}

// Generations lists pipeline runs of a conversation owned by the user.
func (a *App) Generations(user domain.User, conversationID string) ([]domain.Generation, error) {
	conv, ok, err := a.store.GetConversation(conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	if conv.UserID != user.ID {
		return nil, ErrForbidden
	}
	return a.store.ListGenerationsByConversation(conversationID)
}
