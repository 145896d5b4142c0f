package app

import (
	"context"
	"fmt"

	"windexai/internal/util"
	"windexai/pkg/ai"
	"windexai/pkg/domain"
	"windexai/pkg/webinfo"
)

const chatSystemPrompt = "Ты - WIndexAI, искусственный интеллект, созданный командой разработчиков компании Windex. " +
	"Отвечай на русском языке, будь полезным и дружелюбным. " +
	"Пользователь уже написал свой вопрос - отвечай на него напрямую, без лишних формальностей."

const apologyText = "Извините, произошла ошибка при обращении к OpenAI API. Проверьте настройки API ключа."

// editorHintPrompt steers site-building requests toward the AI editor, which
// runs the full generation pipeline instead of answering in plain chat.
const editorHintPrompt = "Пользователь просит создать сайт. Порекомендуй ему открыть AI-редактор (раздел \"AI Editor\"), где сайт будет сгенерирован и задеплоен автоматически, и кратко опиши, что туда ввести."

const maxHistoryMessages = 50

// ChatResult is the outcome of one chat exchange.
type ChatResult struct {
	Reply          string `json:"response"`
	ConversationID string `json:"conversationId"`
	ModelUsed      string `json:"modelUsed"`
}

// Chat appends the user message, optionally enriches the prompt with live
// data or web search results, asks the model and appends the reply. Model
// failures become an apology reply that is persisted like any other.
func (a *App) Chat(ctx context.Context, user domain.User, conversationID, message, model string) (ChatResult, error) {
	return a.exchange(ctx, user, conversationID, message, model, domain.MessageText, "")
}

func (a *App) exchange(ctx context.Context, user domain.User, conversationID, message, model string, msgType domain.MessageType, audioURL string) (ChatResult, error) {
	conv, err := a.ensureConversation(ctx, user, conversationID, domain.ConversationChat)
	if err != nil {
		return ChatResult{}, err
	}
	if model == "" {
		model = a.defaultModel
	} else {
		model = ai.ResolveModel(model)
	}

	history, err := a.store.ListMessages(conv.ID, maxHistoryMessages)
	if err != nil {
		return ChatResult{}, fmt.Errorf("load history: %w", err)
	}
	firstExchange := len(history) == 0

	userMsg := domain.Message{
		ID:             util.NewID(),
		ConversationID: conv.ID,
		Role:           "user",
		Content:        message,
		Type:           msgType,
		AudioURL:       audioURL,
		CreatedAt:      nowUTC(),
	}
	if err := a.store.AppendMessage(userMsg); err != nil {
		return ChatResult{}, fmt.Errorf("append message: %w", err)
	}

	reply := a.generateReply(ctx, history, message, model)

	assistantMsg := domain.Message{
		ID:             util.NewID(),
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        reply,
		Type:           domain.MessageText,
		CreatedAt:      nowUTC(),
	}
	if err := a.store.AppendMessage(assistantMsg); err != nil {
		return ChatResult{}, fmt.Errorf("append reply: %w", err)
	}

	if firstExchange {
		_ = a.store.UpdateConversationTitle(conv.ID, titleFromMessage(message))
	} else {
		_ = a.store.TouchConversation(conv.ID)
	}
	return ChatResult{Reply: reply, ConversationID: conv.ID, ModelUsed: model}, nil
}

func (a *App) generateReply(ctx context.Context, history []domain.Message, message, model string) string {
	if a.realtime != nil {
		if answer, ok := a.realtime.QuickAnswer(ctx, message); ok {
			return answer
		}
	}

	system := chatSystemPrompt
	if webinfo.ShouldCreateWebsite(message) {
		system += "\n\n" + editorHintPrompt
	}
	if a.search != nil && webinfo.ShouldSearch(message) {
		query := webinfo.ExtractQuery(message)
		if results, err := a.search.SearchAndFetch(ctx, query, 3); err == nil && len(results) > 0 {
			system += "\n\nИспользуй эти актуальные данные из интернета при ответе:\n" + webinfo.FormatResults(results)
		} else if err != nil {
			a.log.Warn("web search pre-step failed", "error", err)
		}
	}

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: "system", Content: system})
	for _, msg := range history {
		messages = append(messages, ai.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, ai.Message{Role: "user", Content: message})

	reply, err := a.llm.Chat(ctx, model, messages, 0.7)
	if err != nil {
		a.log.Warn("chat completion failed", "error", err)
		return apologyText
	}
	return reply
}

func (a *App) ensureConversation(ctx context.Context, user domain.User, conversationID string, convType domain.ConversationType) (domain.Conversation, error) {
	if conversationID != "" {
		conv, ok, err := a.store.GetConversation(conversationID)
		if err != nil {
			return domain.Conversation{}, fmt.Errorf("load conversation: %w", err)
		}
		if !ok {
			return domain.Conversation{}, ErrNotFound
		}
		if conv.UserID != user.ID {
			return domain.Conversation{}, ErrForbidden
		}
		return conv, nil
	}
	conv := domain.Conversation{
		ID:        util.NewID(),
		UserID:    user.ID,
		Title:     "Новый чат",
		Type:      convType,
		CreatedAt: nowUTC(),
		UpdatedAt: nowUTC(),
	}
	if err := a.store.CreateConversation(conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func titleFromMessage(message string) string {
	runes := []rune(message)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return message
}

// ListConversations returns the user's conversations, optionally by type.
func (a *App) ListConversations(user domain.User, convType domain.ConversationType, limit int) ([]domain.Conversation, error) {
	return a.store.ListConversationsByUser(user.ID, convType, limit)
}

// ConversationMessages returns messages of a conversation owned by the user.
func (a *App) ConversationMessages(user domain.User, conversationID string) ([]domain.Message, error) {
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
	return a.store.ListMessages(conversationID, 0)
}

// RenameConversation updates a conversation title.
func (a *App) RenameConversation(user domain.User, conversationID, title string) error {
	conv, ok, err := a.store.GetConversation(conversationID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if conv.UserID != user.ID {
		return ErrForbidden
	}
	return a.store.UpdateConversationTitle(conversationID, title)
}

// DeleteConversation removes a conversation with its messages and generations.
func (a *App) DeleteConversation(user domain.User, conversationID string) error {
	conv, ok, err := a.store.GetConversation(conversationID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if conv.UserID != user.ID {
		return ErrForbidden
	}
	return a.store.DeleteConversation(conversationID)
}
