package store

import (
	"time"

	"windexai/pkg/domain"
)

// Store is the persistence interface used by the application core.
type Store interface {
	CreateUser(u domain.User) error
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	HasUsername(username string) (bool, error)
	HasEmail(email string) (bool, error)
	UpdateUser(u domain.User) error
	DeleteUser(id string) error

	CountConversationsByUser(userID string, since time.Time) (int64, error)
	CountMessagesByUser(userID string, since time.Time) (int64, error)
	CountMessagesInConversation(conversationID string) (int64, error)
	CountDocumentsByOwner(ownerID string) (int64, error)
	CountDeploymentsByOwner(ownerID string) (int64, error)
	LastMessageTimeByUser(userID string) (time.Time, bool, error)
	MessageCountsByDay(userID string) (map[string]int64, error)

	CreateConversation(c domain.Conversation) error
	GetConversation(id string) (domain.Conversation, bool, error)
	ListConversationsByUser(userID string, convType domain.ConversationType, limit int) ([]domain.Conversation, error)
	UpdateConversationTitle(id, title string) error
	TouchConversation(id string) error
	DeleteConversation(id string) error

	AppendMessage(msg domain.Message) error
	ListMessages(conversationID string, limit int) ([]domain.Message, error)

	SaveDocument(d domain.Document) error
	SetDocumentStatus(id string, status domain.DocumentStatus, content, errMsg string) error
	GetDocument(id string) (domain.Document, bool, error)
	ListDocumentsByOwner(ownerID string) ([]domain.Document, error)
	DeleteDocument(id string) error

	CreateDeployment(d domain.Deployment) error
	GetDeployment(id string) (domain.Deployment, bool, error)
	GetDeploymentBySlug(slug string) (domain.Deployment, bool, error)
	HasDeploymentSlug(slug string) (bool, error)
	ListDeploymentsByOwner(ownerID string) ([]domain.Deployment, error)
	UpdateDeployment(d domain.Deployment) error
	DeleteDeployment(id string) error

	GetAnalytics(deploymentID string) (domain.SiteAnalytics, bool, error)
	SaveAnalytics(a domain.SiteAnalytics) error

	SaveGeneration(g domain.Generation) error
	ListGenerationsByConversation(conversationID string) ([]domain.Generation, error)
}
