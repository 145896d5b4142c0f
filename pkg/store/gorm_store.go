package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"windexai/pkg/domain"
)

// GormStore implements Store using GORM over Postgres or SQLite.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
// The driver is chosen from the DSN: postgres URLs/key-value DSNs use the
// Postgres driver, anything else is treated as a SQLite file path.
func NewGormStore(dsn string) (*GormStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database DSN required")
	}
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	dialector := sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	if isPostgresDSN(dsn) {
		dialector = postgres.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&ConversationModel{},
		&MessageModel{},
		&DocumentModel{},
		&DeploymentModel{},
		&SiteAnalyticsModel{},
		&GenerationModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// CreateUser registers a user.
func (s *GormStore) CreateUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Create(&model).Error
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("username = ?", username).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// HasUsername checks if username exists.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasEmail checks if email exists.
func (s *GormStore) HasEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateUser rewrites mutable user fields.
func (s *GormStore) UpdateUser(u domain.User) error {
	return s.db.Model(&UserModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"username":            u.Username,
		"email":               u.Email,
		"password_hash":       u.PasswordHash,
		"subscription_plan":   u.SubscriptionPlan,
		"subscription_expiry": u.SubscriptionExpiry,
	}).Error
}

// DeleteUser removes the user and everything they own: messages, generations,
// conversations, documents, deployments and analytics rows.
func (s *GormStore) DeleteUser(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		convIDs := tx.Model(&ConversationModel{}).Select("id").Where("user_id = ?", id)
		if err := tx.Delete(&MessageModel{}, "conversation_id IN (?)", convIDs).Error; err != nil {
			return err
		}
		if err := tx.Delete(&GenerationModel{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ConversationModel{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&DocumentModel{}, "owner_id = ?", id).Error; err != nil {
			return err
		}
		depIDs := tx.Model(&DeploymentModel{}).Select("id").Where("owner_id = ?", id)
		if err := tx.Delete(&SiteAnalyticsModel{}, "deployment_id IN (?)", depIDs).Error; err != nil {
			return err
		}
		if err := tx.Delete(&DeploymentModel{}, "owner_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&UserModel{}, "id = ?", id).Error
	})
}

// CountConversationsByUser counts a user's conversations created after since.
// A zero since counts everything.
func (s *GormStore) CountConversationsByUser(userID string, since time.Time) (int64, error) {
	query := s.db.Model(&ConversationModel{}).Where("user_id = ?", userID)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountMessagesByUser counts messages across all of the user's conversations.
func (s *GormStore) CountMessagesByUser(userID string, since time.Time) (int64, error) {
	query := s.db.Model(&MessageModel{}).
		Joins("JOIN conversation_models ON conversation_models.id = message_models.conversation_id").
		Where("conversation_models.user_id = ?", userID)
	if !since.IsZero() {
		query = query.Where("message_models.created_at >= ?", since)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountMessagesInConversation counts messages of one conversation.
func (s *GormStore) CountMessagesInConversation(conversationID string) (int64, error) {
	var count int64
	err := s.db.Model(&MessageModel{}).Where("conversation_id = ?", conversationID).Count(&count).Error
	return count, err
}

// CountDocumentsByOwner counts a user's documents.
func (s *GormStore) CountDocumentsByOwner(ownerID string) (int64, error) {
	var count int64
	err := s.db.Model(&DocumentModel{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

// CountDeploymentsByOwner counts a user's deployments.
func (s *GormStore) CountDeploymentsByOwner(ownerID string) (int64, error) {
	var count int64
	err := s.db.Model(&DeploymentModel{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

// LastMessageTimeByUser returns the timestamp of the user's newest message.
func (s *GormStore) LastMessageTimeByUser(userID string) (time.Time, bool, error) {
	var model MessageModel
	err := s.db.Model(&MessageModel{}).
		Joins("JOIN conversation_models ON conversation_models.id = message_models.conversation_id").
		Where("conversation_models.user_id = ?", userID).
		Order("message_models.created_at DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return model.CreatedAt, true, nil
}

// MessageCountsByDay buckets the user's messages by UTC calendar day. The
// grouping happens in Go to keep the query portable across drivers.
func (s *GormStore) MessageCountsByDay(userID string) (map[string]int64, error) {
	var times []time.Time
	err := s.db.Model(&MessageModel{}).
		Joins("JOIN conversation_models ON conversation_models.id = message_models.conversation_id").
		Where("conversation_models.user_id = ?", userID).
		Pluck("message_models.created_at", &times).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(times))
	for _, t := range times {
		counts[t.UTC().Format("2006-01-02")]++
	}
	return counts, nil
}

// CreateConversation creates a new conversation record.
func (s *GormStore) CreateConversation(c domain.Conversation) error {
	model := conversationToModel(c)
	return s.db.Create(&model).Error
}

// GetConversation returns one conversation by ID.
func (s *GormStore) GetConversation(id string) (domain.Conversation, bool, error) {
	var model ConversationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Conversation{}, false, nil
		}
		return domain.Conversation{}, false, err
	}
	return conversationFromModel(model), true, nil
}

// ListConversationsByUser returns latest conversations of a user,
// optionally filtered by type.
func (s *GormStore) ListConversationsByUser(userID string, convType domain.ConversationType, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	tx := s.db.Where("user_id = ?", userID)
	if convType != "" {
		tx = tx.Where("type = ?", string(convType))
	}
	var models []ConversationModel
	if err := tx.Order("updated_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Conversation, 0, len(models))
	for _, model := range models {
		items = append(items, conversationFromModel(model))
	}
	return items, nil
}

// UpdateConversationTitle renames a conversation.
func (s *GormStore) UpdateConversationTitle(id, title string) error {
	return s.db.Model(&ConversationModel{}).Where("id = ?", id).Updates(map[string]any{
		"title":      strings.TrimSpace(title),
		"updated_at": time.Now().UTC(),
	}).Error
}

// TouchConversation refreshes the updated_at timestamp.
func (s *GormStore) TouchConversation(id string) error {
	return s.db.Model(&ConversationModel{}).Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

// DeleteConversation removes the conversation with its messages and generations.
func (s *GormStore) DeleteConversation(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MessageModel{}, "conversation_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&GenerationModel{}, "conversation_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&ConversationModel{}, "id = ?", id).Error
	})
}

// AppendMessage records a message.
func (s *GormStore) AppendMessage(msg domain.Message) error {
	model := messageToModel(msg)
	return s.db.Create(&model).Error
}

// ListMessages returns conversation messages in chronological order.
func (s *GormStore) ListMessages(conversationID string, limit int) ([]domain.Message, error) {
	query := s.db.Where("conversation_id = ?", conversationID).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var models []MessageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, model := range models {
		msgs = append(msgs, messageFromModel(model))
	}
	return msgs, nil
}

// SaveDocument stores or updates a document row.
func (s *GormStore) SaveDocument(d domain.Document) error {
	model := documentToModel(d)
	return s.db.Save(&model).Error
}

// SetDocumentStatus updates extraction status, content and error.
func (s *GormStore) SetDocumentStatus(id string, status domain.DocumentStatus, content, errMsg string) error {
	updates := map[string]any{
		"status":        string(status),
		"error_message": errMsg,
	}
	if content != "" {
		updates["content"] = content
	}
	return s.db.Model(&DocumentModel{}).Where("id = ?", id).Updates(updates).Error
}

// GetDocument retrieves a document.
func (s *GormStore) GetDocument(id string) (domain.Document, bool, error) {
	var model DocumentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

// ListDocumentsByOwner returns documents filtered by owner.
func (s *GormStore) ListDocumentsByOwner(ownerID string) ([]domain.Document, error) {
	var models []DocumentModel
	if err := s.db.Where("owner_id = ?", ownerID).Order("uploaded_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Document, 0, len(models))
	for _, m := range models {
		res = append(res, documentFromModel(m))
	}
	return res, nil
}

// DeleteDocument removes a document row.
func (s *GormStore) DeleteDocument(id string) error {
	return s.db.Delete(&DocumentModel{}, "id = ?", id).Error
}

// CreateDeployment persists a deployment.
func (s *GormStore) CreateDeployment(d domain.Deployment) error {
	model := deploymentToModel(d)
	return s.db.Create(&model).Error
}

// GetDeployment retrieves a deployment by ID.
func (s *GormStore) GetDeployment(id string) (domain.Deployment, bool, error) {
	var model DeploymentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Deployment{}, false, nil
		}
		return domain.Deployment{}, false, err
	}
	return deploymentFromModel(model), true, nil
}

// GetDeploymentBySlug retrieves a deployment by its public slug.
func (s *GormStore) GetDeploymentBySlug(slug string) (domain.Deployment, bool, error) {
	var model DeploymentModel
	if err := s.db.Where("slug = ?", slug).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Deployment{}, false, nil
		}
		return domain.Deployment{}, false, err
	}
	return deploymentFromModel(model), true, nil
}

// HasDeploymentSlug checks slug uniqueness.
func (s *GormStore) HasDeploymentSlug(slug string) (bool, error) {
	var count int64
	if err := s.db.Model(&DeploymentModel{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListDeploymentsByOwner returns deployments for a user, newest first.
func (s *GormStore) ListDeploymentsByOwner(ownerID string) ([]domain.Deployment, error) {
	var models []DeploymentModel
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Deployment, 0, len(models))
	for _, m := range models {
		res = append(res, deploymentFromModel(m))
	}
	return res, nil
}

// UpdateDeployment rewrites mutable deployment fields.
func (s *GormStore) UpdateDeployment(d domain.Deployment) error {
	return s.db.Model(&DeploymentModel{}).Where("id = ?", d.ID).Updates(map[string]any{
		"title":       d.Title,
		"description": d.Description,
		"html":        d.HTML,
		"css":         d.CSS,
		"js":          d.JS,
		"is_active":   d.IsActive,
		"updated_at":  time.Now().UTC(),
	}).Error
}

// DeleteDeployment removes a deployment and its analytics row.
func (s *GormStore) DeleteDeployment(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&SiteAnalyticsModel{}, "deployment_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&DeploymentModel{}, "id = ?", id).Error
	})
}

// GetAnalytics returns the analytics row for a deployment.
func (s *GormStore) GetAnalytics(deploymentID string) (domain.SiteAnalytics, bool, error) {
	var model SiteAnalyticsModel
	if err := s.db.First(&model, "deployment_id = ?", deploymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.SiteAnalytics{}, false, nil
		}
		return domain.SiteAnalytics{}, false, err
	}
	return analyticsFromModel(model), true, nil
}

// SaveAnalytics upserts the analytics row.
func (s *GormStore) SaveAnalytics(a domain.SiteAnalytics) error {
	model := analyticsToModel(a)
	return s.db.Save(&model).Error
}

// SaveGeneration persists a pipeline run.
func (s *GormStore) SaveGeneration(g domain.Generation) error {
	model, err := generationToModel(g)
	if err != nil {
		return err
	}
	return s.db.Create(&model).Error
}

// ListGenerationsByConversation returns pipeline runs in order.
func (s *GormStore) ListGenerationsByConversation(conversationID string) ([]domain.Generation, error) {
	var models []GenerationModel
	if err := s.db.Where("conversation_id = ?", conversationID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Generation, 0, len(models))
	for _, m := range models {
		res = append(res, generationFromModel(m))
	}
	return res, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		SubscriptionPlan:   u.SubscriptionPlan,
		SubscriptionExpiry: u.SubscriptionExpiry,
		CreatedAt:          u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:                 m.ID,
		Username:           m.Username,
		Email:              m.Email,
		PasswordHash:       m.PasswordHash,
		SubscriptionPlan:   m.SubscriptionPlan,
		SubscriptionExpiry: m.SubscriptionExpiry,
		CreatedAt:          m.CreatedAt,
	}
}

func conversationToModel(c domain.Conversation) ConversationModel {
	return ConversationModel{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		Type:      string(c.Type),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func conversationFromModel(m ConversationModel) domain.Conversation {
	convType := domain.ConversationType(m.Type)
	if convType == "" {
		convType = domain.ConversationChat
	}
	return domain.Conversation{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Type:      convType,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	var documentID *string
	if strings.TrimSpace(msg.DocumentID) != "" {
		value := strings.TrimSpace(msg.DocumentID)
		documentID = &value
	}
	return MessageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		Type:           string(msg.Type),
		AudioURL:       msg.AudioURL,
		DocumentID:     documentID,
		CreatedAt:      msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	documentID := ""
	if m.DocumentID != nil {
		documentID = *m.DocumentID
	}
	msgType := domain.MessageType(m.Type)
	if msgType == "" {
		msgType = domain.MessageText
	}
	return domain.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		Type:           msgType,
		AudioURL:       m.AudioURL,
		DocumentID:     documentID,
		CreatedAt:      m.CreatedAt,
	}
}

func documentToModel(d domain.Document) DocumentModel {
	return DocumentModel{
		ID:               d.ID,
		OwnerID:          d.OwnerID,
		Filename:         d.Filename,
		OriginalFilename: d.OriginalFilename,
		StorageKey:       d.StorageKey,
		SizeBytes:        d.SizeBytes,
		FileType:         d.FileType,
		Content:          d.Content,
		Status:           string(d.Status),
		ErrorMessage:     d.ErrorMessage,
		UploadedAt:       d.UploadedAt,
	}
}

func documentFromModel(m DocumentModel) domain.Document {
	return domain.Document{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Filename:         m.Filename,
		OriginalFilename: m.OriginalFilename,
		StorageKey:       m.StorageKey,
		SizeBytes:        m.SizeBytes,
		FileType:         m.FileType,
		Content:          m.Content,
		Status:           domain.DocumentStatus(m.Status),
		ErrorMessage:     m.ErrorMessage,
		UploadedAt:       m.UploadedAt,
	}
}

func deploymentToModel(d domain.Deployment) DeploymentModel {
	return DeploymentModel{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Description: d.Description,
		Slug:        d.Slug,
		HTML:        d.HTML,
		CSS:         d.CSS,
		JS:          d.JS,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func deploymentFromModel(m DeploymentModel) domain.Deployment {
	return domain.Deployment{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Slug:        m.Slug,
		HTML:        m.HTML,
		CSS:         m.CSS,
		JS:          m.JS,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func analyticsToModel(a domain.SiteAnalytics) SiteAnalyticsModel {
	return SiteAnalyticsModel{
		DeploymentID:    a.DeploymentID,
		PageViews:       a.PageViews,
		UniqueVisitors:  a.UniqueVisitors,
		Errors:          a.Errors,
		AvgLoadTime:     a.AvgLoadTime,
		SessionDuration: a.SessionDuration,
		BounceRate:      a.BounceRate,
		UpdatedAt:       a.UpdatedAt,
	}
}

func analyticsFromModel(m SiteAnalyticsModel) domain.SiteAnalytics {
	return domain.SiteAnalytics{
		DeploymentID:    m.DeploymentID,
		PageViews:       m.PageViews,
		UniqueVisitors:  m.UniqueVisitors,
		Errors:          m.Errors,
		AvgLoadTime:     m.AvgLoadTime,
		SessionDuration: m.SessionDuration,
		BounceRate:      m.BounceRate,
		UpdatedAt:       m.UpdatedAt,
	}
}

func generationToModel(g domain.Generation) (GenerationModel, error) {
	rawPlan, err := json.Marshal(g.Plan)
	if err != nil {
		return GenerationModel{}, fmt.Errorf("encode plan: %w", err)
	}
	return GenerationModel{
		ID:             g.ID,
		ConversationID: g.ConversationID,
		UserID:         g.UserID,
		Mode:           g.Mode,
		Plan:           rawPlan,
		HTML:           g.HTML,
		CreatedAt:      g.CreatedAt,
	}, nil
}

func generationFromModel(m GenerationModel) domain.Generation {
	var plan domain.Plan
	if len(m.Plan) > 0 {
		_ = json.Unmarshal(m.Plan, &plan)
	}
	return domain.Generation{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		UserID:         m.UserID,
		Mode:           m.Mode,
		Plan:           plan,
		HTML:           m.HTML,
		CreatedAt:      m.CreatedAt,
	}
}
