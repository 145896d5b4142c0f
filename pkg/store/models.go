package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID                 string `gorm:"primaryKey"`
	Username           string `gorm:"uniqueIndex;not null"`
	Email              string `gorm:"uniqueIndex;not null"`
	PasswordHash       string `gorm:"not null"`
	SubscriptionPlan   string
	SubscriptionExpiry *time.Time
	CreatedAt          time.Time `gorm:"not null"`
}

type ConversationModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Title     string    `gorm:"not null"`
	Type      string    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type MessageModel struct {
	ID             string    `gorm:"primaryKey"`
	ConversationID string    `gorm:"not null;index"`
	Role           string    `gorm:"not null"`
	Content        string    `gorm:"type:text;not null"`
	Type           string    `gorm:"not null"`
	AudioURL       string
	DocumentID     *string
	CreatedAt      time.Time `gorm:"not null;index"`
}

type DocumentModel struct {
	ID               string `gorm:"primaryKey"`
	OwnerID          string `gorm:"not null;index"`
	Filename         string `gorm:"not null"`
	OriginalFilename string `gorm:"not null"`
	StorageKey       string
	SizeBytes        int64  `gorm:"not null"`
	FileType         string `gorm:"not null"`
	Content          string `gorm:"type:text"`
	Status           string `gorm:"not null"`
	ErrorMessage     string
	UploadedAt       time.Time `gorm:"not null"`
}

type DeploymentModel struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Slug        string `gorm:"uniqueIndex;not null"`
	HTML        string `gorm:"type:text;not null"`
	CSS         string `gorm:"type:text"`
	JS          string `gorm:"type:text"`
	IsActive    bool
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type SiteAnalyticsModel struct {
	DeploymentID    string `gorm:"primaryKey"`
	PageViews       int64
	UniqueVisitors  int64
	Errors          int64
	AvgLoadTime     float64
	SessionDuration float64
	BounceRate      float64
	UpdatedAt       time.Time
}

type GenerationModel struct {
	ID             string         `gorm:"primaryKey"`
	ConversationID string         `gorm:"not null;index"`
	UserID         string         `gorm:"not null;index"`
	Mode           string         `gorm:"not null"`
	Plan           datatypes.JSON `gorm:"type:json"`
	HTML           string         `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"not null;index"`
}
