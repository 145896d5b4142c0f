package domain

import "time"

type ConversationType string

const (
	ConversationChat   ConversationType = "chat"
	ConversationEditor ConversationType = "ai_editor"
)

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageVoice    MessageType = "voice"
	MessageDocument MessageType = "document"
)

type DocumentStatus string

const (
	DocumentQueued     DocumentStatus = "queued"
	DocumentProcessing DocumentStatus = "processing"
	DocumentReady      DocumentStatus = "ready"
	DocumentFailed     DocumentStatus = "failed"
)

type User struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	SubscriptionPlan   string     `json:"subscriptionPlan,omitempty"`
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

type Conversation struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Type      ConversationType `json:"conversationType"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	Role           string      `json:"role"`
	Content        string      `json:"content"`
	Type           MessageType `json:"messageType"`
	AudioURL       string      `json:"audioUrl,omitempty"`
	DocumentID     string      `json:"documentId,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

type Document struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"ownerId"`
	Filename         string         `json:"filename"`
	OriginalFilename string         `json:"originalFilename"`
	StorageKey       string         `json:"-"`
	SizeBytes        int64          `json:"sizeBytes"`
	FileType         string         `json:"fileType"`
	Content          string         `json:"content,omitempty"`
	Status           DocumentStatus `json:"status"`
	ErrorMessage     string         `json:"errorMessage,omitempty"`
	UploadedAt       time.Time      `json:"uploadedAt"`
}

type Deployment struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"deployUrl"`
	HTML        string    `json:"-"`
	CSS         string    `json:"-"`
	JS          string    `json:"-"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SiteAnalytics carries per-deployment usage counters. The load-time and
// engagement figures are demo data refreshed on each tracked visit.
type SiteAnalytics struct {
	DeploymentID    string    `json:"deploymentId"`
	PageViews       int64     `json:"pageViews"`
	UniqueVisitors  int64     `json:"uniqueVisitors"`
	Errors          int64     `json:"errors"`
	AvgLoadTime     float64   `json:"avgLoadTime"`
	SessionDuration float64   `json:"sessionDuration"`
	BounceRate      float64   `json:"bounceRate"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Generation is a persisted run of the site-generation pipeline.
type Generation struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId"`
	Mode           string    `json:"mode"`
	Plan           Plan      `json:"plan"`
	HTML           string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Plan is the architect's step plan for a site build.
type Plan struct {
	Analysis       string     `json:"analysis"`
	Steps          []PlanStep `json:"steps"`
	FinalStructure string     `json:"final_structure"`
}

type PlanStep struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CodeType     string `json:"code_type"`
	Priority     string `json:"priority"`
	Dependencies []int  `json:"dependencies"`
}

// CodePart is the developer output for one plan step.
type CodePart struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	StepName string `json:"stepName"`
}
