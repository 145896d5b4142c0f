// Package app holds the application core: auth, chat, the site-generation
// pipeline, documents, voice and deployments, wired over the persistence and
// provider interfaces.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"windexai/pkg/ai"
	"windexai/pkg/generator"
	"windexai/pkg/queue"
	"windexai/pkg/storage"
	"windexai/pkg/store"
	"windexai/pkg/webinfo"
)

// SearchProvider supplies web search results for the chat pre-step.
type SearchProvider interface {
	SearchAndFetch(ctx context.Context, query string, limit int) ([]webinfo.Result, error)
}

// QuickAnswerer answers live-data questions without a model call.
type QuickAnswerer interface {
	QuickAnswer(ctx context.Context, message string) (string, bool)
}

// Config wires the application dependencies.
type Config struct {
	Store         store.Store
	Sessions      *store.SessionStore
	LLM           ai.LLM
	Objects       storage.ObjectStore
	ParseQueue    *queue.ParseQueue
	Search        SearchProvider
	Realtime      QuickAnswerer
	DefaultModel  string
	PublicBaseURL string
	Logger        *slog.Logger
}

// App is the application core.
type App struct {
	store         store.Store
	sessions      *store.SessionStore
	llm           ai.LLM
	pipeline      *generator.Pipeline
	objects       storage.ObjectStore
	parseQueue    *queue.ParseQueue
	search        SearchProvider
	realtime      QuickAnswerer
	defaultModel  string
	publicBaseURL string
	log           *slog.Logger
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.LLM == nil {
		return nil, fmt.Errorf("llm client required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &App{
		store:         cfg.Store,
		sessions:      cfg.Sessions,
		llm:           cfg.LLM,
		pipeline:      generator.NewPipeline(cfg.LLM, cfg.DefaultModel, log),
		objects:       cfg.Objects,
		parseQueue:    cfg.ParseQueue,
		search:        cfg.Search,
		realtime:      cfg.Realtime,
		defaultModel:  ai.ResolveModel(cfg.DefaultModel),
		publicBaseURL: cfg.PublicBaseURL,
		log:           log,
	}, nil
}

// StartWorkers launches background consumers (document parsing). Safe to call
// with a nil queue, in which case uploads are parsed synchronously.
func (a *App) StartWorkers(ctx context.Context, concurrency int) {
	if a.parseQueue == nil {
		return
	}
	a.parseQueue.Start(ctx, concurrency, func(ctx context.Context, job queue.ParseJob) error {
		return a.ProcessDocument(ctx, job.DocumentID)
	})
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
