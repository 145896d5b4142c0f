package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"windexai/internal/app"
	"windexai/internal/config"
	"windexai/internal/ratelimit"
	"windexai/internal/server"
	"windexai/internal/util"
	"windexai/pkg/ai"
	"windexai/pkg/queue"
	"windexai/pkg/storage"
	"windexai/pkg/store"
	"windexai/pkg/webinfo"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := util.InitLogger(cfg.LogLevel)

	db, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		fatal("failed to init database", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			fatal("failed to reach redis", err)
		}
		cancel()
	}

	var revoker *store.TokenRevoker
	if redisClient != nil {
		revoker = store.NewTokenRevoker(redisClient)
	} else {
		logger.Warn("redis not configured, token revocation and rate limiting disabled")
	}
	sessions := store.NewSessionStore(cfg.SecretKey, cfg.TokenTTL(), revoker)

	var objects storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			fatal("failed to init object storage", err)
		}
		objects = minioStore
	} else {
		logger.Warn("object storage not configured, documents and voice replies disabled")
	}

	var parseQueue *queue.ParseQueue
	if redisClient != nil {
		parseQueue, err = queue.NewParseQueue(redisClient, queue.Config{})
		if err != nil {
			fatal("failed to init parse queue", err)
		}
	}

	search := webinfo.NewSearcher()
	realtime := webinfo.NewRealtime()
	if cfg.ProxyEnabled && cfg.ProxyURL != "" {
		searchClient, err := webinfo.ProxyClient(cfg.ProxyURL, 10*time.Second)
		if err != nil {
			fatal("failed to init proxy client", err)
		}
		realtimeClient, err := webinfo.ProxyClient(cfg.ProxyURL, 5*time.Second)
		if err != nil {
			fatal("failed to init proxy client", err)
		}
		search = webinfo.NewSearcherWithClient(searchClient)
		realtime = webinfo.NewRealtimeWithClient(realtimeClient)
	}

	appCore, err := app.New(app.Config{
		Store:         db,
		Sessions:      sessions,
		LLM:           ai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey),
		Objects:       objects,
		ParseQueue:    parseQueue,
		Search:        search,
		Realtime:      realtime,
		DefaultModel:  cfg.DefaultModel,
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        logger,
	})
	if err != nil {
		fatal("failed to init app", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	appCore.StartWorkers(ctx, cfg.ParseWorkers)

	var authLimiter, chatLimiter *ratelimit.FixedWindowLimiter
	if redisClient != nil {
		authLimiter, err = ratelimit.New(redisClient, "windexai:ratelimit:auth", 10, time.Minute)
		if err != nil {
			fatal("failed to init auth limiter", err)
		}
		chatLimiter, err = ratelimit.New(redisClient, "windexai:ratelimit:chat", cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			fatal("failed to init chat limiter", err)
		}
	}

	httpServer := server.New(server.Config{
		App:         appCore,
		AuthLimiter: authLimiter,
		ChatLimiter: chatLimiter,
	})

	addr := cfg.Host + ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
