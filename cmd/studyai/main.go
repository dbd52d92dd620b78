package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"studyai/internal/app"
	"studyai/internal/chat"
	"studyai/internal/config"
	"studyai/internal/server"
	"studyai/internal/util"
	"studyai/pkg/ai"
	"studyai/pkg/storage"
	"studyai/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	db, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}

	sessions, err := store.NewJWTSessionStore(cfg.JWTSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute, "studyai")
	if err != nil {
		log.Fatalf("failed to init session store: %v", err)
	}

	var blobs storage.BlobStore
	switch cfg.StorageBackend {
	case "minio":
		blobs, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init minio storage: %v", err)
		}
	default:
		blobs, err = storage.NewFileStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("failed to init local storage: %v", err)
		}
	}

	var generator ai.TextGenerator
	switch cfg.CompletionProvider {
	case "ollama":
		generator = ai.NewOllamaGenerator(ai.NewOllamaClient(cfg.CompletionBaseURL), cfg.CompletionModel)
	default:
		generator = ai.NewOpenAICompatGenerator(cfg.CompletionBaseURL, cfg.CompletionAPIKey, cfg.CompletionModel)
	}

	appCore, err := app.New(app.Config{
		Store:               db,
		Sessions:            sessions,
		Blobs:               blobs,
		Generator:           generator,
		MaxCompletionTokens: cfg.MaxCompletionTokens,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                      appCore,
		Hub:                      chat.NewHub(logger),
		RedisAddr:                cfg.RedisAddr,
		RedisPassword:            cfg.RedisPassword,
		RateLimitPerMinute:       cfg.RateLimitPerMinute,
		UploadRateLimitPerMinute: cfg.UploadRateLimitPerMinute,
		MaxUploadBytes:           cfg.MaxUploadBytes,
		AllowedExtensions:        cfg.AllowedExtensions,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:        addr,
		Handler:     httpServer.Router(),
		ReadTimeout: 15 * time.Second,
		// Long write timeout: generation requests wait on the completion
		// service. Websocket connections are exempt after hijack.
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("studyai server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
