// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pias-analytics/pias-backend/internal/api"
	"github.com/pias-analytics/pias-backend/internal/api/handlers"
	"github.com/pias-analytics/pias-backend/internal/chat"
	"github.com/pias-analytics/pias-backend/internal/config"
	"github.com/pias-analytics/pias-backend/internal/repository/postgres"
	"github.com/pias-analytics/pias-backend/internal/service"
	"github.com/pias-analytics/pias-backend/internal/session"
	"github.com/pias-analytics/pias-backend/internal/storage"
	"github.com/pias-analytics/pias-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Session store: Redis when configured, in-memory otherwise
	sessions, err := session.New(cfg.Session)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}

	features := handlers.Features{AIChat: cfg.Chat.GeminiAPIKey != ""}

	// Optional Postgres persistence for session metadata and usage analytics
	var repo *postgres.SessionRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		repo = postgres.NewSessionRepository(db)
		features.Database = true
	}

	// Optional S3-compatible archive for raw uploads
	var archive storage.UploadArchive
	if cfg.Archive.Enabled {
		s3, err := storage.NewS3Archive(cfg.Archive)
		if err != nil {
			log.Fatalf("Failed to initialize upload archive: %v", err)
		}
		archive = s3
		features.Archive = true
	}

	// Chat assistant: Gemini-backed when a key is configured, keyword
	// dispatcher otherwise
	assistant, err := chat.New(ctx, cfg.Chat)
	if err != nil {
		log.Fatalf("Failed to initialize chat assistant: %v", err)
	}
	defer assistant.Close()

	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second
	analysisService := service.NewAnalysisService(sessions, repo, archive, assistant, ttl)

	// Initialize HTTP server
	router := api.NewRouter(analysisService, cfg.Server.AllowedOrigins, features)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
