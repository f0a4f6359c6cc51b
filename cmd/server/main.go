package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/config"
	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/database"
	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/handlers"
	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/repository"
	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/router"
	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/services"
)

func main() {
	log.Println("🌿 Starting Roots & Remedies chat backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis (optional context cache) ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Println("✓ Redis connected")
	} else {
		log.Println("• Redis not configured, context cache disabled")
	}

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	conversationRepo := repository.NewConversationRepo(pool)
	messageRepo := repository.NewMessageRepo(pool)
	catalogRepo := repository.NewCatalogRepo(pool)

	// ──── Initialize Services ────
	contextService := services.NewContextService(catalogRepo, redisClient, cfg.ContextCacheTTL)
	upstreamClient := services.NewUpstreamClient(
		cfg.UpstreamBaseURL,
		cfg.UpstreamAPIKey,
		cfg.UpstreamModel,
		cfg.UpstreamIdleTimeout,
	)
	if cfg.UpstreamAPIKey == "" {
		log.Println("• UPSTREAM_API_KEY not set, chat turns will fail until configured")
	}

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(conversationRepo, messageRepo, contextService, upstreamClient)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(chatHandler, catalogHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the chat stream stays open for the whole
		// generation; the upstream idle watchdog bounds a stalled turn.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Roots & Remedies chat backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
