package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trickspot/backend/internal/api"
	"github.com/trickspot/backend/internal/config"
	"github.com/trickspot/backend/internal/repository/postgres"
	"github.com/trickspot/backend/internal/service"
	"github.com/trickspot/backend/internal/storage"
	"github.com/trickspot/backend/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize services
	services := service.NewServices(db, repos, hub, cfg)

	// Video storage is optional in development; uploads 503 without it.
	var videoStorage storage.VideoStorage
	if cfg.StorageAccessKey != "" {
		s3Storage, err := storage.NewS3Storage(context.Background(), cfg)
		if err != nil {
			log.Fatalf("failed to initialize video storage: %v", err)
		}
		videoStorage = s3Storage
	} else {
		log.Println("video storage not configured, uploads disabled")
	}

	// Turn deadline scheduler
	expiryWorker := service.NewExpiryWorker(services.Battle, repos.Battle, cfg.ExpiryTickInterval)
	if err := expiryWorker.Start(); err != nil {
		log.Fatalf("failed to start expiry worker: %v", err)
	}

	// Initialize router
	router := api.NewRouter(services, hub, videoStorage)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	expiryWorker.Stop()
	hub.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
