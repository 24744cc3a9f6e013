// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogapi/internal/config"
	"blogapi/internal/db"
	"blogapi/internal/db/migrations"
	"blogapi/internal/routes"
)

// @title Blog API
// @version 1.0
// @description Blog platform backend: accounts, password reset, posts, comments, likes and image upload.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	// Create database if it doesn't exist
	if err := db.CreateDatabaseIfNotExists(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to ensure database exists: %v", err)
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := migrations.RunMigrations(database.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Image uploads are optional; without S3 the API still serves text posts.
	s3Config, err := config.NewS3Config(ctx)
	if err != nil {
		log.Printf("S3 unavailable, image uploads disabled: %v", err)
		s3Config = &config.S3Config{}
	} else if s3Config.Bucket == "" {
		log.Println("S3_BUCKET_NAME not set, image uploads disabled")
		s3Config = &config.S3Config{}
	}

	rdb := config.NewRedisClient(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	router := routes.SetupRoutes(database.DB, cfg, s3Config, rdb)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %s (%s)", cfg.Port, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give server 5 seconds to finish current requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
