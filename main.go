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

	"github.com/joho/godotenv"
	"github.com/whisperbox/whisperbox-be/internal/api"
	"github.com/whisperbox/whisperbox-be/internal/auth"
	"github.com/whisperbox/whisperbox-be/internal/config"
	"github.com/whisperbox/whisperbox-be/internal/database"
	"github.com/whisperbox/whisperbox-be/internal/logger"
	"github.com/whisperbox/whisperbox-be/internal/mailer"
	"github.com/whisperbox/whisperbox-be/internal/monitoring"
	"github.com/whisperbox/whisperbox-be/internal/services"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading env vars from system")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)

	// Set up the store. The handle is constructed here and injected into
	// every service; Connect is idempotent.
	store := database.New(cfg.DatabasePath)
	if err := store.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up the mail collaborator
	mail := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)

	// Set up session tokens
	tokens := auth.NewManager(cfg.JWTSecret, cfg.IsProduction())

	// Set up services
	userService := services.NewUserService(store, mail)
	messageService := services.NewMessageService(store)

	// Set up and run the background verification-code pruner
	pruner, err := monitoring.NewCodePruner(store, cfg.CodePruneSchedule)
	if err != nil {
		log.Fatalf("Failed to initialize code pruner: %v", err)
	}
	go pruner.Run()

	// Set up router
	router := api.NewRouter(tokens, userService, messageService, cfg.BaseURL)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	pruner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
