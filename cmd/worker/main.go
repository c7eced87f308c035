package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"installment_app_echo/internal/config"
	"installment_app_echo/internal/services"
	"installment_app_echo/internal/tasks"
)

func main() {
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, tasks.Notifiers{
		Email:    services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom),
		Whatsapp: services.NewWahaService(cfg.WahaBaseURL, cfg.WahaAPIKey),
	})

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down worker...")
		cancel()
	}()

	log.Printf("Worker started, checking tasks every %s", cfg.WorkerInterval)
	tasks.NewRunner(db, registry).Run(ctx, cfg.WorkerInterval)
}
