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

	"installment_app_echo/internal/config"
	"installment_app_echo/internal/events"
	"installment_app_echo/internal/handlers"
	"installment_app_echo/internal/services"
)

func main() {
	cfg := config.Load()

	// Initialize Database
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; without it every read goes to the database
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis unavailable, caching disabled: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// RabbitMQ is optional as well
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		conn, ch, err := events.SetupConn(cfg.AMQPURL)
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, events disabled: %v", err)
		} else {
			defer conn.Close()
			defer ch.Close()
			publisher = events.NewRabbitPublisher(ch)
		}
	}

	var gateway services.Authorizer
	switch cfg.GatewayDriver {
	case "midtrans":
		if cfg.MidtransServerKey == "" {
			log.Fatal("MIDTRANS_SERVER_KEY not set")
		}
		gateway = services.NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransProd)
	case "http", "":
		gateway = services.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayTimeout)
	default:
		log.Fatalf("Unknown GATEWAY_DRIVER %q", cfg.GatewayDriver)
	}
	log.Printf("Payment gateway: %s", cfg.GatewayDriver)

	e := handlers.NewServer(handlers.Deps{
		DB:             db,
		Gateway:        gateway,
		Cache:          cache,
		Publisher:      publisher,
		RequestTimeout: cfg.RequestTimeout,
	})

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
