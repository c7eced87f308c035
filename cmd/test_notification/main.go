package main

import (
	"context"
	"flag"
	"log"
	"time"

	"installment_app_echo/internal/config"
	"installment_app_echo/internal/services"
)

// Sends a one-off message through WAHA or SMTP to check the notification setup.
func main() {
	channel := flag.String("channel", "whatsapp", "Channel to test: whatsapp or email")
	to := flag.String("to", "", "Phone number (e.g. 628123456789) or email address")
	msg := flag.String("msg", "Test message from the installment reminder service", "Message body")
	flag.Parse()

	if *to == "" {
		log.Fatal("Please provide a recipient using -to flag")
	}

	cfg := config.Load()

	var err error
	switch *channel {
	case "whatsapp":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		log.Printf("Sending WhatsApp message to %s: %s", services.NormalizeChatID(*to), *msg)
		err = services.NewWahaService(cfg.WahaBaseURL, cfg.WahaAPIKey).SendMessage(ctx, *to, *msg)
	case "email":
		log.Printf("Sending email to %s: %s", *to, *msg)
		err = services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom).
			SendEmail([]string{*to}, "Test notification", *msg)
	default:
		log.Fatalf("Unknown channel %q", *channel)
	}
	if err != nil {
		log.Fatalf("Failed to send message: %v", err)
	}

	log.Println("Message sent successfully!")
}
