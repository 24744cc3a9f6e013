// cmd/mailer/main.go drains the outbound mail queue and delivers over SMTP.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"blogapi/internal/config"
	"blogapi/internal/services"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := &services.MailConsumer{
		URL:   cfg.RabbitMQURL,
		Queue: cfg.MailQueue,
		Sender: &services.SMTPSender{
			Host:   cfg.SMTPHost,
			Port:   cfg.SMTPPort,
			User:   cfg.SMTPUser,
			Pass:   cfg.SMTPPassword,
			From:   cfg.SMTPFrom,
			UseTLS: cfg.SMTPUseTLS,
		},
	}

	log.Printf("Mailer consuming %s", cfg.MailQueue)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Mailer stopped: %v", err)
	}
	log.Println("Mailer exiting")
}
