package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Skotchmaster/contacts_api/internal/config"
	"github.com/Skotchmaster/contacts_api/internal/logging"
	"github.com/Skotchmaster/contacts_api/internal/mailer"
)

// mailer drains the email topic and delivers each task over SMTP.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}

	logger := logging.New(cfg.LogLevel).With("service", "contacts_mailer")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	consumer := mailer.NewConsumer(cfg.KafkaBrokers, cfg.KafkaEmailTopic, cfg.KafkaGroupID, mailer.NewSMTPSender(cfg.Mail))
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Warn("consumer_close_failed", "error", err)
		}
	}()

	logger.Info("mailer_started", "topic", cfg.KafkaEmailTopic, "group", cfg.KafkaGroupID)
	if err := consumer.Run(ctx); err != nil {
		logger.Error("mailer_stopped", "error", err)
		return
	}
	logger.Info("mailer_stopped")
}
