package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/notification"
	"github.com/smukkama/symptom-intel/internal/protocol"
	"github.com/smukkama/symptom-intel/internal/queue"
	"github.com/smukkama/symptom-intel/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.HashSalt)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The notifier delivers what the engine queued; it never re-queues.
	var gateway notification.Gateway = notification.NewLogGateway(log)
	if cfg.SMS.AccountSID != "" && cfg.SMS.AuthToken != "" && cfg.SMS.From != "" {
		gateway = notification.NewSMSGateway(&cfg.SMS, cfg.Notification.SendTimeout)
		log.Info("delivering over sms", "baseUrl", cfg.SMS.BaseURL)
	} else {
		log.Warn("sms credentials not configured, notifications will be logged only")
	}

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications, cfg.Kafka.NotifierGroup)
	defer consumer.Close()
	log.Info("notifier started", "topic", cfg.Kafka.TopicNotifications, "group", cfg.Kafka.NotifierGroup)

	for {
		msg, err := consumer.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			log.Error("failed to consume notification", "error", err)
			continue
		}

		n, err := protocol.DecodeNotification(msg.Value)
		if err != nil {
			log.Warn("dropping undecodable notification", "offset", msg.Offset, "error", err)
		} else {
			sendCtx, cancel := context.WithTimeout(ctx, cfg.Notification.SendTimeout)
			if err := gateway.Send(sendCtx, n.Recipient, n.Message); err != nil {
				log.Error("notification not delivered", "id", n.ID, "recipient", n.Recipient, "error", err)
			}
			cancel()
		}

		// At-most-once: commit whatever the outcome.
		if err := consumer.Commit(context.WithoutCancel(ctx), msg); err != nil {
			log.Error("failed to commit offset", "offset", msg.Offset, "error", err)
		}
	}

	stats := consumer.Stats()
	log.Info("notifier stopped", "messages", stats.Messages, "errors", stats.Errors)
}
