package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/roombooking/config"
	"github.com/Domenick1991/roombooking/internal/kafka"
	"github.com/Domenick1991/roombooking/internal/logging"
	"github.com/Domenick1991/roombooking/internal/repository"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// The worker moves audit events from Kafka into the activity log table.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logging.New(cfg.Log).WithField("component", "audit-worker")
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if !cfg.Kafka.Enabled() {
		log.Fatal("kafka.brokers and kafka.audit_topic are required")
	}
	if cfg.Storage.Driver != config.StoragePostgres {
		log.Fatal("the audit worker requires the postgres storage driver")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()
	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	activity := repository.NewActivityRepository(pool)
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.AuditTopic)
	defer consumer.Close()

	log.WithField("topic", cfg.Kafka.AuditTopic).Info("consuming audit events")
	err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		return persist(ctx, activity, msg, log)
	})
	if err != nil {
		log.Fatalf("consumer stopped: %v", err)
	}
	log.Info("shutting down")
}

// persist stores one event. Undecodable messages are logged and skipped so
// they do not block the partition; store errors stop the consumer uncommitted.
func persist(ctx context.Context, repo repository.ActivityRepository, msg kafkaGo.Message, log logrus.FieldLogger) error {
	event, err := kafka.DecodeAuditEvent(msg.Value)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{"partition": msg.Partition, "offset": msg.Offset}).Warn("skipping malformed audit event")
		return nil
	}
	entry := event.ActivityLog()
	if err := repo.Insert(ctx, &entry); err != nil {
		log.WithError(err).WithField("activity_id", entry.ID).Error("persist audit event failed")
		return err
	}
	return nil
}
