package main

import (
	"context"
	"os"
	"time"

	"github.com/Domenick1991/roombooking/config"
	"github.com/Domenick1991/roombooking/internal/logging"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/Domenick1991/roombooking/internal/seed"
	"github.com/sirupsen/logrus"
)

// Seed creates the schema and inserts the default catalog and accounts.
// Running it again leaves existing rows untouched.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logging.New(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := repository.NewPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	data, err := seed.Default()
	if err != nil {
		log.Fatalf("build seed: %v", err)
	}
	if err := repository.ApplySeed(ctx, pool, data); err != nil {
		log.Fatalf("apply seed: %v", err)
	}

	log.WithFields(logrus.Fields{
		"time_slots":  len(data.TimeSlots),
		"monitorings": len(data.Monitorings),
		"rooms":       len(data.Rooms),
		"users":       len(data.Users),
	}).Info("seed applied")
}
