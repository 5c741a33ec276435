package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/blueprintforge/blueprint-backend/config"
	cronjob "github.com/blueprintforge/blueprint-backend/internal/blueprint/cron"
)

// RunSweep performs one draft sweep and exits. The API process runs the
// same sweep nightly; this command exists for manual cleanup.
func RunSweep() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	cronjob.NewSweeper(rdb).RunOnce()
}
