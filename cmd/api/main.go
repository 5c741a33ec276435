package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blueprintforge/blueprint-backend/config"
	cronjob "github.com/blueprintforge/blueprint-backend/internal/blueprint/cron"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/repository"
	"github.com/blueprintforge/blueprint-backend/internal/bootstrap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.Upstream.GeneratorURL == "" {
		log.Fatal("GENERATOR_URL is required")
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN()})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := repository.NewProjectRepository(pool).Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		// drafts degrade to no-op saves, the wizard itself keeps working
		log.Printf("redis unreachable, draft autosave disabled: %v", err)
		rdb = nil
	}

	sweeper := cronjob.NewSweeper(rdb)
	sweeper.Start()
	defer sweeper.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "blueprint-backend",
		Version:     cfg.App.Version,
		Upstream:    cfg.Upstream,
		APIKey:      cfg.App.APIKey,
		AdminKey:    cfg.App.AdminKey,
		Origins:     cfg.Server.AllowedOrigins,
		DB:          pool,
		Redis:       rdb,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
