package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buildsight/internal/backend"
	"buildsight/internal/gateway/config"
	"buildsight/internal/gateway/handler"
	"buildsight/internal/gateway/middleware"
	"buildsight/internal/gateway/server"
	"buildsight/internal/gateway/session"
	"buildsight/internal/gateway/ws"
	"buildsight/internal/staging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	platform, err := backend.New(cfg.PlatformURL)
	if err != nil {
		log.Fatalf("platform client: %v", err)
	}

	var stage staging.Store
	if cfg.Staging.Enabled {
		s3, err := staging.NewS3Store(staging.S3Config{
			Endpoint:  cfg.Staging.Endpoint,
			Region:    cfg.Staging.Region,
			AccessKey: cfg.Staging.AccessKey,
			SecretKey: cfg.Staging.SecretKey,
			Bucket:    cfg.Staging.Bucket,
			UseSSL:    cfg.Staging.UseSSL,
		})
		if err != nil {
			log.Printf("staging: s3 unavailable, falling back to memory: %v", err)
			stage = staging.NewMemoryStore()
		} else {
			stage = s3
		}
	} else {
		stage = staging.NewMemoryStore()
	}

	var snaps session.Snapshotter
	if cfg.SessionDSN != "" {
		pg, err := session.NewPGStore(cfg.SessionDSN)
		if err != nil {
			log.Printf("session store: postgres unavailable, sessions are memory-only: %v", err)
		} else {
			defer pg.Close()
			snaps = pg
		}
	}

	store := session.NewStore(cfg.SessionTTL, snaps)
	hub := ws.NewHub()
	h := handler.New(store, platform, stage, hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.RestoreAll(ctx, platform, h.SessionOpts); err != nil {
		log.Printf("session store: restore: %v", err)
	}
	store.StartSweeper(ctx, 5*time.Minute)

	srv := server.New(cfg.Port, middleware.CORS(h.Routes()))
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
