// cmd/hub/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/alerting"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/api"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/auth"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/config"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/storage"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/websocket"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", ".", "Path to the configuration file directory")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		log.Printf("Error loading config, continuing with defaults: %v", err)
	}
	cfg := &config.AppConfig

	ctx := context.Background()

	// --- Durable stores ---
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Cannot create database pool: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	if err := storage.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("Cannot create schema: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Cannot connect to redis at %s: %v", cfg.Redis.Addr, err)
	}

	// --- Initialize Components ---
	registry := storage.NewPostgresSensorRegistry(pool, rdb)
	events := storage.NewPostgresEventStore(pool)
	assessments := storage.NewPostgresAssessmentStore(pool)
	users := storage.NewPostgresUserStore(pool)

	if err := registry.SeedIfEmpty(ctx, storage.DefaultSensors()); err != nil {
		log.Fatalf("Cannot seed sensors: %v", err)
	}

	hub := websocket.NewHub()
	engine := alerting.NewEngine(registry, events, hub)
	authMgr := auth.NewManager(cfg.Auth, users)

	apiHandler := api.NewAPIHandler(registry, events, assessments, engine, hub, authMgr)

	// --- Start WebSocket Hub ---
	go hub.Run()

	// --- HTTP Server ---
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.SetupRouter(apiHandler),
	}

	go func() {
		log.Printf("Starting Security Hub on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server ListenAndServe error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	hub.Stop()

	log.Println("Server gracefully stopped.")
}
