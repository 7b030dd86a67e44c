// Package main is the entry point for the timetable daemon.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nice-timetable/backend/internal/api"
	"github.com/nice-timetable/backend/internal/config"
	"github.com/nice-timetable/backend/internal/storage"
	"github.com/nice-timetable/backend/internal/timetable"
	"github.com/nice-timetable/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	configPath := flag.String("config", "./config.yaml", "Path to YAML configuration")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Optional .env for NEIS_API_KEY during development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config %q: %v", *configPath, err)
	}
	if *addr != "" {
		cfg.Listen = *addr
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Listen); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	log.Printf("Starting timetable daemon (version: %s)...", version)

	if cfg.APIKey == "" {
		log.Fatal("No API key configured: set NEIS_API_KEY or api_key in config")
	}

	// Initialize database
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %q: %v", cfg.DataDir, err)
	}
	dbPath := filepath.Join(cfg.DataDir, "timetable.db")
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// WebSocket hub and surface broadcaster
	hub := websocket.NewHub()
	go hub.Run()
	broadcaster := websocket.NewBroadcaster(hub)

	// Repositories
	cacheRepo := storage.NewCacheRepository(db)
	settingsRepo := storage.NewSettingsRepository(db)

	// Upstream client and orchestrator
	client := timetable.NewClient(cfg.APIKey)
	freshness := timetable.FreshnessPolicy{
		Interactive: time.Duration(cfg.Freshness.InteractiveHours) * time.Hour,
		Empty:       time.Duration(cfg.Freshness.EmptyHours) * time.Hour,
	}
	orchestrator := timetable.NewOrchestrator(client, cacheRepo, settingsRepo, broadcaster, freshness)

	// Show the current week from cache immediately, then bring the whole
	// window up in the background and drop entries outside retention.
	startCtx := context.Background()
	if orchestrator.LoadFromCache(startCtx, 0) {
		log.Println("Current week served from cache")
	}
	go func() {
		orchestrator.LoadInitialWindow(startCtx)
		if err := orchestrator.PruneOldEntries(startCtx); err != nil {
			log.Printf("Warning: failed to prune cache: %v", err)
		}
	}()

	// Day-switch scheduler: user-stored boundary wins over the config default
	boundary := cfg.DaySwitchTime
	if stored, err := settingsRepo.DaySwitchTime(startCtx); err == nil && stored != "" {
		boundary = stored
	}
	hour, minute, err := timetable.ParseBoundary(boundary)
	if err != nil {
		log.Printf("Warning: invalid day switch time %q, using midnight", boundary)
		hour, minute = 0, 0
	}
	daySwitch := timetable.NewDaySwitchScheduler(hour, minute, broadcaster)
	daySwitch.Start()

	// Background revalidation of the current week plus a daily prune
	refresher := timetable.NewRefresher(orchestrator, cfg.RefreshCron)
	if err := refresher.Start(); err != nil {
		log.Printf("Warning: failed to start refresher: %v", err)
	}

	router := api.NewRouter(api.Services{
		DB:           db,
		CacheRepo:    cacheRepo,
		SettingsRepo: settingsRepo,
		Hub:          hub,
		Broadcaster:  broadcaster,
		Client:       client,
		Orchestrator: orchestrator,
		DaySwitch:    daySwitch,
	})

	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	refresher.Stop()
	daySwitch.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
