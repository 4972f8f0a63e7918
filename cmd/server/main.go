package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"LevelSentinel/internal/api"
	"LevelSentinel/internal/collector"
	"LevelSentinel/internal/config"
	"LevelSentinel/internal/refresh"
	"LevelSentinel/internal/scheduler"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] LevelSentinel starting...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher and collector
	fetcher := collector.NewYahooFetcher(cfg.Proxy)
	log.Printf("[INFO] data source: %s, symbol: %s", fetcher.Name(), cfg.DataSource.Symbol)

	opts := []collector.Option{
		collector.WithTTL(time.Duration(cfg.DataSource.CacheTTLSeconds) * time.Second),
	}
	if cfg.Database.SQLitePath != "" {
		store, err := collector.OpenStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] open fallback store failed, running without persistence: %v", err)
		} else {
			opts = append(opts, collector.WithStore(store))
			defer store.Close()
		}
	}
	col := collector.New(fetcher, opts...)

	// Refresh tracker and warm scheduler
	tracker := refresh.NewTracker(nil)
	sched := scheduler.NewScheduler(col, tracker, cfg.DataSource.Symbol)
	if err := sched.Register(cfg.Schedule.WarmCron); err != nil {
		log.Fatalf("[FATAL] register warm task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, warming caches now")
		go sched.RunWarmNow()
	}

	// HTTP server
	handler := api.NewHandler(col, tracker, nil)
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: handler.SetupRoutes(cfg.Server.AllowOrigins),
	}
	go func() {
		log.Printf("[INFO] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	log.Println("[INFO] LevelSentinel stopped")
}
