package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"metro-status-backend/config"
	"metro-status-backend/internal/api"
	"metro-status-backend/internal/db"
	"metro-status-backend/internal/dispatch"
	"metro-status-backend/internal/feed"
	"metro-status-backend/internal/hotcar"
	"metro-status-backend/internal/poller"
	"metro-status-backend/internal/reconcile"
	"metro-status-backend/internal/social"
	"metro-status-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "metro-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Missing credentials are a startup failure, never a per-tick one.
	if cfg.Units.Enabled && cfg.Feed.URL == "" {
		logger.Fatalf("feed.url must be configured for the unit tracker")
	}
	if (cfg.Units.Live || cfg.HotCars.Live) && (cfg.Social.BaseURL == "" || cfg.Social.Token == "") {
		logger.Fatalf("social credentials must be configured to post live")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	var socialClient social.Client
	if cfg.Social.BaseURL != "" {
		socialClient = social.NewHTTPClient(cfg.Social.BaseURL, cfg.Social.Token)
	}
	if cfg.HotCars.Enabled && socialClient == nil {
		logger.Fatalf("social.base_url must be configured for the hot car tracker")
	}

	var webpushOptions *webpush.Options
	var pushPool *dispatch.PushPool
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pushPool = dispatch.NewPushPool(cfg.WorkerPool.Size, appStore, webpushOptions)
	} else {
		logger.Println("VAPID keys not configured; push notifications disabled")
	}

	// Unit tracker
	feedClient := feed.NewHTTPClient(cfg.Feed.URL, cfg.Feed.APIKey, cfg.Feed.Headers)
	symptoms := reconcile.NewSymptomTable(&cfg.Units)
	reconciler := reconcile.New(appStore, symptoms)
	unitDispatcher := dispatch.New(socialClient, appStore,
		cfg.Notify.RatePerSec, cfg.Notify.Burst, cfg.Notify.MaxPerTick, cfg.Units.Live)
	unitPoller := poller.NewUnitPoller(cfg, appStore, feedClient, reconciler, unitDispatcher, pushPool)
	go unitPoller.Run(ctx)

	// Hot car tracker
	extractor := hotcar.NewExtractor(&cfg.HotCars)
	deduper := hotcar.NewDeduper(appStore, cfg.HotCars.DedupWindowDays)
	hotcarDispatcher := dispatch.New(socialClient, appStore,
		cfg.Notify.RatePerSec, cfg.Notify.Burst, cfg.Notify.MaxPerTick, cfg.HotCars.Live)
	hotcarPoller := poller.NewHotCarPoller(cfg, appStore, socialClient, extractor, deduper, hotcarDispatcher)
	go hotcarPoller.Run(ctx)

	router := api.NewRouter(appStore, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
