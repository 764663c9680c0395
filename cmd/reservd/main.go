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

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"facility-reservation-backend/config"
	"facility-reservation-backend/internal/api"
	"facility-reservation-backend/internal/availability"
	"facility-reservation-backend/internal/booking"
	"facility-reservation-backend/internal/catalog"
	"facility-reservation-backend/internal/db"
	"facility-reservation-backend/internal/schedule"
	"facility-reservation-backend/internal/store"
	"facility-reservation-backend/internal/sweeper"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "reservation-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire the reservation core. The real clock is injected here; tests
	// substitute a fake one.
	clock := clockwork.NewRealClock()
	ledger := store.NewGormLedger(gormDB, clock)
	cat := catalog.NewGormCatalog(gormDB)
	sched := schedule.NewStore(gormDB)
	resolver := availability.NewResolver(cat, sched, ledger, clock)
	controller := booking.NewController(ledger, cat, sched, clock)
	logger.Println("reservation core initialized")

	// Run the expiry sweeper in the background
	if cfg.Sweeper.Enabled {
		sw := sweeper.New(ledger, clock, cfg.Sweeper.Interval, cfg.Sweeper.WorkerPoolSize)
		go sw.Run(ctx)
		logger.Printf("expiry sweeper running every %s with %d workers", cfg.Sweeper.Interval, cfg.Sweeper.WorkerPoolSize)
	}

	// Initialize router
	router := api.NewRouter(api.Deps{
		Catalog:    cat,
		Schedule:   sched,
		Resolver:   resolver,
		Controller: controller,
		RateLimit:  rate.Limit(cfg.Server.RateLimitPerSec),
		Burst:      cfg.Server.RateLimitBurst,
		CacheTTL:   time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
