package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/healthcost-ai/backend/internal/auth"
	"github.com/healthcost-ai/backend/internal/cache"
	"github.com/healthcost-ai/backend/internal/config"
	"github.com/healthcost-ai/backend/internal/database"
	"github.com/healthcost-ai/backend/internal/engine"
	"github.com/healthcost-ai/backend/internal/payment"
	"github.com/healthcost-ai/backend/internal/server"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting HealthCost AI API")

	// 3. Connect to Postgres. The API serves predictions without it,
	// so a persistent failure downgrades rather than aborts.
	db := connectDatabase(cfg)
	if db != nil {
		defer db.Close()
	}

	// 4. Connect to Redis; caching is disabled when unavailable
	resultCache, err := cache.New(cfg.RedisAddr(), time.Duration(cfg.CacheTTLSeconds)*time.Second)
	if err != nil {
		log.Warn().Err(err).Msg("Redis not available - caching disabled")
		resultCache = nil
	} else {
		log.Info().Str("addr", cfg.RedisAddr()).Msg("Redis connection established")
		defer resultCache.Close()
	}

	// 5. Build the prediction engine. No trained models ship with the
	// demo deployment, so this selects the rule-based estimator.
	predictionEngine := engine.New(engine.Options{})

	// 6. Auth and billing services
	authSvc := auth.NewService(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	seedDemoUser(db)

	var payments *payment.StripeService
	if cfg.StripeAPIKey != "" {
		payments = payment.NewStripeService(cfg.StripeAPIKey, cfg.StripePriceID, cfg.StripeWebhookSecret, cfg.AppBaseURL)
		log.Info().Msg("Stripe billing enabled")
	}

	// 7. Router and HTTP server
	handler := server.NewHandler(predictionEngine, db, resultCache, authSvc, payments)
	router := server.NewRouter(handler, authSvc, cfg, db)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	waitForShutdown(srv)
}

// connectDatabase opens Postgres with exponential backoff. Returns nil
// when the database never comes up within the retry window.
func connectDatabase(cfg *config.Config) *database.DB {
	params := database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}

	var db *database.DB
	operation := func() error {
		var err error
		db, err = database.New(params)
		return err
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoffStrategy); err != nil {
		log.Warn().Err(err).Msg("Database not available - persistence disabled")
		return nil
	}

	log.Info().Str("host", cfg.DBHost).Str("dbname", cfg.DBName).Msg("Database initialized")
	return db
}

// seedDemoUser ensures the demo account exists so demo-token
// predictions have an owner row
func seedDemoUser(db *database.DB) {
	if db == nil {
		return
	}

	hash, err := auth.HashPassword("demo-password")
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash demo password")
		return
	}
	if err := db.SeedDemoUser("demo@healthcost.ai", "demo_user", hash); err != nil {
		log.Error().Err(err).Msg("Failed to seed demo user")
	}
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// waitForShutdown blocks until an interrupt and drains the server
func waitForShutdown(srv *http.Server) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info().Msg("Shutdown signal received, draining connections...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
