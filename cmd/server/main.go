package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/broker"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/config"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/database"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/logger"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/repository"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/scheduler"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/version"
)

// redisKeyPrefix namespaces ledger keys in a shared redis.
const redisKeyPrefix = "dashboard:"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log.Info().Str("version", version.Version).Msg("starting paper trading dashboard backend")

	store, db, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open ledger store")
	}
	defer closeStore()

	m := metrics.New()
	client := broker.NewHTTPClient(cfg.Broker.BaseURL, cfg.Broker.Timeout)

	// Create services
	sessionService := service.NewSessionService(store, cfg.Funds.OpeningBalance, m, log)
	portfolioService := service.NewPortfolioService(client, sessionService, m, log)
	fundsService := service.NewFundsService(portfolioService, m, log)
	orderService := service.NewOrderService(client, portfolioService, cfg.Order.ConfirmDelay, m, log)
	systemService := service.NewSystemService(db, store, cfg.Store.Backend, map[string]bool{
		"metrics":          true,
		"snapshot_refresh": cfg.Market.RefreshSchedule != "",
		"encryption":       cfg.Store.EncryptionKey != "",
	})

	// Background snapshot refresh
	sched := scheduler.New(log)
	if cfg.Market.RefreshSchedule != "" {
		if err := sched.AddJob(cfg.Market.RefreshSchedule, portfolioService.RefreshJob()); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Market.RefreshSchedule).Msg("invalid refresh schedule")
		}
	}
	sched.Start()

	// Create router
	router := api.NewRouter(api.Services{
		System:    systemService,
		Sessions:  sessionService,
		Portfolio: portfolioService,
		Funds:     fundsService,
		Orders:    orderService,
	}, m, log, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Broker.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("broker", cfg.Broker.BaseURL).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	sched.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// openStore builds the ledger store selected by cfg. db is non-nil only for
// the sqlite backend. Values are fernet-encrypted when a key is configured.
func openStore(cfg *config.Config, log zerolog.Logger) (repository.KeyValueStore, *sql.DB, func(), error) {
	var (
		store   repository.KeyValueStore
		db      *sql.DB
		closeFn func()
	)

	switch cfg.Store.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Store.RedisAddr, err)
		}
		store = repository.NewRedisRepository(client, redisKeyPrefix)
		closeFn = func() { client.Close() }
		log.Info().Str("addr", cfg.Store.RedisAddr).Int("db", cfg.Store.RedisDB).Msg("connected to redis")
	default:
		var err error
		db, err = database.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		store = repository.NewKVRepository(db)
		closeFn = func() { db.Close() }
		log.Info().Str("path", cfg.Database.Path).Msg("connected to database")
	}

	if cfg.Store.EncryptionKey != "" {
		encrypted, err := repository.NewEncryptedRepository(store, cfg.Store.EncryptionKey)
		if err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		store = encrypted
		log.Info().Msg("ledger values are encrypted at rest")
	}

	return store, db, closeFn, nil
}
