package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"staking-ledger/internal/config"
	busredis "staking-ledger/internal/eventbus/redis"
	"staking-ledger/internal/ledger"
	"staking-ledger/internal/server"
	"staking-ledger/internal/server/handler"
	"staking-ledger/internal/server/ws"
	"staking-ledger/internal/storage"
	"staking-ledger/internal/storage/memory"
	"staking-ledger/internal/storage/migrations"
	pgstore "staking-ledger/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.toml", "Path to TOML config file")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	slogger := newSlogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Storage
	var (
		positions storage.PositionStore
		tiers     storage.TierStore
		state     storage.LedgerStateStore
		txStore   storage.TxStore
	)
	if cfg.Ledger.UseMemory {
		logger.Println("Using in-memory storage (state will not survive restart)")
		memPositions := memory.NewPositionStore()
		memState := memory.NewLedgerStateStore()
		positions = memPositions
		tiers = memory.NewTierStore()
		state = memState
		txStore = memory.NewTxStore(memPositions, memState)
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer pool.Close()
		logger.Println("Connected to PostgreSQL")

		if cfg.Postgres.RunMigrations {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatalf("Failed to run migrations: %v", err)
			}
			logger.Println("Migrations applied")
		}

		positions = pgstore.NewPositionStore(pool)
		tiers = pgstore.NewTierStore(pool)
		state = pgstore.NewLedgerStateStore(pool)
		txStore = pgstore.NewTxStore(pool)
	}

	// Optional Redis event bus and WebSocket hub
	var (
		sink *busredis.Sink
		hub  *ws.Hub
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := busredis.New(ctx, busredis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		logger.Println("Connected to Redis")

		bus := busredis.NewEventBus(redisClient)
		sink = busredis.NewSink(bus)
		hub = ws.NewHub(bus, slogger)
		go func() {
			if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("WebSocket hub stopped: %v", err)
			}
		}()
	}

	ledgerCfg := ledger.Config{
		Positions: positions,
		Tiers:     tiers,
		State:     state,
		Tx:        txStore,
	}
	if sink != nil {
		ledgerCfg.Events = sink
	}
	led, err := ledger.New(ledgerCfg)
	if err != nil {
		logger.Fatalf("Failed to create ledger: %v", err)
	}

	// Initialize the ledger on first run. Re-running against an already
	// initialized store is a no-op.
	initialized, err := led.Initialized(ctx)
	if err != nil {
		logger.Fatalf("Failed to check ledger state: %v", err)
	}
	if !initialized {
		seed, err := cfg.SeedWei()
		if err != nil {
			logger.Fatalf("Invalid seed funding: %v", err)
		}
		if err := led.Init(ctx, cfg.OwnerAddress(), seed); err != nil {
			logger.Fatalf("Failed to initialize ledger: %v", err)
		}
		logger.Printf("Ledger initialized: owner=%s seed=%s wei", cfg.OwnerAddress().Hex(), seed.String())
	}

	srv := server.NewServer(
		server.Config{Port: cfg.Server.Port},
		server.Handlers{
			Health: handler.NewHealthHandler(slogger),
			Ledger: handler.NewLedgerHandler(led, slogger),
		},
		hub,
		slogger,
	)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatalf("Server error: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}

	logger.Println("Server stopped")
}

func newSlogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
