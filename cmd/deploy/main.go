package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"staking-ledger/internal/config"
	"staking-ledger/internal/ledger"
	"staking-ledger/internal/storage/migrations"
	pgstore "staking-ledger/internal/storage/postgres"
)

// deploy provisions a staking ledger instance: it applies the schema
// migrations and performs one-time initialization with the configured owner
// wallet, seed funding, and the default lock-period tiers.
func main() {
	configPath := flag.String("config", "config.toml", "Path to TOML config file")
	skipMigrations := flag.Bool("skip-migrations", false, "Skip schema migrations")
	flag.Parse()

	logger := log.New(os.Stdout, "[deploy] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}
	if cfg.Ledger.UseMemory {
		logger.Fatal("Nothing to deploy: ledger.use_memory is set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pool.Close()
	logger.Println("Connected to PostgreSQL")

	if !*skipMigrations {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Println("Migrations applied")
	}

	led, err := ledger.New(ledger.Config{
		Positions: pgstore.NewPositionStore(pool),
		Tiers:     pgstore.NewTierStore(pool),
		State:     pgstore.NewLedgerStateStore(pool),
		Tx:        pgstore.NewTxStore(pool),
	})
	if err != nil {
		logger.Fatalf("Failed to create ledger: %v", err)
	}

	initialized, err := led.Initialized(ctx)
	if err != nil {
		logger.Fatalf("Failed to check ledger state: %v", err)
	}
	if initialized {
		owner, err := led.Owner(ctx)
		if err != nil {
			logger.Fatalf("Failed to read owner: %v", err)
		}
		logger.Printf("Ledger already initialized: owner=%s", owner.Hex())
		return
	}

	seed, err := cfg.SeedWei()
	if err != nil {
		logger.Fatalf("Invalid seed funding: %v", err)
	}
	if err := led.Init(ctx, cfg.OwnerAddress(), seed); err != nil {
		logger.Fatalf("Failed to initialize ledger: %v", err)
	}

	periods, err := led.LockPeriods(ctx)
	if err != nil {
		logger.Fatalf("Failed to read lock periods: %v", err)
	}
	logger.Printf("Ledger initialized: owner=%s seed=%s wei lock_periods=%v",
		cfg.OwnerAddress().Hex(), seed.String(), periods)
}
