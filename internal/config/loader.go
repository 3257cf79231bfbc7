package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies STAKELEDGER_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load. An empty path skips
// the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STAKELEDGER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Ledger.Owner, "STAKELEDGER_OWNER")
	setStr(&cfg.Ledger.SeedWei, "STAKELEDGER_SEED_WEI")
	setBool(&cfg.Ledger.UseMemory, "STAKELEDGER_USE_MEMORY")

	setStr(&cfg.Postgres.DSN, "STAKELEDGER_POSTGRES_DSN")
	setBool(&cfg.Postgres.RunMigrations, "STAKELEDGER_POSTGRES_RUN_MIGRATIONS")

	setStr(&cfg.Redis.Addr, "STAKELEDGER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STAKELEDGER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STAKELEDGER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "STAKELEDGER_REDIS_POOL_SIZE")

	setInt(&cfg.Server.Port, "STAKELEDGER_SERVER_PORT")
	setStr(&cfg.LogLevel, "STAKELEDGER_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
