// Package config defines the top-level configuration for the staking ledger
// services and provides validation helpers.
package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by STAKELEDGER_* environment
// variables.
type Config struct {
	Ledger   LedgerConfig   `toml:"ledger"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
	LogLevel string         `toml:"log_level"`
}

// LedgerConfig holds the deployment parameters of the ledger instance.
type LedgerConfig struct {
	// Owner is the hex address of the administrative wallet. Set once at
	// initialization, immutable afterward.
	Owner string `toml:"owner"`

	// SeedWei is the initial pooled funding in wei (decimal string). It
	// backs interest payouts and is not attributed to any position.
	SeedWei string `toml:"seed_wei"`

	// UseMemory runs against in-memory stores instead of PostgreSQL. State
	// does not survive a restart; intended for local development.
	UseMemory bool `toml:"use_memory"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the event bus. A missing
// Addr disables the event feed entirely.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
}

// ServerConfig holds the HTTP server parameters.
type ServerConfig struct {
	Port int `toml:"port"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Ledger: LedgerConfig{
			SeedWei: "0",
		},
		Postgres: PostgresConfig{
			RunMigrations: true,
		},
		Redis: RedisConfig{
			PoolSize: 10,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	var problems []string

	if c.Ledger.Owner == "" {
		problems = append(problems, "ledger.owner is required")
	} else if !common.IsHexAddress(c.Ledger.Owner) {
		problems = append(problems, fmt.Sprintf("ledger.owner %q is not a hex address", c.Ledger.Owner))
	}

	if _, err := c.SeedWei(); err != nil {
		problems = append(problems, err.Error())
	}

	if !c.Ledger.UseMemory && c.Postgres.DSN == "" {
		problems = append(problems, "postgres.dsn is required unless ledger.use_memory is set")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// OwnerAddress returns the parsed owner address.
func (c *Config) OwnerAddress() common.Address {
	return common.HexToAddress(c.Ledger.Owner)
}

// SeedWei parses the configured seed funding.
func (c *Config) SeedWei() (*big.Int, error) {
	s := strings.TrimSpace(c.Ledger.SeedWei)
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("ledger.seed_wei %q is not a non-negative decimal", c.Ledger.SeedWei)
	}
	return v, nil
}
