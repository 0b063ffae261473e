// Package config reads process configuration from flags, with environment
// variables (optionally loaded from a .env file) as defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"index-dashboard/internal/contracts"
)

// ErrInvalidConfig is returned for missing or malformed settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings shared by the server and the CLI.
type Config struct {
	RPCEndpoint string
	RPCTimeout  time.Duration
	MaxRetries  int

	Network contracts.Network

	// Empty DSNs fall back to in-memory stores.
	PostgresDSN   string
	ClickhouseDSN string

	HTTPAddr string
	LogLevel string

	PollInterval time.Duration
	WaitTimeout  time.Duration
	CacheTTL     time.Duration
}

// LoadEnvFile loads path into the environment if it exists.
// Variables that are already set win over the file.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Parse registers the shared flags on fs, parses args and validates the result.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	fs.StringVar(&cfg.RPCEndpoint, "rpc-endpoint", os.Getenv("ETH_RPC_ENDPOINT"), "Ethereum JSON-RPC HTTP endpoint")
	fs.DurationVar(&cfg.RPCTimeout, "rpc-timeout", envDuration("ETH_RPC_TIMEOUT", 30*time.Second), "Timeout of one RPC request")
	fs.IntVar(&cfg.MaxRetries, "rpc-max-retries", envInt("ETH_RPC_MAX_RETRIES", 3), "Retries of a failed RPC request")

	network := fs.String("network", envOr("NETWORK", contracts.Mainnet.Name), "Network name ("+strings.Join(contracts.NetworkNames(), ", ")+")")
	issuance := fs.String("issuance-module", os.Getenv("ISSUANCE_MODULE"), "Override issuance module address")
	setToken := fs.String("set-token", os.Getenv("SET_TOKEN"), "Override index token address")
	explorer := fs.String("explorer-url", os.Getenv("EXPLORER_URL"), "Override block explorer base URL")

	fs.StringVar(&cfg.PostgresDSN, "postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (empty: in-memory)")
	fs.StringVar(&cfg.ClickhouseDSN, "clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty: in-memory)")

	fs.StringVar(&cfg.HTTPAddr, "http-addr", envOr("HTTP_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	fs.DurationVar(&cfg.PollInterval, "poll-interval", envDuration("POLL_INTERVAL", 2*time.Second), "Receipt poll interval (minimum 2s)")
	fs.DurationVar(&cfg.WaitTimeout, "wait-timeout", envDuration("WAIT_TIMEOUT", 0), "Give up waiting for a receipt after this long (0: no limit)")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", envDuration("CACHE_TTL", 15*time.Second), "How long balance reads are cached")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	n, err := contracts.LookupNetwork(*network)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if *issuance != "" {
		if !common.IsHexAddress(*issuance) {
			return nil, fmt.Errorf("%w: issuance module %q is not an address", ErrInvalidConfig, *issuance)
		}
		n.IssuanceModule = common.HexToAddress(*issuance)
	}
	if *setToken != "" {
		if !common.IsHexAddress(*setToken) {
			return nil, fmt.Errorf("%w: set token %q is not an address", ErrInvalidConfig, *setToken)
		}
		n.SetToken = common.HexToAddress(*setToken)
	}
	if *explorer != "" {
		n.ExplorerURL = strings.TrimRight(*explorer, "/")
	}
	cfg.Network = n

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and formats.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("%w: --rpc-endpoint (ETH_RPC_ENDPOINT) is required", ErrInvalidConfig)
	}
	if err := checkURL(c.RPCEndpoint, "http", "https"); err != nil {
		return fmt.Errorf("%w: rpc endpoint: %v", ErrInvalidConfig, err)
	}
	if err := checkURL(c.Network.ExplorerURL, "http", "https"); err != nil {
		return fmt.Errorf("%w: explorer url: %v", ErrInvalidConfig, err)
	}
	if c.PostgresDSN != "" {
		if err := checkURL(c.PostgresDSN, "postgres", "postgresql"); err != nil {
			return fmt.Errorf("%w: postgres dsn: %v", ErrInvalidConfig, err)
		}
	}
	if c.ClickhouseDSN != "" {
		if err := checkURL(c.ClickhouseDSN, "clickhouse", "tcp"); err != nil {
			return fmt.Errorf("%w: clickhouse dsn: %v", ErrInvalidConfig, err)
		}
	}
	if c.RPCTimeout <= 0 {
		return fmt.Errorf("%w: rpc timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: rpc max retries must not be negative", ErrInvalidConfig)
	}
	if c.WaitTimeout < 0 {
		return fmt.Errorf("%w: wait timeout must not be negative", ErrInvalidConfig)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache ttl must not be negative", ErrInvalidConfig)
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("want %s://host, got %q", strings.Join(schemes, "|"), raw)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}
