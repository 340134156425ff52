package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/wamm/internal/state"
	"github.com/elys-network/wamm/internal/types"
)

const (
	OracleModeStatic = "static"
	OracleModeHTTP   = "http"
)

// AppConfig holds all application configuration loaded from environment variables.
type AppConfig struct {
	// PoolDenoms lists the pool assets in index order; index 0 is the impermanent-loss fund unit.
	PoolDenoms []string
	// Pool holds the fee schedule and rebalance cadence for a freshly created pool.
	Pool types.PoolParameters

	// OracleMode selects the price source: "static" or "http".
	OracleMode string
	// StaticPrices maps denom to price (8 decimals) when OracleMode is static.
	StaticPrices map[string]sdkmath.Int
	// OracleHTTPURL is the price endpoint when OracleMode is http.
	OracleHTTPURL string
	// OracleMaxAge bounds how long an HTTP price observation is reused.
	OracleMaxAge time.Duration

	// WebPort is the port of the JSON API.
	WebPort string
	// GRPCPort is the port of the gRPC health service.
	GRPCPort string

	// DB is nil when DB_HOST is unset; the pool then runs without persistence.
	DB *state.DBConfig

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFile, when set, receives a JSON copy of every log line.
	LogFile string
}

// LoadConfig loads configuration from environment variables.
// Only POOL_DENOMS and the price source for the chosen oracle mode are required.
func LoadConfig() (*AppConfig, error) {
	log.Info().Msg("Loading application configuration from environment variables...")

	cfg := &AppConfig{Pool: DefaultPoolParameters}
	var err error

	denoms, err := getEnv("POOL_DENOMS")
	if err != nil {
		return nil, err
	}
	cfg.PoolDenoms = splitList(denoms)
	if len(cfg.PoolDenoms) < 2 {
		return nil, fmt.Errorf("POOL_DENOMS must list at least two denoms, got %d", len(cfg.PoolDenoms))
	}

	if cfg.Pool.Fees.BaseFeeBps, err = getEnvAsUint32Default("BASE_FEE_BPS", cfg.Pool.Fees.BaseFeeBps); err != nil {
		return nil, err
	}
	if cfg.Pool.Fees.DynamicFeeRangeBps, err = getEnvAsUint32Default("DYNAMIC_FEE_RANGE_BPS", cfg.Pool.Fees.DynamicFeeRangeBps); err != nil {
		return nil, err
	}
	if cfg.Pool.RebalanceInterval, err = getEnvAsDurationDefault("REBALANCE_INTERVAL", cfg.Pool.RebalanceInterval); err != nil {
		return nil, err
	}

	if err := loadOracleConfig(cfg); err != nil {
		return nil, err
	}
	if err := loadEndpointConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.DB, err = LoadDBConfig(); err != nil {
		return nil, err
	}

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.LogFile = getEnvOrDefault("LOG_FILE", "")

	log.Debug().
		Strs("PoolDenoms", cfg.PoolDenoms).
		Str("OracleMode", cfg.OracleMode).
		Uint32("BaseFeeBps", cfg.Pool.Fees.BaseFeeBps).
		Uint32("DynamicFeeRangeBps", cfg.Pool.Fees.DynamicFeeRangeBps).
		Dur("RebalanceInterval", cfg.Pool.RebalanceInterval).
		Bool("Persistence", cfg.DB != nil).
		Msg("Configuration loaded successfully.")

	return cfg, nil
}

// LoadDBConfig reads the DB_* variables. It returns nil when DB_HOST is unset.
func LoadDBConfig() (*state.DBConfig, error) {
	host := getEnvOrDefault("DB_HOST", "")
	if host == "" {
		return nil, nil
	}
	port, err := getEnvAsIntDefault("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	return &state.DBConfig{
		Host:     host,
		Port:     port,
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", ""),
		DBName:   getEnvOrDefault("DB_NAME", "wamm"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOrDefault retrieves a string environment variable, falling back to def.
func getEnvOrDefault(key, def string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return def
}

// getEnvAsIntDefault retrieves an environment variable as an int. Returns error if set but invalid.
func getEnvAsIntDefault(key string, def int) (int, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return def, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsUint32Default retrieves an environment variable as a uint32. Returns error if set but invalid.
func getEnvAsUint32Default(key string, def uint32) (uint32, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return def, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 32)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint32, got: " + valueStr)
	}
	return uint32(value), nil
}

// getEnvAsDurationDefault retrieves an environment variable as a time.Duration (e.g. "24h").
func getEnvAsDurationDefault(key string, def time.Duration) (time.Duration, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return def, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid duration, got: " + valueStr)
	}
	return value, nil
}
