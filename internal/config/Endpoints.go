package config

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"
)

// loadEndpointConfig loads the listening ports.
func loadEndpointConfig(cfg *AppConfig) error {
	cfg.WebPort = getEnvOrDefault("WEB_PORT", "8080")
	cfg.GRPCPort = getEnvOrDefault("GRPC_PORT", "9090")

	log.Debug().
		Str("WebPort", cfg.WebPort).
		Str("GRPCPort", cfg.GRPCPort).
		Msg("Endpoint configuration loaded successfully.")
	return nil
}

// loadOracleConfig loads the price source for the configured oracle mode.
func loadOracleConfig(cfg *AppConfig) error {
	var err error
	cfg.OracleMode = strings.ToLower(getEnvOrDefault("ORACLE_MODE", OracleModeStatic))
	if cfg.OracleMaxAge, err = getEnvAsDurationDefault("ORACLE_MAX_AGE", DefaultOracleMaxAge); err != nil {
		return err
	}

	switch cfg.OracleMode {
	case OracleModeStatic:
		raw, err := getEnv("ORACLE_STATIC_PRICES")
		if err != nil {
			return err
		}
		if cfg.StaticPrices, err = ParseStaticPrices(raw); err != nil {
			return err
		}
		for _, denom := range cfg.PoolDenoms {
			if _, ok := cfg.StaticPrices[denom]; !ok {
				return fmt.Errorf("ORACLE_STATIC_PRICES has no price for %s", denom)
			}
		}
	case OracleModeHTTP:
		if cfg.OracleHTTPURL, err = getEnv("ORACLE_HTTP_URL"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("ORACLE_MODE must be %q or %q, got %q", OracleModeStatic, OracleModeHTTP, cfg.OracleMode)
	}
	return nil
}

// ParseStaticPrices parses "denom=price,denom=price" where price is an integer with 8 implied decimals.
func ParseStaticPrices(raw string) (map[string]sdkmath.Int, error) {
	prices := make(map[string]sdkmath.Int)
	for _, entry := range splitList(raw) {
		denom, value, found := strings.Cut(entry, "=")
		denom = strings.TrimSpace(denom)
		if !found || denom == "" {
			return nil, fmt.Errorf("malformed price entry %q, expected denom=price", entry)
		}
		price, ok := sdkmath.NewIntFromString(strings.TrimSpace(value))
		if !ok || !price.IsPositive() {
			return nil, fmt.Errorf("price for %s must be a positive integer, got %q", denom, value)
		}
		prices[denom] = price
	}
	return prices, nil
}
