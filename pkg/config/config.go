// Package config provides configuration loading and validation for rate-oracle.
package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file, expanding environment
// variables before parsing.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath) // #nosec G304 -- Path sanitized with filepath.Clean and filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTP.Addr == "" {
		cfg.Server.HTTP.Addr = ":8080"
	}
	if cfg.Server.CacheTTL.ToDuration() == 0 {
		cfg.Server.CacheTTL = Duration(5 * 1e9) // 5 seconds
	}
	if cfg.Server.PollInterval.ToDuration() == 0 {
		cfg.Server.PollInterval = Duration(15 * 1e9) // 15 seconds
	}
	if cfg.Server.WebSocket.Enabled && cfg.Server.WebSocket.Addr == "" {
		cfg.Server.WebSocket.Addr = ":8081"
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Oracle.Base.VaultSample == "" {
		cfg.Oracle.Base.VaultSample = "1"
	}
	if cfg.Oracle.Quote.VaultSample == "" {
		cfg.Oracle.Quote.VaultSample = "1"
	}
	if cfg.Oracle.Pair == "" {
		cfg.Oracle.Pair = "BASE/QUOTE"
	}
}

// Sample parses the side's vault sample as a big integer.
func (sc *SideConfig) Sample() (*big.Int, error) {
	sample, ok := new(big.Int).SetString(sc.VaultSample, 10)
	if !ok || sample.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSample, sc.VaultSample)
	}
	return sample, nil
}

// HasVault reports whether a vault address is configured.
func (sc *SideConfig) HasVault() bool {
	return sc.Vault != ""
}
