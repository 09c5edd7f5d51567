package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var oneSample = big.NewInt(1)

// Validate checks configuration for errors.
func Validate(cfg *Config) error {
	if err := validateOracleConfig(&cfg.Oracle); err != nil {
		return fmt.Errorf("oracle config: %w", err)
	}

	if cfg.Server.PollInterval.ToDuration() <= 0 {
		return fmt.Errorf("server config: %w", ErrInvalidPollInterval)
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateOracleConfig(cfg *OracleConfig) error {
	if cfg.RPCURL == "" {
		return fmt.Errorf("%w", ErrRPCURLRequired)
	}

	if err := validateSideConfig(&cfg.Base); err != nil {
		return fmt.Errorf("base: %w", err)
	}
	if err := validateSideConfig(&cfg.Quote); err != nil {
		return fmt.Errorf("quote: %w", err)
	}

	return nil
}

func validateSideConfig(cfg *SideConfig) error {
	for _, addr := range []string{cfg.Vault, cfg.Feed1, cfg.Feed2} {
		if addr != "" && !common.IsHexAddress(addr) {
			return fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
		}
	}

	sample, err := cfg.Sample()
	if err != nil {
		return err
	}

	// Mirrors the construction invariant so misconfiguration is caught
	// before any RPC connection is attempted.
	if !cfg.HasVault() && sample.Cmp(oneSample) != 0 {
		return fmt.Errorf("%w", ErrSampleWithoutVault)
	}

	return nil
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, l := range validLevels {
		if strings.ToLower(cfg.Level) == l {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLogLevel, cfg.Level, strings.Join(validLevels, ", "))
	}

	format := strings.ToLower(cfg.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("%w: %s (must be 'json' or 'text')", ErrInvalidLogFormat, cfg.Format)
	}

	return nil
}
