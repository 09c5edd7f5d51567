// Package config provides configuration loading and validation for rate-oracle.
package config

import "errors"

var (
	// ErrRPCURLRequired indicates that oracle.rpc_url must be specified.
	ErrRPCURLRequired = errors.New("oracle.rpc_url must be specified")
	// ErrInvalidAddress indicates that a configured contract address is not valid hex.
	ErrInvalidAddress = errors.New("invalid contract address")
	// ErrInvalidSample indicates that a vault sample is not a positive integer.
	ErrInvalidSample = errors.New("vault_sample must be a positive integer")
	// ErrSampleWithoutVault indicates a vault_sample other than 1 with no vault configured.
	ErrSampleWithoutVault = errors.New("vault_sample must be 1 when no vault is configured")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidPollInterval indicates that the poll interval is not positive.
	ErrInvalidPollInterval = errors.New("poll_interval must be positive")
)
