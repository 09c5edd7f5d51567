// Package feeds provides on-chain implementations of the oracle's price
// feed and share converter contracts.
package feeds

import "errors"

var (
	// ErrAddressRequired indicates that a contract address is missing.
	ErrAddressRequired = errors.New("contract address is required")
	// ErrInvalidAddress indicates that a contract address is not valid hex.
	ErrInvalidAddress = errors.New("invalid contract address")
	// ErrCallerRequired indicates that no contract caller was supplied.
	ErrCallerRequired = errors.New("contract caller is required")
	// ErrEmptyResult indicates that a contract call returned no data.
	ErrEmptyResult = errors.New("contract call returned no data")
)
