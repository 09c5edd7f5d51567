// Package oracle computes a fixed-point exchange rate between two assets.
package oracle

import "errors"

var (
	// ErrInvalidSample indicates that a conversion sample is missing, zero or negative.
	ErrInvalidSample = errors.New("conversion sample must be a positive integer")
	// ErrSampleWithoutConverter indicates a sample other than 1 with no converter configured.
	ErrSampleWithoutConverter = errors.New("conversion sample must be 1 when no converter is configured")
	// ErrNegativeScaleExponent indicates that the derived scale exponent is below zero.
	ErrNegativeScaleExponent = errors.New("scale factor exponent is negative")
	// ErrNegativePrice indicates that a feed reported a negative price.
	ErrNegativePrice = errors.New("feed reported a negative price")
	// ErrInvalidRead indicates that a collaborator returned an unusable value.
	ErrInvalidRead = errors.New("collaborator returned an invalid value")
	// ErrZeroDenominator indicates that the quote side evaluated to zero.
	ErrZeroDenominator = errors.New("quote denominator is zero")
)
