// Package oracle computes a fixed-point exchange rate between two assets by
// composing up to two chained price feeds per side and an optional
// share-to-asset converter per side.
package oracle

import (
	"context"
	"math/big"
)

// PriceFeed is an external price source. The raw price carries an implied
// number of fractional digits reported by Decimals.
type PriceFeed interface {
	// LatestPrice returns the current raw price. Negative values are
	// rejected by the oracle.
	LatestPrice(ctx context.Context) (*big.Int, error)

	// Decimals returns how many fractional digits the raw price implies.
	Decimals(ctx context.Context) (uint8, error)
}

// ShareConverter is a vault-like collaborator reporting how many underlying
// asset units correspond to a given number of shares.
type ShareConverter interface {
	ConvertToAssets(ctx context.Context, shares *big.Int) (*big.Int, error)
}

// Params holds the construction parameters for an Oracle. Nil converter and
// feed slots are valid and mean "not configured": an absent converter is an
// identity conversion and an absent feed contributes a price of 1 with 0
// decimals.
type Params struct {
	BaseConverter ShareConverter
	BaseSample    *big.Int
	BaseFeed1     PriceFeed
	BaseFeed2     PriceFeed
	BaseDecimals  uint8

	QuoteConverter ShareConverter
	QuoteSample    *big.Int
	QuoteFeed1     PriceFeed
	QuoteFeed2     PriceFeed
	QuoteDecimals  uint8
}

// PriceDecimals returns the implied decimal places of the computed price:
// 36 + quote token decimals - base token decimals.
func (p Params) PriceDecimals() int {
	return pricePrecision + int(p.QuoteDecimals) - int(p.BaseDecimals)
}
