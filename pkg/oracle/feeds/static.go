package feeds

import (
	"context"
	"fmt"
	"math/big"

	"tc.com/rate-oracle/pkg/oracle"
)

// StaticFeed reports a fixed price and decimal count. Useful for pinning a
// leg of the computation to a constant rate.
type StaticFeed struct {
	price    *big.Int
	decimals uint8
}

var _ oracle.PriceFeed = (*StaticFeed)(nil)

// NewStaticFeed creates a feed that always reports price with decimals.
func NewStaticFeed(price *big.Int, decimals uint8) (*StaticFeed, error) {
	if price == nil {
		return nil, fmt.Errorf("%w: nil price", oracle.ErrInvalidRead)
	}
	return &StaticFeed{
		price:    new(big.Int).Set(price),
		decimals: decimals,
	}, nil
}

// LatestPrice returns the fixed price.
func (f *StaticFeed) LatestPrice(_ context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.price), nil
}

// Decimals returns the fixed decimal count.
func (f *StaticFeed) Decimals(_ context.Context) (uint8, error) {
	return f.decimals, nil
}

// StaticConverter converts shares to assets at a fixed rational rate:
// assets = shares * rateNum / rateDen, floored.
type StaticConverter struct {
	rateNum *big.Int
	rateDen *big.Int
}

var _ oracle.ShareConverter = (*StaticConverter)(nil)

// NewStaticConverter creates a converter with the fixed rate rateNum/rateDen.
func NewStaticConverter(rateNum, rateDen *big.Int) (*StaticConverter, error) {
	if rateNum == nil || rateDen == nil || rateDen.Sign() == 0 {
		return nil, fmt.Errorf("%w: rate must be a valid rational", oracle.ErrInvalidRead)
	}
	return &StaticConverter{
		rateNum: new(big.Int).Set(rateNum),
		rateDen: new(big.Int).Set(rateDen),
	}, nil
}

// ConvertToAssets applies the fixed rate to shares.
func (c *StaticConverter) ConvertToAssets(_ context.Context, shares *big.Int) (*big.Int, error) {
	assets := new(big.Int).Mul(shares, c.rateNum)
	return assets.Quo(assets, c.rateDen), nil
}
