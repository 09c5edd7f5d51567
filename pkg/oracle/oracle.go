package oracle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"tc.com/rate-oracle/pkg/logging"
	"tc.com/rate-oracle/pkg/metrics"
)

// pricePrecision is the wide fixed-point margin of the computed price. The
// result is expressed in pricePrecision + quote decimals - base decimals
// implied decimal places.
const pricePrecision = 36

var ten = big.NewInt(10)

// Oracle holds an immutable configuration assembled once by New and is safe
// for unlimited concurrent use. Each Price call is an independent stateless
// read.
type Oracle struct {
	baseConverter  ShareConverter
	quoteConverter ShareConverter
	baseSample     *big.Int
	quoteSample    *big.Int
	baseFeed1      PriceFeed
	baseFeed2      PriceFeed
	quoteFeed1     PriceFeed
	quoteFeed2     PriceFeed

	scaleFactor   *big.Int
	priceDecimals int

	logger *logging.Logger
}

// New validates params, reads the decimals of every configured feed once and
// derives the scale factor. All validation failures happen here; a
// constructed Oracle can no longer be misconfigured.
func New(ctx context.Context, params Params, logger *logging.Logger) (*Oracle, error) {
	if logger == nil {
		logger = logging.NewNoop()
	}

	if err := validateSide(params.BaseConverter, params.BaseSample); err != nil {
		return nil, fmt.Errorf("base side: %w", err)
	}
	if err := validateSide(params.QuoteConverter, params.QuoteSample); err != nil {
		return nil, fmt.Errorf("quote side: %w", err)
	}

	baseFeedDecimals, err := chainDecimals(ctx, params.BaseFeed1, params.BaseFeed2)
	if err != nil {
		return nil, fmt.Errorf("base feed decimals: %w", err)
	}
	quoteFeedDecimals, err := chainDecimals(ctx, params.QuoteFeed1, params.QuoteFeed2)
	if err != nil {
		return nil, fmt.Errorf("quote feed decimals: %w", err)
	}

	exponent := pricePrecision +
		int(params.QuoteDecimals) + quoteFeedDecimals -
		int(params.BaseDecimals) - baseFeedDecimals
	if exponent < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeScaleExponent, exponent)
	}

	// scaleFactor = 10^exponent * quoteSample / baseSample, floored once
	// here and never recomputed.
	scaleFactor := new(big.Int).Exp(ten, big.NewInt(int64(exponent)), nil)
	scaleFactor.Mul(scaleFactor, params.QuoteSample)
	scaleFactor.Quo(scaleFactor, params.BaseSample)

	metrics.ScaleFactorDigits.Set(float64(len(scaleFactor.Text(10))))
	logger.Info("Assembled oracle configuration",
		"scale_exponent", exponent,
		"price_decimals", params.PriceDecimals())

	return &Oracle{
		baseConverter:  params.BaseConverter,
		quoteConverter: params.QuoteConverter,
		baseSample:     new(big.Int).Set(params.BaseSample),
		quoteSample:    new(big.Int).Set(params.QuoteSample),
		baseFeed1:      params.BaseFeed1,
		baseFeed2:      params.BaseFeed2,
		quoteFeed1:     params.QuoteFeed1,
		quoteFeed2:     params.QuoteFeed2,
		scaleFactor:    scaleFactor,
		priceDecimals:  params.PriceDecimals(),
		logger:         logger,
	}, nil
}

// validateSide enforces the sample invariants for one side.
func validateSide(converter ShareConverter, sample *big.Int) error {
	if sample == nil || sample.Sign() <= 0 {
		return fmt.Errorf("%w", ErrInvalidSample)
	}
	if converter == nil && sample.Cmp(big.NewInt(1)) != 0 {
		return fmt.Errorf("%w", ErrSampleWithoutConverter)
	}
	return nil
}

// chainDecimals sums the declared decimals of up to two feeds. Absent feeds
// contribute 0.
func chainDecimals(ctx context.Context, feeds ...PriceFeed) (int, error) {
	total := 0
	for i, feed := range feeds {
		if feed == nil {
			continue
		}
		decimals, err := feed.Decimals(ctx)
		if err != nil {
			return 0, fmt.Errorf("feed %d: %w", i+1, err)
		}
		total += int(decimals)
	}
	return total, nil
}

// ScaleFactor returns a copy of the derived scale factor.
func (o *Oracle) ScaleFactor() *big.Int {
	return new(big.Int).Set(o.scaleFactor)
}

// PriceDecimals returns the implied decimal places of the computed price.
func (o *Oracle) PriceDecimals() int {
	return o.priceDecimals
}

// Price computes the current price of one base-asset unit in quote-asset
// terms, scaled to PriceDecimals implied decimal places. Any failing
// external read fails the query; there is no fallback or partial result.
func (o *Oracle) Price(ctx context.Context) (*big.Int, error) {
	start := time.Now()

	price, err := o.compute(ctx)
	if err != nil {
		metrics.RecordPriceQuery("error", time.Since(start))
		return nil, err
	}

	metrics.RecordPriceQuery("ok", time.Since(start))
	o.logger.Debug("Computed price", "price", price.String())
	return price, nil
}

func (o *Oracle) compute(ctx context.Context) (*big.Int, error) {
	numerator, err := o.sideProduct(ctx, "base", o.baseConverter, o.baseSample, o.baseFeed1, o.baseFeed2)
	if err != nil {
		return nil, err
	}

	denominator, err := o.sideProduct(ctx, "quote", o.quoteConverter, o.quoteSample, o.quoteFeed1, o.quoteFeed2)
	if err != nil {
		return nil, err
	}
	if denominator.Sign() == 0 {
		return nil, fmt.Errorf("%w", ErrZeroDenominator)
	}

	return mulDiv(o.scaleFactor, numerator, denominator)
}

// sideProduct evaluates converted assets times the chained feed prices for
// one side. An absent converter passes the sample through unchanged and an
// absent feed multiplies by 1.
func (o *Oracle) sideProduct(ctx context.Context, side string, converter ShareConverter, sample *big.Int, feeds ...PriceFeed) (*big.Int, error) {
	value := new(big.Int).Set(sample)

	if converter != nil {
		assets, err := converter.ConvertToAssets(ctx, sample)
		if err != nil {
			metrics.RecordCollaboratorError(side + "_converter")
			return nil, fmt.Errorf("%s converter: %w", side, err)
		}
		if assets == nil || assets.Sign() < 0 {
			return nil, fmt.Errorf("%s converter: %w", side, ErrInvalidRead)
		}
		value.Set(assets)
	}

	for i, feed := range feeds {
		if feed == nil {
			continue
		}
		price, err := feed.LatestPrice(ctx)
		if err != nil {
			metrics.RecordCollaboratorError(fmt.Sprintf("%s_feed_%d", side, i+1))
			return nil, fmt.Errorf("%s feed %d: %w", side, i+1, err)
		}
		if price == nil {
			return nil, fmt.Errorf("%s feed %d: %w", side, i+1, ErrInvalidRead)
		}
		if price.Sign() < 0 {
			return nil, fmt.Errorf("%s feed %d: %w", side, i+1, ErrNegativePrice)
		}
		value.Mul(value, price)
	}

	return value, nil
}
