package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

var errReadFailed = errors.New("read failed")

// fakeFeed reports a fixed price and decimal count, or a configured error.
type fakeFeed struct {
	price       *big.Int
	decimals    uint8
	priceErr    error
	decimalsErr error
}

func (f *fakeFeed) LatestPrice(_ context.Context) (*big.Int, error) {
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	return new(big.Int).Set(f.price), nil
}

func (f *fakeFeed) Decimals(_ context.Context) (uint8, error) {
	if f.decimalsErr != nil {
		return 0, f.decimalsErr
	}
	return f.decimals, nil
}

// fakeConverter applies a fixed linear rate assets = shares * rateNum / rateDen.
type fakeConverter struct {
	rateNum   *big.Int
	rateDen   *big.Int
	err       error
	calls     int
	lastShare *big.Int
}

func (c *fakeConverter) ConvertToAssets(_ context.Context, shares *big.Int) (*big.Int, error) {
	c.calls++
	c.lastShare = new(big.Int).Set(shares)
	if c.err != nil {
		return nil, c.err
	}
	assets := new(big.Int).Mul(shares, c.rateNum)
	return assets.Quo(assets, c.rateDen), nil
}

func one() *big.Int { return big.NewInt(1) }

func feed(price int64, decimals uint8) *fakeFeed {
	return &fakeFeed{price: big.NewInt(price), decimals: decimals}
}

func TestNew_RejectsInvalidSamples(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		expected error
	}{
		{
			name:     "nil base sample",
			params:   Params{QuoteSample: one()},
			expected: ErrInvalidSample,
		},
		{
			name:     "zero quote sample",
			params:   Params{BaseSample: one(), QuoteSample: big.NewInt(0)},
			expected: ErrInvalidSample,
		},
		{
			name:     "negative base sample",
			params:   Params{BaseSample: big.NewInt(-5), QuoteSample: one()},
			expected: ErrInvalidSample,
		},
		{
			name:     "base sample without converter",
			params:   Params{BaseSample: big.NewInt(2), QuoteSample: one()},
			expected: ErrSampleWithoutConverter,
		},
		{
			name: "quote sample without converter",
			params: Params{
				BaseSample:  one(),
				QuoteSample: big.NewInt(1000000),
			},
			expected: ErrSampleWithoutConverter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Rejection must be deterministic: same error every time,
			// no instance created.
			for i := 0; i < 2; i++ {
				o, err := New(context.Background(), tt.params, nil)
				require.Error(t, err)
				require.True(t, errors.Is(err, tt.expected), "got %v", err)
				require.Nil(t, o)
			}
		})
	}
}

func TestNew_RejectsNegativeScaleExponent(t *testing.T) {
	params := Params{
		BaseSample:   one(),
		QuoteSample:  one(),
		BaseFeed1:    feed(1, 30),
		BaseFeed2:    feed(1, 30),
		BaseDecimals: 18,
	}

	o, err := New(context.Background(), params, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNegativeScaleExponent))
	require.Nil(t, o)
}

func TestNew_PropagatesDecimalsReadError(t *testing.T) {
	params := Params{
		BaseSample:  one(),
		QuoteSample: one(),
		QuoteFeed1:  &fakeFeed{decimalsErr: errReadFailed},
	}

	_, err := New(context.Background(), params, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errReadFailed))
}

// Worked example: base token 18 decimals, no base feeds, no vaults; quote
// token 6 decimals with one feed reporting 2_000_000 at 6 decimals. The
// price is 10^(36+6+6-18) / 2_000_000 = 5 * 10^23.
func TestPrice_EndToEndExample(t *testing.T) {
	params := Params{
		BaseSample:    one(),
		QuoteSample:   one(),
		BaseDecimals:  18,
		QuoteFeed1:    feed(2_000_000, 6),
		QuoteDecimals: 6,
	}

	o, err := New(context.Background(), params, nil)
	require.NoError(t, err)
	require.Equal(t, pow10(30).String(), o.ScaleFactor().String())
	require.Equal(t, 24, o.PriceDecimals())

	price, err := o.Price(context.Background())
	require.NoError(t, err)
	require.Equal(t, "500000000000000000000000", price.String())
}

func TestPrice_ClosedFormAllFeeds(t *testing.T) {
	params := Params{
		BaseSample:    one(),
		QuoteSample:   one(),
		BaseFeed1:     feed(3, 8),
		BaseFeed2:     feed(7, 8),
		BaseDecimals:  18,
		QuoteFeed1:    feed(11, 8),
		QuoteFeed2:    feed(13, 8),
		QuoteDecimals: 6,
	}

	o, err := New(context.Background(), params, nil)
	require.NoError(t, err)

	price, err := o.Price(context.Background())
	require.NoError(t, err)

	// 10^(36+6+16-18-16) * (3*7) / (11*13), floor-divided.
	expected := new(big.Int).Mul(pow10(24), big.NewInt(21))
	expected.Quo(expected, big.NewInt(143))
	require.Equal(t, expected.String(), price.String())
}

// An absent feed must behave exactly like a present feed reporting price 1
// with 0 decimals.
func TestPrice_AbsentFeedSubstitution(t *testing.T) {
	absent := Params{
		BaseSample:    one(),
		QuoteSample:   one(),
		BaseFeed1:     feed(123_456, 5),
		BaseDecimals:  18,
		QuoteFeed1:    feed(42, 2),
		QuoteDecimals: 6,
	}
	present := absent
	present.BaseFeed2 = feed(1, 0)

	oAbsent, err := New(context.Background(), absent, nil)
	require.NoError(t, err)
	oPresent, err := New(context.Background(), present, nil)
	require.NoError(t, err)

	pAbsent, err := oAbsent.Price(context.Background())
	require.NoError(t, err)
	pPresent, err := oPresent.Price(context.Background())
	require.NoError(t, err)

	require.Equal(t, pAbsent.String(), pPresent.String())
}

// With a linear converter, changing the sample must not change the result.
func TestPrice_SampleInvariance(t *testing.T) {
	rate := func() *fakeConverter {
		return &fakeConverter{rateNum: big.NewInt(3), rateDen: big.NewInt(1)}
	}

	small := Params{
		BaseConverter: rate(),
		BaseSample:    one(),
		QuoteSample:   one(),
		BaseDecimals:  18,
		QuoteDecimals: 18,
	}
	large := small
	large.BaseConverter = rate()
	large.BaseSample = big.NewInt(1_000_000)

	oSmall, err := New(context.Background(), small, nil)
	require.NoError(t, err)
	oLarge, err := New(context.Background(), large, nil)
	require.NoError(t, err)

	pSmall, err := oSmall.Price(context.Background())
	require.NoError(t, err)
	pLarge, err := oLarge.Price(context.Background())
	require.NoError(t, err)

	require.Equal(t, pSmall.String(), pLarge.String())
}

// A configured converter is queried once per price call with the configured
// sample; an absent one behaves as the identity conversion.
func TestPrice_ConverterPassThrough(t *testing.T) {
	converter := &fakeConverter{rateNum: one(), rateDen: one()}
	sample := big.NewInt(1000)

	withConverter := Params{
		BaseConverter: converter,
		BaseSample:    sample,
		QuoteSample:   one(),
		BaseDecimals:  18,
		QuoteDecimals: 18,
	}
	oWith, err := New(context.Background(), withConverter, nil)
	require.NoError(t, err)

	without := Params{
		BaseSample:    one(),
		QuoteSample:   one(),
		BaseDecimals:  18,
		QuoteDecimals: 18,
	}
	oWithout, err := New(context.Background(), without, nil)
	require.NoError(t, err)

	pWith, err := oWith.Price(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, converter.calls)
	require.Equal(t, sample.String(), converter.lastShare.String())

	pWithout, err := oWithout.Price(context.Background())
	require.NoError(t, err)

	// Identity conversion at rate 1 cancels against the sample in the
	// scale factor.
	require.Equal(t, pWithout.String(), pWith.String())
}

func TestPrice_ZeroDenominatorFailsDistinctly(t *testing.T) {
	params := Params{
		BaseSample:    one(),
		QuoteSample:   one(),
		BaseDecimals:  18,
		QuoteFeed1:    feed(0, 6),
		QuoteDecimals: 18,
	}

	o, err := New(context.Background(), params, nil)
	require.NoError(t, err)

	price, err := o.Price(context.Background())
	require.Nil(t, price)
	require.True(t, errors.Is(err, ErrZeroDenominator), "got %v", err)
}

func TestPrice_NegativeFeedPriceFails(t *testing.T) {
	params := Params{
		BaseSample:   one(),
		QuoteSample:  one(),
		BaseFeed1:    &fakeFeed{price: big.NewInt(-1), decimals: 8},
		BaseDecimals: 18,
	}

	o, err := New(context.Background(), params, nil)
	require.NoError(t, err)

	_, err = o.Price(context.Background())
	require.True(t, errors.Is(err, ErrNegativePrice), "got %v", err)
}

func TestPrice_ReadErrorsPropagate(t *testing.T) {
	t.Run("feed error", func(t *testing.T) {
		workingDecimals := &fakeFeed{price: one(), decimals: 8}
		params := Params{
			BaseSample:   one(),
			QuoteSample:  one(),
			BaseFeed1:    workingDecimals,
			BaseDecimals: 18,
		}
		o, err := New(context.Background(), params, nil)
		require.NoError(t, err)

		workingDecimals.priceErr = errReadFailed
		_, err = o.Price(context.Background())
		require.True(t, errors.Is(err, errReadFailed))
	})

	t.Run("converter error", func(t *testing.T) {
		params := Params{
			QuoteConverter: &fakeConverter{err: errReadFailed},
			BaseSample:     one(),
			QuoteSample:    big.NewInt(100),
			BaseDecimals:   18,
			QuoteDecimals:  18,
		}
		o, err := New(context.Background(), params, nil)
		require.NoError(t, err)

		_, err = o.Price(context.Background())
		require.True(t, errors.Is(err, errReadFailed))
	})
}

// The intermediate scale_factor * numerator here is far beyond 256 bits
// while the true result fits comfortably; the fused multiply-divide must
// still return the exact floored value.
func TestPrice_FullPrecisionInvariant(t *testing.T) {
	big40 := pow10(40)
	big38 := pow10(38)

	params := Params{
		BaseSample:    one(),
		QuoteSample:   one(),
		BaseFeed1:     &fakeFeed{price: big40, decimals: 0},
		BaseFeed2:     &fakeFeed{price: big40, decimals: 0},
		BaseDecimals:  18,
		QuoteFeed1:    &fakeFeed{price: big38, decimals: 0},
		QuoteDecimals: 18,
	}

	o, err := New(context.Background(), params, nil)
	require.NoError(t, err)

	price, err := o.Price(context.Background())
	require.NoError(t, err)

	// 10^36 * 10^80 / 10^38 = 10^78, which alone exceeds 2^256.
	require.Equal(t, pow10(78).String(), price.String())
}

func TestNew_ScaleFactorSampleRatio(t *testing.T) {
	params := Params{
		BaseConverter:  &fakeConverter{rateNum: one(), rateDen: one()},
		BaseSample:     big.NewInt(2),
		QuoteConverter: &fakeConverter{rateNum: one(), rateDen: one()},
		QuoteSample:    big.NewInt(6),
		BaseDecimals:   18,
		QuoteDecimals:  18,
	}

	o, err := New(context.Background(), params, nil)
	require.NoError(t, err)

	expected := new(big.Int).Mul(pow10(36), big.NewInt(3))
	require.Equal(t, expected.String(), o.ScaleFactor().String())
}
