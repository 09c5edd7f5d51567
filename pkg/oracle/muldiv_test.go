package oracle

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMulDiv_Exact(t *testing.T) {
	tests := []struct {
		name     string
		a, b, d  string
		expected string
	}{
		{"identity", "1", "1", "1", "1"},
		{"simple", "6", "7", "3", "14"},
		{"floors toward zero", "7", "3", "2", "10"},
		{"zero numerator", "0", "123456789", "7", "0"},
		{"large exact", "1000000000000000000000000000000000000", "2", "4", "500000000000000000000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustBig(t, tt.a)
			b := mustBig(t, tt.b)
			d := mustBig(t, tt.d)

			result, err := mulDiv(a, b, d)
			require.NoError(t, err)
			require.Equal(t, tt.expected, result.String())
		})
	}
}

func TestMulDiv_ZeroDenominator(t *testing.T) {
	_, err := mulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrZeroDenominator))
}

// The product a*b here needs well over 256 bits before the division brings
// the result back into range. A fixed-width two-step multiply-then-divide
// would corrupt this silently.
func TestMulDiv_IntermediateBeyond256Bits(t *testing.T) {
	// a = 10^60, b = 10^60, d = 10^80 -> a*b has ~399 bits.
	a := pow10(60)
	b := pow10(60)
	d := pow10(80)

	result, err := mulDiv(a, b, d)
	require.NoError(t, err)
	require.Equal(t, pow10(40).String(), result.String())
}

func TestMulDiv_DoesNotMutateInputs(t *testing.T) {
	a := big.NewInt(123)
	b := big.NewInt(456)
	d := big.NewInt(7)

	_, err := mulDiv(a, b, d)
	require.NoError(t, err)

	require.Equal(t, "123", a.String())
	require.Equal(t, "456", b.String())
	require.Equal(t, "7", d.String())
}

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("invalid big integer literal %q", s)
	}
	return v
}

func pow10(exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
}
