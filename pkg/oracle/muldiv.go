package oracle

import (
	"fmt"
	"math/big"
)

// mulDiv returns floor(a * b / d) as a fused full-precision operation. The
// product is formed at arbitrary precision before the division, so the
// result is exact even where a*b exceeds any fixed-width intermediate.
// Inputs are not mutated.
func mulDiv(a, b, d *big.Int) (*big.Int, error) {
	if d.Sign() == 0 {
		return nil, fmt.Errorf("%w", ErrZeroDenominator)
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, d), nil
}
