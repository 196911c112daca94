package entity

import "math/big"

// mulDiv returns floor(a*b/c) without overflowing the intermediate product.
// Results that do not fit in a uint64 saturate at the maximum value.
func mulDiv(a, b, c uint64) uint64 {
	r := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	r.Quo(r, new(big.Int).SetUint64(c))
	if !r.IsUint64() {
		return ^uint64(0)
	}

	return r.Uint64()
}
