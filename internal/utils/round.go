package utils

import (
	"math"
	"math/big"
	"strconv"
)

const maxFixedDigits = 20

// ToFixed rounds f to n decimals the way the dashboard's toFixed does: on the
// exact binary value, halves away from zero. 1.45 is stored as 1.4499... and
// becomes 1.4; 0.25 is exact and becomes 0.3.
func ToFixed(f float64, n int) float64 {
	if n < 0 || n > maxFixedDigits || f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil))
	x := new(big.Float).SetPrec(256).SetFloat64(math.Abs(f))
	x.Mul(x, scale)

	whole, _ := x.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(x, new(big.Float).SetInt(whole))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		whole.Add(whole, big.NewInt(1))
	}
	if whole.Sign() == 0 {
		return 0
	}
	out, err := strconv.ParseFloat(whole.String()+"e-"+strconv.Itoa(n), 64)
	if err != nil {
		return f
	}
	if f < 0 {
		out = -out
	}
	return out
}
