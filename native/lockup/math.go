package lockup

import "math/big"

var (
	// rewardScale is the fixed-point unit used for reward rates, the
	// cumulative per-share index and accrued-but-unclaimed balances.
	// Division always truncates toward zero so the accountant never pays
	// out more than it collected.
	rewardScale = mustBigInt("1000000000000000000") // 1e18

	bpsDenominator = big.NewInt(10_000)
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// scaleDown converts a 1e18-scaled accrual into whole token units, flooring
// the remainder.
func scaleDown(v *big.Int) *big.Int {
	if v == nil || v.Sign() <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Quo(v, rewardScale)
}

// applyBps returns value*bps/10000 with truncating division.
func applyBps(value *big.Int, bps uint64) *big.Int {
	if value == nil || value.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(value, new(big.Int).SetUint64(bps))
	out.Quo(out, bpsDenominator)
	return out
}
