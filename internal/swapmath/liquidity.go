package swapmath

import "math/big"

// LiquidityForAmount0 computes the liquidity purchasable with amount0 over
// [sqrtA, sqrtB], rounding down.
func LiquidityForAmount0(sqrtA, sqrtB, amount0 *big.Int) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	intermediate := MulDiv(sqrtA, sqrtB, q96)
	return MulDiv(amount0, intermediate, new(big.Int).Sub(sqrtB, sqrtA))
}

// LiquidityForAmount1 computes the liquidity purchasable with amount1 over
// [sqrtA, sqrtB], rounding down.
func LiquidityForAmount1(sqrtA, sqrtB, amount1 *big.Int) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	return MulDiv(amount1, q96, new(big.Int).Sub(sqrtB, sqrtA))
}

// LiquidityForAmounts computes the largest liquidity fundable by both desired
// amounts at the current price, never exceeding either.
func LiquidityForAmounts(sqrtP, sqrtA, sqrtB, amount0, amount1 *big.Int) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	switch {
	case sqrtP.Cmp(sqrtA) <= 0:
		return LiquidityForAmount0(sqrtA, sqrtB, amount0)
	case sqrtP.Cmp(sqrtB) < 0:
		l0 := LiquidityForAmount0(sqrtP, sqrtB, amount0)
		l1 := LiquidityForAmount1(sqrtA, sqrtP, amount1)
		if l0.Cmp(l1) < 0 {
			return l0
		}
		return l1
	default:
		return LiquidityForAmount1(sqrtA, sqrtB, amount1)
	}
}

// AmountsForLiquidity computes the token amounts covered by liquidity over
// [sqrtA, sqrtB] at the current price. Rounding up charges depositors;
// rounding down pays withdrawers.
func AmountsForLiquidity(sqrtP, sqrtA, sqrtB, liquidity *big.Int, roundUp bool) (*big.Int, *big.Int) {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	amount0 := new(big.Int)
	amount1 := new(big.Int)
	switch {
	case sqrtP.Cmp(sqrtA) <= 0:
		amount0 = Amount0Delta(sqrtA, sqrtB, liquidity, roundUp)
	case sqrtP.Cmp(sqrtB) < 0:
		amount0 = Amount0Delta(sqrtP, sqrtB, liquidity, roundUp)
		amount1 = Amount1Delta(sqrtA, sqrtP, liquidity, roundUp)
	default:
		amount1 = Amount1Delta(sqrtA, sqrtB, liquidity, roundUp)
	}
	return amount0, amount1
}
