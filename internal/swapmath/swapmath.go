package swapmath

import (
	"errors"
	"math/big"
)

// FeeDenominator is the parts-per-million base for swap fees.
const FeeDenominator = 1_000_000

var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for amount")
	ErrZeroLiquidity         = errors.New("liquidity must be positive")

	q96  = new(big.Int).Lsh(big.NewInt(1), 96)
	zero = big.NewInt(0)
	one  = big.NewInt(1)
)

// MulDiv computes a * b / denominator with 512-bit intermediate precision,
// rounding down.
func MulDiv(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Div(product, denominator)
}

// MulDivRoundingUp computes a * b / denominator, rounding up.
func MulDivRoundingUp(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	result, rem := product.QuoRem(product, denominator, new(big.Int))
	if rem.Sign() != 0 {
		result.Add(result, one)
	}
	return result
}

// Amount0Delta computes the token0 amount covered by liquidity between two
// sqrt prices: liquidity * (sqrtB - sqrtA) / (sqrtB * sqrtA).
func Amount0Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(sqrtB, sqrtA)

	if roundUp {
		return MulDivRoundingUp(MulDivRoundingUp(numerator1, numerator2, sqrtB), one, sqrtA)
	}
	out := MulDiv(numerator1, numerator2, sqrtB)
	return out.Div(out, sqrtA)
}

// Amount1Delta computes the token1 amount covered by liquidity between two
// sqrt prices: liquidity * (sqrtB - sqrtA) / 2^96.
func Amount1Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	diff := new(big.Int).Sub(sqrtB, sqrtA)
	if roundUp {
		return MulDivRoundingUp(liquidity, diff, q96)
	}
	return MulDiv(liquidity, diff, q96)
}

// NextSqrtPriceFromAmount0 returns the sqrt price after adding (or removing)
// amount of token0 at the given liquidity, rounding up.
func NextSqrtPriceFromAmount0(sqrtP, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtP), nil
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)

	if add {
		product := new(big.Int).Mul(amount, sqrtP)
		denominator := new(big.Int).Add(numerator1, product)
		return MulDivRoundingUp(numerator1, sqrtP, denominator), nil
	}

	product := new(big.Int).Mul(amount, sqrtP)
	denominator := new(big.Int).Sub(numerator1, product)
	if denominator.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return MulDivRoundingUp(numerator1, sqrtP, denominator), nil
}

// NextSqrtPriceFromAmount1 returns the sqrt price after adding (or removing)
// amount of token1 at the given liquidity, rounding down.
func NextSqrtPriceFromAmount1(sqrtP, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if add {
		quotient := MulDiv(new(big.Int).Lsh(amount, 96), one, liquidity)
		return new(big.Int).Add(sqrtP, quotient), nil
	}

	quotient := MulDivRoundingUp(new(big.Int).Lsh(amount, 96), one, liquidity)
	if sqrtP.Cmp(quotient) <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return new(big.Int).Sub(sqrtP, quotient), nil
}

// NextSqrtPriceFromInput returns the price reached by spending amountIn of the
// input token, moving the price down for zeroForOne and up otherwise.
func NextSqrtPriceFromInput(sqrtP, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if liquidity.Sign() <= 0 {
		return nil, ErrZeroLiquidity
	}
	if zeroForOne {
		return NextSqrtPriceFromAmount0(sqrtP, liquidity, amountIn, true)
	}
	return NextSqrtPriceFromAmount1(sqrtP, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput returns the price reached by withdrawing amountOut
// of the output token.
func NextSqrtPriceFromOutput(sqrtP, liquidity, amountOut *big.Int, zeroForOne bool) (*big.Int, error) {
	if liquidity.Sign() <= 0 {
		return nil, ErrZeroLiquidity
	}
	if zeroForOne {
		return NextSqrtPriceFromAmount1(sqrtP, liquidity, amountOut, false)
	}
	return NextSqrtPriceFromAmount0(sqrtP, liquidity, amountOut, false)
}

// StepResult describes one constant-liquidity segment of a swap.
type StepResult struct {
	SqrtPriceNext *big.Int
	AmountIn      *big.Int
	AmountOut     *big.Int
	FeeAmount     *big.Int
}

// ComputeSwapStep advances the price toward sqrtTarget within a single
// constant-liquidity segment. amountRemaining is positive for exact input
// (fee-inclusive) and negative for exact output.
func ComputeSwapStep(sqrtCurrent, sqrtTarget, liquidity, amountRemaining *big.Int, feePips uint32) (StepResult, error) {
	zeroForOne := sqrtCurrent.Cmp(sqrtTarget) >= 0
	exactIn := amountRemaining.Sign() >= 0

	res := StepResult{}
	feeDen := big.NewInt(FeeDenominator)
	feeBig := big.NewInt(int64(feePips))

	if exactIn {
		amountRemainingLessFee := MulDiv(amountRemaining, new(big.Int).Sub(feeDen, feeBig), feeDen)
		var amountIn *big.Int
		if zeroForOne {
			amountIn = Amount0Delta(sqrtTarget, sqrtCurrent, liquidity, true)
		} else {
			amountIn = Amount1Delta(sqrtCurrent, sqrtTarget, liquidity, true)
		}
		if amountRemainingLessFee.Cmp(amountIn) >= 0 {
			res.SqrtPriceNext = new(big.Int).Set(sqrtTarget)
		} else {
			next, err := NextSqrtPriceFromInput(sqrtCurrent, liquidity, amountRemainingLessFee, zeroForOne)
			if err != nil {
				return StepResult{}, err
			}
			res.SqrtPriceNext = next
		}
	} else {
		amountNeeded := new(big.Int).Neg(amountRemaining)
		var amountOut *big.Int
		if zeroForOne {
			amountOut = Amount1Delta(sqrtTarget, sqrtCurrent, liquidity, false)
		} else {
			amountOut = Amount0Delta(sqrtCurrent, sqrtTarget, liquidity, false)
		}
		if amountNeeded.Cmp(amountOut) >= 0 {
			res.SqrtPriceNext = new(big.Int).Set(sqrtTarget)
		} else {
			next, err := NextSqrtPriceFromOutput(sqrtCurrent, liquidity, amountNeeded, zeroForOne)
			if err != nil {
				return StepResult{}, err
			}
			res.SqrtPriceNext = next
		}
	}

	reachedTarget := sqrtTarget.Cmp(res.SqrtPriceNext) == 0

	if zeroForOne {
		if reachedTarget && exactIn {
			res.AmountIn = Amount0Delta(sqrtTarget, sqrtCurrent, liquidity, true)
		} else {
			res.AmountIn = Amount0Delta(res.SqrtPriceNext, sqrtCurrent, liquidity, true)
		}
		res.AmountOut = Amount1Delta(res.SqrtPriceNext, sqrtCurrent, liquidity, false)
	} else {
		if reachedTarget && exactIn {
			res.AmountIn = Amount1Delta(sqrtCurrent, sqrtTarget, liquidity, true)
		} else {
			res.AmountIn = Amount1Delta(sqrtCurrent, res.SqrtPriceNext, liquidity, true)
		}
		res.AmountOut = Amount0Delta(sqrtCurrent, res.SqrtPriceNext, liquidity, false)
	}

	if !exactIn {
		amountNeeded := new(big.Int).Neg(amountRemaining)
		if res.AmountOut.Cmp(amountNeeded) > 0 {
			res.AmountOut = amountNeeded
		}
	}

	if exactIn && !reachedTarget {
		// Whatever was not consumed as principal becomes fee.
		res.FeeAmount = new(big.Int).Sub(amountRemaining, res.AmountIn)
	} else {
		res.FeeAmount = MulDivRoundingUp(res.AmountIn, feeBig, new(big.Int).Sub(feeDen, feeBig))
	}

	return res, nil
}
