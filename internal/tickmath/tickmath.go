package tickmath

import (
	"errors"
	"fmt"
	"math/big"
)

// Tick bounds shared by every pool regardless of spacing.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

var (
	// MinSqrtRatio is the sqrt price at MinTick.
	MinSqrtRatio = big.NewInt(4295128739)

	// MaxSqrtRatio is the sqrt price at MaxTick.
	MaxSqrtRatio = mustBig("1461446703485210103287273052203988822378723970342")

	ErrInvalidTick      = errors.New("invalid tick")
	ErrInvalidSqrtRatio = errors.New("sqrt ratio out of bounds")
	ErrLowerEven        = errors.New("lower tick / spacing must be even")
	ErrUpperOdd         = errors.New("upper tick / spacing must be odd")
)

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		panic(fmt.Sprintf("invalid big int literal: %s", s))
	}
	return n
}

// sqrt(1.0001^(2^i)) * 2^128 for i = 1..19, applied bit by bit.
var ratioMultipliers = []*big.Int{
	mustBig("0xfff97272373d413259a46990580e213a"),
	mustBig("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	mustBig("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	mustBig("0xffcb9843d60f6159c9db58835c926644"),
	mustBig("0xff973b41fa98c081472e6896dfb254c0"),
	mustBig("0xff2ea16466c96a3843ec78b326b52861"),
	mustBig("0xfe5dee046a99a2a811c461f1969c3053"),
	mustBig("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	mustBig("0xf987a7253ac413176f2b074cf7815e54"),
	mustBig("0xf3392b0822b70005940c7a398e4b70f3"),
	mustBig("0xe7159475a2c29b7443b29c7fa6e889d9"),
	mustBig("0xd097f3bdfd2022b8845ad8f792aa5825"),
	mustBig("0xa9f746462d870fdf8a65dc1f90e061e5"),
	mustBig("0x70d869a156d2a1b890bb3df62baf32f7"),
	mustBig("0x31be135f97d08fd981231505542fcfa6"),
	mustBig("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	mustBig("0x5d6af8dedb81196699c329225ee604"),
	mustBig("0x2216e584f5fa1ea926041bedfe98"),
	mustBig("0x48a170391f7dc42444e8fa2"),
}

var (
	oneX128    = mustBig("0x100000000000000000000000000000000")
	firstRatio = mustBig("0xfffcb933bd6fad37aa2d162d1a594001")
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// SqrtRatioAtTick computes sqrt(1.0001^tick) * 2^96 with full integer precision.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d out of range", ErrInvalidTick, tick)
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(big.Int)
	if absTick&1 != 0 {
		ratio.Set(firstRatio)
	} else {
		ratio.Set(oneX128)
	}

	for i, mul := range ratioMultipliers {
		if absTick&(1<<(uint(i)+1)) != 0 {
			ratio.Mul(ratio, mul)
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio = new(big.Int).Div(maxUint256, ratio)
	}

	// Downscale from Q128 to Q96, rounding up so the result always maps
	// back to the same tick through TickAtSqrtRatio.
	result := new(big.Int).Rsh(ratio, 32)
	rem := new(big.Int).And(ratio, big.NewInt(0xffffffff))
	if rem.Sign() != 0 {
		result.Add(result, big.NewInt(1))
	}
	return result, nil
}

// TickAtSqrtRatio returns the greatest tick whose sqrt ratio is at or below
// sqrtPriceX96. Binary search over SqrtRatioAtTick keeps the two conversions
// exactly inverse of each other.
func TickAtSqrtRatio(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrInvalidSqrtRatio
	}

	left, right := MinTick, MaxTick
	for left < right {
		mid := midpoint(left, right)
		ratio, err := SqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(sqrtPriceX96) <= 0 {
			left = mid
		} else {
			right = mid - 1
		}
	}
	return left, nil
}

func midpoint(left, right int32) int32 {
	// Round toward right so the loop terminates when left == right-1.
	return left + (right-left+1)/2
}

// CheckTicks validates range boundaries: ordering, bounds, spacing alignment,
// and the parity convention (lower/spacing even, upper/spacing odd).
func CheckTicks(lower, upper, spacing int32) error {
	if spacing <= 0 {
		return fmt.Errorf("%w: spacing %d", ErrInvalidTick, spacing)
	}
	if lower >= upper {
		return fmt.Errorf("%w: lower %d >= upper %d", ErrInvalidTick, lower, upper)
	}
	if lower < MinTick || upper > MaxTick {
		return fmt.Errorf("%w: [%d, %d] out of range", ErrInvalidTick, lower, upper)
	}
	if lower%spacing != 0 || upper%spacing != 0 {
		return fmt.Errorf("%w: [%d, %d] not aligned to spacing %d", ErrInvalidTick, lower, upper, spacing)
	}
	if (lower/spacing)%2 != 0 {
		return ErrLowerEven
	}
	if mod := (upper / spacing) % 2; mod != 1 && mod != -1 {
		return ErrUpperOdd
	}
	return nil
}

// MaxLiquidityPerTick returns the liquidity cap per tick for a given spacing,
// so that total liquidity across all usable ticks cannot overflow uint128.
func MaxLiquidityPerTick(spacing int32) *big.Int {
	minUsable := MinTick / spacing * spacing
	maxUsable := MaxTick / spacing * spacing
	numTicks := (maxUsable-minUsable)/spacing + 1

	maxUint128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	return new(big.Int).Div(maxUint128, big.NewInt(int64(numTicks)))
}
