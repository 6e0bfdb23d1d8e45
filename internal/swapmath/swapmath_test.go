package swapmath

import (
	"errors"
	"math/big"
	"testing"
)

func q96x(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), q96)
}

func TestMulDivRounding(t *testing.T) {
	down := MulDiv(big.NewInt(7), big.NewInt(3), big.NewInt(2))
	if down.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("expected 10, got %s", down)
	}
	up := MulDivRoundingUp(big.NewInt(7), big.NewInt(3), big.NewInt(2))
	if up.Cmp(big.NewInt(11)) != 0 {
		t.Fatalf("expected 11, got %s", up)
	}
	exact := MulDivRoundingUp(big.NewInt(6), big.NewInt(3), big.NewInt(2))
	if exact.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("expected 9, got %s", exact)
	}
}

func TestAmount1Delta(t *testing.T) {
	// liquidity 1000 between sqrt prices 1*2^96 and 2*2^96 amounts to 1000.
	got := Amount1Delta(q96x(1), q96x(2), big.NewInt(1000), false)
	if got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected 1000, got %s", got)
	}
	// Argument order must not matter.
	swapped := Amount1Delta(q96x(2), q96x(1), big.NewInt(1000), false)
	if swapped.Cmp(got) != 0 {
		t.Fatalf("order dependence: %s != %s", swapped, got)
	}
}

func TestAmount0Delta(t *testing.T) {
	// liquidity * (sqrtB - sqrtA) / (sqrtB * sqrtA) with sqrt prices 1 and 2
	// gives liquidity/2 in token0 terms.
	got := Amount0Delta(q96x(1), q96x(2), big.NewInt(1000), false)
	if got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected 500, got %s", got)
	}
	up := Amount0Delta(q96x(1), q96x(2), big.NewInt(1001), true)
	down := Amount0Delta(q96x(1), q96x(2), big.NewInt(1001), false)
	if up.Cmp(down) < 0 {
		t.Fatalf("round up below round down: %s < %s", up, down)
	}
}

func TestNextSqrtPriceFromAmount1Add(t *testing.T) {
	// Adding 500 token1 at liquidity 1000 moves sqrt price up by 1/2.
	got, err := NextSqrtPriceFromAmount1(q96x(2), big.NewInt(1000), big.NewInt(500), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(big.Int).Add(q96x(2), new(big.Int).Rsh(q96, 1))
	if got.Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextSqrtPriceInsufficientLiquidity(t *testing.T) {
	// Withdrawing more token1 than the price can give back must fail.
	_, err := NextSqrtPriceFromAmount1(q96x(1), big.NewInt(10), big.NewInt(1000), false)
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
	_, err = NextSqrtPriceFromInput(q96x(1), big.NewInt(0), big.NewInt(1), true)
	if !errors.Is(err, ErrZeroLiquidity) {
		t.Fatalf("expected ErrZeroLiquidity, got %v", err)
	}
}

func TestComputeSwapStepExactInReachesTarget(t *testing.T) {
	liquidity := new(big.Int).Lsh(big.NewInt(1), 64)
	current := q96x(1)
	target := new(big.Int).Sub(current, new(big.Int).Rsh(q96, 10))

	// Far more input than the segment needs: price stops at the target.
	remaining := new(big.Int).Lsh(big.NewInt(1), 70)
	res, err := ComputeSwapStep(current, target, liquidity, remaining, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SqrtPriceNext.Cmp(target) != 0 {
		t.Fatalf("expected target price, got %s", res.SqrtPriceNext)
	}
	consumed := new(big.Int).Add(res.AmountIn, res.FeeAmount)
	if consumed.Cmp(remaining) > 0 {
		t.Fatalf("consumed more than remaining: %s > %s", consumed, remaining)
	}
	if res.AmountOut.Sign() <= 0 {
		t.Fatalf("expected positive output")
	}
}

func TestComputeSwapStepExactInPartial(t *testing.T) {
	liquidity := new(big.Int).Lsh(big.NewInt(1), 80)
	current := q96x(1)
	target := new(big.Int).Sub(current, new(big.Int).Rsh(q96, 4))

	remaining := big.NewInt(1_000_000)
	res, err := ComputeSwapStep(current, target, liquidity, remaining, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SqrtPriceNext.Cmp(target) <= 0 {
		t.Fatalf("partial fill should stop above target")
	}
	// Fee-inclusive exact input: principal plus fee equals the full amount.
	consumed := new(big.Int).Add(res.AmountIn, res.FeeAmount)
	if consumed.Cmp(remaining) != 0 {
		t.Fatalf("partial fill must consume everything: %s != %s", consumed, remaining)
	}
	if res.FeeAmount.Sign() <= 0 {
		t.Fatalf("expected positive fee")
	}
}

func TestComputeSwapStepExactOut(t *testing.T) {
	liquidity := new(big.Int).Lsh(big.NewInt(1), 80)
	current := q96x(1)
	target := new(big.Int).Sub(current, new(big.Int).Rsh(q96, 4))

	wanted := big.NewInt(500_000)
	remaining := new(big.Int).Neg(wanted)
	res, err := ComputeSwapStep(current, target, liquidity, remaining, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AmountOut.Cmp(wanted) != 0 {
		t.Fatalf("exact out must deliver the request: %s != %s", res.AmountOut, wanted)
	}
	if res.FeeAmount.Sign() <= 0 {
		t.Fatalf("expected positive fee")
	}
}

func TestComputeSwapStepZeroFee(t *testing.T) {
	liquidity := new(big.Int).Lsh(big.NewInt(1), 80)
	current := q96x(1)
	target := new(big.Int).Sub(current, new(big.Int).Rsh(q96, 8))

	res, err := ComputeSwapStep(current, target, liquidity, new(big.Int).Lsh(big.NewInt(1), 90), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FeeAmount.Sign() != 0 {
		t.Fatalf("zero fee tier must charge no fee, got %s", res.FeeAmount)
	}
}

func TestLiquidityAmountsRoundTrip(t *testing.T) {
	sqrtP := q96x(1)
	sqrtA := new(big.Int).Sub(sqrtP, new(big.Int).Rsh(q96, 4))
	sqrtB := new(big.Int).Add(sqrtP, new(big.Int).Rsh(q96, 4))

	amount0 := big.NewInt(1_000_000)
	amount1 := big.NewInt(1_000_000)
	liquidity := LiquidityForAmounts(sqrtP, sqrtA, sqrtB, amount0, amount1)
	if liquidity.Sign() <= 0 {
		t.Fatalf("expected positive liquidity")
	}

	// Charging that liquidity back can never exceed the desired amounts by
	// more than rounding.
	need0, need1 := AmountsForLiquidity(sqrtP, sqrtA, sqrtB, liquidity, true)
	slack := big.NewInt(2)
	if need0.Cmp(new(big.Int).Add(amount0, slack)) > 0 {
		t.Fatalf("amount0 overcharged: %s > %s", need0, amount0)
	}
	if need1.Cmp(new(big.Int).Add(amount1, slack)) > 0 {
		t.Fatalf("amount1 overcharged: %s > %s", need1, amount1)
	}

	// Withdrawal rounds down: pays no more than the deposit charged.
	out0, out1 := AmountsForLiquidity(sqrtP, sqrtA, sqrtB, liquidity, false)
	if out0.Cmp(need0) > 0 || out1.Cmp(need1) > 0 {
		t.Fatalf("withdrawal exceeds deposit: %s/%s > %s/%s", out0, out1, need0, need1)
	}
}

func TestLiquidityForAmountsOutOfRange(t *testing.T) {
	sqrtA := q96x(2)
	sqrtB := q96x(3)

	// Price below the range: token0 only.
	below := LiquidityForAmounts(q96x(1), sqrtA, sqrtB, big.NewInt(1_000_000), big.NewInt(0))
	if below.Sign() <= 0 {
		t.Fatalf("expected token0-only liquidity below range")
	}
	amount0, amount1 := AmountsForLiquidity(q96x(1), sqrtA, sqrtB, below, true)
	if amount1.Sign() != 0 {
		t.Fatalf("below range must need no token1, got %s", amount1)
	}
	if amount0.Sign() <= 0 {
		t.Fatalf("below range must need token0")
	}

	// Price above the range: token1 only.
	above := LiquidityForAmounts(q96x(4), sqrtA, sqrtB, big.NewInt(0), big.NewInt(1_000_000))
	if above.Sign() <= 0 {
		t.Fatalf("expected token1-only liquidity above range")
	}
	amount0, amount1 = AmountsForLiquidity(q96x(4), sqrtA, sqrtB, above, true)
	if amount0.Sign() != 0 {
		t.Fatalf("above range must need no token0, got %s", amount0)
	}
	if amount1.Sign() <= 0 {
		t.Fatalf("above range must need token1")
	}
}
