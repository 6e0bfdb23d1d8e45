package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rangepool/internal/swapmath"
	"rangepool/internal/tickmath"
)

// SwapParams describes one trade against the pool. AmountSpecified is
// positive for exact input and negative for exact output. SqrtPriceLimit
// bounds how far the price may move (nil for the tick range edge).
// AmountLimit is the caller's slippage bound: minimum output for exact
// input, maximum input for exact output (nil to skip).
type SwapParams struct {
	Caller          common.Address
	Recipient       common.Address
	ZeroForOne      bool
	AmountSpecified *big.Int
	SqrtPriceLimit  *big.Int
	AmountLimit     *big.Int
	Unwrap          bool
}

// SwapResult reports the executed trade.
type SwapResult struct {
	AmountIn  *big.Int
	AmountOut *big.Int
	SqrtPrice *big.Int
	Tick      int32
}

// Swap walks the tick ledger in the trade direction, consuming one
// constant-liquidity segment at a time, crossing initialized ticks and
// accruing fees, until the requested amount is exhausted or the price limit
// is reached. Settlement happens after all pool state is committed.
func (p *Pool) Swap(params SwapParams) (SwapResult, error) {
	if err := p.lock(); err != nil {
		return SwapResult{}, err
	}
	defer p.unlock()

	m := p.snapshot()
	fail := func(err error) (SwapResult, error) {
		p.restore(m)
		return SwapResult{}, err
	}

	res, err := p.swapInner(params)
	if err != nil {
		return fail(err)
	}

	exactIn := params.AmountSpecified.Sign() > 0
	if params.AmountLimit != nil {
		if exactIn && res.AmountOut.Cmp(params.AmountLimit) < 0 {
			return fail(fmt.Errorf("%w: out %s below minimum %s", ErrTooLittleReceived, res.AmountOut, params.AmountLimit))
		}
		if !exactIn && res.AmountIn.Cmp(params.AmountLimit) > 0 {
			return fail(fmt.Errorf("%w: in %s above maximum %s", ErrTooMuchRequested, res.AmountIn, params.AmountLimit))
		}
	}

	tokenIn, tokenOut := p.token1, p.token0
	if params.ZeroForOne {
		tokenIn, tokenOut = p.token0, p.token1
	}
	if err := p.debitAll(params.Caller, []transfer{{token: tokenIn, amount: res.AmountIn}}); err != nil {
		return fail(err)
	}
	if err := p.creditAll(params.Recipient, []transfer{{token: tokenOut, amount: res.AmountOut, unwrap: params.Unwrap}}); err != nil {
		return fail(err)
	}

	p.logger.Info("swap",
		zap.String("pool", p.address.Hex()),
		zap.Bool("zero_for_one", params.ZeroForOne),
		zap.String("amount_in", res.AmountIn.String()),
		zap.String("amount_out", res.AmountOut.String()),
		zap.String("sqrt_price", res.SqrtPrice.String()),
		zap.Int32("tick", res.Tick),
	)
	return res, nil
}

// Quote executes a swap against a scratch copy of the pool and reports the
// amounts without settling or mutating anything.
func (p *Pool) Quote(zeroForOne bool, amountSpecified, sqrtPriceLimit *big.Int) (*big.Int, *big.Int, error) {
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	m := p.snapshot()
	res, err := p.swapInner(SwapParams{
		ZeroForOne:      zeroForOne,
		AmountSpecified: amountSpecified,
		SqrtPriceLimit:  sqrtPriceLimit,
	})
	p.restore(m)
	if err != nil {
		return nil, nil, err
	}
	return res.AmountIn, res.AmountOut, nil
}

// swapInner mutates pool state but performs no settlement. Callers hold the
// lock and roll back on error.
func (p *Pool) swapInner(params SwapParams) (SwapResult, error) {
	if params.AmountSpecified == nil || params.AmountSpecified.Sign() == 0 {
		return SwapResult{}, fmt.Errorf("swap amount must be nonzero")
	}

	p.accrue()

	limit := params.SqrtPriceLimit
	if limit == nil {
		if params.ZeroForOne {
			limit = new(big.Int).Add(tickmath.MinSqrtRatio, big.NewInt(1))
		} else {
			limit = new(big.Int).Sub(tickmath.MaxSqrtRatio, big.NewInt(1))
		}
	}
	if params.ZeroForOne {
		if limit.Cmp(p.sqrtPrice) >= 0 || limit.Cmp(tickmath.MinSqrtRatio) < 0 {
			return SwapResult{}, ErrInvalidPriceLimit
		}
	} else {
		if limit.Cmp(p.sqrtPrice) <= 0 || limit.Cmp(tickmath.MaxSqrtRatio) >= 0 {
			return SwapResult{}, ErrInvalidPriceLimit
		}
	}

	exactIn := params.AmountSpecified.Sign() > 0
	remaining := new(big.Int).Set(params.AmountSpecified)
	totalIn := new(big.Int)
	totalOut := new(big.Int)
	tick := p.currentTick

	for remaining.Sign() != 0 && p.sqrtPrice.Cmp(limit) != 0 {
		var targetIdx int32
		if params.ZeroForOne {
			targetIdx = p.nearestTick
		} else {
			targetIdx = p.ticks.NextAbove(p.nearestTick).Index
		}
		targetSqrt, err := tickmath.SqrtRatioAtTick(targetIdx)
		if err != nil {
			return SwapResult{}, err
		}

		// Clamp the segment target by the caller's price limit.
		segTarget := targetSqrt
		atBoundary := true
		if params.ZeroForOne && segTarget.Cmp(limit) < 0 {
			segTarget = limit
			atBoundary = false
		}
		if !params.ZeroForOne && segTarget.Cmp(limit) > 0 {
			segTarget = limit
			atBoundary = false
		}

		if p.liquidity.Sign() == 0 {
			// Empty segment: the price glides to the target for free.
			p.sqrtPrice = new(big.Int).Set(segTarget)
		} else {
			step, err := swapmath.ComputeSwapStep(p.sqrtPrice, segTarget, p.liquidity, remaining, p.fee)
			if err != nil {
				return SwapResult{}, err
			}

			inWithFee := new(big.Int).Add(step.AmountIn, step.FeeAmount)
			if exactIn {
				remaining.Sub(remaining, inWithFee)
				if remaining.Sign() < 0 {
					remaining.SetInt64(0)
				}
			} else {
				remaining.Add(remaining, step.AmountOut)
				if remaining.Sign() > 0 {
					remaining.SetInt64(0)
				}
			}
			totalIn.Add(totalIn, inWithFee)
			totalOut.Add(totalOut, step.AmountOut)

			if step.FeeAmount.Sign() > 0 {
				feeGrowth := new(big.Int).Lsh(step.FeeAmount, 128)
				feeGrowth.Div(feeGrowth, p.liquidity)
				if params.ZeroForOne {
					p.global.Fee0.Add(p.global.Fee0, feeGrowth)
				} else {
					p.global.Fee1.Add(p.global.Fee1, feeGrowth)
				}
			}

			p.sqrtPrice = step.SqrtPriceNext
		}

		if atBoundary && p.sqrtPrice.Cmp(targetSqrt) == 0 {
			if params.ZeroForOne {
				if targetIdx == tickmath.MinTick {
					break
				}
				node := p.ticks.Get(targetIdx)
				prev := node.Prev
				net, err := p.ticks.CrossDown(targetIdx, p.global)
				if err != nil {
					return SwapResult{}, err
				}
				p.liquidity.Sub(p.liquidity, net)
				p.nearestTick = prev
				tick = targetIdx - 1
			} else {
				if targetIdx == tickmath.MaxTick {
					break
				}
				net, err := p.ticks.CrossUp(targetIdx, p.global)
				if err != nil {
					return SwapResult{}, err
				}
				p.liquidity.Add(p.liquidity, net)
				p.nearestTick = targetIdx
				tick = targetIdx
			}
		} else {
			t, err := tickmath.TickAtSqrtRatio(p.sqrtPrice)
			if err != nil {
				return SwapResult{}, err
			}
			tick = t
		}
	}

	p.currentTick = tick

	return SwapResult{
		AmountIn:  totalIn,
		AmountOut: totalOut,
		SqrtPrice: new(big.Int).Set(p.sqrtPrice),
		Tick:      tick,
	}, nil
}
