package router

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rangepool/internal/factory"
	"rangepool/internal/pool"
)

var (
	ErrEmptyPath   = errors.New("swap path is empty")
	ErrInvalidPath = errors.New("token not part of pool pair")
)

// Hop is one leg of a multi-hop path: which pool to trade in and which of
// its tokens is being paid in.
type Hop struct {
	Pool    common.Address
	TokenIn common.Address
}

// Router sequences swaps across pools. Intermediate legs settle through the
// caller's account, so the caller's balance carries value between hops.
type Router struct {
	factory *factory.Factory
	logger  *zap.Logger
}

func New(f *factory.Factory, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{factory: f, logger: logger}
}

// direction resolves a pool and the swap direction for paying tokenIn in.
func (r *Router) direction(poolAddr, tokenIn common.Address) (*pool.Pool, bool, error) {
	p, err := r.factory.Pool(poolAddr)
	if err != nil {
		return nil, false, err
	}
	imm := p.Immutables()
	switch tokenIn {
	case imm.Token0:
		return p, true, nil
	case imm.Token1:
		return p, false, nil
	default:
		return nil, false, fmt.Errorf("%w: %s in pool %s", ErrInvalidPath, tokenIn.Hex(), poolAddr.Hex())
	}
}

// ExactInputSingle swaps a fixed input amount in one pool.
func (r *Router) ExactInputSingle(caller common.Address, hop Hop, amountIn, minAmountOut, sqrtPriceLimit *big.Int, recipient common.Address, unwrap bool) (*big.Int, error) {
	p, zeroForOne, err := r.direction(hop.Pool, hop.TokenIn)
	if err != nil {
		return nil, err
	}
	res, err := p.Swap(pool.SwapParams{
		Caller:          caller,
		Recipient:       recipient,
		ZeroForOne:      zeroForOne,
		AmountSpecified: amountIn,
		SqrtPriceLimit:  sqrtPriceLimit,
		AmountLimit:     minAmountOut,
		Unwrap:          unwrap,
	})
	if err != nil {
		return nil, err
	}
	return res.AmountOut, nil
}

// ExactInput swaps a fixed input amount along a multi-hop path. The
// minimum-out bound is checked against a dry run of the whole path before
// any leg executes, so a rejected call mutates nothing.
func (r *Router) ExactInput(caller common.Address, path []Hop, amountIn, minAmountOut *big.Int, recipient common.Address, unwrap bool) (*big.Int, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	if minAmountOut != nil {
		quoted := new(big.Int).Set(amountIn)
		for i, hop := range path {
			p, zeroForOne, err := r.direction(hop.Pool, hop.TokenIn)
			if err != nil {
				return nil, err
			}
			_, out, err := p.Quote(zeroForOne, quoted, nil)
			if err != nil {
				return nil, fmt.Errorf("quote hop %d: %w", i, err)
			}
			quoted = out
		}
		if quoted.Cmp(minAmountOut) < 0 {
			return nil, fmt.Errorf("%w: out %s below minimum %s", pool.ErrTooLittleReceived, quoted, minAmountOut)
		}
	}

	amount := new(big.Int).Set(amountIn)
	for i, hop := range path {
		last := i == len(path)-1
		p, zeroForOne, err := r.direction(hop.Pool, hop.TokenIn)
		if err != nil {
			return nil, err
		}

		hopRecipient := caller
		hopUnwrap := false
		if last {
			hopRecipient = recipient
			hopUnwrap = unwrap
		}

		res, err := p.Swap(pool.SwapParams{
			Caller:          caller,
			Recipient:       hopRecipient,
			ZeroForOne:      zeroForOne,
			AmountSpecified: amount,
			Unwrap:          hopUnwrap,
		})
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		amount = res.AmountOut
	}

	r.logger.Debug("exact input executed",
		zap.Int("hops", len(path)),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amount.String()),
	)
	return amount, nil
}

// ExactOutputSingle swaps for a fixed output amount in one pool. A dry run
// verifies the pool can deliver the full amount before anything settles.
func (r *Router) ExactOutputSingle(caller common.Address, hop Hop, amountOut, maxAmountIn, sqrtPriceLimit *big.Int, recipient common.Address, unwrap bool) (*big.Int, error) {
	p, zeroForOne, err := r.direction(hop.Pool, hop.TokenIn)
	if err != nil {
		return nil, err
	}

	spec := new(big.Int).Neg(amountOut)
	_, quotedOut, err := p.Quote(zeroForOne, spec, sqrtPriceLimit)
	if err != nil {
		return nil, err
	}
	if quotedOut.Cmp(amountOut) < 0 {
		return nil, fmt.Errorf("%w: pool can deliver %s of %s", pool.ErrTooLittleReceived, quotedOut, amountOut)
	}

	res, err := p.Swap(pool.SwapParams{
		Caller:          caller,
		Recipient:       recipient,
		ZeroForOne:      zeroForOne,
		AmountSpecified: spec,
		SqrtPriceLimit:  sqrtPriceLimit,
		AmountLimit:     maxAmountIn,
		Unwrap:          unwrap,
	})
	if err != nil {
		return nil, err
	}
	return res.AmountIn, nil
}

// ExactOutput swaps for a fixed output amount along a multi-hop path: the
// required input is quoted backward hop by hop, the caller's bounds are
// checked against the quotes, and only then does the path execute forward
// with the exact-output leg last.
func (r *Router) ExactOutput(caller common.Address, path []Hop, amountOut, maxAmountIn *big.Int, recipient common.Address, unwrap bool) (*big.Int, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	// Backward pass: how much must enter each hop to produce the next
	// hop's requirement. A hop that cannot deliver its requirement (price
	// boundary, thin liquidity) rejects the whole call here, before any
	// leg settles.
	need := new(big.Int).Set(amountOut)
	for i := len(path) - 1; i >= 0; i-- {
		p, zeroForOne, err := r.direction(path[i].Pool, path[i].TokenIn)
		if err != nil {
			return nil, err
		}
		in, out, err := p.Quote(zeroForOne, new(big.Int).Neg(need), nil)
		if err != nil {
			return nil, fmt.Errorf("quote hop %d: %w", i, err)
		}
		if out.Cmp(need) < 0 {
			return nil, fmt.Errorf("%w: hop %d can deliver %s of %s", pool.ErrTooLittleReceived, i, out, need)
		}
		need = in
	}
	if maxAmountIn != nil && need.Cmp(maxAmountIn) > 0 {
		return nil, fmt.Errorf("%w: in %s above maximum %s", pool.ErrTooMuchRequested, need, maxAmountIn)
	}

	// Forward pass: exact input through the intermediate legs, exact
	// output on the final leg so the recipient gets precisely amountOut.
	totalIn := new(big.Int).Set(need)
	amount := need
	for i, hop := range path {
		last := i == len(path)-1
		p, zeroForOne, err := r.direction(hop.Pool, hop.TokenIn)
		if err != nil {
			return nil, err
		}

		hopRecipient := caller
		hopUnwrap := false
		spec := new(big.Int).Set(amount)
		if last {
			hopRecipient = recipient
			hopUnwrap = unwrap
			spec = new(big.Int).Neg(amountOut)
		}

		res, err := p.Swap(pool.SwapParams{
			Caller:          caller,
			Recipient:       hopRecipient,
			ZeroForOne:      zeroForOne,
			AmountSpecified: spec,
			Unwrap:          hopUnwrap,
		})
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		if i == 0 {
			totalIn.Set(res.AmountIn)
		}
		amount = res.AmountOut
	}

	return totalIn, nil
}
