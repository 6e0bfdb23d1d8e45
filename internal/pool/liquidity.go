package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rangepool/internal/swapmath"
	"rangepool/internal/tickmath"
)

// MintParams describes a liquidity provision into one price range. LowerHint
// and UpperHint are initialized ticks known to sit just below the respective
// boundary, giving the ledger O(1) insertion. A nonzero PositionID merges
// into that position instead of creating a new one.
type MintParams struct {
	Caller         common.Address
	LowerHint      int32
	Lower          int32
	UpperHint      int32
	Upper          int32
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	MinLiquidity   *big.Int
	PositionID     uint64
}

// MintResult reports the liquidity actually minted, the token amounts
// charged, and the position the liquidity landed in.
type MintResult struct {
	Liquidity  *big.Int
	Amount0    *big.Int
	Amount1    *big.Int
	PositionID uint64
}

// Mint adds liquidity to [Lower, Upper], charging the caller the token
// amounts the minted liquidity is worth at the current price.
func (p *Pool) Mint(params MintParams) (MintResult, error) {
	if err := p.lock(); err != nil {
		return MintResult{}, err
	}
	defer p.unlock()

	if err := tickmath.CheckTicks(params.Lower, params.Upper, p.tickSpacing); err != nil {
		return MintResult{}, err
	}

	m := p.snapshot()
	fail := func(err error) (MintResult, error) {
		p.restore(m)
		return MintResult{}, err
	}

	p.accrue()

	sqrtLower, err := tickmath.SqrtRatioAtTick(params.Lower)
	if err != nil {
		return fail(err)
	}
	sqrtUpper, err := tickmath.SqrtRatioAtTick(params.Upper)
	if err != nil {
		return fail(err)
	}

	liquidity := swapmath.LiquidityForAmounts(p.sqrtPrice, sqrtLower, sqrtUpper, params.Amount0Desired, params.Amount1Desired)
	if liquidity.Sign() == 0 {
		return fail(ErrNoLiquidityMinted)
	}
	if params.MinLiquidity != nil && liquidity.Cmp(params.MinLiquidity) < 0 {
		return fail(fmt.Errorf("%w: liquidity %s below minimum %s", ErrTooLittleReceived, liquidity, params.MinLiquidity))
	}

	if err := p.addTickLiquidity(params.Lower, params.LowerHint, liquidity, false); err != nil {
		return fail(err)
	}
	if err := p.addTickLiquidity(params.Upper, params.UpperHint, liquidity, true); err != nil {
		return fail(err)
	}

	if params.Lower <= p.currentTick && p.currentTick < params.Upper {
		p.liquidity.Add(p.liquidity, liquidity)
	}

	inside, err := p.growthInside(params.Lower, params.Upper)
	if err != nil {
		return fail(err)
	}

	positionID := params.PositionID
	if positionID != 0 {
		pos, err := p.positions.Authorized(positionID, params.Caller)
		if err != nil {
			return fail(err)
		}
		if pos.Lower != params.Lower || pos.Upper != params.Upper {
			return fail(fmt.Errorf("%w: position %d spans [%d, %d]", ErrWrongRange, positionID, pos.Lower, pos.Upper))
		}
		// Settle in-flight accruals before the liquidity changes, so
		// nothing earned at the old size is lost on top-up.
		if err := p.accruePosition(pos); err != nil {
			return fail(err)
		}
		if pos.Liquidity.Sign() == 0 {
			// Re-arming a fully burned position: its old snapshot
			// refers to ticks that may have been unlinked since.
			pos.InsideLast = inside
		}
		pos.Liquidity.Add(pos.Liquidity, liquidity)
	} else {
		pos := p.positions.Create(params.Caller, p.address, params.Lower, params.Upper, inside)
		pos.Liquidity.Set(liquidity)
		positionID = pos.ID
	}

	amount0, amount1 := swapmath.AmountsForLiquidity(p.sqrtPrice, sqrtLower, sqrtUpper, liquidity, true)

	if err := p.debitAll(params.Caller, []transfer{
		{token: p.token0, amount: amount0},
		{token: p.token1, amount: amount1},
	}); err != nil {
		return fail(err)
	}

	p.logger.Info("mint",
		zap.String("pool", p.address.Hex()),
		zap.String("owner", params.Caller.Hex()),
		zap.Int32("lower", params.Lower),
		zap.Int32("upper", params.Upper),
		zap.String("liquidity", liquidity.String()),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
		zap.Uint64("position_id", positionID),
	)

	return MintResult{
		Liquidity:  liquidity,
		Amount0:    amount0,
		Amount1:    amount1,
		PositionID: positionID,
	}, nil
}

// addTickLiquidity initializes the boundary tick if needed and applies the
// gross/net deltas for a mint.
func (p *Pool) addTickLiquidity(index, hint int32, liquidity *big.Int, upper bool) error {
	node, err := p.ticks.Insert(index, hint, p.currentTick, p.global)
	if err != nil {
		return err
	}

	gross := new(big.Int).Add(node.LiquidityGross, liquidity)
	if gross.Cmp(p.maxLiquidityPerTick) > 0 {
		return fmt.Errorf("%w: tick %d", ErrLiquidityOverflow, index)
	}
	node.LiquidityGross = gross
	if upper {
		node.LiquidityNet.Sub(node.LiquidityNet, liquidity)
	} else {
		node.LiquidityNet.Add(node.LiquidityNet, liquidity)
	}

	if index <= p.currentTick && index > p.nearestTick {
		p.nearestTick = index
	}
	return nil
}

// Burn removes liquidity from a position and pays out the settlement amounts
// plus any unclaimed fee and airdrop balances.
func (p *Pool) Burn(caller common.Address, positionID uint64, liquidity *big.Int, recipient common.Address, minAmount0, minAmount1 *big.Int, unwrap bool) (*big.Int, *big.Int, error) {
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	m := p.snapshot()
	fail := func(err error) (*big.Int, *big.Int, error) {
		p.restore(m)
		return nil, nil, err
	}

	p.accrue()

	pos, err := p.positions.Authorized(positionID, caller)
	if err != nil {
		return fail(err)
	}
	if liquidity.Sign() < 0 {
		return fail(fmt.Errorf("%w: negative liquidity", ErrNotEnoughLiquidity))
	}
	if liquidity.Cmp(pos.Liquidity) > 0 {
		return fail(fmt.Errorf("%w: position %d holds %s", ErrNotEnoughLiquidity, positionID, pos.Liquidity))
	}

	if err := p.accruePosition(pos); err != nil {
		return fail(err)
	}

	sqrtLower, err := tickmath.SqrtRatioAtTick(pos.Lower)
	if err != nil {
		return fail(err)
	}
	sqrtUpper, err := tickmath.SqrtRatioAtTick(pos.Upper)
	if err != nil {
		return fail(err)
	}

	amount0, amount1 := swapmath.AmountsForLiquidity(p.sqrtPrice, sqrtLower, sqrtUpper, liquidity, false)
	if minAmount0 != nil && amount0.Cmp(minAmount0) < 0 {
		return fail(fmt.Errorf("%w: amount0 %s below minimum %s", ErrTooLittleReceived, amount0, minAmount0))
	}
	if minAmount1 != nil && amount1.Cmp(minAmount1) < 0 {
		return fail(fmt.Errorf("%w: amount1 %s below minimum %s", ErrTooLittleReceived, amount1, minAmount1))
	}

	if err := p.removeTickLiquidity(pos.Lower, liquidity, false); err != nil {
		return fail(err)
	}
	if err := p.removeTickLiquidity(pos.Upper, liquidity, true); err != nil {
		return fail(err)
	}

	if pos.Lower <= p.currentTick && p.currentTick < pos.Upper {
		p.liquidity.Sub(p.liquidity, liquidity)
	}

	pos.Liquidity.Sub(pos.Liquidity, liquidity)

	payout0 := new(big.Int).Add(amount0, pos.Owed0)
	payout1 := new(big.Int).Add(amount1, pos.Owed1)
	pos.Owed0.SetInt64(0)
	pos.Owed1.SetInt64(0)

	if err := p.creditAll(recipient, []transfer{
		{token: p.token0, amount: payout0, unwrap: unwrap},
		{token: p.token1, amount: payout1, unwrap: unwrap},
	}); err != nil {
		return fail(err)
	}

	p.logger.Info("burn",
		zap.String("pool", p.address.Hex()),
		zap.String("owner", caller.Hex()),
		zap.Uint64("position_id", positionID),
		zap.String("liquidity", liquidity.String()),
		zap.String("amount0", payout0.String()),
		zap.String("amount1", payout1.String()),
	)

	return payout0, payout1, nil
}

// removeTickLiquidity applies the gross/net deltas for a burn and unlinks
// the tick once nothing references it.
func (p *Pool) removeTickLiquidity(index int32, liquidity *big.Int, upper bool) error {
	node := p.ticks.Get(index)
	if node == nil {
		return fmt.Errorf("tick %d missing for burn", index)
	}

	node.LiquidityGross.Sub(node.LiquidityGross, liquidity)
	if upper {
		node.LiquidityNet.Add(node.LiquidityNet, liquidity)
	} else {
		node.LiquidityNet.Sub(node.LiquidityNet, liquidity)
	}

	if node.LiquidityGross.Sign() == 0 {
		prev := node.Prev
		if err := p.ticks.Remove(index); err != nil {
			return err
		}
		if p.nearestTick == index {
			p.nearestTick = prev
		}
	}
	return nil
}

// Collect pays out a position's unclaimed fee and airdrop balances. A second
// immediate call yields zero.
func (p *Pool) Collect(caller common.Address, positionID uint64, recipient common.Address, unwrap bool) (*big.Int, *big.Int, error) {
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	m := p.snapshot()
	fail := func(err error) (*big.Int, *big.Int, error) {
		p.restore(m)
		return nil, nil, err
	}

	p.accrue()

	pos, err := p.positions.Authorized(positionID, caller)
	if err != nil {
		return fail(err)
	}
	if err := p.accruePosition(pos); err != nil {
		return fail(err)
	}

	amount0 := new(big.Int).Set(pos.Owed0)
	amount1 := new(big.Int).Set(pos.Owed1)
	pos.Owed0.SetInt64(0)
	pos.Owed1.SetInt64(0)

	if err := p.creditAll(recipient, []transfer{
		{token: p.token0, amount: amount0, unwrap: unwrap},
		{token: p.token1, amount: amount1, unwrap: unwrap},
	}); err != nil {
		return fail(err)
	}

	p.logger.Info("collect",
		zap.String("pool", p.address.Hex()),
		zap.Uint64("position_id", positionID),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
	)

	return amount0, amount1, nil
}

// CollectReward pays out a position's unclaimed reward-token balance.
func (p *Pool) CollectReward(caller common.Address, positionID uint64, recipient common.Address, unwrap bool) (*big.Int, error) {
	if err := p.lock(); err != nil {
		return nil, err
	}
	defer p.unlock()

	if p.rewardToken == (common.Address{}) {
		return nil, ErrNoRewardToken
	}

	m := p.snapshot()
	fail := func(err error) (*big.Int, error) {
		p.restore(m)
		return nil, err
	}

	p.accrue()

	pos, err := p.positions.Authorized(positionID, caller)
	if err != nil {
		return fail(err)
	}
	if err := p.accruePosition(pos); err != nil {
		return fail(err)
	}

	amount := new(big.Int).Set(pos.OwedReward)
	pos.OwedReward.SetInt64(0)

	if err := p.creditAll(recipient, []transfer{
		{token: p.rewardToken, amount: amount, unwrap: unwrap},
	}); err != nil {
		return fail(err)
	}

	p.logger.Info("collect reward",
		zap.String("pool", p.address.Hex()),
		zap.Uint64("position_id", positionID),
		zap.String("amount", amount.String()),
	)

	return amount, nil
}
