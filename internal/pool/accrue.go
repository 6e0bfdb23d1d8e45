package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rangepool/internal/position"
)

var q128 = new(big.Int).Lsh(big.NewInt(1), 128)

// accrue brings the airdrop and reward accumulators current. Elapsed time is
// clamped to the active stream window; time spent with zero active liquidity
// is skipped, not deferred.
func (p *Pool) accrue() {
	now := p.clock.Now()
	if now <= p.lastUpdate {
		return
	}

	if p.stream.Period > 0 && p.liquidity.Sign() > 0 {
		from := p.lastUpdate
		if p.stream.StartTime > from {
			from = p.stream.StartTime
		}
		to := now
		if end := p.stream.StartTime + p.stream.Period; end < to {
			to = end
		}
		if to > from {
			elapsed := new(big.Int).SetUint64(to - from)
			addGrowth(p.global.Airdrop0, p.stream.Rate0, elapsed, p.liquidity)
			addGrowth(p.global.Airdrop1, p.stream.Rate1, elapsed, p.liquidity)
			addGrowth(p.global.Reward, p.stream.RateReward, elapsed, p.liquidity)
		}
	}

	p.lastUpdate = now
}

// addGrowth adds rate * elapsed / liquidity to a global accumulator.
func addGrowth(global, rate, elapsed, liquidity *big.Int) {
	if rate.Sign() == 0 {
		return
	}
	delta := new(big.Int).Mul(rate, elapsed)
	delta.Div(delta, liquidity)
	global.Add(global, delta)
}

// accruePosition settles growth-inside deltas into a position's unclaimed
// balances and refreshes its snapshot. Fee and airdrop accrue per token into
// the same owed balance; the reward stream accrues separately.
func (p *Pool) accruePosition(pos *position.Position) error {
	// At zero liquidity nothing accrues and the boundary ticks may already
	// be unlinked, so the snapshot stays as it is until the position is
	// re-armed.
	if pos.Liquidity.Sign() == 0 {
		return nil
	}

	inside, err := p.growthInside(pos.Lower, pos.Upper)
	if err != nil {
		return err
	}

	delta := inside.Sub(pos.InsideLast)
	pos.Owed0.Add(pos.Owed0, owedAmount(pos.Liquidity, delta.Fee0))
	pos.Owed0.Add(pos.Owed0, owedAmount(pos.Liquidity, delta.Airdrop0))
	pos.Owed1.Add(pos.Owed1, owedAmount(pos.Liquidity, delta.Fee1))
	pos.Owed1.Add(pos.Owed1, owedAmount(pos.Liquidity, delta.Airdrop1))
	pos.OwedReward.Add(pos.OwedReward, owedAmount(pos.Liquidity, delta.Reward))

	pos.InsideLast = inside
	return nil
}

// owedAmount converts a Q128 growth delta into token units for liquidity.
func owedAmount(liquidity, growthDelta *big.Int) *big.Int {
	if growthDelta.Sign() <= 0 {
		return new(big.Int)
	}
	owed := new(big.Int).Mul(liquidity, growthDelta)
	return owed.Rsh(owed, 128)
}

// DepositAirdropAndReward schedules a fresh emission window. The previous
// window must have fully elapsed and the new one must start no earlier than
// now. Zero amounts are valid and zero the corresponding rate.
func (p *Pool) DepositAirdropAndReward(caller common.Address, amount0, amount1, rewardAmount *big.Int, startTime, period uint64) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if caller != p.streamer {
		return fmt.Errorf("%w: stream depositor only", ErrNotAuthorized)
	}
	if period == 0 {
		return ErrInvalidPeriod
	}
	if amount0.Sign() < 0 || amount1.Sign() < 0 || rewardAmount.Sign() < 0 {
		return fmt.Errorf("%w: negative stream amount", ErrInvalidFee)
	}
	if rewardAmount.Sign() > 0 && p.rewardToken == (common.Address{}) {
		return ErrNoRewardToken
	}

	m := p.snapshot()

	// Close out the previous window at its old rates before replacing them.
	p.accrue()

	now := p.clock.Now()
	if p.stream.Period > 0 && now < p.stream.StartTime+p.stream.Period {
		p.restore(m)
		return fmt.Errorf("%w: window open until %d", ErrNotYet, p.stream.StartTime+p.stream.Period)
	}
	if startTime < now {
		p.restore(m)
		return fmt.Errorf("%w: start %d before now %d", ErrNotYet, startTime, now)
	}

	ins := []transfer{
		{token: p.token0, amount: amount0},
		{token: p.token1, amount: amount1},
	}
	if rewardAmount.Sign() > 0 {
		ins = append(ins, transfer{token: p.rewardToken, amount: rewardAmount})
	}
	if err := p.debitAll(caller, ins); err != nil {
		p.restore(m)
		return err
	}

	periodBig := new(big.Int).SetUint64(period)
	p.stream = Stream{
		StartTime:  startTime,
		Period:     period,
		Rate0:      rate(amount0, periodBig),
		Rate1:      rate(amount1, periodBig),
		RateReward: rate(rewardAmount, periodBig),
	}

	p.logger.Info("stream deposit",
		zap.String("pool", p.address.Hex()),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
		zap.String("reward", rewardAmount.String()),
		zap.Uint64("start_time", startTime),
		zap.Uint64("period", period),
	)
	return nil
}

// rate converts a total stream amount into a Q128 per-second rate.
func rate(amount, period *big.Int) *big.Int {
	r := new(big.Int).Lsh(amount, 128)
	return r.Div(r, period)
}
