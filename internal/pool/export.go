package pool

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"rangepool/internal/ledger"
	"rangepool/internal/model"
)

// Export serializes the pool's full state for storage and inspection.
func (p *Pool) Export() model.PoolSnapshot {
	reserve0, reserve1 := p.Reserves()

	snap := model.PoolSnapshot{
		Address:      p.address.Hex(),
		Token0:       p.token0.Hex(),
		Token1:       p.token1.Hex(),
		Fee:          p.fee,
		TickSpacing:  p.tickSpacing,
		SqrtPriceX96: p.sqrtPrice.String(),
		CurrentTick:  p.currentTick,
		NearestTick:  p.nearestTick,
		Liquidity:    p.liquidity.String(),
		Reserve0:     reserve0.String(),
		Reserve1:     reserve1.String(),
		Global:       exportGrowth(p.global),
		Stream: model.StreamSnapshot{
			StartTime:  p.stream.StartTime,
			Period:     p.stream.Period,
			Rate0:      p.stream.Rate0.String(),
			Rate1:      p.stream.Rate1.String(),
			RateReward: p.stream.RateReward.String(),
		},
		LastUpdate: p.lastUpdate,
	}
	if p.rewardToken != (common.Address{}) {
		snap.RewardToken = p.rewardToken.Hex()
	}

	p.ticks.Ascend(func(n *ledger.Node) bool {
		snap.Ticks = append(snap.Ticks, model.TickSnapshot{
			Index:          n.Index,
			Prev:           n.Prev,
			Next:           n.Next,
			LiquidityGross: n.LiquidityGross.String(),
			LiquidityNet:   n.LiquidityNet.String(),
			Outside:        exportGrowth(n.Outside),
		})
		return true
	})

	owners := p.positions.Owners()
	var ids []uint64
	for _, owner := range owners {
		ids = append(ids, p.positions.OwnedBy(owner)...)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		pos, err := p.positions.Get(id)
		if err != nil {
			continue
		}
		snap.Positions = append(snap.Positions, model.PositionSnapshot{
			ID:         pos.ID,
			Owner:      pos.Owner.Hex(),
			Lower:      pos.Lower,
			Upper:      pos.Upper,
			Liquidity:  pos.Liquidity.String(),
			InsideLast: exportGrowth(pos.InsideLast),
			Owed0:      pos.Owed0.String(),
			Owed1:      pos.Owed1.String(),
			OwedReward: pos.OwedReward.String(),
		})
	}
	return snap
}

func exportGrowth(g ledger.Growth) model.GrowthSnapshot {
	return model.GrowthSnapshot{
		Fee0:     g.Fee0.String(),
		Fee1:     g.Fee1.String(),
		Airdrop0: g.Airdrop0.String(),
		Airdrop1: g.Airdrop1.String(),
		Reward:   g.Reward.String(),
	}
}
