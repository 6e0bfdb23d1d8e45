package ledger

import "math/big"

// Growth bundles the five per-unit-liquidity accumulators (Q128): swap fees
// for both tokens, the airdrop stream for both tokens, and the external
// reward stream.
type Growth struct {
	Fee0     *big.Int
	Fee1     *big.Int
	Airdrop0 *big.Int
	Airdrop1 *big.Int
	Reward   *big.Int
}

// NewGrowth returns a zeroed accumulator set.
func NewGrowth() Growth {
	return Growth{
		Fee0:     new(big.Int),
		Fee1:     new(big.Int),
		Airdrop0: new(big.Int),
		Airdrop1: new(big.Int),
		Reward:   new(big.Int),
	}
}

// Clone returns a deep copy.
func (g Growth) Clone() Growth {
	return Growth{
		Fee0:     new(big.Int).Set(g.Fee0),
		Fee1:     new(big.Int).Set(g.Fee1),
		Airdrop0: new(big.Int).Set(g.Airdrop0),
		Airdrop1: new(big.Int).Set(g.Airdrop1),
		Reward:   new(big.Int).Set(g.Reward),
	}
}

// Sub returns g - other, component-wise.
func (g Growth) Sub(other Growth) Growth {
	return Growth{
		Fee0:     new(big.Int).Sub(g.Fee0, other.Fee0),
		Fee1:     new(big.Int).Sub(g.Fee1, other.Fee1),
		Airdrop0: new(big.Int).Sub(g.Airdrop0, other.Airdrop0),
		Airdrop1: new(big.Int).Sub(g.Airdrop1, other.Airdrop1),
		Reward:   new(big.Int).Sub(g.Reward, other.Reward),
	}
}

// Add returns g + other, component-wise.
func (g Growth) Add(other Growth) Growth {
	return Growth{
		Fee0:     new(big.Int).Add(g.Fee0, other.Fee0),
		Fee1:     new(big.Int).Add(g.Fee1, other.Fee1),
		Airdrop0: new(big.Int).Add(g.Airdrop0, other.Airdrop0),
		Airdrop1: new(big.Int).Add(g.Airdrop1, other.Airdrop1),
		Reward:   new(big.Int).Add(g.Reward, other.Reward),
	}
}
