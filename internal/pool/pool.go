package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rangepool/internal/ledger"
	"rangepool/internal/position"
	"rangepool/internal/swapmath"
	"rangepool/internal/tickmath"
	"rangepool/internal/token"
)

// Config carries the immutable parameters a pool is created with.
type Config struct {
	Token0      common.Address
	Token1      common.Address
	RewardToken common.Address // optional, zero disables the reward stream
	Fee         uint32         // parts per million taken from swap input
	TickSpacing int32
	SqrtPrice   *big.Int // initial Q96 sqrt price
}

// Deps are the external collaborators a pool talks to.
type Deps struct {
	Address  common.Address // settlement account identity
	Factory  common.Address
	Streamer common.Address // privileged stream depositor
	Bank     token.Ledger
	Clock    Clock
	Logger   *zap.Logger
}

// Stream is the active emission window for the airdrop and reward streams.
// Rates are Q128 token units per second.
type Stream struct {
	StartTime  uint64
	Period     uint64
	Rate0      *big.Int
	Rate1      *big.Int
	RateReward *big.Int
}

func (s Stream) clone() Stream {
	return Stream{
		StartTime:  s.StartTime,
		Period:     s.Period,
		Rate0:      new(big.Int).Set(s.Rate0),
		Rate1:      new(big.Int).Set(s.Rate1),
		RateReward: new(big.Int).Set(s.RateReward),
	}
}

// Pool is one trading pair's complete state: price, active liquidity, the
// tick ledger, the five growth accumulators, the position registry, and the
// active stream window.
type Pool struct {
	address     common.Address
	factory     common.Address
	streamer    common.Address
	token0      common.Address
	token1      common.Address
	rewardToken common.Address
	fee         uint32
	tickSpacing int32

	maxLiquidityPerTick *big.Int

	sqrtPrice   *big.Int
	currentTick int32
	nearestTick int32 // highest initialized tick at or below the price
	liquidity   *big.Int

	ticks     *ledger.Ledger
	global    ledger.Growth
	positions *position.Registry

	stream     Stream
	lastUpdate uint64

	bank   token.Ledger
	clock  Clock
	logger *zap.Logger

	locked bool
}

// New validates the configuration and builds a pool at its initial price.
func New(cfg Config, deps Deps) (*Pool, error) {
	if cfg.Token0 == (common.Address{}) || cfg.Token1 == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if cfg.Token0 == cfg.Token1 {
		return nil, fmt.Errorf("%w: identical tokens", ErrZeroAddress)
	}
	if cfg.Fee >= swapmath.FeeDenominator {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFee, cfg.Fee)
	}
	if cfg.TickSpacing <= 0 {
		return nil, fmt.Errorf("%w: spacing %d", tickmath.ErrInvalidTick, cfg.TickSpacing)
	}
	if deps.Bank == nil {
		return nil, fmt.Errorf("token ledger is required")
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	tick, err := tickmath.TickAtSqrtRatio(cfg.SqrtPrice)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}

	p := &Pool{
		address:             deps.Address,
		factory:             deps.Factory,
		streamer:            deps.Streamer,
		token0:              cfg.Token0,
		token1:              cfg.Token1,
		rewardToken:         cfg.RewardToken,
		fee:                 cfg.Fee,
		tickSpacing:         cfg.TickSpacing,
		maxLiquidityPerTick: tickmath.MaxLiquidityPerTick(cfg.TickSpacing),
		sqrtPrice:           new(big.Int).Set(cfg.SqrtPrice),
		currentTick:         tick,
		nearestTick:         tickmath.MinTick,
		liquidity:           new(big.Int),
		ticks:               ledger.New(),
		global:              ledger.NewGrowth(),
		positions:           position.NewRegistry(),
		stream: Stream{
			Rate0:      new(big.Int),
			Rate1:      new(big.Int),
			RateReward: new(big.Int),
		},
		lastUpdate: deps.Clock.Now(),
		bank:       deps.Bank,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
	return p, nil
}

// Address returns the pool's settlement account identity.
func (p *Pool) Address() common.Address { return p.address }

// Immutables are the pool's creation parameters.
type Immutables struct {
	Token0      common.Address
	Token1      common.Address
	RewardToken common.Address
	Fee         uint32
	TickSpacing int32
	Factory     common.Address
}

// Immutables returns the pool's fixed parameters.
func (p *Pool) Immutables() Immutables {
	return Immutables{
		Token0:      p.token0,
		Token1:      p.token1,
		RewardToken: p.rewardToken,
		Fee:         p.fee,
		TickSpacing: p.tickSpacing,
		Factory:     p.factory,
	}
}

// Reserves reports the pool account's booked token balances.
func (p *Pool) Reserves() (*big.Int, *big.Int) {
	return p.bank.BalanceOf(p.token0, p.address), p.bank.BalanceOf(p.token1, p.address)
}

// PriceAndNearestTicks returns the current sqrt price plus the initialized
// ticks bracketing it.
func (p *Pool) PriceAndNearestTicks() (sqrtPrice *big.Int, below, above int32) {
	return new(big.Int).Set(p.sqrtPrice), p.nearestTick, p.ticks.NextAbove(p.nearestTick).Index
}

// Liquidity returns the currently active liquidity.
func (p *Pool) Liquidity() *big.Int {
	return new(big.Int).Set(p.liquidity)
}

// CurrentTick returns the tick the price currently sits in.
func (p *Pool) CurrentTick() int32 { return p.currentTick }

// GlobalGrowth returns a copy of the five global accumulators.
func (p *Pool) GlobalGrowth() ledger.Growth { return p.global.Clone() }

// ActiveStream returns a copy of the live stream window.
func (p *Pool) ActiveStream() Stream { return p.stream.clone() }

// Position returns the position record for id.
func (p *Pool) Position(id uint64) (*position.Position, error) {
	return p.positions.Get(id)
}

// PositionsOf lists the position ids owned by owner.
func (p *Pool) PositionsOf(owner common.Address) []uint64 {
	return p.positions.OwnedBy(owner)
}

// Ticks exposes the tick ledger read-only, for snapshots and invariants.
func (p *Pool) Ticks() *ledger.Ledger { return p.ticks }

// DestroyPosition burns a fully settled position record.
func (p *Pool) DestroyPosition(caller common.Address, id uint64) error {
	if _, err := p.positions.Authorized(id, caller); err != nil {
		return err
	}
	return p.positions.Remove(id)
}

// TransferPosition reassigns ownership of a position.
func (p *Pool) TransferPosition(from, to common.Address, id uint64) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	return p.positions.Transfer(id, from, to)
}

// lock guards every mutating operation against reentrancy from the token
// ledger callback.
func (p *Pool) lock() error {
	if p.locked {
		return ErrReentrancy
	}
	p.locked = true
	return nil
}

func (p *Pool) unlock() {
	p.locked = false
}

// memento captures the complete mutable state for all-or-nothing rollback:
// a rejected operation must not leave any partial mutation observable.
type memento struct {
	sqrtPrice   *big.Int
	currentTick int32
	nearestTick int32
	liquidity   *big.Int
	ticks       *ledger.Ledger
	global      ledger.Growth
	positions   *position.Registry
	stream      Stream
	lastUpdate  uint64
}

func (p *Pool) snapshot() memento {
	return memento{
		sqrtPrice:   new(big.Int).Set(p.sqrtPrice),
		currentTick: p.currentTick,
		nearestTick: p.nearestTick,
		liquidity:   new(big.Int).Set(p.liquidity),
		ticks:       p.ticks.Clone(),
		global:      p.global.Clone(),
		positions:   p.positions.Clone(),
		stream:      p.stream.clone(),
		lastUpdate:  p.lastUpdate,
	}
}

func (p *Pool) restore(m memento) {
	p.sqrtPrice = m.sqrtPrice
	p.currentTick = m.currentTick
	p.nearestTick = m.nearestTick
	p.liquidity = m.liquidity
	p.ticks = m.ticks
	p.global = m.global
	p.positions = m.positions
	p.stream = m.stream
	p.lastUpdate = m.lastUpdate
}

// growthInside derives the growth attributable to [lower, upper] from the
// globals and the two boundary snapshots. This is the subtraction trick that
// keeps position accounting O(1): growth below and above the range is carried
// on the boundary ticks, flipped at each crossing.
func (p *Pool) growthInside(lower, upper int32) (ledger.Growth, error) {
	lowerNode := p.ticks.Get(lower)
	upperNode := p.ticks.Get(upper)
	if lowerNode == nil || upperNode == nil {
		return ledger.Growth{}, fmt.Errorf("%w: range [%d, %d]", ledger.ErrUninitialized, lower, upper)
	}

	var below ledger.Growth
	if p.currentTick >= lower {
		below = lowerNode.Outside.Clone()
	} else {
		below = p.global.Sub(lowerNode.Outside)
	}

	var above ledger.Growth
	if p.currentTick >= upper {
		above = p.global.Sub(upperNode.Outside)
	} else {
		above = upperNode.Outside.Clone()
	}

	return p.global.Sub(below).Sub(above), nil
}
