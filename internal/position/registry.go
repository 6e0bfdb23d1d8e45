package position

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"rangepool/internal/ledger"
)

var (
	ErrNotFound      = errors.New("position not found")
	ErrNotAuthorized = errors.New("not authorized")
	ErrNotEmpty      = errors.New("position still holds liquidity or unclaimed balances")
)

// Position is one owner's liquidity in one price range of one pool, plus the
// accrual snapshots and unclaimed balances needed for lazy fee/airdrop/reward
// accounting.
type Position struct {
	ID        uint64
	Owner     common.Address
	Pool      common.Address
	Lower     int32
	Upper     int32
	Liquidity *big.Int

	// InsideLast is the growth-inside-range value observed at the last
	// touch; the delta against the current value times liquidity is what
	// the position is owed since then.
	InsideLast ledger.Growth

	Owed0      *big.Int
	Owed1      *big.Int
	OwedReward *big.Int
}

// Registry owns all position records and an enumerable owner index.
type Registry struct {
	nextID    uint64
	positions map[uint64]*Position
	byOwner   map[common.Address][]uint64
}

func NewRegistry() *Registry {
	return &Registry{
		nextID:    1,
		positions: make(map[uint64]*Position),
		byOwner:   make(map[common.Address][]uint64),
	}
}

// Create mints a fresh position record with zero liquidity and balances.
func (r *Registry) Create(owner, pool common.Address, lower, upper int32, inside ledger.Growth) *Position {
	p := &Position{
		ID:         r.nextID,
		Owner:      owner,
		Pool:       pool,
		Lower:      lower,
		Upper:      upper,
		Liquidity:  new(big.Int),
		InsideLast: inside.Clone(),
		Owed0:      new(big.Int),
		Owed1:      new(big.Int),
		OwedReward: new(big.Int),
	}
	r.nextID++
	r.positions[p.ID] = p
	r.byOwner[owner] = append(r.byOwner[owner], p.ID)
	return p
}

// Get returns the position with the given id.
func (r *Registry) Get(id uint64) (*Position, error) {
	p, ok := r.positions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return p, nil
}

// Authorized returns the position only if caller owns it.
func (r *Registry) Authorized(id uint64, caller common.Address) (*Position, error) {
	p, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if p.Owner != caller {
		return nil, fmt.Errorf("%w: position %d", ErrNotAuthorized, id)
	}
	return p, nil
}

// Remove burns a position record. Only fully settled positions may go.
func (r *Registry) Remove(id uint64) error {
	p, ok := r.positions[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if p.Liquidity.Sign() != 0 || p.Owed0.Sign() != 0 || p.Owed1.Sign() != 0 || p.OwedReward.Sign() != 0 {
		return fmt.Errorf("%w: %d", ErrNotEmpty, id)
	}

	delete(r.positions, id)
	ids := r.byOwner[p.Owner]
	for i, v := range ids {
		if v == id {
			r.byOwner[p.Owner] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(r.byOwner[p.Owner]) == 0 {
		delete(r.byOwner, p.Owner)
	}
	return nil
}

// Transfer reassigns ownership of a position.
func (r *Registry) Transfer(id uint64, from, to common.Address) error {
	p, err := r.Authorized(id, from)
	if err != nil {
		return err
	}

	ids := r.byOwner[from]
	for i, v := range ids {
		if v == id {
			r.byOwner[from] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(r.byOwner[from]) == 0 {
		delete(r.byOwner, from)
	}

	p.Owner = to
	r.byOwner[to] = append(r.byOwner[to], id)
	sort.Slice(r.byOwner[to], func(i, j int) bool { return r.byOwner[to][i] < r.byOwner[to][j] })
	return nil
}

// OwnedBy returns the ordered position ids held by owner.
func (r *Registry) OwnedBy(owner common.Address) []uint64 {
	ids := r.byOwner[owner]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// Owners lists every address currently holding positions.
func (r *Registry) Owners() []common.Address {
	out := make([]common.Address, 0, len(r.byOwner))
	for owner := range r.byOwner {
		out = append(out, owner)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}

// Len reports the number of live positions.
func (r *Registry) Len() int {
	return len(r.positions)
}

// Clone returns a deep copy of the registry, used for all-or-nothing
// operation rollback.
func (r *Registry) Clone() *Registry {
	out := &Registry{
		nextID:    r.nextID,
		positions: make(map[uint64]*Position, len(r.positions)),
		byOwner:   make(map[common.Address][]uint64, len(r.byOwner)),
	}
	for id, p := range r.positions {
		out.positions[id] = &Position{
			ID:         p.ID,
			Owner:      p.Owner,
			Pool:       p.Pool,
			Lower:      p.Lower,
			Upper:      p.Upper,
			Liquidity:  new(big.Int).Set(p.Liquidity),
			InsideLast: p.InsideLast.Clone(),
			Owed0:      new(big.Int).Set(p.Owed0),
			Owed1:      new(big.Int).Set(p.Owed1),
			OwedReward: new(big.Int).Set(p.OwedReward),
		}
	}
	for owner, ids := range r.byOwner {
		cp := make([]uint64, len(ids))
		copy(cp, ids)
		out.byOwner[owner] = cp
	}
	return out
}
