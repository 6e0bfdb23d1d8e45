package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"rangepool/internal/tickmath"
)

var (
	ErrInvalidTick   = errors.New("invalid tick")
	ErrUninitialized = errors.New("tick not initialized")
	ErrSentinel      = errors.New("sentinel tick cannot be removed")
	ErrNotEmpty      = errors.New("tick still references liquidity")
	ErrInvalidHint   = errors.New("predecessor hint not initialized")
)

// Node is one initialized tick: a boundary where some range's liquidity
// starts or stops. Prev and Next are tick indices, not pointers, so the
// structure survives serialization and crossing stays O(1).
type Node struct {
	Index          int32
	Prev           int32
	Next           int32
	LiquidityGross *big.Int
	LiquidityNet   *big.Int
	Outside        Growth
}

// Ledger is the sparse, ordered set of initialized ticks for one pool,
// linked from the MinTick sentinel up to the MaxTick sentinel.
type Ledger struct {
	nodes map[int32]*Node
}

// New builds a ledger holding only the two sentinel ticks.
func New() *Ledger {
	l := &Ledger{nodes: make(map[int32]*Node)}
	l.nodes[tickmath.MinTick] = &Node{
		Index:          tickmath.MinTick,
		Prev:           tickmath.MinTick,
		Next:           tickmath.MaxTick,
		LiquidityGross: new(big.Int),
		LiquidityNet:   new(big.Int),
		Outside:        NewGrowth(),
	}
	l.nodes[tickmath.MaxTick] = &Node{
		Index:          tickmath.MaxTick,
		Prev:           tickmath.MinTick,
		Next:           tickmath.MaxTick,
		LiquidityGross: new(big.Int),
		LiquidityNet:   new(big.Int),
		Outside:        NewGrowth(),
	}
	return l
}

// Get returns the node at index, or nil.
func (l *Ledger) Get(index int32) *Node {
	return l.nodes[index]
}

// Len reports the number of initialized ticks, sentinels included.
func (l *Ledger) Len() int {
	return len(l.nodes)
}

// Insert links a node at index, locating its slot from the predecessor hint.
// A correct hint makes this O(1); a stale but initialized hint degrades to a
// linear walk. Inserting an already-initialized index is a no-op returning
// the existing node.
//
// The growth-outside snapshot follows the usual convention: ticks at or
// below the current price start with outside = current globals, ticks above
// start at zero. Only the difference across a crossing is ever observable.
func (l *Ledger) Insert(index, hint, currentTick int32, global Growth) (*Node, error) {
	if index <= tickmath.MinTick || index >= tickmath.MaxTick {
		return nil, fmt.Errorf("%w: %d out of range", ErrInvalidTick, index)
	}
	if node, ok := l.nodes[index]; ok {
		return node, nil
	}

	prev, ok := l.nodes[hint]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHint, hint)
	}

	// Walk to the tightest initialized pair (prev, prev.Next) around index.
	for prev.Index > index {
		prev = l.nodes[prev.Prev]
	}
	for l.nodes[prev.Next].Index < index {
		prev = l.nodes[prev.Next]
	}

	next := l.nodes[prev.Next]
	if !(prev.Index < index && index < next.Index) {
		return nil, fmt.Errorf("%w: no slot for %d between %d and %d", ErrInvalidTick, index, prev.Index, next.Index)
	}

	outside := NewGrowth()
	if index <= currentTick {
		outside = global.Clone()
	}

	node := &Node{
		Index:          index,
		Prev:           prev.Index,
		Next:           next.Index,
		LiquidityGross: new(big.Int),
		LiquidityNet:   new(big.Int),
		Outside:        outside,
	}
	l.nodes[index] = node
	prev.Next = index
	next.Prev = index
	return node, nil
}

// Remove unlinks the node at index. Sentinels and ticks still carrying
// gross liquidity are refused.
func (l *Ledger) Remove(index int32) error {
	if index == tickmath.MinTick || index == tickmath.MaxTick {
		return ErrSentinel
	}
	node, ok := l.nodes[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUninitialized, index)
	}
	if node.LiquidityGross.Sign() != 0 {
		return fmt.Errorf("%w: tick %d", ErrNotEmpty, index)
	}

	l.nodes[node.Prev].Next = node.Next
	l.nodes[node.Next].Prev = node.Prev
	delete(l.nodes, index)
	return nil
}

// CrossUp records the price moving upward through the tick at index and
// returns its liquidityNet, to be added to active liquidity.
func (l *Ledger) CrossUp(index int32, global Growth) (*big.Int, error) {
	node, ok := l.nodes[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUninitialized, index)
	}
	node.Outside = global.Sub(node.Outside)
	return node.LiquidityNet, nil
}

// CrossDown records the price moving downward through the tick at index and
// returns its liquidityNet, to be subtracted from active liquidity.
func (l *Ledger) CrossDown(index int32, global Growth) (*big.Int, error) {
	node, ok := l.nodes[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUninitialized, index)
	}
	node.Outside = global.Sub(node.Outside)
	return node.LiquidityNet, nil
}

// NearestAtOrBelow returns the highest initialized tick at or below tick.
func (l *Ledger) NearestAtOrBelow(tick int32) *Node {
	node := l.nodes[tickmath.MinTick]
	for {
		next := l.nodes[node.Next]
		if next.Index > tick || next.Index == node.Index {
			return node
		}
		node = next
	}
}

// NextAbove returns the nearest initialized tick strictly above index.
func (l *Ledger) NextAbove(index int32) *Node {
	if node, ok := l.nodes[index]; ok {
		return l.nodes[node.Next]
	}
	return l.nodes[l.NearestAtOrBelow(index).Next]
}

// Ascend calls fn for every initialized tick in ascending order, sentinels
// included, stopping early if fn returns false.
func (l *Ledger) Ascend(fn func(*Node) bool) {
	node := l.nodes[tickmath.MinTick]
	for {
		if !fn(node) {
			return
		}
		if node.Index == tickmath.MaxTick {
			return
		}
		node = l.nodes[node.Next]
	}
}

// Clone returns a deep copy of the ledger, used for all-or-nothing
// operation rollback and for quoting against a scratch copy.
func (l *Ledger) Clone() *Ledger {
	out := &Ledger{nodes: make(map[int32]*Node, len(l.nodes))}
	for idx, n := range l.nodes {
		out.nodes[idx] = &Node{
			Index:          n.Index,
			Prev:           n.Prev,
			Next:           n.Next,
			LiquidityGross: new(big.Int).Set(n.LiquidityGross),
			LiquidityNet:   new(big.Int).Set(n.LiquidityNet),
			Outside:        n.Outside.Clone(),
		}
	}
	return out
}

// SumLiquidityNet returns Σ liquidityNet over every initialized tick. It is
// zero in any consistent state.
func (l *Ledger) SumLiquidityNet() *big.Int {
	sum := new(big.Int)
	l.Ascend(func(n *Node) bool {
		sum.Add(sum, n.LiquidityNet)
		return true
	})
	return sum
}
