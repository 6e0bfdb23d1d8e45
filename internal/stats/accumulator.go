package stats

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"rangepool/internal/model"
	"rangepool/internal/swapmath"
)

// Accumulator folds swap events for one pool into one window's metrics.
type Accumulator struct {
	PoolAddress string
	FeePips     uint32
	WindowStart uint64
	WindowEnd   uint64
	SwapCount   uint64
	Volume0     *big.Int
	Volume1     *big.Int
	Fee0        *big.Int
	Fee1        *big.Int
}

func NewAccumulator(poolAddress string, feePips uint32, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress: poolAddress,
		FeePips:     feePips,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume0:     big.NewInt(0),
		Volume1:     big.NewInt(0),
		Fee0:        big.NewInt(0),
		Fee1:        big.NewInt(0),
	}
}

// AddEvent folds one event record in. Non-swap kinds are ignored.
func (a *Accumulator) AddEvent(record model.EventRecord) error {
	if record.Kind != model.OpSwap {
		return nil
	}

	var swap model.SwapEventData
	if err := json.Unmarshal(record.Data, &swap); err != nil {
		return fmt.Errorf("decode swap event: %w", err)
	}

	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}
	amountOut, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return err
	}

	fee := feeFromAmount(amountIn, a.FeePips)
	if swap.ZeroForOne {
		a.Volume0.Add(a.Volume0, amountIn)
		a.Volume1.Add(a.Volume1, amountOut)
		a.Fee0.Add(a.Fee0, fee)
	} else {
		a.Volume1.Add(a.Volume1, amountIn)
		a.Volume0.Add(a.Volume0, amountOut)
		a.Fee1.Add(a.Fee1, fee)
	}

	a.SwapCount++
	return nil
}

// Metrics converts the accumulated values into the storage record.
func (a *Accumulator) Metrics(windowSeconds uint64) model.PoolWindowMetrics {
	return model.PoolWindowMetrics{
		PoolAddress:    a.PoolAddress,
		WindowSizeSecs: int64(windowSeconds),
		WindowStart:    time.Unix(int64(a.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(a.WindowEnd), 0).UTC(),
		SwapCount:      a.SwapCount,
		Volume0:        a.Volume0.String(),
		Volume1:        a.Volume1.String(),
		Fee0:           a.Fee0.String(),
		Fee1:           a.Fee1.String(),
	}
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func feeFromAmount(amountIn *big.Int, feePips uint32) *big.Int {
	if amountIn == nil || feePips == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(amountIn, big.NewInt(int64(feePips)))
	return fee.Div(fee, big.NewInt(swapmath.FeeDenominator))
}
