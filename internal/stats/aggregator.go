package stats

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"rangepool/internal/model"
)

// MetricsStore persists aggregated window metrics.
type MetricsStore interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	// PoolFees maps pool address (hex) to its fee in parts per million,
	// used to attribute the fee share of traded volume.
	PoolFees map[string]uint32
}

// Aggregator folds an event journal into per-pool window metrics.
type Aggregator struct {
	cfg          Config
	store        MetricsStore
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

func NewAggregator(cfg Config, store MetricsStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run executes aggregation over an event journal JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	var total, folded, failed int

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.EventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode event record", zap.Error(err))
			continue
		}
		if record.Kind != model.OpSwap {
			continue
		}

		windowStart := record.Timestamp - record.Timestamp%a.cfg.WindowSeconds
		windowEnd := windowStart + a.cfg.WindowSeconds
		key := fmt.Sprintf("%s:%d", record.Pool, windowStart)

		acc, ok := a.accumulators[key]
		if !ok {
			acc = NewAccumulator(record.Pool, a.cfg.PoolFees[record.Pool], windowStart, windowEnd)
			a.accumulators[key] = acc
		}
		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("fold swap event", zap.Uint64("seq", record.Seq), zap.Error(err))
			continue
		}
		folded++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	for _, acc := range a.accumulators {
		batch = append(batch, acc.Metrics(a.cfg.WindowSeconds))
		if len(batch) >= a.cfg.BatchSize {
			if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
				return fmt.Errorf("store metrics: %w", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return fmt.Errorf("store metrics: %w", err)
		}
	}

	a.logger.Info("aggregation complete",
		zap.Int("events", total),
		zap.Int("swaps", folded),
		zap.Int("failed", failed),
		zap.Int("windows", len(a.accumulators)),
	)
	return nil
}
