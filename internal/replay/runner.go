package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"rangepool/internal/factory"
	"rangepool/internal/model"
	"rangepool/internal/pool"
	"rangepool/internal/storage"
	"rangepool/internal/token"
)

// RunConfig holds runtime settings for journal replay.
type RunConfig struct {
	OpsPath           string
	BatchSize         int
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// SnapshotStore persists full pool snapshots after a replay pass.
type SnapshotStore interface {
	UpsertPoolSnapshots(ctx context.Context, snaps []model.PoolSnapshot) error
}

// Runner applies an operation journal to a fresh engine, emitting event
// records and checkpointing progress so an interrupted replay resumes.
type Runner struct {
	cfg        RunConfig
	factory    *factory.Factory
	clock      *pool.ManualClock
	storage    storage.Storage
	snapshots  SnapshotStore
	bank       *token.Bank
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies. snapshots may be nil.
// When bank is non-nil, callers are topped up before debit-bearing
// operations; journals carry no balance setup of their own.
func NewRunner(cfg RunConfig, f *factory.Factory, clock *pool.ManualClock, storageSink storage.Storage, snapshots SnapshotStore, bank *token.Bank, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Runner{
		cfg:        cfg,
		factory:    f,
		clock:      clock,
		storage:    storageSink,
		snapshots:  snapshots,
		bank:       bank,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the replay loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.factory == nil {
		return fmt.Errorf("factory is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}

	var lastSeq uint64
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok {
			lastSeq = cp.LastProcessedSeq
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", lastSeq))
		}
	}

	file, err := os.Open(r.cfg.OpsPath)
	if err != nil {
		return fmt.Errorf("open ops journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	var (
		batch    []model.EventRecord
		applied  int
		rejected int
	)

	flush := func(seq uint64) error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.storage.PutEventBatch(batch); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		batch = batch[:0]
		if r.checkpoint != nil {
			if err := r.checkpoint.Save(seq); err != nil {
				return err
			}
		}
		return nil
	}

	var seq uint64
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var op model.OpRecord
		if err := json.Unmarshal(line, &op); err != nil {
			return fmt.Errorf("parse op line: %w", err)
		}
		if op.Seq <= lastSeq {
			continue
		}
		seq = op.Seq

		// The journal's timestamps are the engine's clock.
		r.clock.Set(op.Timestamp)

		event, err := r.apply(op)
		if err != nil {
			// Rejected operations are normal journal content: the
			// engine state is untouched, so replay continues.
			rejected++
			r.logger.Warn("op rejected",
				zap.Uint64("seq", op.Seq),
				zap.String("kind", op.Kind),
				zap.Error(err),
			)
			continue
		}
		applied++
		batch = append(batch, *event)

		if len(batch) >= r.cfg.BatchSize {
			if err := flush(op.Seq); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ops journal: %w", err)
	}
	if err := flush(seq); err != nil {
		return err
	}

	if r.snapshots != nil {
		snaps := make([]model.PoolSnapshot, 0)
		for _, p := range r.factory.Pools() {
			snaps = append(snaps, p.Export())
		}
		err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			if err := r.snapshots.UpsertPoolSnapshots(ctx, snaps); err != nil {
				r.logger.Warn("snapshot persist failed", zap.Error(err))
				return err
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("persist snapshots: %w", err)
		}
	}

	r.logger.Info("replay complete",
		zap.Int("applied", applied),
		zap.Int("rejected", rejected),
		zap.Uint64("last_seq", seq),
	)
	return nil
}
