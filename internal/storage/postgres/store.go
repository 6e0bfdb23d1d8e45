package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rangepool/internal/model"
)

// Store provides Postgres persistence for pool snapshots and window metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPoolSnapshots inserts or updates full pool state snapshots. Tick and
// position detail goes in as JSON; the hot columns are split out for queries.
func (s *Store) UpsertPoolSnapshots(ctx context.Context, snaps []model.PoolSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snaps {
		detail, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal snapshot %s: %w", snap.Address, err)
		}
		batch.Queue(`
			INSERT INTO pool_snapshots (
				pool_address, token0, token1, reward_token, fee, tick_spacing,
				sqrt_price_x96, current_tick, liquidity, reserve0, reserve1,
				last_update, detail, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
				current_tick = EXCLUDED.current_tick,
				liquidity = EXCLUDED.liquidity,
				reserve0 = EXCLUDED.reserve0,
				reserve1 = EXCLUDED.reserve1,
				last_update = EXCLUDED.last_update,
				detail = EXCLUDED.detail,
				updated_at = now()
		`,
			snap.Address,
			snap.Token0,
			snap.Token1,
			snap.RewardToken,
			snap.Fee,
			snap.TickSpacing,
			snap.SqrtPriceX96,
			snap.CurrentTick,
			snap.Liquidity,
			snap.Reserve0,
			snap.Reserve1,
			int64(snap.LastUpdate),
			detail,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snaps {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowMetrics inserts or updates per-pool window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, volume0, volume1, fee0, fee1, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				fee0 = EXCLUDED.fee0,
				fee1 = EXCLUDED.fee1,
				updated_at = now()
		`,
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			m.Volume0,
			m.Volume1,
			m.Fee0,
			m.Fee1,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
