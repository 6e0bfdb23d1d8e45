package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rangepool/internal/stats"
	"rangepool/internal/storage/postgres"
)

func newAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate event journal into window metrics",
		RunE:  runAggregate,
	}

	cmd.Flags().String("ops", "./data/ops.jsonl", "operation journal JSONL path (fee tier discovery)")
	cmd.Flags().String("events", "./data/events.jsonl", "input event journal JSONL path")
	cmd.Flags().String("window", "1h", "aggregation window (e.g. 1m, 5m, 1h)")
	cmd.Flags().String("database-url", "", "Postgres DSN")
	cmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	opsPath, _ := cmd.Flags().GetString("ops")
	eventsPath, _ := cmd.Flags().GetString("events")
	windowRaw, _ := cmd.Flags().GetString("window")
	databaseURL, _ := cmd.Flags().GetString("database-url")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	logLevel, _ := cmd.Flags().GetString("log-level")

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if databaseURL == "" {
		return fmt.Errorf("database-url is required")
	}

	windowDuration, err := time.ParseDuration(windowRaw)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	windowSeconds := uint64(windowDuration.Seconds())
	if windowSeconds == 0 {
		return fmt.Errorf("window must be at least 1s")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fee tiers come from the pools themselves, rebuilt from the op journal.
	fac, err := rebuild(opsPath, logger)
	if err != nil {
		return fmt.Errorf("rebuild pools: %w", err)
	}
	poolFees := make(map[string]uint32)
	for _, p := range fac.Pools() {
		poolFees[p.Address().Hex()] = p.Immutables().Fee
	}

	store, err := postgres.NewStore(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	agg := stats.NewAggregator(stats.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     batchSize,
		PoolFees:      poolFees,
	}, store, logger)

	logger.Info("aggregate start",
		zap.String("events", eventsPath),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Int("pools", len(poolFees)),
		zap.Int("batch_size", batchSize),
	)

	return agg.Run(ctx, eventsPath)
}
