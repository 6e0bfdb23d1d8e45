package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rangepool/internal/config"
	"rangepool/internal/factory"
	"rangepool/internal/model"
	"rangepool/internal/pool"
	"rangepool/internal/replay"
	"rangepool/internal/storage"
	"rangepool/internal/storage/postgres"
	"rangepool/internal/token"
)

var (
	defaultFactoryAddress = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	defaultStreamer       = common.HexToAddress("0x00000000000000000000000000000000000000f2")
)

func main() {
	root := &cobra.Command{
		Use:          "poold",
		Short:        "Concentrated-liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay an operation journal into the engine",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("ops", "./data/ops.jsonl", "operation journal JSONL path")
	replayCmd.Flags().String("events", "./data/events.jsonl", "output event journal JSONL path")
	replayCmd.Flags().String("database-url", "", "Postgres DSN for snapshot/metrics persistence (optional)")
	replayCmd.Flags().Int("batch-size", 1000, "events per storage batch")
	replayCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().String("streamer", defaultStreamer.Hex(), "authorized stream depositor address")
	replayCmd.Flags().String("wrapped", "", "wrapped native token address (unwrap target)")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)
	root.AddCommand(newInspectCmd())
	root.AddCommand(newQuoteCmd())
	root.AddCommand(newAggregateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	streamer, err := addressFlag(cmd, "streamer")
	if err != nil {
		return err
	}
	wrapped, _ := cmd.Flags().GetString("wrapped")
	var wrappedAddr common.Address
	if wrapped != "" {
		if !common.IsHexAddress(wrapped) {
			return fmt.Errorf("invalid wrapped address: %s", wrapped)
		}
		wrappedAddr = common.HexToAddress(wrapped)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bank := token.NewBank(wrappedAddr)
	clock := pool.NewManualClock(0)
	fac := factory.New(defaultFactoryAddress, streamer, bank, clock, logger)
	storageSink := storage.NewJsonlStorage(cfg.Events)

	var snapshots replay.SnapshotStore
	if cfg.DatabaseURL != "" {
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		snapshots = store
	}

	runner := replay.NewRunner(replay.RunConfig{
		OpsPath:           cfg.Ops,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, fac, clock, storageSink, snapshots, bank, logger)

	logger.Info("replay start",
		zap.String("ops", cfg.Ops),
		zap.String("events", cfg.Events),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
		zap.Bool("postgres", snapshots != nil),
	)

	return runner.Run(ctx)
}

// rebuild replays the journal in-memory so view commands see final state.
// Events are discarded and checkpoints disabled.
func rebuild(opsPath string, logger *zap.Logger) (*factory.Factory, error) {
	bank := token.NewBank(common.Address{})
	clock := pool.NewManualClock(0)
	fac := factory.New(defaultFactoryAddress, defaultStreamer, bank, clock, logger)

	runner := replay.NewRunner(replay.RunConfig{
		OpsPath: opsPath,
	}, fac, clock, discardStorage{}, nil, bank, logger)

	if err := runner.Run(context.Background()); err != nil {
		return nil, err
	}
	return fac, nil
}

type discardStorage struct{}

func (discardStorage) PutEventBatch([]model.EventRecord) error { return nil }

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %s", name, value)
	}
	return common.HexToAddress(value), nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
