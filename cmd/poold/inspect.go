package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"rangepool/internal/model"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Replay a journal and print final pool state",
		RunE:  runInspect,
	}

	cmd.Flags().String("ops", "./data/ops.jsonl", "operation journal JSONL path")
	cmd.Flags().String("pool", "", "pool address (all pools when empty)")
	cmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	return cmd
}

// inspectOutput is a PoolSnapshot plus a human-readable spot price.
type inspectOutput struct {
	model.PoolSnapshot
	Price string `json:"price"`
}

func runInspect(cmd *cobra.Command, _ []string) error {
	opsPath, _ := cmd.Flags().GetString("ops")
	poolFilter, _ := cmd.Flags().GetString("pool")
	logLevel, _ := cmd.Flags().GetString("log-level")

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	fac, err := rebuild(opsPath, logger)
	if err != nil {
		return err
	}

	var outputs []inspectOutput
	for _, p := range fac.Pools() {
		if poolFilter != "" && p.Address() != common.HexToAddress(poolFilter) {
			continue
		}
		snap := p.Export()
		outputs = append(outputs, inspectOutput{
			PoolSnapshot: snap,
			Price:        renderPrice(snap.SqrtPriceX96),
		})
	}
	if poolFilter != "" && len(outputs) == 0 {
		return fmt.Errorf("pool %s not found in journal", poolFilter)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, out := range outputs {
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

var q96Decimal = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 96), 0)

// renderPrice converts a Q64.96 sqrt price into token1-per-token0 terms.
func renderPrice(sqrtPriceX96 string) string {
	raw, ok := new(big.Int).SetString(sqrtPriceX96, 10)
	if !ok {
		return ""
	}
	ratio := decimal.NewFromBigInt(raw, 0).Div(q96Decimal)
	return ratio.Mul(ratio).StringFixed(18)
}
