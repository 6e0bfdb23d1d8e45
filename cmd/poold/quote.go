package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Replay a journal and quote a swap against final state",
		RunE:  runQuote,
	}

	cmd.Flags().String("ops", "./data/ops.jsonl", "operation journal JSONL path")
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("token-in", "", "input token address")
	cmd.Flags().String("amount", "", "amount specified (negative for exact output)")
	cmd.Flags().String("sqrt-price-limit", "", "optional Q64.96 sqrt price limit")
	cmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	return cmd
}

type quoteOutput struct {
	Pool           string `json:"pool"`
	TokenIn        string `json:"token_in"`
	TokenOut       string `json:"token_out"`
	AmountIn       string `json:"amount_in"`
	AmountOut      string `json:"amount_out"`
	EffectivePrice string `json:"effective_price"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	opsPath, _ := cmd.Flags().GetString("ops")
	logLevel, _ := cmd.Flags().GetString("log-level")

	poolAddr, err := addressFlag(cmd, "pool")
	if err != nil {
		return err
	}
	tokenIn, err := addressFlag(cmd, "token-in")
	if err != nil {
		return err
	}

	amountRaw, _ := cmd.Flags().GetString("amount")
	amount, ok := new(big.Int).SetString(amountRaw, 10)
	if !ok {
		return fmt.Errorf("invalid amount: %s", amountRaw)
	}
	if amount.Sign() == 0 {
		return fmt.Errorf("amount must be non-zero")
	}

	var limit *big.Int
	if limitRaw, _ := cmd.Flags().GetString("sqrt-price-limit"); limitRaw != "" {
		if limit, ok = new(big.Int).SetString(limitRaw, 10); !ok {
			return fmt.Errorf("invalid sqrt-price-limit: %s", limitRaw)
		}
	}

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	fac, err := rebuild(opsPath, logger)
	if err != nil {
		return err
	}
	p, err := fac.Pool(poolAddr)
	if err != nil {
		return err
	}

	imm := p.Immutables()
	var zeroForOne bool
	var tokenOut common.Address
	switch tokenIn {
	case imm.Token0:
		zeroForOne = true
		tokenOut = imm.Token1
	case imm.Token1:
		zeroForOne = false
		tokenOut = imm.Token0
	default:
		return fmt.Errorf("token %s not part of pool %s", tokenIn.Hex(), poolAddr.Hex())
	}

	amountIn, amountOut, err := p.Quote(zeroForOne, amount, limit)
	if err != nil {
		return err
	}

	out := quoteOutput{
		Pool:           poolAddr.Hex(),
		TokenIn:        tokenIn.Hex(),
		TokenOut:       tokenOut.Hex(),
		AmountIn:       amountIn.String(),
		AmountOut:      amountOut.String(),
		EffectivePrice: effectivePrice(amountIn, amountOut),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// effectivePrice is amountOut/amountIn, the realized exchange rate including
// fee and slippage across crossed ticks.
func effectivePrice(amountIn, amountOut *big.Int) string {
	if amountIn.Sign() == 0 {
		return ""
	}
	in := decimal.NewFromBigInt(amountIn, 0)
	out := decimal.NewFromBigInt(amountOut, 0)
	return out.Div(in).StringFixed(18)
}
