package model

import "encoding/json"

// Operation kinds accepted by the replay runner.
const (
	OpCreatePool    = "create_pool"
	OpMint          = "mint"
	OpBurn          = "burn"
	OpCollect       = "collect"
	OpCollectReward = "collect_reward"
	OpSwap          = "swap"
	OpDepositStream = "deposit_stream"
)

// OpRecord is one line of an operation journal: what was called, by whom,
// and at what external timestamp. Params holds the kind-specific payload.
type OpRecord struct {
	Seq       uint64          `json:"seq"`
	Timestamp uint64          `json:"timestamp"`
	Kind      string          `json:"kind"`
	Pool      string          `json:"pool,omitempty"`
	Caller    string          `json:"caller"`
	Params    json.RawMessage `json:"params"`
}

// CreatePoolOp creates a pool from an ABI-encoded deploy tuple.
type CreatePoolOp struct {
	ParamsHex  string `json:"params_hex"`
	WithReward bool   `json:"with_reward"`
}

// MintOp provisions liquidity into a range.
type MintOp struct {
	LowerHint      int32  `json:"lower_hint"`
	Lower          int32  `json:"lower"`
	UpperHint      int32  `json:"upper_hint"`
	Upper          int32  `json:"upper"`
	Amount0Desired string `json:"amount0_desired"`
	Amount1Desired string `json:"amount1_desired"`
	MinLiquidity   string `json:"min_liquidity,omitempty"`
	PositionID     uint64 `json:"position_id,omitempty"`
}

// BurnOp removes liquidity from a position.
type BurnOp struct {
	PositionID uint64 `json:"position_id"`
	Liquidity  string `json:"liquidity"`
	Recipient  string `json:"recipient"`
	MinAmount0 string `json:"min_amount0,omitempty"`
	MinAmount1 string `json:"min_amount1,omitempty"`
	Unwrap     bool   `json:"unwrap,omitempty"`
}

// CollectOp claims unclaimed fee/airdrop or reward balances.
type CollectOp struct {
	PositionID uint64 `json:"position_id"`
	Recipient  string `json:"recipient"`
	Unwrap     bool   `json:"unwrap,omitempty"`
}

// SwapOp trades against one pool.
type SwapOp struct {
	TokenIn         string `json:"token_in"`
	AmountSpecified string `json:"amount_specified"` // negative for exact output
	SqrtPriceLimit  string `json:"sqrt_price_limit,omitempty"`
	AmountLimit     string `json:"amount_limit,omitempty"`
	Recipient       string `json:"recipient"`
	Unwrap          bool   `json:"unwrap,omitempty"`
}

// DepositStreamOp schedules an airdrop/reward emission window.
type DepositStreamOp struct {
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	RewardAmount string `json:"reward_amount"`
	StartTime    uint64 `json:"start_time"`
	Period       uint64 `json:"period"`
}
