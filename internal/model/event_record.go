package model

import "encoding/json"

// EventRecord is the normalized representation of one applied operation's
// outcome, written to the event journal.
type EventRecord struct {
	Seq       uint64          `json:"seq"`
	Timestamp uint64          `json:"timestamp"`
	Pool      string          `json:"pool"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
}

// SwapEventData is the outcome of a swap.
type SwapEventData struct {
	Caller       string `json:"caller"`
	Recipient    string `json:"recipient"`
	ZeroForOne   bool   `json:"zero_for_one"`
	AmountIn     string `json:"amount_in"`
	AmountOut    string `json:"amount_out"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
}

// MintEventData is the outcome of a liquidity provision.
type MintEventData struct {
	Owner      string `json:"owner"`
	Lower      int32  `json:"lower"`
	Upper      int32  `json:"upper"`
	Liquidity  string `json:"liquidity"`
	Amount0    string `json:"amount0"`
	Amount1    string `json:"amount1"`
	PositionID uint64 `json:"position_id"`
}

// BurnEventData is the outcome of a liquidity removal.
type BurnEventData struct {
	Owner      string `json:"owner"`
	Recipient  string `json:"recipient"`
	Liquidity  string `json:"liquidity"`
	Amount0    string `json:"amount0"`
	Amount1    string `json:"amount1"`
	PositionID uint64 `json:"position_id"`
}

// CollectEventData is the outcome of a fee/airdrop or reward collection.
type CollectEventData struct {
	Owner      string `json:"owner"`
	Recipient  string `json:"recipient"`
	Amount0    string `json:"amount0,omitempty"`
	Amount1    string `json:"amount1,omitempty"`
	Reward     string `json:"reward,omitempty"`
	PositionID uint64 `json:"position_id"`
}

// StreamEventData is the outcome of a stream deposit.
type StreamEventData struct {
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	RewardAmount string `json:"reward_amount"`
	StartTime    uint64 `json:"start_time"`
	Period       uint64 `json:"period"`
}

// PoolCreatedEventData is the outcome of a pool creation.
type PoolCreatedEventData struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	RewardToken string `json:"reward_token,omitempty"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
}
