package model

// GrowthSnapshot holds the five Q128 accumulators as decimal strings.
type GrowthSnapshot struct {
	Fee0     string `json:"fee0"`
	Fee1     string `json:"fee1"`
	Airdrop0 string `json:"airdrop0"`
	Airdrop1 string `json:"airdrop1"`
	Reward   string `json:"reward"`
}

// TickSnapshot is one initialized tick of the ledger.
type TickSnapshot struct {
	Index          int32          `json:"index"`
	Prev           int32          `json:"prev"`
	Next           int32          `json:"next"`
	LiquidityGross string         `json:"liquidity_gross"`
	LiquidityNet   string         `json:"liquidity_net"`
	Outside        GrowthSnapshot `json:"outside"`
}

// PositionSnapshot is one position record.
type PositionSnapshot struct {
	ID         uint64         `json:"id"`
	Owner      string         `json:"owner"`
	Lower      int32          `json:"lower"`
	Upper      int32          `json:"upper"`
	Liquidity  string         `json:"liquidity"`
	InsideLast GrowthSnapshot `json:"inside_last"`
	Owed0      string         `json:"owed0"`
	Owed1      string         `json:"owed1"`
	OwedReward string         `json:"owed_reward"`
}

// StreamSnapshot is the active emission window.
type StreamSnapshot struct {
	StartTime  uint64 `json:"start_time"`
	Period     uint64 `json:"period"`
	Rate0      string `json:"rate0"`
	Rate1      string `json:"rate1"`
	RateReward string `json:"rate_reward"`
}

// PoolSnapshot is the full serializable state of one pool.
type PoolSnapshot struct {
	Address      string             `json:"address"`
	Token0       string             `json:"token0"`
	Token1       string             `json:"token1"`
	RewardToken  string             `json:"reward_token,omitempty"`
	Fee          uint32             `json:"fee"`
	TickSpacing  int32              `json:"tick_spacing"`
	SqrtPriceX96 string             `json:"sqrt_price_x96"`
	CurrentTick  int32              `json:"current_tick"`
	NearestTick  int32              `json:"nearest_tick"`
	Liquidity    string             `json:"liquidity"`
	Reserve0     string             `json:"reserve0"`
	Reserve1     string             `json:"reserve1"`
	Global       GrowthSnapshot     `json:"global"`
	Stream       StreamSnapshot     `json:"stream"`
	LastUpdate   uint64             `json:"last_update"`
	Ticks        []TickSnapshot     `json:"ticks"`
	Positions    []PositionSnapshot `json:"positions"`
}
