package pool

import "errors"

// The error taxonomy mirrors the operation contract: validation and
// authorization failures, timing gates, arithmetic limits, and slippage
// bounds. Every rejection leaves the pool exactly as it was before the call.
var (
	ErrZeroAddress        = errors.New("zero address token")
	ErrInvalidFee         = errors.New("invalid fee")
	ErrInvalidPrice       = errors.New("invalid sqrt price")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrNotYet             = errors.New("not yet: previous stream window still active or start in the past")
	ErrInvalidPeriod      = errors.New("stream period must be positive")
	ErrLiquidityOverflow  = errors.New("liquidity overflow at tick")
	ErrNoLiquidityMinted  = errors.New("desired amounts yield no liquidity")
	ErrNotEnoughLiquidity = errors.New("position holds less liquidity than requested")
	ErrTooLittleReceived  = errors.New("too little received")
	ErrTooMuchRequested   = errors.New("maximum input exceeded")
	ErrReentrancy         = errors.New("reentrant call")
	ErrInvalidPriceLimit  = errors.New("price limit on wrong side of current price")
	ErrWrongRange         = errors.New("range does not match existing position")
	ErrNoRewardToken      = errors.New("pool has no reward token")
	ErrSettlement         = errors.New("settlement failed")
)
