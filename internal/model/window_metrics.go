package model

import "time"

// PoolWindowMetrics stores aggregated per-pool trade metrics for one time
// window of the event journal.
type PoolWindowMetrics struct {
	PoolAddress    string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	Volume0        string
	Volume1        string
	Fee0           string
	Fee1           string
}
