package tickmath

import (
	"errors"
	"math/big"
	"testing"
)

func TestSqrtRatioAtTickZero(t *testing.T) {
	got, err := SqrtRatioAtTick(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(big.Int).Lsh(big.NewInt(1), 96)
	if got.Cmp(want) != 0 {
		t.Fatalf("tick 0 ratio mismatch: %s != %s", got, want)
	}
}

func TestSqrtRatioAtTickBounds(t *testing.T) {
	got, err := SqrtRatioAtTick(MinTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(MinSqrtRatio) != 0 {
		t.Fatalf("min tick ratio mismatch: %s != %s", got, MinSqrtRatio)
	}

	got, err = SqrtRatioAtTick(MaxTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(MaxSqrtRatio) != 0 {
		t.Fatalf("max tick ratio mismatch: %s != %s", got, MaxSqrtRatio)
	}

	if _, err := SqrtRatioAtTick(MinTick - 1); err == nil {
		t.Fatalf("expected error below MinTick")
	}
	if _, err := SqrtRatioAtTick(MaxTick + 1); err == nil {
		t.Fatalf("expected error above MaxTick")
	}
}

func TestSqrtRatioAtTickMonotonic(t *testing.T) {
	ticks := []int32{MinTick, -500000, -100000, -50000, -60, -1, 0, 1, 60, 50000, 100000, 500000, MaxTick}
	prev, err := SqrtRatioAtTick(ticks[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tick := range ticks[1:] {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if ratio.Cmp(prev) <= 0 {
			t.Fatalf("ratio not increasing at tick %d: %s <= %s", tick, ratio, prev)
		}
		prev = ratio
	}
}

func TestTickAtSqrtRatioRoundTrip(t *testing.T) {
	ticks := []int32{MinTick, -887271, -123456, -60, -2, -1, 0, 1, 2, 60, 123456, 887271}
	for _, tick := range ticks {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		got, err := TickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("ratio for tick %d: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip mismatch: tick %d -> %d", tick, got)
		}
	}
}

func TestTickAtSqrtRatioBetweenTicks(t *testing.T) {
	// A ratio strictly between tick 100 and tick 101 resolves to 100.
	lo, err := SqrtRatioAtTick(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mid := new(big.Int).Add(lo, big.NewInt(1))
	got, err := TickAtSqrtRatio(mid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Fatalf("expected tick 100, got %d", got)
	}
}

func TestTickAtSqrtRatioOutOfBounds(t *testing.T) {
	below := new(big.Int).Sub(MinSqrtRatio, big.NewInt(1))
	if _, err := TickAtSqrtRatio(below); err == nil {
		t.Fatalf("expected error below MinSqrtRatio")
	}
	// MaxSqrtRatio itself is excluded from the domain.
	if _, err := TickAtSqrtRatio(MaxSqrtRatio); err == nil {
		t.Fatalf("expected error at MaxSqrtRatio")
	}
	atMax := new(big.Int).Sub(MaxSqrtRatio, big.NewInt(1))
	got, err := TickAtSqrtRatio(atMax)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != MaxTick-1 {
		t.Fatalf("expected tick %d, got %d", MaxTick-1, got)
	}
}

func TestCheckTicks(t *testing.T) {
	cases := []struct {
		name    string
		lower   int32
		upper   int32
		spacing int32
		wantErr error
	}{
		{"valid", 0, 60, 60, nil},
		{"valid negative", -120, -60, 60, nil},
		{"valid wide", -887272, 887267, 1, nil},
		{"inverted", 60, 0, 60, ErrInvalidTick},
		{"equal", 60, 60, 60, ErrInvalidTick},
		{"unaligned lower", 30, 60, 60, ErrInvalidTick},
		{"unaligned upper", 0, 90, 60, ErrInvalidTick},
		{"lower odd multiple", 60, 180, 60, ErrLowerEven},
		{"upper even multiple", 0, 120, 60, ErrUpperOdd},
		{"below min", MinTick - 60, 60, 60, ErrInvalidTick},
		{"zero spacing", 0, 60, 0, ErrInvalidTick},
	}

	for _, tc := range cases {
		err := CheckTicks(tc.lower, tc.upper, tc.spacing)
		if tc.wantErr == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tc.name, err)
			}
			continue
		}
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestMaxLiquidityPerTick(t *testing.T) {
	one := MaxLiquidityPerTick(1)
	sixty := MaxLiquidityPerTick(60)
	if one.Cmp(sixty) >= 0 {
		t.Fatalf("wider spacing must allow more liquidity per tick: %s >= %s", one, sixty)
	}
	if one.Sign() <= 0 || sixty.Sign() <= 0 {
		t.Fatalf("caps must be positive")
	}
}
