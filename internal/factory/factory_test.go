package factory

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"rangepool/internal/pool"
	"rangepool/internal/token"
)

var (
	tokenA   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenB   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	tokenR   = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	facAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	strAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	q96Price = new(big.Int).Lsh(big.NewInt(1), 96)
)

func testParams(withReward bool) DeployParams {
	p := DeployParams{
		Token0:      tokenA,
		Token1:      tokenB,
		Fee:         3000,
		SqrtPrice:   q96Price,
		TickSpacing: 60,
		WithReward:  withReward,
	}
	if withReward {
		p.RewardToken = tokenR
	}
	return p
}

func newTestFactory() *Factory {
	bank := token.NewBank(common.Address{})
	return New(facAddr, strAddr, bank, pool.NewManualClock(0), nil)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, withReward := range []bool{false, true} {
		in := testParams(withReward)
		data, err := EncodeDeployParams(in)
		if err != nil {
			t.Fatalf("encode (reward=%v): %v", withReward, err)
		}

		wantLen := 5 * 32
		if withReward {
			wantLen = 6 * 32
		}
		if len(data) != wantLen {
			t.Fatalf("encoded length %d != %d", len(data), wantLen)
		}

		out, err := DecodeDeployParams(data, withReward)
		if err != nil {
			t.Fatalf("decode (reward=%v): %v", withReward, err)
		}
		if out.Token0 != in.Token0 || out.Token1 != in.Token1 || out.RewardToken != in.RewardToken {
			t.Fatalf("token mismatch: %+v", out)
		}
		if out.Fee != in.Fee || out.TickSpacing != in.TickSpacing {
			t.Fatalf("fee/spacing mismatch: %+v", out)
		}
		if out.SqrtPrice.Cmp(in.SqrtPrice) != 0 {
			t.Fatalf("sqrt price mismatch: %s", out.SqrtPrice)
		}
	}
}

func TestDecodeRejectsUnsortedTokens(t *testing.T) {
	in := testParams(false)
	in.Token0, in.Token1 = in.Token1, in.Token0
	data, err := EncodeDeployParams(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeDeployParams(data, false); err == nil {
		t.Fatalf("expected error for unsorted tokens")
	}

	in = testParams(false)
	in.Token1 = in.Token0
	data, err = EncodeDeployParams(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeDeployParams(data, false); err == nil {
		t.Fatalf("expected error for identical tokens")
	}
}

func TestDecodeLayoutMismatch(t *testing.T) {
	data, err := EncodeDeployParams(testParams(false))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeDeployParams(data, true); err == nil {
		t.Fatalf("plain tuple must not decode with the reward layout")
	}
}

func TestCreatePoolDeterministicAddress(t *testing.T) {
	f1 := newTestFactory()
	f2 := newTestFactory()

	p1, err := f1.Create(testParams(true))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p2, err := f2.Create(testParams(true))
	if err != nil {
		t.Fatalf("create on second factory: %v", err)
	}
	if p1.Address() != p2.Address() {
		t.Fatalf("addresses not deterministic: %s != %s", p1.Address().Hex(), p2.Address().Hex())
	}

	imm := p1.Immutables()
	if imm.Token0 != tokenA || imm.Token1 != tokenB || imm.RewardToken != tokenR {
		t.Fatalf("pool immutables wrong: %+v", imm)
	}
	if imm.Factory != facAddr {
		t.Fatalf("factory address not wired: %s", imm.Factory.Hex())
	}
}

func TestCreatePoolDuplicateRejected(t *testing.T) {
	f := newTestFactory()
	if _, err := f.Create(testParams(false)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.Create(testParams(false)); !errors.Is(err, ErrPoolExists) {
		t.Fatalf("expected ErrPoolExists, got %v", err)
	}

	// A different fee tier is a different pool.
	other := testParams(false)
	other.Fee = 500
	if _, err := f.Create(other); err != nil {
		t.Fatalf("create different tier: %v", err)
	}
	if len(f.Pools()) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(f.Pools()))
	}
}

func TestPoolLookup(t *testing.T) {
	f := newTestFactory()
	p, err := f.Create(testParams(false))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := f.Pool(p.Address())
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != p {
		t.Fatalf("wrong pool returned")
	}
	if _, err := f.Pool(common.HexToAddress("0xdead")); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}
