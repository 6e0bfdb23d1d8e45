package replay

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"rangepool/internal/factory"
	"rangepool/internal/model"
	"rangepool/internal/pool"
	"rangepool/internal/token"
)

var (
	token0Addr  = common.HexToAddress("0xa1")
	token1Addr  = common.HexToAddress("0xa2")
	factoryAddr = common.HexToAddress("0xf1")
	streamAddr  = common.HexToAddress("0xf2")
	alice       = common.HexToAddress("0xb01")
)

// captureStorage records every event batch it receives.
type captureStorage struct {
	events []model.EventRecord
}

func (c *captureStorage) PutEventBatch(events []model.EventRecord) error {
	c.events = append(c.events, events...)
	return nil
}

func writeOps(t *testing.T, path string, ops []model.OpRecord) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create ops file: %v", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, op := range ops {
		if err := enc.Encode(op); err != nil {
			t.Fatalf("encode op: %v", err)
		}
	}
}

func opWith(t *testing.T, seq, ts uint64, kind, poolAddr string, params interface{}) model.OpRecord {
	t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return model.OpRecord{
		Seq:       seq,
		Timestamp: ts,
		Kind:      kind,
		Pool:      poolAddr,
		Caller:    alice.Hex(),
		Params:    payload,
	}
}

// deployTuple encodes a reward-less pool deployment and returns the encoded
// bytes plus the address the factory will derive from them.
func deployTuple(t *testing.T) ([]byte, common.Address) {
	t.Helper()
	data, err := factory.EncodeDeployParams(factory.DeployParams{
		Token0:      token0Addr,
		Token1:      token1Addr,
		Fee:         3000,
		SqrtPrice:   new(big.Int).Lsh(big.NewInt(1), 96),
		TickSpacing: 60,
	})
	if err != nil {
		t.Fatalf("EncodeDeployParams: %v", err)
	}
	hash := crypto.Keccak256Hash(data)
	return data, common.BytesToAddress(hash[12:])
}

func testJournal(t *testing.T) ([]model.OpRecord, common.Address) {
	t.Helper()
	data, poolAddr := deployTuple(t)
	pa := poolAddr.Hex()

	ops := []model.OpRecord{
		opWith(t, 1, 1000, model.OpCreatePool, "", model.CreatePoolOp{
			ParamsHex: hexutil.Encode(data),
		}),
		opWith(t, 2, 1010, model.OpMint, pa, model.MintOp{
			LowerHint:      -887272,
			Lower:          -887160,
			UpperHint:      -887272,
			Upper:          887100,
			Amount0Desired: "1099511627776",
			Amount1Desired: "1099511627776",
		}),
		opWith(t, 3, 1020, model.OpSwap, pa, model.SwapOp{
			TokenIn:         token0Addr.Hex(),
			AmountSpecified: "1000000",
			Recipient:       alice.Hex(),
		}),
		// Lower tick 60 breaks the spacing-parity rule, so this op is
		// rejected and replay moves on.
		opWith(t, 4, 1030, model.OpMint, pa, model.MintOp{
			LowerHint:      -887272,
			Lower:          60,
			UpperHint:      -887272,
			Upper:          180,
			Amount0Desired: "1000000",
			Amount1Desired: "1000000",
		}),
		opWith(t, 5, 1040, model.OpCollect, pa, model.CollectOp{
			PositionID: 1,
			Recipient:  alice.Hex(),
		}),
	}
	return ops, poolAddr
}

func newTestRunner(cfg RunConfig, sink *captureStorage) (*Runner, *factory.Factory) {
	bank := token.NewBank(common.Address{})
	clock := pool.NewManualClock(0)
	fac := factory.New(factoryAddr, streamAddr, bank, clock, nil)
	return NewRunner(cfg, fac, clock, sink, nil, bank, nil), fac
}

func TestRunnerAppliesJournal(t *testing.T) {
	dir := t.TempDir()
	opsPath := filepath.Join(dir, "ops.jsonl")
	cpPath := filepath.Join(dir, "checkpoint.json")

	ops, poolAddr := testJournal(t)
	writeOps(t, opsPath, ops)

	sink := &captureStorage{}
	r, fac := newTestRunner(RunConfig{
		OpsPath:           opsPath,
		BatchSize:         2,
		CheckpointPath:    cpPath,
		CheckpointEnabled: true,
	}, sink)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.events) != 4 {
		t.Fatalf("events = %d, want 4 (one op rejected)", len(sink.events))
	}
	wantKinds := []string{model.OpCreatePool, model.OpMint, model.OpSwap, model.OpCollect}
	for i, ev := range sink.events {
		if ev.Kind != wantKinds[i] {
			t.Fatalf("event %d kind = %s, want %s", i, ev.Kind, wantKinds[i])
		}
	}
	if sink.events[1].Pool != poolAddr.Hex() {
		t.Fatalf("mint event pool = %s, want %s", sink.events[1].Pool, poolAddr.Hex())
	}

	p, err := fac.Pool(poolAddr)
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if p.Liquidity().Sign() <= 0 {
		t.Fatalf("pool liquidity = %s, want positive", p.Liquidity())
	}
	if _, err := p.Position(1); err != nil {
		t.Fatalf("Position(1): %v", err)
	}

	cp, ok, err := NewCheckpointStore(cpPath, true).Load()
	if err != nil || !ok {
		t.Fatalf("Load checkpoint: ok=%v err=%v", ok, err)
	}
	if cp.LastProcessedSeq != 5 {
		t.Fatalf("checkpoint seq = %d, want 5", cp.LastProcessedSeq)
	}
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	opsPath := filepath.Join(dir, "ops.jsonl")
	cpPath := filepath.Join(dir, "checkpoint.json")

	ops, _ := testJournal(t)
	writeOps(t, opsPath, ops[:2])

	cfg := RunConfig{
		OpsPath:           opsPath,
		CheckpointPath:    cpPath,
		CheckpointEnabled: true,
	}
	sink := &captureStorage{}
	bank := token.NewBank(common.Address{})
	clock := pool.NewManualClock(0)
	fac := factory.New(factoryAddr, streamAddr, bank, clock, nil)

	if err := NewRunner(cfg, fac, clock, sink, nil, bank, nil).Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("first run events = %d, want 2", len(sink.events))
	}

	// The journal grows; a fresh runner over the same engine picks up
	// where the checkpoint left off.
	writeOps(t, opsPath, ops)
	resumed := &captureStorage{}
	if err := NewRunner(cfg, fac, clock, resumed, nil, bank, nil).Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if len(resumed.events) != 2 {
		t.Fatalf("resumed events = %d, want 2", len(resumed.events))
	}
	if resumed.events[0].Seq != 3 || resumed.events[1].Seq != 5 {
		t.Fatalf("resumed seqs = %d, %d, want 3 and 5", resumed.events[0].Seq, resumed.events[1].Seq)
	}
}

func TestRunnerMissingJournal(t *testing.T) {
	sink := &captureStorage{}
	r, _ := newTestRunner(RunConfig{
		OpsPath: filepath.Join(t.TempDir(), "absent.jsonl"),
	}, sink)
	if err := r.Run(context.Background()); err == nil {
		t.Fatalf("Run with missing journal succeeded")
	}
}

func TestCheckpointStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "checkpoint.json")
	store := NewCheckpointStore(path, true)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("Load before save: ok=%v err=%v", ok, err)
	}
	if err := store.Save(42); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cp, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load after save: ok=%v err=%v", ok, err)
	}
	if cp.LastProcessedSeq != 42 {
		t.Fatalf("seq = %d, want 42", cp.LastProcessedSeq)
	}
	if cp.UpdatedAt == "" {
		t.Fatalf("UpdatedAt empty")
	}
}

func TestCheckpointStoreDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, false)

	if err := store.Save(7); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("disabled store wrote a file")
	}
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
}

func TestWithRetryEventuallySucceeds(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryExhausts(t *testing.T) {
	want := errors.New("permanent")
	attempts := 0
	err := withRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		attempts++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}
