package position

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"rangepool/internal/ledger"
)

var (
	alice    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob      = common.HexToAddress("0x2222222222222222222222222222222222222222")
	poolAddr = common.HexToAddress("0x9999999999999999999999999999999999999999")
)

func TestCreateAssignsSequentialIDs(t *testing.T) {
	r := NewRegistry()
	p1 := r.Create(alice, poolAddr, -60, 60, ledger.NewGrowth())
	p2 := r.Create(alice, poolAddr, -120, 180, ledger.NewGrowth())
	if p1.ID != 1 || p2.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", p1.ID, p2.ID)
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 positions, got %d", r.Len())
	}
}

func TestAuthorized(t *testing.T) {
	r := NewRegistry()
	p := r.Create(alice, poolAddr, -60, 60, ledger.NewGrowth())

	got, err := r.Authorized(p.ID, alice)
	if err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if got != p {
		t.Fatalf("wrong position returned")
	}

	if _, err := r.Authorized(p.ID, bob); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if _, err := r.Authorized(999, alice); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveRequiresSettled(t *testing.T) {
	r := NewRegistry()
	p := r.Create(alice, poolAddr, -60, 60, ledger.NewGrowth())

	p.Owed1.SetInt64(10)
	if err := r.Remove(p.ID); !errors.Is(err, ErrNotEmpty) {
		t.Fatalf("expected ErrNotEmpty with owed balance, got %v", err)
	}

	p.Owed1.SetInt64(0)
	p.Liquidity.SetInt64(5)
	if err := r.Remove(p.ID); !errors.Is(err, ErrNotEmpty) {
		t.Fatalf("expected ErrNotEmpty with liquidity, got %v", err)
	}

	p.Liquidity.SetInt64(0)
	if err := r.Remove(p.ID); err != nil {
		t.Fatalf("remove settled position: %v", err)
	}
	if _, err := r.Get(p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("position should be gone")
	}
	if ids := r.OwnedBy(alice); len(ids) != 0 {
		t.Fatalf("owner index not cleaned: %v", ids)
	}
}

func TestTransfer(t *testing.T) {
	r := NewRegistry()
	p := r.Create(alice, poolAddr, -60, 60, ledger.NewGrowth())

	if err := r.Transfer(p.ID, bob, alice); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for non-owner, got %v", err)
	}
	if err := r.Transfer(p.ID, alice, bob); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if p.Owner != bob {
		t.Fatalf("owner not updated")
	}
	if ids := r.OwnedBy(alice); len(ids) != 0 {
		t.Fatalf("old owner still indexed: %v", ids)
	}
	if ids := r.OwnedBy(bob); len(ids) != 1 || ids[0] != p.ID {
		t.Fatalf("new owner index wrong: %v", ids)
	}
}

func TestOwnersSorted(t *testing.T) {
	r := NewRegistry()
	r.Create(bob, poolAddr, -60, 60, ledger.NewGrowth())
	r.Create(alice, poolAddr, -60, 60, ledger.NewGrowth())

	owners := r.Owners()
	if len(owners) != 2 {
		t.Fatalf("expected 2 owners, got %d", len(owners))
	}
	if owners[0] != alice || owners[1] != bob {
		t.Fatalf("owners not sorted: %v", owners)
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := NewRegistry()
	p := r.Create(alice, poolAddr, -60, 60, ledger.NewGrowth())
	p.Liquidity.SetInt64(1000)

	clone := r.Clone()
	p.Liquidity.SetInt64(9999)
	p.Owed0.SetInt64(7)

	cp, err := clone.Get(p.ID)
	if err != nil {
		t.Fatalf("clone lookup: %v", err)
	}
	if cp.Liquidity.Int64() != 1000 {
		t.Fatalf("clone shares liquidity")
	}
	if cp.Owed0.Sign() != 0 {
		t.Fatalf("clone shares owed balances")
	}

	// New ids continue from the same counter in both copies.
	next := clone.Create(bob, poolAddr, 0, 60, ledger.NewGrowth())
	if next.ID != 2 {
		t.Fatalf("clone id counter wrong: %d", next.ID)
	}
}
