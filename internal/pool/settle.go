package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// transfer is one leg of a settlement against the external token ledger.
type transfer struct {
	token  common.Address
	amount *big.Int
	unwrap bool
}

// debitAll pulls every transfer from payer into the pool account. Balances
// are validated up front so the executed legs cannot fail halfway through;
// a misbehaving foreign ledger still surfaces as ErrSettlement and the
// caller rolls the pool back.
func (p *Pool) debitAll(payer common.Address, ts []transfer) error {
	needed := make(map[common.Address]*big.Int)
	for _, t := range ts {
		if t.amount.Sign() == 0 {
			continue
		}
		sum, ok := needed[t.token]
		if !ok {
			sum = new(big.Int)
			needed[t.token] = sum
		}
		sum.Add(sum, t.amount)
	}
	for tok, sum := range needed {
		if p.bank.BalanceOf(tok, payer).Cmp(sum) < 0 {
			return fmt.Errorf("%w: payer %s short of %s", ErrSettlement, payer.Hex(), tok.Hex())
		}
	}
	for _, t := range ts {
		if t.amount.Sign() == 0 {
			continue
		}
		if err := p.bank.Debit(t.token, payer, p.address, t.amount); err != nil {
			return fmt.Errorf("%w: %v", ErrSettlement, err)
		}
	}
	return nil
}

// creditAll pays every transfer out of the pool account to recipient.
func (p *Pool) creditAll(recipient common.Address, ts []transfer) error {
	for _, t := range ts {
		if t.amount.Sign() == 0 {
			continue
		}
		if err := p.bank.Credit(t.token, p.address, recipient, t.amount, t.unwrap); err != nil {
			return fmt.Errorf("%w: %v", ErrSettlement, err)
		}
	}
	return nil
}
