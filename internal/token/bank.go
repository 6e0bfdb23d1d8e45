package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNegativeAmount      = errors.New("amount must not be negative")
)

// Native is the pseudo-address credited when an unwrap is requested for the
// wrapped native token.
var Native = common.Address{}

// Ledger is the external token-ledger collaborator the pool settles against.
// The pool commits all of its own state before calling either method.
type Ledger interface {
	// Debit pulls amount of token from the payer into the pool account.
	Debit(token, from, poolAccount common.Address, amount *big.Int) error
	// Credit pays amount of token out of the pool account, unwrapping the
	// wrapped native token when asked.
	Credit(token, poolAccount, to common.Address, amount *big.Int, unwrap bool) error
	// BalanceOf reports the booked balance for settlement checks and views.
	BalanceOf(token, account common.Address) *big.Int
}

// Bank is an in-memory Ledger.
type Bank struct {
	wrapped  common.Address
	balances map[common.Address]map[common.Address]*big.Int
}

// NewBank builds a Bank that treats wrapped as the wrapped native token.
func NewBank(wrapped common.Address) *Bank {
	return &Bank{
		wrapped:  wrapped,
		balances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits freshly issued tokens to an account. Test and scenario setup
// only; the pool never calls it.
func (b *Bank) Mint(token, account common.Address, amount *big.Int) {
	b.add(token, account, amount)
}

func (b *Bank) Debit(token, from, poolAccount common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	bal := b.BalanceOf(token, from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s of %s, needs %s", ErrInsufficientBalance, from.Hex(), bal, token.Hex(), amount)
	}
	b.add(token, from, new(big.Int).Neg(amount))
	b.add(token, poolAccount, amount)
	return nil
}

func (b *Bank) Credit(token, poolAccount, to common.Address, amount *big.Int, unwrap bool) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	bal := b.BalanceOf(token, poolAccount)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: pool %s has %s of %s, owes %s", ErrInsufficientBalance, poolAccount.Hex(), bal, token.Hex(), amount)
	}
	b.add(token, poolAccount, new(big.Int).Neg(amount))

	credited := token
	if unwrap && token == b.wrapped {
		credited = Native
	}
	b.add(credited, to, amount)
	return nil
}

func (b *Bank) BalanceOf(token, account common.Address) *big.Int {
	accounts, ok := b.balances[token]
	if !ok {
		return new(big.Int)
	}
	bal, ok := accounts[account]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(bal)
}

func (b *Bank) add(token, account common.Address, amount *big.Int) {
	accounts, ok := b.balances[token]
	if !ok {
		accounts = make(map[common.Address]*big.Int)
		b.balances[token] = accounts
	}
	bal, ok := accounts[account]
	if !ok {
		bal = new(big.Int)
		accounts[account] = bal
	}
	bal.Add(bal, amount)
}
