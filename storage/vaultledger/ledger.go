// Package vaultledger provides the in-process reference implementation of the
// lockup engine's TokenLedger collaborator. Balances are held as uint256
// words and converted at the big.Int boundary.
package vaultledger

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInvalidAmount       = errors.New("vaultledger: amount must be positive")
	ErrAmountOverflow      = errors.New("vaultledger: amount exceeds 256 bits")
	ErrInsufficientBalance = errors.New("vaultledger: insufficient balance")
)

// Ledger tracks per-token account balances. Safe for concurrent readers; the
// engine serialises writers.
type Ledger struct {
	mu       sync.RWMutex
	custody  common.Address
	balances map[common.Address]map[common.Address]*uint256.Int
}

// New returns an empty ledger whose Transfer calls debit the custody account.
func New(custody common.Address) *Ledger {
	return &Ledger{
		custody:  custody,
		balances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

func toWord(amount *big.Int) (*uint256.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	word, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return word, nil
}

func (l *Ledger) balanceRef(token, account common.Address) *uint256.Int {
	accounts, ok := l.balances[token]
	if !ok {
		accounts = make(map[common.Address]*uint256.Int)
		l.balances[token] = accounts
	}
	bal, ok := accounts[account]
	if !ok {
		bal = uint256.NewInt(0)
		accounts[account] = bal
	}
	return bal
}

// Mint credits account with amount of token. Used to seed deposits and to
// model revenue arriving in custody.
func (l *Ledger) Mint(token, account common.Address, amount *big.Int) error {
	word, err := toWord(amount)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balanceRef(token, account)
	bal.Add(bal, word)
	return nil
}

func (l *Ledger) move(token, from, to common.Address, word *uint256.Int) error {
	src := l.balanceRef(token, from)
	if src.Lt(word) {
		return ErrInsufficientBalance
	}
	src.Sub(src, word)
	dst := l.balanceRef(token, to)
	dst.Add(dst, word)
	return nil
}

// Transfer moves amount of token out of custody.
func (l *Ledger) Transfer(token, to common.Address, amount *big.Int) error {
	return l.TransferFrom(token, l.custody, to, amount)
}

// TransferFrom moves amount of token between two accounts.
func (l *Ledger) TransferFrom(token, from, to common.Address, amount *big.Int) error {
	word, err := toWord(amount)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(token, from, to, word)
}

// BalanceOf reports the balance of account for token.
func (l *Ledger) BalanceOf(token, account common.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	accounts, ok := l.balances[token]
	if !ok {
		return big.NewInt(0), nil
	}
	bal, ok := accounts[account]
	if !ok {
		return big.NewInt(0), nil
	}
	return bal.ToBig(), nil
}
