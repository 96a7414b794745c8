package vaultledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	token   = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	custody = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	holder  = common.HexToAddress("0x0000000000000000000000000000000000000201")
	other   = common.HexToAddress("0x0000000000000000000000000000000000000202")
)

func mustBalance(t *testing.T, l *Ledger, account common.Address) *big.Int {
	t.Helper()
	bal, err := l.BalanceOf(token, account)
	if err != nil {
		t.Fatalf("balance of %s: %v", account.Hex(), err)
	}
	return bal
}

func TestMintAndTransferFrom(t *testing.T) {
	ledger := New(custody)
	if err := ledger.Mint(token, holder, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.TransferFrom(token, holder, custody, big.NewInt(60)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}

	if got := mustBalance(t, ledger, holder); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("holder balance: got %s, want 40", got)
	}
	if got := mustBalance(t, ledger, custody); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("custody balance: got %s, want 60", got)
	}
}

func TestTransferDebitsCustody(t *testing.T) {
	ledger := New(custody)
	if err := ledger.Mint(token, custody, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(token, other, big.NewInt(30)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if got := mustBalance(t, ledger, custody); got.Cmp(big.NewInt(70)) != 0 {
		t.Fatalf("custody balance: got %s, want 70", got)
	}
	if got := mustBalance(t, ledger, other); got.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("recipient balance: got %s, want 30", got)
	}
}

func TestInsufficientBalance(t *testing.T) {
	ledger := New(custody)
	if err := ledger.Mint(token, holder, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.TransferFrom(token, holder, other, big.NewInt(11)); err != ErrInsufficientBalance {
		t.Fatalf("overdraw: got %v, want %v", err, ErrInsufficientBalance)
	}
	// A failed move must not touch either side.
	if got := mustBalance(t, ledger, holder); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("holder balance after failed move: got %s, want 10", got)
	}
	if got := mustBalance(t, ledger, other); got.Sign() != 0 {
		t.Fatalf("recipient balance after failed move: got %s, want 0", got)
	}
}

func TestInvalidAmounts(t *testing.T) {
	ledger := New(custody)
	if err := ledger.Mint(token, holder, big.NewInt(0)); err != ErrInvalidAmount {
		t.Fatalf("zero mint: got %v, want %v", err, ErrInvalidAmount)
	}
	if err := ledger.Mint(token, holder, big.NewInt(-5)); err != ErrInvalidAmount {
		t.Fatalf("negative mint: got %v, want %v", err, ErrInvalidAmount)
	}
	if err := ledger.TransferFrom(token, holder, other, nil); err != ErrInvalidAmount {
		t.Fatalf("nil transfer: got %v, want %v", err, ErrInvalidAmount)
	}

	huge := new(big.Int).Lsh(big.NewInt(1), 256)
	if err := ledger.Mint(token, holder, huge); err != ErrAmountOverflow {
		t.Fatalf("oversized mint: got %v, want %v", err, ErrAmountOverflow)
	}
}

func TestBalanceOfUnknownAccount(t *testing.T) {
	ledger := New(custody)
	if got := mustBalance(t, ledger, holder); got.Sign() != 0 {
		t.Fatalf("unknown account balance: got %s, want 0", got)
	}
}
