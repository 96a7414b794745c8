package lockup

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func accountLocks(t *testing.T, engine *Engine, addr common.Address) []*StakedLock {
	t.Helper()
	locks, err := engine.GetUserLocks(addr)
	if err != nil {
		t.Fatalf("get user locks: %v", err)
	}
	return locks
}

func TestStakeKeepsSequenceSorted(t *testing.T) {
	engine, ledger, clock := newTestEngine(t)

	// Stake long, short, then medium so insertion order differs from unlock
	// order.
	stakeFor(t, engine, ledger, alice, 100, 2)
	clock.advance(day)
	stakeFor(t, engine, ledger, alice, 200, 0)
	clock.advance(day)
	stakeFor(t, engine, ledger, alice, 300, 1)

	locks := accountLocks(t, engine, alice)
	if len(locks) != 3 {
		t.Fatalf("expected 3 locks, got %d", len(locks))
	}
	for i := 1; i < len(locks); i++ {
		if locks[i-1].UnlockTime > locks[i].UnlockTime {
			t.Fatalf("sequence not sorted at %d: %d > %d", i, locks[i-1].UnlockTime, locks[i].UnlockTime)
		}
	}
}

func TestStakeAggregatesSameEpochBucket(t *testing.T) {
	engine, ledger, clock := newTestEngine(t)

	stakeFor(t, engine, ledger, alice, 100, 1)
	clock.advance(3600)
	stakeFor(t, engine, ledger, alice, 50, 1)

	locks := accountLocks(t, engine, alice)
	if len(locks) != 1 {
		t.Fatalf("expected aggregated single lock, got %d entries", len(locks))
	}
	requireBigInt(t, big.NewInt(150), locks[0].Amount, "aggregated amount")

	supply, err := engine.GetLockedSupply()
	if err != nil {
		t.Fatalf("locked supply: %v", err)
	}
	requireBigInt(t, big.NewInt(150), supply, "locked supply")
}

func TestStakeDifferentMultiplierNotAggregated(t *testing.T) {
	engine, ledger, _ := newTestEngine(t)

	// Tiers 1 and 2 share no multiplier; even if their buckets collided the
	// entries must stay separate.
	stakeFor(t, engine, ledger, alice, 100, 0)
	stakeFor(t, engine, ledger, alice, 50, 1)

	locks := accountLocks(t, engine, alice)
	if len(locks) != 2 {
		t.Fatalf("expected 2 locks, got %d", len(locks))
	}
}

func TestAggregationMissesForwardTarget(t *testing.T) {
	engine, ledger, _ := newTestEngine(t)

	// A short lock precedes two same-timestamp stakes of a longer tier. The
	// merge check only looks at the slot before the insertion point, so the
	// second long stake lands as a duplicate entry instead of merging with
	// the first. Downstream accounting tolerates the extra entry.
	stakeFor(t, engine, ledger, alice, 10, 0)
	stakeFor(t, engine, ledger, alice, 100, 1)
	stakeFor(t, engine, ledger, alice, 50, 1)

	locks := accountLocks(t, engine, alice)
	if len(locks) != 3 {
		t.Fatalf("expected the forward merge target to be missed, got %d entries", len(locks))
	}
	// The new entry is inserted at the search position, shifting the matching
	// lock one slot up.
	requireBigInt(t, big.NewInt(50), locks[1].Amount, "inserted long lock")
	requireBigInt(t, big.NewInt(100), locks[2].Amount, "original long lock")
}

func TestWithdrawBoundaryInclusive(t *testing.T) {
	engine, ledger, clock := newTestEngine(t)

	stakeFor(t, engine, ledger, alice, 100, 0)

	// Tier 0 spans exactly four aggregation epochs, so the lock unlocks at
	// stake time plus four weeks. One second before that nothing is
	// withdrawable.
	clock.advance(4*week - 1)
	if _, err := engine.WithdrawExpiredLocks(alice); err != ErrNoUnlockedTokens {
		t.Fatalf("expected ErrNoUnlockedTokens before boundary, got %v", err)
	}

	// At unlockTime exactly the lock is withdrawable.
	clock.advance(1)
	amount, err := engine.WithdrawExpiredLocks(alice)
	if err != nil {
		t.Fatalf("withdraw at boundary: %v", err)
	}
	requireBigInt(t, big.NewInt(100), amount, "withdrawn amount")
	requireBigInt(t, big.NewInt(100), ledger.balance(stakeToken, alice), "returned principal")
}

func TestCleanExpiredHonoursLimit(t *testing.T) {
	engine, ledger, clock := newTestEngine(t)
	engine.SetCleanupLimit(2)

	stakeFor(t, engine, ledger, alice, 10, 0)
	clock.advance(week)
	stakeFor(t, engine, ledger, alice, 20, 0)
	clock.advance(week)
	stakeFor(t, engine, ledger, alice, 30, 0)

	// All three locks expire.
	clock.advance(6 * week)

	amount, err := engine.WithdrawExpiredLocks(alice)
	if err != nil {
		t.Fatalf("bounded withdraw: %v", err)
	}
	requireBigInt(t, big.NewInt(30), amount, "first bounded pass")

	amount, err = engine.WithdrawExpiredLocks(alice)
	if err != nil {
		t.Fatalf("second bounded pass: %v", err)
	}
	requireBigInt(t, big.NewInt(30), amount, "second bounded pass")

	if locks := accountLocks(t, engine, alice); len(locks) != 0 {
		t.Fatalf("expected empty sequence, got %d entries", len(locks))
	}
}

func TestConservationAcrossOperations(t *testing.T) {
	engine, ledger, clock := newTestEngine(t)

	checkConservation := func() {
		t.Helper()
		wantSupply := big.NewInt(0)
		wantWeighted := big.NewInt(0)
		for _, account := range []common.Address{alice, bob} {
			locks := accountLocks(t, engine, account)
			for _, lock := range locks {
				wantSupply.Add(wantSupply, lock.Amount)
				weighted := new(big.Int).Mul(lock.Amount, new(big.Int).SetUint64(lock.Multiplier))
				wantWeighted.Add(wantWeighted, weighted)
			}
		}
		supply, err := engine.GetLockedSupply()
		if err != nil {
			t.Fatalf("locked supply: %v", err)
		}
		weighted, err := engine.GetLockedSupplyWithMultiplier()
		if err != nil {
			t.Fatalf("weighted supply: %v", err)
		}
		requireBigInt(t, wantSupply, supply, "locked supply conservation")
		requireBigInt(t, wantWeighted, weighted, "weighted supply conservation")
	}

	stakeFor(t, engine, ledger, alice, 100, 0)
	checkConservation()
	stakeFor(t, engine, ledger, bob, 250, 2)
	checkConservation()
	clock.advance(2 * week)
	stakeFor(t, engine, ledger, alice, 75, 1)
	checkConservation()

	clock.advance(3 * week)
	if _, err := engine.WithdrawExpiredLocks(alice); err != nil {
		t.Fatalf("withdraw expired: %v", err)
	}
	checkConservation()

	clock.advance(10 * week)
	if _, err := engine.WithdrawExpiredLocks(bob); err != nil {
		t.Fatalf("withdraw bob: %v", err)
	}
	checkConservation()
}

func TestZeroAmountStakeRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	if err := engine.Stake(alice, alice, big.NewInt(0), 0); err != ErrZeroAmount {
		t.Fatalf("expected ErrZeroAmount, got %v", err)
	}
	if err := engine.Stake(alice, alice, nil, 0); err != ErrZeroAmount {
		t.Fatalf("expected ErrZeroAmount for nil amount, got %v", err)
	}
	if locks := accountLocks(t, engine, alice); len(locks) != 0 {
		t.Fatalf("rejected stake must not create locks")
	}
}
