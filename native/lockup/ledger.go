package lockup

import (
	"math/big"
	"sort"
)

// insertLock adds amount to the account's lock sequence for the given tier,
// keeping the sequence sorted ascending by unlock time, and bumps the
// incremental account and global counters. The caller has already validated
// amount and tierIndex.
//
// The merge target is the slot immediately preceding the insertion index
// (slot 0 when inserting at the front). When the matching bucket sits at the
// insertion index itself the merge is skipped and a fresh entry is inserted.
// Downstream accounting tolerates the extra entry; only the sort order of the
// sequence is load-bearing.
func (e *Engine) insertLock(g *GlobalState, acct *LockAccount, amount *big.Int, tierIndex int, now uint64) *StakedLock {
	tier := e.tiers[tierIndex]
	duration := tier.Duration / AggregationEpoch * AggregationEpoch
	unlockTime := now + duration

	acct.ensureTotals()
	g.ensureTotals()

	locks := acct.Locks
	idx := sort.Search(len(locks), func(i int) bool {
		return locks[i].UnlockTime >= unlockTime
	})

	aggregateIdx := idx
	if idx != 0 {
		aggregateIdx = idx - 1
	}

	var entry *StakedLock
	if len(locks) > 0 && aggregateIdx < len(locks) &&
		epochBucket(locks[aggregateIdx].UnlockTime) == epochBucket(unlockTime) &&
		locks[aggregateIdx].Multiplier == tier.Multiplier {
		entry = locks[aggregateIdx]
		entry.Amount = new(big.Int).Add(copyBigInt(entry.Amount), amount)
	} else {
		entry = &StakedLock{
			Amount:     copyBigInt(amount),
			UnlockTime: unlockTime,
			Multiplier: tier.Multiplier,
			Duration:   tier.Duration,
		}
		locks = append(locks, nil)
		copy(locks[idx+1:], locks[idx:])
		locks[idx] = entry
		acct.Locks = locks
	}

	weighted := new(big.Int).Mul(amount, new(big.Int).SetUint64(tier.Multiplier))
	acct.Total.Add(acct.Total, amount)
	acct.LockedWithMultiplier.Add(acct.LockedWithMultiplier, weighted)
	g.LockedSupply.Add(g.LockedSupply, amount)
	g.LockedSupplyWithMultiplier.Add(g.LockedSupplyWithMultiplier, weighted)
	return entry
}

// cleanExpiredLocks removes the expired prefix of the account's sequence, up
// to limit entries when limit is positive, and returns the withdrawn amount
// and its multiplier-weighted counterpart. The sequence stays sorted because
// only a fully expired prefix is removed. The caller applies the returned
// deltas to the global counters.
func cleanExpiredLocks(acct *LockAccount, limit int, now uint64) (*big.Int, *big.Int) {
	amount := big.NewInt(0)
	weighted := big.NewInt(0)
	if acct == nil || len(acct.Locks) == 0 {
		return amount, weighted
	}
	acct.ensureTotals()

	removed := 0
	for removed < len(acct.Locks) {
		if limit > 0 && removed >= limit {
			break
		}
		lock := acct.Locks[removed]
		if lock.UnlockTime > now {
			break
		}
		amount.Add(amount, copyBigInt(lock.Amount))
		weighted.Add(weighted, new(big.Int).Mul(copyBigInt(lock.Amount), new(big.Int).SetUint64(lock.Multiplier)))
		removed++
	}
	if removed == 0 {
		return amount, weighted
	}

	n := copy(acct.Locks, acct.Locks[removed:])
	for i := n; i < len(acct.Locks); i++ {
		acct.Locks[i] = nil
	}
	acct.Locks = acct.Locks[:n]

	acct.Total.Sub(acct.Total, amount)
	acct.LockedWithMultiplier.Sub(acct.LockedWithMultiplier, weighted)
	return amount, weighted
}

// unlockableAmount sums the expired prefix without mutating the sequence.
func unlockableAmount(acct *LockAccount, now uint64) *big.Int {
	total := big.NewInt(0)
	if acct == nil {
		return total
	}
	for _, lock := range acct.Locks {
		if lock.UnlockTime > now {
			break
		}
		total.Add(total, copyBigInt(lock.Amount))
	}
	return total
}
