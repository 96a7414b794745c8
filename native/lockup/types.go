package lockup

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AggregationEpoch is the fixed bucket width used to merge locks of the same
// multiplier created within the same window. Tier durations are floored to a
// whole number of epochs at stake time so repeat stakers in one window land in
// one bucket instead of growing the sequence.
const AggregationEpoch uint64 = 7 * 24 * 60 * 60

// LockTier describes a selectable (duration, multiplier) pair. The tier list
// is global and referenced by index; indices are not stable across tier-list
// replacements.
type LockTier struct {
	Duration   uint64
	Multiplier uint64
}

// StakedLock is one locked position. Per account the positions are kept in a
// sequence sorted ascending by UnlockTime.
type StakedLock struct {
	Amount     *big.Int
	UnlockTime uint64
	Multiplier uint64
	Duration   uint64
}

// Clone returns a deep copy of the lock.
func (l *StakedLock) Clone() *StakedLock {
	if l == nil {
		return nil
	}
	return &StakedLock{
		Amount:     copyBigInt(l.Amount),
		UnlockTime: l.UnlockTime,
		Multiplier: l.Multiplier,
		Duration:   l.Duration,
	}
}

// epochBucket returns the aggregation window the unlock time falls in.
func epochBucket(ts uint64) uint64 { return ts / AggregationEpoch }

// RewardSnapshot records, per account and reward token, the per-share index
// last settled against the account and the accrued-but-unclaimed balance.
// Rewards is kept at the 1e18 scale and divided down on claim.
type RewardSnapshot struct {
	UserRewardPerTokenPaid *big.Int
	Rewards                *big.Int
}

// Clone returns a deep copy of the snapshot.
func (s *RewardSnapshot) Clone() *RewardSnapshot {
	if s == nil {
		return nil
	}
	return &RewardSnapshot{
		UserRewardPerTokenPaid: copyBigInt(s.UserRewardPerTokenPaid),
		Rewards:                copyBigInt(s.Rewards),
	}
}

// LockAccount aggregates all per-account ledger state: the sorted lock
// sequence, the incrementally maintained totals, the relock preferences and
// the per-token reward snapshots.
type LockAccount struct {
	Locks                []*StakedLock
	Total                *big.Int
	LockedWithMultiplier *big.Int
	DefaultLockIndex     int
	AutoRelock           bool
	Snapshots            map[common.Address]*RewardSnapshot
}

// NewLockAccount returns an empty account with zeroed totals.
func NewLockAccount() *LockAccount {
	return &LockAccount{
		Total:                big.NewInt(0),
		LockedWithMultiplier: big.NewInt(0),
		Snapshots:            make(map[common.Address]*RewardSnapshot),
	}
}

// Clone returns a deep copy of the account.
func (a *LockAccount) Clone() *LockAccount {
	if a == nil {
		return nil
	}
	clone := &LockAccount{
		Total:                copyBigInt(a.Total),
		LockedWithMultiplier: copyBigInt(a.LockedWithMultiplier),
		DefaultLockIndex:     a.DefaultLockIndex,
		AutoRelock:           a.AutoRelock,
		Snapshots:            make(map[common.Address]*RewardSnapshot, len(a.Snapshots)),
	}
	clone.Locks = make([]*StakedLock, len(a.Locks))
	for i, lock := range a.Locks {
		clone.Locks[i] = lock.Clone()
	}
	for token, snap := range a.Snapshots {
		clone.Snapshots[token] = snap.Clone()
	}
	return clone
}

func (a *LockAccount) ensureTotals() {
	if a.Total == nil {
		a.Total = big.NewInt(0)
	}
	if a.LockedWithMultiplier == nil {
		a.LockedWithMultiplier = big.NewInt(0)
	}
	if a.Snapshots == nil {
		a.Snapshots = make(map[common.Address]*RewardSnapshot)
	}
}

// snapshotFor returns the snapshot for the token, creating a zeroed entry on
// first use.
func (a *LockAccount) snapshotFor(token common.Address) *RewardSnapshot {
	a.ensureTotals()
	snap, ok := a.Snapshots[token]
	if !ok || snap == nil {
		snap = &RewardSnapshot{
			UserRewardPerTokenPaid: big.NewInt(0),
			Rewards:                big.NewInt(0),
		}
		a.Snapshots[token] = snap
	}
	if snap.UserRewardPerTokenPaid == nil {
		snap.UserRewardPerTokenPaid = big.NewInt(0)
	}
	if snap.Rewards == nil {
		snap.Rewards = big.NewInt(0)
	}
	return snap
}

// RewardTokenState carries the streaming state for one reward token.
// RewardPerSecond and RewardPerTokenStored are 1e18-scaled; Balance is the
// "seen" custody balance in raw token units, used to detect newly arrived
// revenue by diffing against the actual held balance.
type RewardTokenState struct {
	PeriodFinish         uint64
	RewardPerSecond      *big.Int
	LastUpdateTime       uint64
	RewardPerTokenStored *big.Int
	Balance              *big.Int
}

// NewRewardTokenState initialises an idle stream anchored at ts.
func NewRewardTokenState(ts uint64) *RewardTokenState {
	return &RewardTokenState{
		PeriodFinish:         ts,
		RewardPerSecond:      big.NewInt(0),
		LastUpdateTime:       ts,
		RewardPerTokenStored: big.NewInt(0),
		Balance:              big.NewInt(0),
	}
}

// Clone returns a deep copy of the stream state.
func (r *RewardTokenState) Clone() *RewardTokenState {
	if r == nil {
		return nil
	}
	return &RewardTokenState{
		PeriodFinish:         r.PeriodFinish,
		RewardPerSecond:      copyBigInt(r.RewardPerSecond),
		LastUpdateTime:       r.LastUpdateTime,
		RewardPerTokenStored: copyBigInt(r.RewardPerTokenStored),
		Balance:              copyBigInt(r.Balance),
	}
}

func (r *RewardTokenState) ensureTotals() {
	if r.RewardPerSecond == nil {
		r.RewardPerSecond = big.NewInt(0)
	}
	if r.RewardPerTokenStored == nil {
		r.RewardPerTokenStored = big.NewInt(0)
	}
	if r.Balance == nil {
		r.Balance = big.NewInt(0)
	}
}

// GlobalState carries the ledger-wide counters shared by every account, the
// reward token registry and the per-token distributor approvals.
type GlobalState struct {
	LockedSupply               *big.Int
	LockedSupplyWithMultiplier *big.Int
	RewardTokens               []common.Address
	Distributors               map[common.Address]map[common.Address]bool
}

// NewGlobalState returns zeroed global counters with an empty registry.
func NewGlobalState() *GlobalState {
	return &GlobalState{
		LockedSupply:               big.NewInt(0),
		LockedSupplyWithMultiplier: big.NewInt(0),
		Distributors:               make(map[common.Address]map[common.Address]bool),
	}
}

// Clone returns a deep copy of the global state.
func (g *GlobalState) Clone() *GlobalState {
	if g == nil {
		return nil
	}
	clone := &GlobalState{
		LockedSupply:               copyBigInt(g.LockedSupply),
		LockedSupplyWithMultiplier: copyBigInt(g.LockedSupplyWithMultiplier),
		RewardTokens:               append([]common.Address(nil), g.RewardTokens...),
		Distributors:               make(map[common.Address]map[common.Address]bool, len(g.Distributors)),
	}
	for token, approved := range g.Distributors {
		inner := make(map[common.Address]bool, len(approved))
		for addr, ok := range approved {
			inner[addr] = ok
		}
		clone.Distributors[token] = inner
	}
	return clone
}

func (g *GlobalState) ensureTotals() {
	if g.LockedSupply == nil {
		g.LockedSupply = big.NewInt(0)
	}
	if g.LockedSupplyWithMultiplier == nil {
		g.LockedSupplyWithMultiplier = big.NewInt(0)
	}
	if g.Distributors == nil {
		g.Distributors = make(map[common.Address]map[common.Address]bool)
	}
}

// HasRewardToken reports whether the token is currently registered.
func (g *GlobalState) HasRewardToken(token common.Address) bool {
	if g == nil {
		return false
	}
	for _, t := range g.RewardTokens {
		if t == token {
			return true
		}
	}
	return false
}

// IsDistributor reports whether addr may push revenue for the token.
func (g *GlobalState) IsDistributor(token, addr common.Address) bool {
	if g == nil || g.Distributors == nil {
		return false
	}
	return g.Distributors[token][addr]
}

// AccountBalances summarises an account position. Total and
// LockedWithMultiplier are the running totals; Unlocked and Locked are derived
// by scanning the sequence against the provided observation time.
type AccountBalances struct {
	Total                *big.Int
	Unlocked             *big.Int
	Locked               *big.Int
	LockedWithMultiplier *big.Int
}

// RewardData exposes the streaming state for one token to read-only callers.
type RewardData struct {
	Token                common.Address
	PeriodFinish         uint64
	LastUpdateTime       uint64
	RewardPerSecond      *big.Int
	RewardPerTokenStored *big.Int
	Balance              *big.Int
}

// ClaimableReward pairs a reward token with the whole-unit amount an account
// could claim right now.
type ClaimableReward struct {
	Token  common.Address
	Amount *big.Int
}

// BountyResult reports the outcome of a bounty-triggered cleanup.
type BountyResult struct {
	Amount   *big.Int
	Relocked bool
}
