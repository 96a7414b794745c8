package lockup

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSetLockTiersValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if err := engine.SetLockTiers(alice, testTiers()); err != ErrInsufficientPermission {
		t.Fatalf("unprivileged tier change: got %v, want %v", err, ErrInsufficientPermission)
	}
	if err := engine.SetLockTiers(adminAddr, nil); err != errNoTiers {
		t.Fatalf("empty tier list: got %v, want %v", err, errNoTiers)
	}
	if err := engine.SetLockTiers(adminAddr, []LockTier{{Duration: 0, Multiplier: 1}}); err != ErrInvalidDuration {
		t.Fatalf("zero duration: got %v, want %v", err, ErrInvalidDuration)
	}
	if err := engine.SetLockTiers(adminAddr, []LockTier{{Duration: week, Multiplier: 0}}); err != ErrZeroAmount {
		t.Fatalf("zero multiplier: got %v, want %v", err, ErrZeroAmount)
	}

	replacement := []LockTier{{Duration: 2 * week, Multiplier: 3}}
	if err := engine.SetLockTiers(adminAddr, replacement); err != nil {
		t.Fatalf("replace tiers: %v", err)
	}
	tiers := engine.LockTiers()
	if len(tiers) != 1 || tiers[0] != replacement[0] {
		t.Fatalf("tier list after replace: got %+v", tiers)
	}
}

func TestTierReplacementKeepsExistingLocks(t *testing.T) {
	engine, ledger, _ := newTestEngine(t)
	stakeFor(t, engine, ledger, alice, 100, 1)

	if err := engine.SetLockTiers(adminAddr, []LockTier{{Duration: week, Multiplier: 2}}); err != nil {
		t.Fatalf("replace tiers: %v", err)
	}
	locks, err := engine.GetUserLocks(alice)
	if err != nil {
		t.Fatalf("user locks: %v", err)
	}
	if locks[0].Multiplier != testTiers()[1].Multiplier {
		t.Fatalf("existing lock multiplier: got %d, want %d", locks[0].Multiplier, testTiers()[1].Multiplier)
	}
	weighted, err := engine.GetLockedSupplyWithMultiplier()
	if err != nil {
		t.Fatalf("weighted supply: %v", err)
	}
	requireBigInt(t, big.NewInt(400), weighted, "weighted supply unchanged by tier replacement")
}

func TestAddRewardTokenValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if err := engine.AddRewardToken(alice, rewardUSD); err != ErrInsufficientPermission {
		t.Fatalf("unprivileged add: got %v, want %v", err, ErrInsufficientPermission)
	}
	if err := engine.AddRewardToken(adminAddr, common.Address{}); err != ErrZeroAddress {
		t.Fatalf("zero token: got %v, want %v", err, ErrZeroAddress)
	}
	addRewardToken(t, engine, rewardUSD)
	if err := engine.AddRewardToken(adminAddr, rewardUSD); err != ErrAlreadyRegistered {
		t.Fatalf("duplicate add: got %v, want %v", err, ErrAlreadyRegistered)
	}

	tokens, err := engine.GetRewardTokens()
	if err != nil {
		t.Fatalf("reward tokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != rewardUSD {
		t.Fatalf("registered tokens: got %v", tokens)
	}
}

func TestRemoveRewardToken(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	addRewardToken(t, engine, rewardUSD)
	addRewardToken(t, engine, rewardWETH)

	if err := engine.RemoveRewardToken(adminAddr, stakeToken); err != ErrUnknownToken {
		t.Fatalf("remove unknown: got %v, want %v", err, ErrUnknownToken)
	}
	if err := engine.RemoveRewardToken(alice, rewardUSD); err != ErrInsufficientPermission {
		t.Fatalf("unprivileged remove: got %v, want %v", err, ErrInsufficientPermission)
	}
	if err := engine.RemoveRewardToken(adminAddr, rewardUSD); err != nil {
		t.Fatalf("remove: %v", err)
	}

	tokens, err := engine.GetRewardTokens()
	if err != nil {
		t.Fatalf("reward tokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != rewardWETH {
		t.Fatalf("tokens after remove: got %v", tokens)
	}
	if _, err := engine.GetRewardData(rewardUSD); err != ErrUnknownToken {
		t.Fatalf("data for removed token: got %v, want %v", err, ErrUnknownToken)
	}
}

func TestStreamParamValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if err := engine.SetStreamParams(alice, 2*week, day); err != ErrInsufficientPermission {
		t.Fatalf("unprivileged stream params: got %v, want %v", err, ErrInsufficientPermission)
	}
	if err := engine.SetStreamParams(adminAddr, 0, day); err != ErrZeroAmount {
		t.Fatalf("zero duration: got %v, want %v", err, ErrZeroAmount)
	}
	if err := engine.SetStreamParams(adminAddr, week, 0); err != ErrZeroAmount {
		t.Fatalf("zero lookback: got %v, want %v", err, ErrZeroAmount)
	}
	if err := engine.SetStreamParams(adminAddr, day, week); err != ErrInvalidLookback {
		t.Fatalf("lookback beyond duration: got %v, want %v", err, ErrInvalidLookback)
	}

	if err := engine.SetStreamParams(adminAddr, 2*week, 2*day); err != nil {
		t.Fatalf("set stream params: %v", err)
	}
	duration, lookback := engine.StreamParams()
	if duration != 2*week || lookback != 2*day {
		t.Fatalf("stream params: got (%d, %d), want (%d, %d)", duration, lookback, 2*week, 2*day)
	}
}

func TestOperationExpenseValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if err := engine.SetOperationExpenses(alice, treasuryAddr, 100); err != ErrInsufficientPermission {
		t.Fatalf("unprivileged expenses: got %v, want %v", err, ErrInsufficientPermission)
	}
	if err := engine.SetOperationExpenses(adminAddr, treasuryAddr, 10_001); err != ErrInvalidRatio {
		t.Fatalf("ratio above 100%%: got %v, want %v", err, ErrInvalidRatio)
	}
	if err := engine.SetOperationExpenses(adminAddr, common.Address{}, 100); err != ErrZeroAddress {
		t.Fatalf("zero treasury with ratio: got %v, want %v", err, ErrZeroAddress)
	}
	if err := engine.SetOperationExpenses(adminAddr, common.Address{}, 0); err != nil {
		t.Fatalf("disabling skim: %v", err)
	}

	if err := engine.SetOperationExpenses(adminAddr, treasuryAddr, 2500); err != nil {
		t.Fatalf("set expenses: %v", err)
	}
	treasury, ratio := engine.OperationExpenses()
	if treasury != treasuryAddr || ratio != 2500 {
		t.Fatalf("expense config: got (%s, %d)", treasury.Hex(), ratio)
	}
}

func TestApproveDistributorValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	addRewardToken(t, engine, rewardUSD)

	if err := engine.ApproveRewardDistributor(alice, rewardUSD, bob, true); err != ErrInsufficientPermission {
		t.Fatalf("unprivileged approval: got %v, want %v", err, ErrInsufficientPermission)
	}
	if err := engine.ApproveRewardDistributor(adminAddr, rewardWETH, bob, true); err != ErrUnknownToken {
		t.Fatalf("approval for unknown token: got %v, want %v", err, ErrUnknownToken)
	}
	if err := engine.ApproveRewardDistributor(adminAddr, rewardUSD, common.Address{}, true); err != ErrZeroAddress {
		t.Fatalf("zero distributor: got %v, want %v", err, ErrZeroAddress)
	}
	if err := engine.ApproveRewardDistributor(adminAddr, rewardUSD, bob, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func TestDefaultLockIndexValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if err := engine.SetDefaultLockIndex(alice, len(testTiers())); err != ErrInvalidTierIndex {
		t.Fatalf("index out of range: got %v, want %v", err, ErrInvalidTierIndex)
	}
	if err := engine.SetDefaultLockIndex(alice, -1); err != ErrInvalidTierIndex {
		t.Fatalf("negative index: got %v, want %v", err, ErrInvalidTierIndex)
	}
	if err := engine.SetDefaultLockIndex(common.Address{}, 0); err != ErrZeroAddress {
		t.Fatalf("zero caller: got %v, want %v", err, ErrZeroAddress)
	}

	if err := engine.SetDefaultLockIndex(alice, 2); err != nil {
		t.Fatalf("set default index: %v", err)
	}
	index, err := engine.GetDefaultLockIndex(alice)
	if err != nil {
		t.Fatalf("get default index: %v", err)
	}
	if index != 2 {
		t.Fatalf("default index: got %d, want 2", index)
	}

	// A stored index that no longer exists falls back to tier zero.
	if err := engine.SetLockTiers(adminAddr, []LockTier{{Duration: week, Multiplier: 1}}); err != nil {
		t.Fatalf("shrink tiers: %v", err)
	}
	index, err = engine.GetDefaultLockIndex(alice)
	if err != nil {
		t.Fatalf("get default index after shrink: %v", err)
	}
	if index != 0 {
		t.Fatalf("stale default index: got %d, want 0", index)
	}
}
