package lockup

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GetUserLocks returns copies of the account's lock sequence, oldest unlock
// first.
func (e *Engine) GetUserLocks(addr common.Address) ([]*StakedLock, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acct, err := e.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	locks := make([]*StakedLock, len(acct.Locks))
	for i, lock := range acct.Locks {
		locks[i] = lock.Clone()
	}
	return locks, nil
}

// GetUserBalances summarises the account position as of now. Total and
// LockedWithMultiplier reflect the running totals; Unlocked and Locked are
// derived by scanning the sequence.
func (e *Engine) GetUserBalances(addr common.Address) (*AccountBalances, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acct, err := e.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	now := e.now()
	unlocked := big.NewInt(0)
	for _, lock := range acct.Locks {
		if lock.UnlockTime > now {
			break
		}
		unlocked.Add(unlocked, copyBigInt(lock.Amount))
	}
	total := copyBigInt(acct.Total)
	return &AccountBalances{
		Total:                total,
		Unlocked:             unlocked,
		Locked:               new(big.Int).Sub(total, unlocked),
		LockedWithMultiplier: copyBigInt(acct.LockedWithMultiplier),
	}, nil
}

// GetUserClaimableRewards computes the up-to-the-moment claimable amount per
// registered token without mutating any state.
func (e *Engine) GetUserClaimableRewards(addr common.Address) ([]ClaimableReward, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	g, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	acct, err := e.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	now := e.now()
	out := make([]ClaimableReward, 0, len(g.RewardTokens))
	for _, token := range g.RewardTokens {
		state, err := e.loadRewardState(token)
		if err != nil {
			return nil, err
		}
		rpt := rewardPerTokenAt(state, g.LockedSupplyWithMultiplier, now)
		snap := acct.snapshotFor(token)
		earned := copyBigInt(snap.Rewards)
		if acct.LockedWithMultiplier.Sign() > 0 {
			delta := new(big.Int).Sub(rpt, snap.UserRewardPerTokenPaid)
			if delta.Sign() > 0 {
				earned.Add(earned, new(big.Int).Mul(acct.LockedWithMultiplier, delta))
			}
		}
		out = append(out, ClaimableReward{Token: token, Amount: scaleDown(earned)})
	}
	return out, nil
}

// GetLockedSupply returns the sum of all locked amounts.
func (e *Engine) GetLockedSupply() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	g, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	return copyBigInt(g.LockedSupply), nil
}

// GetLockedSupplyWithMultiplier returns the multiplier-weighted locked
// supply, the divisor of the reward-per-share math.
func (e *Engine) GetLockedSupplyWithMultiplier() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	g, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	return copyBigInt(g.LockedSupplyWithMultiplier), nil
}

// GetRewardData returns the streaming state for a registered token.
func (e *Engine) GetRewardData(token common.Address) (*RewardData, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	g, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	if !g.HasRewardToken(token) {
		return nil, ErrUnknownToken
	}
	state, err := e.loadRewardState(token)
	if err != nil {
		return nil, err
	}
	return &RewardData{
		Token:                token,
		PeriodFinish:         state.PeriodFinish,
		LastUpdateTime:       state.LastUpdateTime,
		RewardPerSecond:      copyBigInt(state.RewardPerSecond),
		RewardPerTokenStored: copyBigInt(state.RewardPerTokenStored),
		Balance:              copyBigInt(state.Balance),
	}, nil
}

// GetRewardTokens returns the registered reward token set.
func (e *Engine) GetRewardTokens() ([]common.Address, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	g, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	return append([]common.Address(nil), g.RewardTokens...), nil
}

// GetDefaultLockIndex returns the tier used by relock and bounty flows for
// the account.
func (e *Engine) GetDefaultLockIndex(addr common.Address) (int, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	acct, err := e.loadAccount(addr)
	if err != nil {
		return 0, err
	}
	return e.defaultTierIndex(acct), nil
}
