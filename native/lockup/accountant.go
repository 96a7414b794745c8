package lockup

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lockvault/core/events"
)

// lastTimeRewardApplicable caps the accrual clock at the stream horizon.
func lastTimeRewardApplicable(state *RewardTokenState, now uint64) uint64 {
	if now < state.PeriodFinish {
		return now
	}
	return state.PeriodFinish
}

// rewardPerTokenAt returns the cumulative 1e18-scaled reward per unit of
// multiplier-weighted stake as of now. While nothing is locked the stored
// value is returned unchanged: no reward accrues to nobody.
func rewardPerTokenAt(state *RewardTokenState, supplyWithMultiplier *big.Int, now uint64) *big.Int {
	state.ensureTotals()
	stored := copyBigInt(state.RewardPerTokenStored)
	if supplyWithMultiplier == nil || supplyWithMultiplier.Sign() == 0 {
		return stored
	}
	last := lastTimeRewardApplicable(state, now)
	if last <= state.LastUpdateTime {
		return stored
	}
	elapsed := new(big.Int).SetUint64(last - state.LastUpdateTime)
	accrued := new(big.Int).Mul(elapsed, copyBigInt(state.RewardPerSecond))
	accrued.Quo(accrued, supplyWithMultiplier)
	return stored.Add(stored, accrued)
}

// settleStream persists the up-to-the-moment per-share index into the stream
// state and advances the accrual clock. Idempotent when no time has passed.
func settleStream(state *RewardTokenState, supplyWithMultiplier *big.Int, now uint64) *big.Int {
	rpt := rewardPerTokenAt(state, supplyWithMultiplier, now)
	state.RewardPerTokenStored = rpt
	state.LastUpdateTime = lastTimeRewardApplicable(state, now)
	return rpt
}

// settlement carries the stream states touched while settling an account so
// the caller can commit them atomically with the rest of the operation.
type settlement struct {
	tokens []common.Address
	states map[common.Address]*RewardTokenState
}

func (s *settlement) state(token common.Address) *RewardTokenState {
	if s == nil {
		return nil
	}
	return s.states[token]
}

// settleAccount crystallises the pending rewards of acct against every
// registered stream. It must run before any mutation of the account's
// multiplier-weighted balance; mutating weight first would silently donate
// or steal unaccrued rewards. A nil acct settles only the global streams.
func (e *Engine) settleAccount(g *GlobalState, acct *LockAccount, now uint64) (*settlement, error) {
	g.ensureTotals()
	out := &settlement{
		tokens: append([]common.Address(nil), g.RewardTokens...),
		states: make(map[common.Address]*RewardTokenState, len(g.RewardTokens)),
	}
	for _, token := range out.tokens {
		state, err := e.loadRewardState(token)
		if err != nil {
			return nil, err
		}
		rpt := settleStream(state, g.LockedSupplyWithMultiplier, now)
		if acct != nil {
			snap := acct.snapshotFor(token)
			if acct.LockedWithMultiplier != nil && acct.LockedWithMultiplier.Sign() > 0 {
				delta := new(big.Int).Sub(rpt, snap.UserRewardPerTokenPaid)
				if delta.Sign() > 0 {
					earned := new(big.Int).Mul(acct.LockedWithMultiplier, delta)
					snap.Rewards = new(big.Int).Add(snap.Rewards, earned)
				}
			}
			snap.UserRewardPerTokenPaid = copyBigInt(rpt)
		}
		out.states[token] = state
	}
	return out, nil
}

// trackUnseen diffs the custody balance of token against the last seen value
// and, when the stream is within the lookback window of its horizon, folds the
// delta into the rate. The operating-expense ratio is skimmed to the treasury
// before folding. Idempotent when no new balance has arrived.
func (e *Engine) trackUnseen(g *GlobalState, token common.Address, state *RewardTokenState, now uint64) (*big.Int, error) {
	state.ensureTotals()
	held, err := e.tokens.BalanceOf(token, e.vault)
	if err != nil {
		return nil, fmt.Errorf("lockup: custody balance of %s: %w", token.Hex(), err)
	}
	held = copyBigInt(held)
	if token == e.stakeToken {
		// Custody also holds the staked principal; only the excess is revenue.
		held.Sub(held, g.LockedSupply)
	}
	delta := new(big.Int).Sub(held, state.Balance)
	if delta.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	if state.PeriodFinish >= now+e.streamDuration-e.streamLookback {
		return big.NewInt(0), nil
	}

	if e.opsRatioBps > 0 && e.opsTreasury != (common.Address{}) {
		skim := applyBps(delta, e.opsRatioBps)
		if skim.Sign() > 0 {
			if err := e.tokens.Transfer(token, e.opsTreasury, skim); err != nil {
				return nil, fmt.Errorf("lockup: skim operating expenses: %w", err)
			}
			delta.Sub(delta, skim)
			e.emit(events.LockupExpensesSkimmed{
				Token:    token,
				Treasury: e.opsTreasury,
				Amount:   skim,
			})
		}
	}

	settleStream(state, g.LockedSupplyWithMultiplier, now)
	e.foldIntoStream(state, delta, now)
	return delta, nil
}

// foldIntoStream restarts the stream over a fresh window, carrying any
// un-streamed leftover from the current period into the new rate.
func (e *Engine) foldIntoStream(state *RewardTokenState, amount *big.Int, now uint64) {
	state.ensureTotals()
	streamed := new(big.Int).Mul(amount, rewardScale)
	if now >= state.PeriodFinish {
		state.RewardPerSecond = streamed.Quo(streamed, new(big.Int).SetUint64(e.streamDuration))
	} else {
		remaining := new(big.Int).SetUint64(state.PeriodFinish - now)
		leftover := new(big.Int).Mul(remaining, state.RewardPerSecond)
		leftover.Quo(leftover, rewardScale)
		streamed = new(big.Int).Add(amount, leftover)
		streamed.Mul(streamed, rewardScale)
		state.RewardPerSecond = streamed.Quo(streamed, new(big.Int).SetUint64(e.streamDuration))
	}
	state.LastUpdateTime = now
	state.PeriodFinish = now + e.streamDuration
	state.Balance = new(big.Int).Add(state.Balance, amount)
}

// payReward zeroes the account's settled snapshot for token and returns the
// whole-unit amount owed, debiting the tracked stream balance. Returns zero
// without touching state when nothing is claimable.
func payReward(acct *LockAccount, token common.Address, state *RewardTokenState) *big.Int {
	if acct == nil {
		return big.NewInt(0)
	}
	snap := acct.snapshotFor(token)
	amount := scaleDown(snap.Rewards)
	if amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	snap.Rewards = big.NewInt(0)
	state.ensureTotals()
	state.Balance = new(big.Int).Sub(state.Balance, amount)
	return amount
}
