package lockup

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// SetLockTiers replaces the tier list. Existing locks keep the duration and
// multiplier they were created with; only future stakes see the new list.
func (e *Engine) SetLockTiers(caller common.Address, tiers []LockTier) error {
	if e == nil {
		return errNilState
	}
	if err := e.requireRole(caller, RoleAdmin); err != nil {
		return err
	}
	if len(tiers) == 0 {
		return errNoTiers
	}
	for _, tier := range tiers {
		if tier.Duration == 0 {
			return ErrInvalidDuration
		}
		if tier.Multiplier == 0 {
			return ErrZeroAmount
		}
	}
	e.tiers = append([]LockTier(nil), tiers...)
	return nil
}

// LockTiers returns a copy of the configured tier list.
func (e *Engine) LockTiers() []LockTier {
	if e == nil {
		return nil
	}
	return append([]LockTier(nil), e.tiers...)
}

// AddRewardToken registers a reward token with an idle stream anchored at the
// current time.
func (e *Engine) AddRewardToken(caller, token common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireRole(caller, RoleAdmin); err != nil {
		return err
	}
	if token == (common.Address{}) {
		return ErrZeroAddress
	}
	g, err := e.loadGlobal()
	if err != nil {
		return err
	}
	if g.HasRewardToken(token) {
		return ErrAlreadyRegistered
	}
	g.RewardTokens = append(g.RewardTokens, token)
	if err := e.state.PutRewardState(token, NewRewardTokenState(e.now())); err != nil {
		return fmt.Errorf("lockup: persist reward state: %w", err)
	}
	if err := e.state.PutGlobal(g); err != nil {
		return fmt.Errorf("lockup: persist global state: %w", err)
	}
	return nil
}

// RemoveRewardToken swap-removes the token from the registry and zeroes its
// streaming fields. Accrued-but-unclaimed snapshots are forfeited; history is
// not retained.
func (e *Engine) RemoveRewardToken(caller, token common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireRole(caller, RoleAdmin); err != nil {
		return err
	}
	g, err := e.loadGlobal()
	if err != nil {
		return err
	}
	idx := -1
	for i, t := range g.RewardTokens {
		if t == token {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUnknownToken
	}
	last := len(g.RewardTokens) - 1
	g.RewardTokens[idx] = g.RewardTokens[last]
	g.RewardTokens = g.RewardTokens[:last]
	delete(g.Distributors, token)
	if err := e.state.PutRewardState(token, NewRewardTokenState(0)); err != nil {
		return fmt.Errorf("lockup: persist reward state: %w", err)
	}
	if err := e.state.PutGlobal(g); err != nil {
		return fmt.Errorf("lockup: persist global state: %w", err)
	}
	return nil
}

// SetStreamParams updates the streaming window and the refresh lookback.
func (e *Engine) SetStreamParams(caller common.Address, streamDuration, lookback uint64) error {
	if e == nil {
		return errNilState
	}
	if err := e.requireRole(caller, RoleAdmin); err != nil {
		return err
	}
	return e.ConfigureStream(streamDuration, lookback)
}

// ConfigureStream applies the stream window at deploy time, before an
// authorizer is wired. Runtime changes go through SetStreamParams.
func (e *Engine) ConfigureStream(streamDuration, lookback uint64) error {
	if e == nil {
		return errNilState
	}
	if streamDuration == 0 || lookback == 0 {
		return ErrZeroAmount
	}
	if lookback > streamDuration {
		return ErrInvalidLookback
	}
	e.streamDuration = streamDuration
	e.streamLookback = lookback
	return nil
}

// StreamParams returns the current stream window and lookback in seconds.
func (e *Engine) StreamParams() (uint64, uint64) {
	if e == nil {
		return 0, 0
	}
	return e.streamDuration, e.streamLookback
}

// SetOperationExpenses configures the treasury skim applied to newly detected
// revenue. The ratio is expressed in basis points and capped at 100%.
func (e *Engine) SetOperationExpenses(caller, treasury common.Address, ratioBps uint64) error {
	if e == nil {
		return errNilState
	}
	if err := e.requireRole(caller, RoleAdmin); err != nil {
		return err
	}
	return e.ConfigureOperationExpenses(treasury, ratioBps)
}

// ConfigureOperationExpenses applies the expense skim at deploy time, before
// an authorizer is wired. Runtime changes go through SetOperationExpenses.
func (e *Engine) ConfigureOperationExpenses(treasury common.Address, ratioBps uint64) error {
	if e == nil {
		return errNilState
	}
	if ratioBps > 10_000 {
		return ErrInvalidRatio
	}
	if ratioBps > 0 && treasury == (common.Address{}) {
		return ErrZeroAddress
	}
	e.opsTreasury = treasury
	e.opsRatioBps = ratioBps
	return nil
}

// OperationExpenses returns the configured treasury and skim ratio.
func (e *Engine) OperationExpenses() (common.Address, uint64) {
	if e == nil {
		return common.Address{}, 0
	}
	return e.opsTreasury, e.opsRatioBps
}

// ApproveRewardDistributor grants or revokes the right to push revenue for
// the token via NotifyReward.
func (e *Engine) ApproveRewardDistributor(caller, token, distributor common.Address, approved bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireRole(caller, RoleAdmin); err != nil {
		return err
	}
	if distributor == (common.Address{}) {
		return ErrZeroAddress
	}
	g, err := e.loadGlobal()
	if err != nil {
		return err
	}
	if !g.HasRewardToken(token) {
		return ErrUnknownToken
	}
	g.ensureTotals()
	inner := g.Distributors[token]
	if inner == nil {
		inner = make(map[common.Address]bool)
		g.Distributors[token] = inner
	}
	if approved {
		inner[distributor] = true
	} else {
		delete(inner, distributor)
	}
	if err := e.state.PutGlobal(g); err != nil {
		return fmt.Errorf("lockup: persist global state: %w", err)
	}
	return nil
}

// SetDefaultLockIndex records the caller's preferred tier for relock and
// bounty flows.
func (e *Engine) SetDefaultLockIndex(caller common.Address, index int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if caller == (common.Address{}) {
		return ErrZeroAddress
	}
	if index < 0 || index >= len(e.tiers) {
		return ErrInvalidTierIndex
	}
	acct, err := e.loadAccount(caller)
	if err != nil {
		return err
	}
	acct.DefaultLockIndex = index
	if err := e.state.PutLockAccount(caller, acct); err != nil {
		return fmt.Errorf("lockup: persist account: %w", err)
	}
	return nil
}

// SetAutoRelock records whether bounty cleanup should relock the caller's
// expired principal instead of paying it out.
func (e *Engine) SetAutoRelock(caller common.Address, enabled bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if caller == (common.Address{}) {
		return ErrZeroAddress
	}
	acct, err := e.loadAccount(caller)
	if err != nil {
		return err
	}
	acct.AutoRelock = enabled
	if err := e.state.PutLockAccount(caller, acct); err != nil {
		return fmt.Errorf("lockup: persist account: %w", err)
	}
	return nil
}
