package lockup

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lockvault/core/events"
	nativecommon "lockvault/native/common"
)

const moduleName = "lockup"

// Roles consulted through the RoleAuthorizer collaborator.
const (
	RoleAdmin         = "lockup.admin"
	RoleBountyManager = "lockup.bounty"
	RoleCompounder    = "lockup.compounder"
)

const (
	// DefaultStreamDuration is the window newly detected revenue is streamed
	// over.
	DefaultStreamDuration uint64 = 7 * 24 * 60 * 60
	// DefaultStreamLookback throttles how often a live stream may be
	// restarted by unseen revenue.
	DefaultStreamLookback uint64 = 24 * 60 * 60
)

// TokenLedger moves and reports balances of the underlying tokens. Transfers
// must be atomic with the caller and move exactly the requested amount.
type TokenLedger interface {
	Transfer(token, to common.Address, amount *big.Int) error
	TransferFrom(token, from, to common.Address, amount *big.Int) error
	BalanceOf(token, account common.Address) (*big.Int, error)
}

// RoleAuthorizer answers permission checks for privileged operations.
type RoleAuthorizer interface {
	IsAuthorized(caller common.Address, role string) bool
}

// StakePolicy optionally imposes a minimum stake size.
type StakePolicy interface {
	MinimumStakeAmount() *big.Int
}

type engineState interface {
	LockAccount(addr common.Address) (*LockAccount, error)
	PutLockAccount(addr common.Address, acct *LockAccount) error
	RewardState(token common.Address) (*RewardTokenState, error)
	PutRewardState(token common.Address, state *RewardTokenState) error
	Global() (*GlobalState, error)
	PutGlobal(g *GlobalState) error
}

// Engine sequences every public operation of the lock-staking ledger:
// validation, reward settlement, lock mutation and token movement, in that
// order. Operations are atomic; staged state is only persisted after every
// step, including external transfers, succeeded. Multi-token claims commit
// token by token: each successful payout is durable before the next one is
// attempted, so an abort mid-list never re-opens a paid claim.
//
// The engine itself is single-writer. Hosts driving it from multiple
// goroutines must serialise all mutating calls: the global supply counters
// and every stream state are shared across accounts.
type Engine struct {
	state   engineState
	tokens  TokenLedger
	auth    RoleAuthorizer
	pauses  nativecommon.PauseView
	policy  StakePolicy
	emitter events.Emitter

	stakeToken common.Address
	vault      common.Address

	opsTreasury common.Address
	opsRatioBps uint64

	streamDuration uint64
	streamLookback uint64

	tiers        []LockTier
	cleanupLimit int

	nowFn func() time.Time
}

// NewEngine constructs an engine holding custody at vault for the given stake
// token with the bootstrap tier list. Runtime tier replacement goes through
// the admin-gated SetLockTiers.
func NewEngine(stakeToken, vault common.Address, tiers []LockTier) *Engine {
	return &Engine{
		emitter:        events.NoopEmitter{},
		stakeToken:     stakeToken,
		vault:          vault,
		streamDuration: DefaultStreamDuration,
		streamLookback: DefaultStreamLookback,
		tiers:          append([]LockTier(nil), tiers...),
		nowFn:          func() time.Time { return time.Now().UTC() },
	}
}

// SetState wires the engine to its persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokenLedger wires the value-transfer collaborator.
func (e *Engine) SetTokenLedger(ledger TokenLedger) {
	if e == nil {
		return
	}
	e.tokens = ledger
}

// SetAuthorizer wires the permission-check collaborator.
func (e *Engine) SetAuthorizer(auth RoleAuthorizer) {
	if e == nil {
		return
	}
	e.auth = auth
}

// SetPauses wires the pause switch consulted by state-changing operations.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetStakePolicy wires the optional minimum-stake collaborator.
func (e *Engine) SetStakePolicy(policy StakePolicy) {
	if e == nil {
		return
	}
	e.policy = policy
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetCleanupLimit bounds how many expired locks one withdraw or relock pass
// removes. Zero removes the whole expired prefix.
func (e *Engine) SetCleanupLimit(limit int) {
	if e == nil {
		return
	}
	if limit < 0 {
		limit = 0
	}
	e.cleanupLimit = limit
}

// SetNowFunc overrides the engine clock. Passing nil restores time.Now.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if e == nil {
		return
	}
	if now == nil {
		e.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	e.nowFn = now
}

// StakeToken returns the receipt token accepted for locking.
func (e *Engine) StakeToken() common.Address { return e.stakeToken }

// Vault returns the custody address.
func (e *Engine) Vault() common.Address { return e.vault }

func (e *Engine) now() uint64 {
	if e.nowFn == nil {
		return uint64(time.Now().UTC().Unix())
	}
	return uint64(e.nowFn().UTC().Unix())
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.tokens == nil {
		return errNilLedger
	}
	return nil
}

func (e *Engine) requireRole(caller common.Address, role string) error {
	if e.auth == nil || !e.auth.IsAuthorized(caller, role) {
		return ErrInsufficientPermission
	}
	return nil
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) loadGlobal() (*GlobalState, error) {
	g, err := e.state.Global()
	if err != nil {
		return nil, fmt.Errorf("lockup: load global state: %w", err)
	}
	if g == nil {
		g = NewGlobalState()
	}
	g.ensureTotals()
	return g, nil
}

func (e *Engine) loadAccount(addr common.Address) (*LockAccount, error) {
	acct, err := e.state.LockAccount(addr)
	if err != nil {
		return nil, fmt.Errorf("lockup: load account: %w", err)
	}
	if acct == nil {
		acct = NewLockAccount()
	}
	acct.ensureTotals()
	return acct, nil
}

func (e *Engine) loadRewardState(token common.Address) (*RewardTokenState, error) {
	state, err := e.state.RewardState(token)
	if err != nil {
		return nil, fmt.Errorf("lockup: load reward state: %w", err)
	}
	if state == nil {
		return nil, ErrInvalidPeriod
	}
	state.ensureTotals()
	return state, nil
}

func (e *Engine) commitSettlement(s *settlement) error {
	if s == nil {
		return nil
	}
	for _, token := range s.tokens {
		if err := e.state.PutRewardState(token, s.states[token]); err != nil {
			return fmt.Errorf("lockup: persist reward state: %w", err)
		}
	}
	return nil
}

// defaultTierIndex resolves the account's preferred relock tier, falling back
// to tier 0 when the stored index no longer exists.
func (e *Engine) defaultTierIndex(acct *LockAccount) int {
	if acct == nil || acct.DefaultLockIndex < 0 || acct.DefaultLockIndex >= len(e.tiers) {
		return 0
	}
	return acct.DefaultLockIndex
}

// Stake locks amount of the stake token for onBehalf at the chosen tier,
// pulling the funds from caller into custody.
func (e *Engine) Stake(caller, onBehalf common.Address, amount *big.Int, tierIndex int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if caller == (common.Address{}) || onBehalf == (common.Address{}) {
		return ErrZeroAddress
	}
	if onBehalf == e.vault {
		// The custody address must never hold a lock account of its own.
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if tierIndex < 0 || tierIndex >= len(e.tiers) {
		return ErrInvalidTierIndex
	}
	if e.policy != nil {
		if min := e.policy.MinimumStakeAmount(); min != nil && amount.Cmp(min) < 0 {
			return ErrInvalidAmount
		}
	}

	now := e.now()
	g, err := e.loadGlobal()
	if err != nil {
		return err
	}
	acct, err := e.loadAccount(onBehalf)
	if err != nil {
		return err
	}
	settled, err := e.settleAccount(g, acct, now)
	if err != nil {
		return err
	}
	entry := e.insertLock(g, acct, amount, tierIndex, now)

	if err := e.tokens.TransferFrom(e.stakeToken, caller, e.vault, amount); err != nil {
		return fmt.Errorf("lockup: pull stake: %w", err)
	}

	if err := e.commitSettlement(settled); err != nil {
		return err
	}
	if err := e.state.PutLockAccount(onBehalf, acct); err != nil {
		return fmt.Errorf("lockup: persist account: %w", err)
	}
	if err := e.state.PutGlobal(g); err != nil {
		return fmt.Errorf("lockup: persist global state: %w", err)
	}
	e.emit(events.LockupStaked{
		Account:    onBehalf,
		Amount:     copyBigInt(amount),
		UnlockTime: entry.UnlockTime,
		Multiplier: entry.Multiplier,
	})
	return nil
}

// ClaimRewards settles caller, folds any unseen revenue into the requested
// streams and pays out the accrued amounts. Unknown or removed tokens in the
// list simply yield zero.
func (e *Engine) ClaimRewards(caller common.Address, tokens []common.Address) ([]ClaimableReward, error) {
	return e.claimRewardsTo(caller, caller, tokens)
}

// ClaimAllRewards claims over the full registered token set.
func (e *Engine) ClaimAllRewards(caller common.Address) ([]ClaimableReward, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	g, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	return e.claimRewardsTo(caller, caller, g.RewardTokens)
}

func (e *Engine) claimRewardsTo(account, recipient common.Address, tokens []common.Address) ([]ClaimableReward, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if account == (common.Address{}) {
		return nil, ErrZeroAddress
	}

	now := e.now()
	g, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	acct, err := e.loadAccount(account)
	if err != nil {
		return nil, err
	}
	settled, err := e.settleAccount(g, acct, now)
	if err != nil {
		return nil, err
	}

	paid := make([]ClaimableReward, 0, len(tokens))
	for _, token := range tokens {
		if !g.HasRewardToken(token) {
			paid = append(paid, ClaimableReward{Token: token, Amount: big.NewInt(0)})
			continue
		}
		state := settled.state(token)
		streamed, err := e.trackUnseen(g, token, state, now)
		if err != nil {
			return nil, err
		}
		if streamed.Sign() > 0 {
			e.emit(events.LockupRevenueStreamed{
				Token:           token,
				Amount:          copyBigInt(streamed),
				RewardPerSecond: copyBigInt(state.RewardPerSecond),
				PeriodFinish:    state.PeriodFinish,
			})
		}
		amount := payReward(acct, token, state)
		if amount.Sign() > 0 {
			if err := e.tokens.Transfer(token, recipient, amount); err != nil {
				return nil, fmt.Errorf("lockup: pay reward %s: %w", token.Hex(), err)
			}
			// A payout is final once the transfer succeeded. Persist the
			// zeroed snapshot and debited stream balance before moving to
			// the next token so a failure further down the list cannot
			// resurrect an already-paid claim on retry.
			if err := e.state.PutRewardState(token, state); err != nil {
				return nil, fmt.Errorf("lockup: persist reward state: %w", err)
			}
			if err := e.state.PutLockAccount(account, acct); err != nil {
				return nil, fmt.Errorf("lockup: persist account: %w", err)
			}
			e.emit(events.LockupRewardPaid{
				Account:   account,
				Recipient: recipient,
				Token:     token,
				Amount:    copyBigInt(amount),
			})
		}
		paid = append(paid, ClaimableReward{Token: token, Amount: amount})
	}

	if err := e.commitSettlement(settled); err != nil {
		return nil, err
	}
	if err := e.state.PutLockAccount(account, acct); err != nil {
		return nil, fmt.Errorf("lockup: persist account: %w", err)
	}
	if err := e.state.PutGlobal(g); err != nil {
		return nil, fmt.Errorf("lockup: persist global state: %w", err)
	}
	return paid, nil
}

// WithdrawExpiredLocks pays the caller's expired principal out of custody.
func (e *Engine) WithdrawExpiredLocks(caller common.Address) (*big.Int, error) {
	amount, _, err := e.removeExpired(caller, caller, false)
	return amount, err
}

// RelockExpiredLocks re-inserts the caller's expired principal at the
// caller's preferred tier without moving funds; they never left custody.
func (e *Engine) RelockExpiredLocks(caller common.Address) (*big.Int, error) {
	amount, _, err := e.removeExpired(caller, caller, true)
	return amount, err
}

// removeExpired is the shared withdraw/relock flow. recipient receives the
// principal in the withdraw case.
func (e *Engine) removeExpired(account, recipient common.Address, relock bool) (*big.Int, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, false, err
	}
	if account == (common.Address{}) {
		return nil, false, ErrZeroAddress
	}
	if relock && len(e.tiers) == 0 {
		return nil, false, errNoTiers
	}

	now := e.now()
	g, err := e.loadGlobal()
	if err != nil {
		return nil, false, err
	}
	acct, err := e.loadAccount(account)
	if err != nil {
		return nil, false, err
	}
	settled, err := e.settleAccount(g, acct, now)
	if err != nil {
		return nil, false, err
	}

	amount, weighted := cleanExpiredLocks(acct, e.cleanupLimit, now)
	if amount.Sign() == 0 {
		return nil, false, ErrNoUnlockedTokens
	}
	g.LockedSupply.Sub(g.LockedSupply, amount)
	g.LockedSupplyWithMultiplier.Sub(g.LockedSupplyWithMultiplier, weighted)

	tierIndex := 0
	if relock {
		tierIndex = e.defaultTierIndex(acct)
		e.insertLock(g, acct, amount, tierIndex, now)
	} else {
		if err := e.tokens.Transfer(e.stakeToken, recipient, amount); err != nil {
			return nil, false, fmt.Errorf("lockup: pay principal: %w", err)
		}
	}

	if err := e.commitSettlement(settled); err != nil {
		return nil, false, err
	}
	if err := e.state.PutLockAccount(account, acct); err != nil {
		return nil, false, fmt.Errorf("lockup: persist account: %w", err)
	}
	if err := e.state.PutGlobal(g); err != nil {
		return nil, false, fmt.Errorf("lockup: persist global state: %w", err)
	}
	if relock {
		e.emit(events.LockupRelocked{Account: account, Amount: copyBigInt(amount), TierIndex: tierIndex})
	} else {
		e.emit(events.LockupWithdrawn{Account: recipient, Amount: copyBigInt(amount)})
	}
	return amount, relock, nil
}

// ClaimBounty lets the bounty manager trigger cleanup of another account's
// expired locks. With execute false it only reports whether a bounty is owed;
// with execute true it performs the withdraw-or-relock, honouring the
// account's auto-relock preference, and returns what was processed.
func (e *Engine) ClaimBounty(caller, account common.Address, execute bool) (*BountyResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.requireRole(caller, RoleBountyManager); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if account == (common.Address{}) {
		return nil, ErrZeroAddress
	}

	acct, err := e.loadAccount(account)
	if err != nil {
		return nil, err
	}
	unlockable := unlockableAmount(acct, e.now())
	if !execute || unlockable.Sign() == 0 {
		return &BountyResult{Amount: unlockable, Relocked: acct.AutoRelock}, nil
	}

	amount, relocked, err := e.removeExpired(account, account, acct.AutoRelock)
	if err != nil {
		return nil, err
	}
	e.emit(events.LockupBountyClaimed{
		Caller:   caller,
		Account:  account,
		Amount:   copyBigInt(amount),
		Relocked: relocked,
	})
	return &BountyResult{Amount: amount, Relocked: relocked}, nil
}

// ClaimAndCompound settles onBehalf and routes every non-stake-token reward
// to the compounder instead of the account, so the compounder can convert and
// restake it.
func (e *Engine) ClaimAndCompound(caller, onBehalf common.Address) ([]ClaimableReward, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.requireRole(caller, RoleCompounder); err != nil {
		return nil, err
	}
	if onBehalf == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	g, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	tokens := make([]common.Address, 0, len(g.RewardTokens))
	for _, token := range g.RewardTokens {
		if token == e.stakeToken {
			continue
		}
		tokens = append(tokens, token)
	}
	paid, err := e.claimRewardsTo(onBehalf, caller, tokens)
	if err != nil {
		return nil, err
	}
	e.emit(events.LockupCompounded{Account: onBehalf, Compounder: caller, Tokens: tokens})
	return paid, nil
}

// TrackUnseenRewards folds revenue that arrived in custody without an
// explicit distribution call into the requested streams. Permissionless and
// idempotent when nothing new arrived.
func (e *Engine) TrackUnseenRewards(tokens []common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	now := e.now()
	g, err := e.loadGlobal()
	if err != nil {
		return err
	}
	for _, token := range tokens {
		if !g.HasRewardToken(token) {
			return ErrUnknownToken
		}
		state, err := e.loadRewardState(token)
		if err != nil {
			return err
		}
		settleStream(state, g.LockedSupplyWithMultiplier, now)
		streamed, err := e.trackUnseen(g, token, state, now)
		if err != nil {
			return err
		}
		if err := e.state.PutRewardState(token, state); err != nil {
			return fmt.Errorf("lockup: persist reward state: %w", err)
		}
		if streamed.Sign() > 0 {
			e.emit(events.LockupRevenueStreamed{
				Token:           token,
				Amount:          copyBigInt(streamed),
				RewardPerSecond: copyBigInt(state.RewardPerSecond),
				PeriodFinish:    state.PeriodFinish,
			})
		}
	}
	return nil
}

// NotifyReward lets an approved distributor push amount of token into the
// stream directly, pulling the funds into custody.
func (e *Engine) NotifyReward(caller, token common.Address, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	g, err := e.loadGlobal()
	if err != nil {
		return err
	}
	if !g.HasRewardToken(token) {
		return ErrUnknownToken
	}
	if !g.IsDistributor(token, caller) {
		return ErrInsufficientPermission
	}

	now := e.now()
	state, err := e.loadRewardState(token)
	if err != nil {
		return err
	}
	settleStream(state, g.LockedSupplyWithMultiplier, now)

	if err := e.tokens.TransferFrom(token, caller, e.vault, amount); err != nil {
		return fmt.Errorf("lockup: pull reward: %w", err)
	}
	e.foldIntoStream(state, amount, now)
	if err := e.state.PutRewardState(token, state); err != nil {
		return fmt.Errorf("lockup: persist reward state: %w", err)
	}
	e.emit(events.LockupRevenueStreamed{
		Token:           token,
		Amount:          copyBigInt(amount),
		RewardPerSecond: copyBigInt(state.RewardPerSecond),
		PeriodFinish:    state.PeriodFinish,
	})
	return nil
}
