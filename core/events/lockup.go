package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// TypeLockupStaked captures a new or aggregated locked position.
	TypeLockupStaked = "lockup.staked"
	// TypeLockupWithdrawn captures expired principal leaving custody.
	TypeLockupWithdrawn = "lockup.withdrawn"
	// TypeLockupRelocked captures expired principal re-entering a lock.
	TypeLockupRelocked = "lockup.relocked"
	// TypeLockupRewardPaid is emitted per token when rewards are claimed.
	TypeLockupRewardPaid = "lockup.rewardPaid"
	// TypeLockupRevenueStreamed records newly detected revenue folded into a
	// reward stream.
	TypeLockupRevenueStreamed = "lockup.revenueStreamed"
	// TypeLockupExpensesSkimmed records the operating-expense share routed to
	// the treasury before streaming.
	TypeLockupExpensesSkimmed = "lockup.expensesSkimmed"
	// TypeLockupBountyClaimed records a bounty-triggered cleanup of another
	// account's expired locks.
	TypeLockupBountyClaimed = "lockup.bountyClaimed"
	// TypeLockupCompounded records rewards routed to the compounder on behalf
	// of an account.
	TypeLockupCompounded = "lockup.compounded"
)

// LockupStaked captures the position created or grown by a stake.
type LockupStaked struct {
	Account    common.Address
	Amount     *big.Int
	UnlockTime uint64
	Multiplier uint64
	Relock     bool
}

// EventType implements the Event interface.
func (LockupStaked) EventType() string { return TypeLockupStaked }

// LockupWithdrawn captures expired principal paid back to its owner.
type LockupWithdrawn struct {
	Account common.Address
	Amount  *big.Int
}

// EventType implements the Event interface.
func (LockupWithdrawn) EventType() string { return TypeLockupWithdrawn }

// LockupRelocked captures expired principal re-inserted at the account's
// preferred tier.
type LockupRelocked struct {
	Account   common.Address
	Amount    *big.Int
	TierIndex int
}

// EventType implements the Event interface.
func (LockupRelocked) EventType() string { return TypeLockupRelocked }

// LockupRewardPaid captures one token payout during a claim.
type LockupRewardPaid struct {
	Account   common.Address
	Recipient common.Address
	Token     common.Address
	Amount    *big.Int
}

// EventType implements the Event interface.
func (LockupRewardPaid) EventType() string { return TypeLockupRewardPaid }

// LockupRevenueStreamed captures revenue folded into a stream window.
type LockupRevenueStreamed struct {
	Token           common.Address
	Amount          *big.Int
	RewardPerSecond *big.Int
	PeriodFinish    uint64
}

// EventType implements the Event interface.
func (LockupRevenueStreamed) EventType() string { return TypeLockupRevenueStreamed }

// LockupExpensesSkimmed captures the treasury share of detected revenue.
type LockupExpensesSkimmed struct {
	Token    common.Address
	Treasury common.Address
	Amount   *big.Int
}

// EventType implements the Event interface.
func (LockupExpensesSkimmed) EventType() string { return TypeLockupExpensesSkimmed }

// LockupBountyClaimed captures an executed bounty cleanup.
type LockupBountyClaimed struct {
	Caller   common.Address
	Account  common.Address
	Amount   *big.Int
	Relocked bool
}

// EventType implements the Event interface.
func (LockupBountyClaimed) EventType() string { return TypeLockupBountyClaimed }

// LockupCompounded captures rewards routed to the compounder.
type LockupCompounded struct {
	Account    common.Address
	Compounder common.Address
	Tokens     []common.Address
}

// EventType implements the Event interface.
func (LockupCompounded) EventType() string { return TypeLockupCompounded }
