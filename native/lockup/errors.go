package lockup

import "errors"

var (
	ErrZeroAddress            = errors.New("lockup: zero address")
	ErrZeroAmount             = errors.New("lockup: amount must be positive")
	ErrInvalidRatio           = errors.New("lockup: ratio exceeds 100%")
	ErrInvalidLookback        = errors.New("lockup: lookback exceeds stream duration")
	ErrInsufficientPermission = errors.New("lockup: insufficient permission")
	ErrAlreadyRegistered      = errors.New("lockup: reward token already registered")
	ErrInvalidTierIndex       = errors.New("lockup: invalid lock tier index")
	ErrInvalidAmount          = errors.New("lockup: amount below required minimum")
	ErrInvalidDuration        = errors.New("lockup: tier duration must be positive")
	ErrInvalidPeriod          = errors.New("lockup: reward stream not initialised")
	ErrUnknownToken           = errors.New("lockup: unknown reward token")
	ErrNoUnlockedTokens       = errors.New("lockup: no unlockable tokens")
)

var (
	errNilState  = errors.New("lockup engine: state not configured")
	errNilLedger = errors.New("lockup engine: token ledger not configured")
	errNoTiers   = errors.New("lockup engine: no lock tiers configured")
)
