package lockup

import (
	"github.com/ethereum/go-ethereum/common"
)

// MemoryState is the reference engineState implementation backing the engine
// with in-process maps. Reads hand out deep copies and writes store deep
// copies, so staged mutations inside an operation only become visible once
// the engine commits them.
type MemoryState struct {
	accounts map[common.Address]*LockAccount
	rewards  map[common.Address]*RewardTokenState
	global   *GlobalState
}

// NewMemoryState returns an empty in-memory state.
func NewMemoryState() *MemoryState {
	return &MemoryState{
		accounts: make(map[common.Address]*LockAccount),
		rewards:  make(map[common.Address]*RewardTokenState),
		global:   NewGlobalState(),
	}
}

// LockAccount returns a deep copy of the stored account, or nil when the
// address has never staked.
func (m *MemoryState) LockAccount(addr common.Address) (*LockAccount, error) {
	if acct, ok := m.accounts[addr]; ok {
		return acct.Clone(), nil
	}
	return nil, nil
}

// PutLockAccount stores a deep copy of the account.
func (m *MemoryState) PutLockAccount(addr common.Address, acct *LockAccount) error {
	if acct == nil {
		delete(m.accounts, addr)
		return nil
	}
	m.accounts[addr] = acct.Clone()
	return nil
}

// RewardState returns a deep copy of the stream state, or nil when the token
// was never initialised.
func (m *MemoryState) RewardState(token common.Address) (*RewardTokenState, error) {
	if state, ok := m.rewards[token]; ok {
		return state.Clone(), nil
	}
	return nil, nil
}

// PutRewardState stores a deep copy of the stream state.
func (m *MemoryState) PutRewardState(token common.Address, state *RewardTokenState) error {
	if state == nil {
		delete(m.rewards, token)
		return nil
	}
	m.rewards[token] = state.Clone()
	return nil
}

// Global returns a deep copy of the shared counters and registry.
func (m *MemoryState) Global() (*GlobalState, error) {
	if m.global == nil {
		m.global = NewGlobalState()
	}
	return m.global.Clone(), nil
}

// PutGlobal stores a deep copy of the shared counters and registry.
func (m *MemoryState) PutGlobal(g *GlobalState) error {
	if g == nil {
		g = NewGlobalState()
	}
	m.global = g.Clone()
	return nil
}
