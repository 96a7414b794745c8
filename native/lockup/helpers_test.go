package lockup

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lockvault/core/events"
)

const (
	day  = uint64(24 * 60 * 60)
	week = 7 * day
)

var (
	stakeToken   = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	rewardUSD    = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	rewardWETH   = common.HexToAddress("0x0000000000000000000000000000000000000b02")
	vaultAddr    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	treasuryAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	adminAddr    = common.HexToAddress("0x0000000000000000000000000000000000000101")
	bountyAddr   = common.HexToAddress("0x0000000000000000000000000000000000000102")
	zapperAddr   = common.HexToAddress("0x0000000000000000000000000000000000000103")
	alice        = common.HexToAddress("0x0000000000000000000000000000000000000201")
	bob          = common.HexToAddress("0x0000000000000000000000000000000000000202")
)

var errMockTransfer = errors.New("mock ledger: transfer rejected")

type mockTokenLedger struct {
	custody           common.Address
	balances          map[common.Address]map[common.Address]*big.Int
	failTransfer      bool
	failTransferToken common.Address
	failTransferFrom  bool
}

func newMockTokenLedger(custody common.Address) *mockTokenLedger {
	return &mockTokenLedger{
		custody:  custody,
		balances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (m *mockTokenLedger) ref(token, account common.Address) *big.Int {
	accounts, ok := m.balances[token]
	if !ok {
		accounts = make(map[common.Address]*big.Int)
		m.balances[token] = accounts
	}
	bal, ok := accounts[account]
	if !ok {
		bal = big.NewInt(0)
		accounts[account] = bal
	}
	return bal
}

func (m *mockTokenLedger) mint(token, account common.Address, amount *big.Int) {
	bal := m.ref(token, account)
	bal.Add(bal, amount)
}

func (m *mockTokenLedger) balance(token, account common.Address) *big.Int {
	return new(big.Int).Set(m.ref(token, account))
}

func (m *mockTokenLedger) Transfer(token, to common.Address, amount *big.Int) error {
	if m.failTransfer {
		return errMockTransfer
	}
	if m.failTransferToken != (common.Address{}) && token == m.failTransferToken {
		return errMockTransfer
	}
	return m.move(token, m.custody, to, amount)
}

func (m *mockTokenLedger) TransferFrom(token, from, to common.Address, amount *big.Int) error {
	if m.failTransferFrom {
		return errMockTransfer
	}
	return m.move(token, from, to, amount)
}

func (m *mockTokenLedger) move(token, from, to common.Address, amount *big.Int) error {
	src := m.ref(token, from)
	if src.Cmp(amount) < 0 {
		return errors.New("mock ledger: insufficient balance")
	}
	src.Sub(src, amount)
	dst := m.ref(token, to)
	dst.Add(dst, amount)
	return nil
}

func (m *mockTokenLedger) BalanceOf(token, account common.Address) (*big.Int, error) {
	return m.balance(token, account), nil
}

type mockAuthorizer struct {
	grants map[common.Address]map[string]bool
}

func newMockAuthorizer() *mockAuthorizer {
	return &mockAuthorizer{grants: make(map[common.Address]map[string]bool)}
}

func (m *mockAuthorizer) grant(addr common.Address, role string) {
	roles, ok := m.grants[addr]
	if !ok {
		roles = make(map[string]bool)
		m.grants[addr] = roles
	}
	roles[role] = true
}

func (m *mockAuthorizer) IsAuthorized(caller common.Address, role string) bool {
	return m.grants[caller][role]
}

type mockPauses struct {
	paused bool
}

func (m *mockPauses) IsPaused(string) bool { return m.paused }

type mockStakePolicy struct {
	minimum *big.Int
}

func (m *mockStakePolicy) MinimumStakeAmount() *big.Int { return m.minimum }

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(seconds uint64) {
	c.now = c.now.Add(time.Duration(seconds) * time.Second)
}

type recordingEmitter struct {
	events []events.Event
}

func (r *recordingEmitter) Emit(evt events.Event) {
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) byType(eventType string) []events.Event {
	var out []events.Event
	for _, evt := range r.events {
		if evt.EventType() == eventType {
			out = append(out, evt)
		}
	}
	return out
}

func testTiers() []LockTier {
	return []LockTier{
		{Duration: 4 * week, Multiplier: 1},
		{Duration: 8 * week, Multiplier: 4},
		{Duration: 12 * week, Multiplier: 6},
	}
}

func newTestEngine(t *testing.T) (*Engine, *mockTokenLedger, *testClock) {
	t.Helper()
	engine := NewEngine(stakeToken, vaultAddr, testTiers())
	engine.SetState(NewMemoryState())
	ledger := newMockTokenLedger(vaultAddr)
	engine.SetTokenLedger(ledger)
	auth := newMockAuthorizer()
	auth.grant(adminAddr, RoleAdmin)
	auth.grant(bountyAddr, RoleBountyManager)
	auth.grant(zapperAddr, RoleCompounder)
	engine.SetAuthorizer(auth)
	clock := &testClock{now: time.Unix(1_700_000_000, 0).UTC()}
	engine.SetNowFunc(clock.Now)
	return engine, ledger, clock
}

// addRewardToken registers token through the admin surface.
func addRewardToken(t *testing.T, engine *Engine, token common.Address) {
	t.Helper()
	if err := engine.AddRewardToken(adminAddr, token); err != nil {
		t.Fatalf("add reward token: %v", err)
	}
}

// stakeFor seeds the staker balance and stakes amount at tierIndex.
func stakeFor(t *testing.T, engine *Engine, ledger *mockTokenLedger, account common.Address, amount int64, tierIndex int) {
	t.Helper()
	value := big.NewInt(amount)
	ledger.mint(stakeToken, account, value)
	if err := engine.Stake(account, account, value, tierIndex); err != nil {
		t.Fatalf("stake %d at tier %d: %v", amount, tierIndex, err)
	}
}

// streamRate mirrors the stream restart arithmetic.
func streamRate(amount *big.Int, duration uint64) *big.Int {
	rate := new(big.Int).Mul(amount, rewardScale)
	return rate.Quo(rate, new(big.Int).SetUint64(duration))
}

func requireBigInt(t *testing.T, want, got *big.Int, context string) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: got nil, want %s", context, want)
	}
	if want.Cmp(got) != 0 {
		t.Fatalf("%s: got %s, want %s", context, got, want)
	}
}
