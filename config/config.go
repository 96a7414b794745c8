package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"lockvault/native/lockup"
)

// TierConfig declares one selectable lock tier.
type TierConfig struct {
	DurationSeconds uint64 `toml:"DurationSeconds"`
	Multiplier      uint64 `toml:"Multiplier"`
}

// Config carries the deploy-time parameters of the lock-staking service.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	Environment   string `toml:"Environment"`

	StakeToken string `toml:"StakeToken"`
	Vault      string `toml:"Vault"`

	StreamDurationSeconds uint64 `toml:"StreamDurationSeconds"`
	LookbackSeconds       uint64 `toml:"LookbackSeconds"`

	OpsTreasury     string `toml:"OpsTreasury"`
	OpsExpenseRatio uint64 `toml:"OpsExpenseRatioBps"`

	CleanupLimit int `toml:"CleanupLimit"`

	Admins         []string `toml:"Admins"`
	BountyManagers []string `toml:"BountyManagers"`
	Compounders    []string `toml:"Compounders"`

	Tiers []TierConfig `toml:"Tiers"`
}

// Load reads the configuration at path, applies defaults and validates it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = ":8545"
	}
	if c.StreamDurationSeconds == 0 {
		c.StreamDurationSeconds = lockup.DefaultStreamDuration
	}
	if c.LookbackSeconds == 0 {
		c.LookbackSeconds = lockup.DefaultStreamLookback
	}
}

// StakeTokenAddress returns the parsed stake token address.
func (c *Config) StakeTokenAddress() common.Address {
	return common.HexToAddress(c.StakeToken)
}

// VaultAddress returns the parsed custody address.
func (c *Config) VaultAddress() common.Address {
	return common.HexToAddress(c.Vault)
}

// OpsTreasuryAddress returns the parsed treasury address; zero when unset.
func (c *Config) OpsTreasuryAddress() common.Address {
	if c.OpsTreasury == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.OpsTreasury)
}

// Roles builds the static role table from the declared privileged callers.
func (c *Config) Roles() *lockup.StaticRoles {
	roles := lockup.NewStaticRoles()
	for _, addr := range c.Admins {
		roles.Grant(lockup.RoleAdmin, common.HexToAddress(addr))
	}
	for _, addr := range c.BountyManagers {
		roles.Grant(lockup.RoleBountyManager, common.HexToAddress(addr))
	}
	for _, addr := range c.Compounders {
		roles.Grant(lockup.RoleCompounder, common.HexToAddress(addr))
	}
	return roles
}

// LockTiers converts the declared tiers into engine form.
func (c *Config) LockTiers() []lockup.LockTier {
	tiers := make([]lockup.LockTier, len(c.Tiers))
	for i, tier := range c.Tiers {
		tiers[i] = lockup.LockTier{Duration: tier.DurationSeconds, Multiplier: tier.Multiplier}
	}
	return tiers
}
