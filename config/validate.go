package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Validate applies the same rules the engine's admin surface enforces, so a
// bad file is rejected at startup rather than at the first mutation.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.StakeToken) {
		return fmt.Errorf("config: StakeToken is not a valid address")
	}
	if !common.IsHexAddress(c.Vault) {
		return fmt.Errorf("config: Vault is not a valid address")
	}
	if c.LookbackSeconds > c.StreamDurationSeconds {
		return fmt.Errorf("config: LookbackSeconds exceeds StreamDurationSeconds")
	}
	if c.OpsExpenseRatio > 10_000 {
		return fmt.Errorf("config: OpsExpenseRatioBps exceeds 100%%")
	}
	if c.OpsExpenseRatio > 0 && !common.IsHexAddress(c.OpsTreasury) {
		return fmt.Errorf("config: OpsTreasury required when OpsExpenseRatioBps is set")
	}
	if c.CleanupLimit < 0 {
		return fmt.Errorf("config: CleanupLimit cannot be negative")
	}
	for _, group := range [][]string{c.Admins, c.BountyManagers, c.Compounders} {
		for _, addr := range group {
			if !common.IsHexAddress(addr) {
				return fmt.Errorf("config: %q is not a valid role address", addr)
			}
		}
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("config: at least one lock tier required")
	}
	for i, tier := range c.Tiers {
		if tier.DurationSeconds == 0 {
			return fmt.Errorf("config: tier %d duration must be positive", i)
		}
		if tier.Multiplier == 0 {
			return fmt.Errorf("config: tier %d multiplier must be positive", i)
		}
	}
	return nil
}
