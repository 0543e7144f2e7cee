package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/decmath"
)

var (
	MaxListSize        = uint64(10_000_000)
	MaxBatchLiquidated = uint64(1_000)
)

// Validate parses every decimal field and checks the sections against each
// other. It returns the first problem found.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("node: ListenAddress must be set")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("node: DataDir must be set")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	params, err := c.Protocol.params()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	if c.Limits.ListMaxSize == 0 || c.Limits.ListMaxSize > MaxListSize {
		return fmt.Errorf("limits: ListMaxSize must be in (0, %d]", MaxListSize)
	}
	if c.Limits.MaxSearchSteps == 0 {
		return fmt.Errorf("limits: MaxSearchSteps must be positive")
	}
	if c.Limits.MaxBatchLiquidations == 0 || c.Limits.MaxBatchLiquidations > MaxBatchLiquidated {
		return fmt.Errorf("limits: MaxBatchLiquidations must be in (0, %d]", MaxBatchLiquidated)
	}
	if c.Limits.MaxRedemptionIterations == 0 {
		return fmt.Errorf("limits: MaxRedemptionIterations must be positive")
	}
	supply, err := parseAmount("issuance.SupplyCap", c.Issuance.SupplyCap)
	if err != nil {
		return err
	}
	if supply.IsZero() {
		return fmt.Errorf("issuance: SupplyCap must be positive")
	}
	factor, err := parseAmount("issuance.Factor", c.Issuance.Factor)
	if err != nil {
		return err
	}
	if factor.IsZero() || !factor.Lt(decmath.One()) {
		return fmt.Errorf("issuance: Factor must be in (0, 1)")
	}
	price, err := parseAmount("oracle.InitialPrice", c.Oracle.InitialPrice)
	if err != nil {
		return err
	}
	if price.IsZero() {
		return fmt.Errorf("oracle: InitialPrice must be positive")
	}
	if c.API.RateLimitPerSecond <= 0 || c.API.RateLimitBurst <= 0 {
		return fmt.Errorf("api: rate limit and burst must be positive")
	}
	if c.API.MaxBodyBytes <= 0 {
		return fmt.Errorf("api: MaxBodyBytes <= 0")
	}
	for i, alloc := range c.Genesis {
		if !common.IsHexAddress(alloc.Owner) {
			return fmt.Errorf("genesis[%d]: invalid owner %q", i, alloc.Owner)
		}
		if _, err := parseAmount(fmt.Sprintf("genesis[%d].Collateral", i), alloc.Collateral); err != nil {
			return err
		}
	}
	return nil
}

func parseAmount(field, raw string) (*uint256.Int, error) {
	value, err := decmath.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return value, nil
}
