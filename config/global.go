package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/core"
	"trovechain/native/trove"
)

func (p Protocol) params() (trove.Params, error) {
	var (
		out trove.Params
		err error
	)
	fields := []struct {
		name string
		raw  string
		dst  **uint256.Int
	}{
		{"protocol.MCR", p.MCR, &out.MCR},
		{"protocol.CCR", p.CCR, &out.CCR},
		{"protocol.GasCompensation", p.GasCompensation, &out.GasCompensation},
		{"protocol.MinNetDebt", p.MinNetDebt, &out.MinNetDebt},
		{"protocol.BorrowingFeeFloor", p.BorrowingFeeFloor, &out.BorrowingFeeFloor},
		{"protocol.RedemptionFeeFloor", p.RedemptionFeeFloor, &out.RedemptionFeeFloor},
		{"protocol.MaxBorrowingFee", p.MaxBorrowingFee, &out.MaxBorrowingFee},
		{"protocol.MinuteDecayFactor", p.MinuteDecayFactor, &out.MinuteDecayFactor},
	}
	for _, f := range fields {
		if *f.dst, err = parseAmount(f.name, f.raw); err != nil {
			return trove.Params{}, err
		}
	}
	out.PercentDivisor = p.PercentDivisor
	out.Beta = p.Beta
	out.BootstrapPeriod = time.Duration(p.BootstrapPeriodSeconds) * time.Second
	return out, nil
}

// PauseFlows flattens the pause switches into flow names understood by the
// protocol modules.
func (p Pauses) PauseFlows() []string {
	flows := make([]string, 0, len(p.Flows)+4)
	if p.Trove {
		flows = append(flows, "trove")
	}
	if p.Stability {
		flows = append(flows, "stability")
	}
	if p.Staking {
		flows = append(flows, "staking")
	}
	if p.Faucet {
		flows = append(flows, "bank.faucet")
	}
	for _, flow := range p.Flows {
		if flow = strings.TrimSpace(flow); flow != "" {
			flows = append(flows, flow)
		}
	}
	return flows
}

// SystemConfig converts the validated file into the ledger configuration.
func (c *Config) SystemConfig() (core.Config, error) {
	if err := c.Validate(); err != nil {
		return core.Config{}, err
	}
	params, err := c.Protocol.params()
	if err != nil {
		return core.Config{}, err
	}
	supply, err := parseAmount("issuance.SupplyCap", c.Issuance.SupplyCap)
	if err != nil {
		return core.Config{}, err
	}
	factor, err := parseAmount("issuance.Factor", c.Issuance.Factor)
	if err != nil {
		return core.Config{}, err
	}
	return core.Config{
		Params: params,
		Limits: trove.Limits{
			MaxBatchLiquidations:    c.Limits.MaxBatchLiquidations,
			MaxRedemptionIterations: c.Limits.MaxRedemptionIterations,
			MaxHintTrials:           c.Limits.MaxHintTrials,
		},
		ListMaxSize:    c.Limits.ListMaxSize,
		MaxSearchSteps: c.Limits.MaxSearchSteps,
		IssuanceCap:    supply,
		IssuanceFactor: factor,
		Pauses:         c.Pauses.PauseFlows(),
		HintSeed:       c.Limits.HintSeed,
	}, nil
}

// GenesisAllocations returns the configured collateral allocations.
func (c *Config) GenesisAllocations() ([]core.Allocation, error) {
	out := make([]core.Allocation, 0, len(c.Genesis))
	for i, alloc := range c.Genesis {
		if !common.IsHexAddress(alloc.Owner) {
			return nil, fmt.Errorf("genesis[%d]: invalid owner %q", i, alloc.Owner)
		}
		amount, err := parseAmount(fmt.Sprintf("genesis[%d].Collateral", i), alloc.Collateral)
		if err != nil {
			return nil, err
		}
		out = append(out, core.Allocation{Owner: common.HexToAddress(alloc.Owner), Collateral: amount})
	}
	return out, nil
}

// InitialPrice returns the price the oracle starts from.
func (c *Config) InitialPrice() (*uint256.Int, error) {
	return parseAmount("oracle.InitialPrice", c.Oracle.InitialPrice)
}

// OracleMaxAge is the staleness bound applied to price observations.
func (c *Config) OracleMaxAge() time.Duration {
	return time.Duration(c.Oracle.MaxAgeSeconds) * time.Second
}

// ParseLevel maps a configured log level onto slog. An empty value is info.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("node: unknown LogLevel %q", raw)
	}
}
