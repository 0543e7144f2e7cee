package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"trovechain/core"
	"trovechain/native/decmath"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default file to be written: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload default: %v", err)
	}
	if reloaded.ListenAddress != cfg.ListenAddress || reloaded.Protocol != cfg.Protocol {
		t.Fatalf("reloaded config differs: %+v vs %+v", reloaded, cfg)
	}
}

func TestDefaultMatchesLedgerDefaults(t *testing.T) {
	sys, err := Default().SystemConfig()
	if err != nil {
		t.Fatalf("system config: %v", err)
	}
	want := core.DefaultConfig()
	if !sys.Params.MCR.Eq(want.Params.MCR) || !sys.Params.CCR.Eq(want.Params.CCR) {
		t.Fatalf("unexpected ratios: MCR=%s CCR=%s", sys.Params.MCR, sys.Params.CCR)
	}
	if !sys.Params.MinuteDecayFactor.Eq(want.Params.MinuteDecayFactor) {
		t.Fatalf("unexpected decay factor: %s", sys.Params.MinuteDecayFactor)
	}
	if sys.Params.BootstrapPeriod != want.Params.BootstrapPeriod {
		t.Fatalf("unexpected bootstrap period: %s", sys.Params.BootstrapPeriod)
	}
	if !sys.IssuanceCap.Eq(want.IssuanceCap) || !sys.IssuanceFactor.Eq(want.IssuanceFactor) {
		t.Fatalf("unexpected issuance: cap=%s factor=%s", sys.IssuanceCap, sys.IssuanceFactor)
	}
	if sys.Limits != want.Limits {
		t.Fatalf("unexpected limits: %+v", sys.Limits)
	}
	if sys.ListMaxSize != want.ListMaxSize {
		t.Fatalf("unexpected list size: %d", sys.ListMaxSize)
	}
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `ListenAddress = "127.0.0.1:9100"
DataDir = "./data"
Env = "test"
LogLevel = "debug"

[protocol]
MCR = "1.2"
CCR = "1.6"
GasCompensation = "50"
MinNetDebt = "500"
PercentDivisor = 100
BorrowingFeeFloor = "0.01"
RedemptionFeeFloor = "0.01"
MaxBorrowingFee = "0.1"
Beta = 2
MinuteDecayFactor = "0.999"
BootstrapPeriodSeconds = 60

[limits]
ListMaxSize = 50
MaxBatchLiquidations = 10
MaxRedemptionIterations = 5
HintSeed = 7

[oracle]
InitialPrice = "1850.25"
MaxAgeSeconds = 30

[pauses]
Faucet = true
Flows = ["stability.withdraw"]

[[genesis]]
Owner = "0x00000000000000000000000000000000000000aa"
Collateral = "12.5"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil || level.String() != "DEBUG" {
		t.Fatalf("unexpected level %v (%v)", level, err)
	}
	sys, err := cfg.SystemConfig()
	if err != nil {
		t.Fatalf("system config: %v", err)
	}
	if !sys.Params.MCR.Eq(decmath.Frac(12, 10)) {
		t.Fatalf("unexpected MCR: %s", sys.Params.MCR)
	}
	if sys.Params.BootstrapPeriod != time.Minute {
		t.Fatalf("unexpected bootstrap: %s", sys.Params.BootstrapPeriod)
	}
	if sys.ListMaxSize != 50 || sys.Limits.MaxBatchLiquidations != 10 || sys.HintSeed != 7 {
		t.Fatalf("unexpected limits: %+v", sys)
	}
	if strings.Join(sys.Pauses, ",") != "bank.faucet,stability.withdraw" {
		t.Fatalf("unexpected pauses: %v", sys.Pauses)
	}
	// Sections missing from the file keep their defaults.
	if cfg.Issuance.SupplyCap != "32000000" || cfg.API.RateLimitBurst != 40 {
		t.Fatalf("defaults not applied: %+v %+v", cfg.Issuance, cfg.API)
	}
	price, err := cfg.InitialPrice()
	if err != nil || decmath.Format(price) != "1850.25" {
		t.Fatalf("unexpected price %v (%v)", price, err)
	}
	if cfg.OracleMaxAge() != 30*time.Second {
		t.Fatalf("unexpected max age: %s", cfg.OracleMaxAge())
	}
	allocs, err := cfg.GenesisAllocations()
	if err != nil {
		t.Fatalf("allocations: %v", err)
	}
	if len(allocs) != 1 || allocs[0].Owner != common.HexToAddress("0xaa") || decmath.Format(allocs[0].Collateral) != "12.5" {
		t.Fatalf("unexpected allocations: %+v", allocs)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `ListenAddress = ":8080"
DataDir = "./data"
RPCAddress = ":9000"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "RPCAddress") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidateRejectsInconsistentValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"mcr below one", func(c *Config) { c.Protocol.MCR = "0.9" }, "MCR"},
		{"ccr below mcr", func(c *Config) { c.Protocol.CCR = "1.05" }, "CCR"},
		{"zero percent divisor", func(c *Config) { c.Protocol.PercentDivisor = 0 }, "percent divisor"},
		{"bad decimal", func(c *Config) { c.Protocol.GasCompensation = "abc" }, "GasCompensation"},
		{"too precise", func(c *Config) { c.Protocol.MinNetDebt = "0.0000000000000000001" }, "MinNetDebt"},
		{"decay factor at one", func(c *Config) { c.Protocol.MinuteDecayFactor = "1" }, "decay"},
		{"zero list size", func(c *Config) { c.Limits.ListMaxSize = 0 }, "ListMaxSize"},
		{"zero search steps", func(c *Config) { c.Limits.MaxSearchSteps = 0 }, "MaxSearchSteps"},
		{"zero batch", func(c *Config) { c.Limits.MaxBatchLiquidations = 0 }, "MaxBatchLiquidations"},
		{"issuance factor", func(c *Config) { c.Issuance.Factor = "1.5" }, "Factor"},
		{"zero price", func(c *Config) { c.Oracle.InitialPrice = "0" }, "InitialPrice"},
		{"no rate limit", func(c *Config) { c.API.RateLimitPerSecond = 0 }, "rate limit"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"bad owner", func(c *Config) { c.Genesis = []Allocation{{Owner: "nope", Collateral: "1"}} }, "owner"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}
