package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Env           string `toml:"Env"`
	LogLevel      string `toml:"LogLevel"`

	Protocol  Protocol     `toml:"protocol"`
	Limits    Limits       `toml:"limits"`
	Issuance  Issuance     `toml:"issuance"`
	Oracle    Oracle       `toml:"oracle"`
	API       API          `toml:"api"`
	Pauses    Pauses       `toml:"pauses"`
	Telemetry Telemetry    `toml:"telemetry"`
	Genesis   []Allocation `toml:"genesis"`
}

// Default returns the configuration written on first start.
func Default() *Config {
	return &Config{
		ListenAddress: ":8080",
		DataDir:       "./trove-data",
		Env:           "local",
		LogLevel:      "info",
		Protocol: Protocol{
			MCR:                    "1.1",
			CCR:                    "1.5",
			GasCompensation:        "200",
			MinNetDebt:             "1800",
			PercentDivisor:         200,
			BorrowingFeeFloor:      "0.005",
			RedemptionFeeFloor:     "0.005",
			MaxBorrowingFee:        "0.05",
			Beta:                   2,
			MinuteDecayFactor:      "0.999037758833783",
			BootstrapPeriodSeconds: 14 * 24 * 60 * 60,
		},
		Limits: Limits{
			ListMaxSize:             1_000_000,
			MaxSearchSteps:          5_000,
			MaxHintTrials:           10_000,
			MaxRedemptionIterations: 100,
			MaxBatchLiquidations:    200,
		},
		Issuance: Issuance{
			SupplyCap: "32000000",
			Factor:    "0.999998681227695",
		},
		Oracle: Oracle{
			InitialPrice:  "200",
			MaxAgeSeconds: 3600,
		},
		API: API{
			RateLimitPerSecond:  20,
			RateLimitBurst:      40,
			MaxBodyBytes:        1 << 20,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
		},
		Pauses:  Pauses{Flows: []string{}},
		Genesis: []Allocation{},
	}
}

// Load loads the configuration from the given path, writing the defaults
// when the file does not exist yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Pauses.Flows == nil {
		cfg.Pauses.Flows = []string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
