package config

// Protocol holds the risk and fee parameters. Ratios and amounts are decimal
// strings with up to 18 fractional digits, e.g. MCR = "1.1".
type Protocol struct {
	MCR                    string `toml:"MCR"`
	CCR                    string `toml:"CCR"`
	GasCompensation        string `toml:"GasCompensation"`
	MinNetDebt             string `toml:"MinNetDebt"`
	PercentDivisor         uint64 `toml:"PercentDivisor"`
	BorrowingFeeFloor      string `toml:"BorrowingFeeFloor"`
	RedemptionFeeFloor     string `toml:"RedemptionFeeFloor"`
	MaxBorrowingFee        string `toml:"MaxBorrowingFee"`
	Beta                   uint64 `toml:"Beta"`
	MinuteDecayFactor      string `toml:"MinuteDecayFactor"`
	BootstrapPeriodSeconds uint64 `toml:"BootstrapPeriodSeconds"`
}

// Limits bound the work a single request may trigger.
type Limits struct {
	ListMaxSize             uint64 `toml:"ListMaxSize"`
	MaxSearchSteps          uint64 `toml:"MaxSearchSteps"`
	MaxHintTrials           uint64 `toml:"MaxHintTrials"`
	MaxRedemptionIterations uint64 `toml:"MaxRedemptionIterations"`
	MaxBatchLiquidations    uint64 `toml:"MaxBatchLiquidations"`
	HintSeed                uint64 `toml:"HintSeed"`
}

// Issuance configures the reward token release curve.
type Issuance struct {
	SupplyCap string `toml:"SupplyCap"`
	Factor    string `toml:"Factor"`
}

// Oracle seeds the manual price feed.
type Oracle struct {
	InitialPrice  string `toml:"InitialPrice"`
	MaxAgeSeconds uint64 `toml:"MaxAgeSeconds"`
}

// API controls the HTTP surface.
type API struct {
	RateLimitPerSecond  float64  `toml:"RateLimitPerSecond"`
	RateLimitBurst      int      `toml:"RateLimitBurst"`
	MaxBodyBytes        int64    `toml:"MaxBodyBytes"`
	ReadTimeoutSeconds  uint64   `toml:"ReadTimeoutSeconds"`
	WriteTimeoutSeconds uint64   `toml:"WriteTimeoutSeconds"`
	AllowedOrigins      []string `toml:"AllowedOrigins"`
}

// Pauses switches off whole modules or single flows such as
// "stability.withdraw".
type Pauses struct {
	Trove     bool     `toml:"Trove"`
	Stability bool     `toml:"Stability"`
	Staking   bool     `toml:"Staking"`
	Faucet    bool     `toml:"Faucet"`
	Flows     []string `toml:"Flows"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
	Headers  string `toml:"Headers"`
}

// Allocation funds an account with collateral at genesis.
type Allocation struct {
	Owner      string `toml:"Owner"`
	Collateral string `toml:"Collateral"`
}
