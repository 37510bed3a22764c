// Package config loads the agent configuration and owns the persisted
// supported-currency list.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// Config is the full agent configuration.
type Config struct {
	Agent  AgentConfig  `mapstructure:"agent"`
	Ledger LedgerConfig `mapstructure:"ledger"`
	Oracle OracleConfig `mapstructure:"oracle"`
	Maker  MakerConfig  `mapstructure:"maker"`
	Faucet FaucetConfig `mapstructure:"faucet"`
}

// AgentConfig identifies the trading account.
type AgentConfig struct {
	// Account is the agent's classic address.
	Account string `mapstructure:"account"`
	// Seed is the account secret, passed to the trade node for
	// sign-and-submit. Usually supplied via XRPLMM_AGENT_SEED.
	Seed string `mapstructure:"seed"`
	// NetworkID tags every submitted transaction when nonzero.
	NetworkID uint32 `mapstructure:"network_id"`
}

// LedgerConfig holds the websocket endpoints. The live endpoint serves the
// oracle's reference queries; the trade endpoint carries offers, payments and
// the account subscription.
type LedgerConfig struct {
	LiveEndpoint  string `mapstructure:"live_endpoint"`
	TradeEndpoint string `mapstructure:"trade_endpoint"`
}

// OracleConfig drives rate aggregation.
type OracleConfig struct {
	// ReferenceAccount is the well-known account whose trust-line limits are
	// read as rates.
	ReferenceAccount string `mapstructure:"reference_account"`
	// FeedURL is the external market-data document for the base asset.
	FeedURL string `mapstructure:"feed_url"`
	// SupportedFile is the JSON file persisting the supported-currency list.
	SupportedFile string `mapstructure:"supported_file"`
	// LineLimit caps the account_lines page size.
	LineLimit int `mapstructure:"line_limit"`
}

// MakerConfig drives offer reconciliation.
type MakerConfig struct {
	// WallAmountXRP is the fixed notional of each resting offer, in XRP.
	WallAmountXRP float64 `mapstructure:"wall_amount_xrp"`
	// Spread is the half-spread applied around the oracle rate: sells are
	// placed at rate*(1-spread), buys at rate*(1+spread).
	Spread float64 `mapstructure:"spread"`
	// TolerancePct is the deviation band, in percent, within which a resting
	// sell offer is left alone.
	TolerancePct float64 `mapstructure:"tolerance_pct"`
	// ToleranceOverrides widens the band for specific currencies.
	ToleranceOverrides map[string]float64 `mapstructure:"tolerance_overrides"`
	// PacingDelay spaces consecutive mutating submissions so each lands in
	// its own sequence slot.
	PacingDelay time.Duration `mapstructure:"pacing_delay"`
	// OfferLimit caps the account_offers page size.
	OfferLimit int `mapstructure:"offer_limit"`
}

// FaucetConfig drives the testnet balance refiller.
type FaucetConfig struct {
	URL string `mapstructure:"url"`
	// FloorXRP is the balance below which a top-up is requested.
	FloorXRP float64 `mapstructure:"floor_xrp"`
}

// Load reads configuration in priority order: defaults, the config file,
// then XRPLMM_-prefixed environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("XRPLMM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ledger.live_endpoint", "wss://xrplcluster.com")
	v.SetDefault("ledger.trade_endpoint", "ws://127.0.0.1:6006")

	v.SetDefault("oracle.reference_account", "rpXCfDds782Bd6eK9Hsn15RDnGMtxf752m")
	v.SetDefault("oracle.feed_url",
		"https://api.coingecko.com/api/v3/coins/ripple?localization=false&tickers=false&market_data=true&community_data=false&developer_data=false&sparkline=false")
	v.SetDefault("oracle.supported_file", "supported.json")
	v.SetDefault("oracle.line_limit", 400)

	v.SetDefault("maker.wall_amount_xrp", 100000.0)
	v.SetDefault("maker.spread", 0.005)
	v.SetDefault("maker.tolerance_pct", 2.0)
	v.SetDefault("maker.pacing_delay", 500*time.Millisecond)
	v.SetDefault("maker.offer_limit", 400)

	v.SetDefault("faucet.url", "https://faucet.altnet.rippletest.net/accounts")
	v.SetDefault("faucet.floor_xrp", 1_000_000.0)
}

// Validate checks the fields every command depends on.
func Validate(c *Config) error {
	if c.Agent.Account == "" {
		return fmt.Errorf("agent.account is required")
	}
	if err := xrpl.ValidateClassicAddress(c.Agent.Account); err != nil {
		return fmt.Errorf("agent.account: %w", err)
	}
	if c.Agent.Seed == "" {
		return fmt.Errorf("agent.seed is required (set XRPLMM_AGENT_SEED)")
	}
	if c.Ledger.TradeEndpoint == "" {
		return fmt.Errorf("ledger.trade_endpoint is required")
	}
	if c.Ledger.LiveEndpoint == "" {
		return fmt.Errorf("ledger.live_endpoint is required")
	}
	if err := xrpl.ValidateClassicAddress(c.Oracle.ReferenceAccount); err != nil {
		return fmt.Errorf("oracle.reference_account: %w", err)
	}
	if c.Maker.WallAmountXRP <= 0 {
		return fmt.Errorf("maker.wall_amount_xrp must be positive")
	}
	if c.Maker.Spread <= 0 || c.Maker.Spread >= 1 {
		return fmt.Errorf("maker.spread must be in (0, 1)")
	}
	if c.Maker.TolerancePct < 0 {
		return fmt.Errorf("maker.tolerance_pct must not be negative")
	}
	return nil
}

// ToleranceFor returns the deviation band for a currency, honoring overrides.
func (m *MakerConfig) ToleranceFor(currency string) float64 {
	if override, ok := m.ToleranceOverrides[currency]; ok {
		return override
	}
	return m.TolerancePct
}
