package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/agentpayhq/agentpay/internal/pkg/env"
)

// RewardToken describes the protocol incentive token preferred for fee payment.
type RewardToken struct {
	Symbol   string `validate:"required,uppercase"`
	Address  string `validate:"required,eth_addr"`
	Decimals int    `validate:"gte=0,lte=18"`
}

// Config carries every security-relevant setting the settlement core depends
// on. Missing or malformed values abort startup instead of being silently
// substituted with defaults.
type Config struct {
	AppHost       string
	AppPort       string
	PublicBaseURL string `validate:"required,url"`

	TreasuryWallet string `validate:"required,eth_addr"`
	RewardToken    RewardToken

	FeeMode          string `validate:"oneof=standard pro"`
	FixedFeeStandard int64  `validate:"gt=0"`
	FixedFeePro      int64  `validate:"gt=0"`

	PriceAPIURL     string        `validate:"required,url"`
	PriceTTL        time.Duration `validate:"gt=0"`
	PriceServeStale bool

	ReplayWindow time.Duration `validate:"gt=0"`

	// RPC endpoint per supported network identifier.
	RPCURLs map[string]string `validate:"required,min=1,dive,required,url"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		AppHost:       env.GetEnv("APP_HOST", "localhost"),
		AppPort:       env.GetEnv("APP_PORT", "4000"),
		PublicBaseURL: env.GetEnv("PUBLIC_BASE_URL", ""),

		TreasuryWallet: env.GetEnv("TREASURY_WALLET", ""),
		RewardToken: RewardToken{
			Symbol:  strings.ToUpper(env.GetEnv("REWARD_TOKEN_SYMBOL", "LCX")),
			Address: env.GetEnv("REWARD_TOKEN_ADDRESS", ""),
		},

		FeeMode:     strings.ToLower(env.GetEnv("FEE_MODE", "standard")),
		PriceAPIURL: env.GetEnv("PRICE_API_URL", ""),
		RPCURLs:     map[string]string{},
	}

	var err error
	if cfg.RewardToken.Decimals, err = intEnv("REWARD_TOKEN_DECIMALS", 18); err != nil {
		return nil, err
	}
	if cfg.FixedFeeStandard, err = int64Env("FIXED_FEE_STANDARD", 2); err != nil {
		return nil, err
	}
	if cfg.FixedFeePro, err = int64Env("FIXED_FEE_PRO", 4); err != nil {
		return nil, err
	}

	ttlSecs, err := int64Env("PRICE_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	cfg.PriceTTL = time.Duration(ttlSecs) * time.Second
	cfg.PriceServeStale = env.GetEnv("PRICE_SERVE_STALE", "false") == "true"

	windowSecs, err := int64Env("REPLAY_WINDOW_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	cfg.ReplayWindow = time.Duration(windowSecs) * time.Second

	for _, network := range strings.Split(env.GetEnv("NETWORKS", ""), ",") {
		network = strings.TrimSpace(strings.ToLower(network))
		if network == "" {
			continue
		}
		key := "RPC_URL_" + strings.ToUpper(strings.ReplaceAll(network, "-", "_"))
		cfg.RPCURLs[network] = env.GetEnv(key, "")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration with validator tags plus the cross-field
// rules the tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// FixedFee returns the configured flat fee (whole reward tokens) for the
// active mode.
func (c *Config) FixedFee() int64 {
	if c.FeeMode == "pro" {
		return c.FixedFeePro
	}
	return c.FixedFeeStandard
}

func intEnv(key string, def int) (int, error) {
	raw := env.GetEnv(key, strconv.Itoa(def))
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return val, nil
}

func int64Env(key string, def int64) (int64, error) {
	raw := env.GetEnv(key, strconv.FormatInt(def, 10))
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return val, nil
}
