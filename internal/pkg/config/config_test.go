package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PUBLIC_BASE_URL", "https://pay.example.com")
	t.Setenv("TREASURY_WALLET", "0x3333333333333333333333333333333333333333")
	t.Setenv("REWARD_TOKEN_SYMBOL", "lcx")
	t.Setenv("REWARD_TOKEN_ADDRESS", "0x037A54AaB062628C9Bbae1FDB1583c195585fe41")
	t.Setenv("PRICE_API_URL", "https://api.coingecko.com/api/v3/simple/price")
	t.Setenv("NETWORKS", "ethereum, base-sepolia")
	t.Setenv("RPC_URL_ETHEREUM", "https://eth.example.com")
	t.Setenv("RPC_URL_BASE_SEPOLIA", "https://sepolia.example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "LCX", cfg.RewardToken.Symbol, "symbol is upper-cased")
	assert.Equal(t, 18, cfg.RewardToken.Decimals)
	assert.Equal(t, "standard", cfg.FeeMode)
	assert.EqualValues(t, 2, cfg.FixedFee())
	assert.Equal(t, 5*time.Minute, cfg.PriceTTL)
	assert.Equal(t, 5*time.Minute, cfg.ReplayWindow)
	assert.False(t, cfg.PriceServeStale)

	require.Len(t, cfg.RPCURLs, 2)
	assert.Equal(t, "https://eth.example.com", cfg.RPCURLs["ethereum"])
	assert.Equal(t, "https://sepolia.example.com", cfg.RPCURLs["base-sepolia"])
}

func TestLoad_ProMode(t *testing.T) {
	setValidEnv(t)
	t.Setenv("FEE_MODE", "PRO")
	t.Setenv("FIXED_FEE_PRO", "6")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pro", cfg.FeeMode)
	assert.EqualValues(t, 6, cfg.FixedFee())
}

func TestLoad_ServeStale(t *testing.T) {
	setValidEnv(t)
	t.Setenv("PRICE_SERVE_STALE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.PriceServeStale)
}

func TestLoad_MissingTreasury(t *testing.T) {
	setValidEnv(t)
	t.Setenv("TREASURY_WALLET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadTreasuryAddress(t *testing.T) {
	setValidEnv(t)
	t.Setenv("TREASURY_WALLET", "not-an-address")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NoNetworks(t *testing.T) {
	setValidEnv(t)
	t.Setenv("NETWORKS", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingRPCURL(t *testing.T) {
	setValidEnv(t)
	t.Setenv("NETWORKS", "ethereum,polygon")
	// RPC_URL_POLYGON is not set

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidFeeMode(t *testing.T) {
	setValidEnv(t)
	t.Setenv("FEE_MODE", "platinum")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NonNumericTTL(t *testing.T) {
	setValidEnv(t)
	t.Setenv("PRICE_TTL_SECONDS", "soon")

	_, err := Load()
	assert.Error(t, err)
}
