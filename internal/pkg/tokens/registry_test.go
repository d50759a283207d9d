package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	token, err := Lookup("ethereum", "usdc")
	assert.NoError(t, err)
	assert.Equal(t, "USDC", token.Symbol)
	assert.Equal(t, 6, token.Decimals)
	assert.True(t, token.Stablecoin)

	// network lookup is case-insensitive too
	_, err = Lookup("Base", "USDC")
	assert.NoError(t, err)

	_, err = Lookup("ethereum", "DOGE")
	assert.Error(t, err)

	_, err = Lookup("arbitrum", "USDC")
	assert.Error(t, err)
}

func TestChainID(t *testing.T) {
	id, err := ChainID("base")
	assert.NoError(t, err)
	assert.EqualValues(t, 8453, id.Int64())

	_, err = ChainID("unknown")
	assert.Error(t, err)
}

func TestSupportedNetwork(t *testing.T) {
	assert.True(t, SupportedNetwork("ethereum"))
	assert.True(t, SupportedNetwork("base-sepolia"))
	assert.False(t, SupportedNetwork("solana"))
}
