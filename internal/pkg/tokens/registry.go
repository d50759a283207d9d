package tokens

import (
	"fmt"
	"math/big"
	"strings"
)

// Token describes an ERC-20 asset the service can settle in.
type Token struct {
	Symbol     string
	Address    string
	Decimals   int
	Stablecoin bool // USD-pegged, priced at 1 without an oracle call
}

// Network describes one supported EVM network.
type Network struct {
	ChainID *big.Int
	Tokens  map[string]Token // keyed by upper-case symbol
}

var networks = map[string]Network{
	"ethereum": {
		ChainID: big.NewInt(1),
		Tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, Stablecoin: true},
			"USDT": {Symbol: "USDT", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6, Stablecoin: true},
		},
	},
	"base": {
		ChainID: big.NewInt(8453),
		Tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6, Stablecoin: true},
		},
	},
	"base-sepolia": {
		ChainID: big.NewInt(84532),
		Tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0x036CbD53842c5426634e7929541eC2318f3dCF7e", Decimals: 6, Stablecoin: true},
		},
	},
	"polygon": {
		ChainID: big.NewInt(137),
		Tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6, Stablecoin: true},
		},
	},
}

// SupportedNetwork reports whether the given network identifier is known.
func SupportedNetwork(network string) bool {
	_, ok := networks[strings.ToLower(network)]
	return ok
}

// ChainID returns the chain id for a supported network.
func ChainID(network string) (*big.Int, error) {
	n, ok := networks[strings.ToLower(network)]
	if !ok {
		return nil, fmt.Errorf("unsupported network: %s", network)
	}
	return n.ChainID, nil
}

// Lookup resolves a token symbol on a network.
func Lookup(network, symbol string) (Token, error) {
	n, ok := networks[strings.ToLower(network)]
	if !ok {
		return Token{}, fmt.Errorf("unsupported network: %s", network)
	}
	t, ok := n.Tokens[strings.ToUpper(symbol)]
	if !ok {
		return Token{}, fmt.Errorf("unsupported token %s on network %s", symbol, network)
	}
	return t, nil
}

// NetworkNames returns the identifiers of all supported networks.
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	return names
}
