package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// transferEventTopic is keccak256("Transfer(address,address,uint256)").
var transferEventTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

const erc20ABIJSON = `[
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	}
]`

var (
	erc20ABI     abi.ABI
	erc20ABIOnce sync.Once
	erc20ABIErr  error
)

func loadERC20ABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

// EVMClient implements Client over JSON-RPC endpoints, one per network.
// Connections are dialed lazily and reused.
type EVMClient struct {
	rpcURLs map[string]string

	mu    sync.Mutex
	conns map[string]*ethclient.Client
}

// NewEVMClient creates a client for the given network -> RPC URL map.
func NewEVMClient(rpcURLs map[string]string) *EVMClient {
	return &EVMClient{
		rpcURLs: rpcURLs,
		conns:   make(map[string]*ethclient.Client),
	}
}

func (c *EVMClient) conn(network string) (*ethclient.Client, error) {
	network = strings.ToLower(network)

	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[network]; ok {
		return conn, nil
	}
	url, ok := c.rpcURLs[network]
	if !ok {
		return nil, fmt.Errorf("no RPC endpoint configured for network %s", network)
	}
	conn, err := ethclient.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s RPC: %w", network, err)
	}
	c.conns[network] = conn
	return conn, nil
}

// TransactionReceipt fetches and flattens the receipt for a transaction hash.
func (c *EVMClient) TransactionReceipt(ctx context.Context, network, txHash string) (*Receipt, error) {
	conn, err := c.conn(network)
	if err != nil {
		return nil, err
	}

	hash := common.HexToHash(txHash)
	receipt, err := conn.TransactionReceipt(ctx, hash)
	if err != nil {
		if err == ethereum.NotFound {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to fetch receipt for %s: %w", txHash, err)
	}

	out := &Receipt{
		TxHash:      hash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		Success:     receipt.Status == types.ReceiptStatusSuccessful,
		Transfers:   parseTransferLogs(receipt.Logs),
	}

	// The transaction's own value movement covers native-asset payments.
	tx, _, err := conn.TransactionByHash(ctx, hash)
	if err == nil && tx != nil && tx.To() != nil && tx.Value().Sign() > 0 {
		out.NativeTo = tx.To().Hex()
		out.NativeAmount = new(big.Int).Set(tx.Value())
	}

	return out, nil
}

// TokenBalance reads balanceOf(wallet) on the given token contract.
func (c *EVMClient) TokenBalance(ctx context.Context, network, tokenAddress, wallet string) (*big.Int, error) {
	conn, err := c.conn(network)
	if err != nil {
		return nil, err
	}
	parsed, err := loadERC20ABI()
	if err != nil {
		return nil, err
	}

	data, err := parsed.Pack("balanceOf", common.HexToAddress(wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to encode balanceOf call: %w", err)
	}

	token := common.HexToAddress(tokenAddress)
	raw, err := conn.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}

	results, err := parsed.Unpack("balanceOf", raw)
	if err != nil || len(results) != 1 {
		return nil, fmt.Errorf("failed to decode balanceOf result: %w", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}
	return balance, nil
}

func parseTransferLogs(logs []*types.Log) []TokenTransfer {
	var transfers []TokenTransfer
	for _, entry := range logs {
		if len(entry.Topics) != 3 || entry.Topics[0] != transferEventTopic {
			continue
		}
		if len(entry.Data) != 32 {
			continue
		}
		transfers = append(transfers, TokenTransfer{
			Token:  entry.Address.Hex(),
			From:   common.BytesToAddress(entry.Topics[1].Bytes()).Hex(),
			To:     common.BytesToAddress(entry.Topics[2].Bytes()).Hex(),
			Amount: new(big.Int).SetBytes(entry.Data),
		})
	}
	return transfers
}
