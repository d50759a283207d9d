package chain

import (
	"context"
	"errors"
	"math/big"
)

// ErrReceiptNotFound means the transaction is unknown to the network or not
// yet mined.
var ErrReceiptNotFound = errors.New("transaction receipt not found")

// TokenTransfer is one ERC-20 transfer observed in a mined transaction.
type TokenTransfer struct {
	Token  string // token contract address
	From   string
	To     string
	Amount *big.Int
}

// Receipt is the settlement-relevant view of a mined transaction: its status
// plus every value movement the verifier can cross-check.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Success     bool

	// Transfers are the ERC-20 Transfer events emitted by the transaction.
	Transfers []TokenTransfer

	// NativeTo/NativeAmount describe the transaction's own value transfer,
	// set when the payment uses the network's native asset.
	NativeTo     string
	NativeAmount *big.Int
}

// Client is the external blockchain collaborator. The core never broadcasts;
// it only reads receipts and balances.
type Client interface {
	// TransactionReceipt fetches the receipt for a transaction hash on the
	// given network, returning ErrReceiptNotFound when it does not exist.
	TransactionReceipt(ctx context.Context, network, txHash string) (*Receipt, error)

	// TokenBalance reads the ERC-20 balance of a wallet.
	TokenBalance(ctx context.Context, network, tokenAddress, wallet string) (*big.Int, error)
}
