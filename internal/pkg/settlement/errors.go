package settlement

import (
	"fmt"
	"math/big"
)

// ReceiptNotFoundError means a supplied transaction hash has no on-chain
// receipt (unknown or not yet mined). The request stays PENDING and the
// caller may retry.
type ReceiptNotFoundError struct {
	TxHash string
}

func (e *ReceiptNotFoundError) Error() string {
	return fmt.Sprintf("no receipt found for transaction %s", e.TxHash)
}

// TransactionFailedError means the receipt exists but the transaction
// reverted.
type TransactionFailedError struct {
	TxHash string
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed on-chain", e.TxHash)
}

// IncompletePaymentError names the transfer-plan leg no receipt satisfied,
// with expected versus observed amounts so the caller can re-attempt with
// corrected hashes.
type IncompletePaymentError struct {
	Leg      string // instruction purpose ("payment", "platform fee", ...)
	Token    string
	To       string
	Expected *big.Int
	Observed *big.Int // best candidate seen for the recipient, nil if none
}

func (e *IncompletePaymentError) Error() string {
	if e.Observed == nil {
		return fmt.Sprintf("missing %s leg: expected %s %s to %s, no matching transfer found", e.Leg, e.Expected, e.Token, e.To)
	}
	return fmt.Sprintf("insufficient %s leg: expected %s %s to %s, observed %s", e.Leg, e.Expected, e.Token, e.To, e.Observed)
}
