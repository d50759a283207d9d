package repository

import (
	"time"

	"github.com/agentpayhq/agentpay/app/models"
)

// PaymentRequestRepository defines the store operations for payment requests,
// including the single-settlement guarantee around MarkPaid.
type PaymentRequestRepository interface {
	Create(req *models.PaymentRequest) error
	GetByLinkID(linkID string) (*models.PaymentRequest, error)
	GetByShortCode(code string) (*models.PaymentRequest, error)
	ListByAgentKey(keyID string, offset, limit int) ([]models.PaymentRequest, error)

	// MarkPaid transitions a PENDING request to PAID with the given
	// settlement hash. It returns alreadyPaid=true when the request was
	// previously settled with the same hash (idempotent replay). The store
	// enforces uniqueness of (network, tx hash) across all requests and
	// reports ErrDuplicateSettlement when a second request claims a hash.
	MarkPaid(linkID, network, txHash, payerAddress string) (req *models.PaymentRequest, alreadyPaid bool, err error)

	// Cancel moves a PENDING request owned by the given agent key to
	// CANCELLED.
	Cancel(linkID, keyID string) (*models.PaymentRequest, error)

	// MarkExpiredBefore persists EXPIRED for PENDING rows whose expiry lies
	// before the cutoff. Returns the number of rows updated.
	MarkExpiredBefore(cutoff time.Time) (int64, error)

	Count() (int64, error)
}

// FeeTransactionRepository defines the store operations for the fee ledger.
type FeeTransactionRepository interface {
	Create(ft *models.FeeTransaction) error
	GetByLinkID(linkID string) ([]models.FeeTransaction, error)
	HasCollected(linkID string) (bool, error)
}

// AgentCredentialRepository defines the store operations for caller
// credentials.
type AgentCredentialRepository interface {
	Create(cred *models.AgentCredential) error
	GetByKeyID(keyID string) (*models.AgentCredential, error)
	UpdateStatus(keyID, status string) error
	TouchLastUsed(keyID string, at time.Time) error
}
