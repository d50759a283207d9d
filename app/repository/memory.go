package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentpayhq/agentpay/app/models"
	"github.com/agentpayhq/agentpay/internal/pkg/shortener"
)

// memoryPaymentRequestRepository is the in-process store used for tests and
// development. It upholds the same contract as the MySQL store: the claimed
// map mirrors the unique (network, settlement_tx_hash) index.
type memoryPaymentRequestRepository struct {
	mu      sync.Mutex
	nextID  uint
	byLink  map[string]*models.PaymentRequest
	byCode  map[string]string // short code -> link id
	claimed map[string]string // network|lower(hash) -> link id
}

// NewMemoryPaymentRequestRepository creates an empty in-process request store.
func NewMemoryPaymentRequestRepository() PaymentRequestRepository {
	return &memoryPaymentRequestRepository{
		byLink:  make(map[string]*models.PaymentRequest),
		byCode:  make(map[string]string),
		claimed: make(map[string]string),
	}
}

func claimKey(network, txHash string) string {
	return strings.ToLower(network) + "|" + strings.ToLower(txHash)
}

func (r *memoryPaymentRequestRepository) Create(req *models.PaymentRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	req.ID = r.nextID
	if req.LinkID == "" {
		req.LinkID = uuid.New().String()
	}
	if req.ShortCode == "" {
		code, err := shortener.GenerateSecureSlug(10)
		if err != nil {
			return err
		}
		req.ShortCode = code
	}
	if req.Status == "" {
		req.Status = models.LINK_STATUS_PENDING
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	stored := *req
	r.byLink[req.LinkID] = &stored
	r.byCode[req.ShortCode] = req.LinkID
	return nil
}

func (r *memoryPaymentRequestRepository) GetByLinkID(linkID string) (*models.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byLink[linkID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *stored
	return &out, nil
}

func (r *memoryPaymentRequestRepository) GetByShortCode(code string) (*models.PaymentRequest, error) {
	r.mu.Lock()
	linkID, ok := r.byCode[code]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByLinkID(linkID)
}

func (r *memoryPaymentRequestRepository) ListByAgentKey(keyID string, offset, limit int) ([]models.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reqs []models.PaymentRequest
	for _, stored := range r.byLink {
		if stored.AgentKeyID != nil && *stored.AgentKeyID == keyID {
			reqs = append(reqs, *stored)
		}
	}
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
	if offset >= len(reqs) {
		return nil, nil
	}
	reqs = reqs[offset:]
	if limit > 0 && limit < len(reqs) {
		reqs = reqs[:limit]
	}
	return reqs, nil
}

func (r *memoryPaymentRequestRepository) MarkPaid(linkID, network, txHash, payerAddress string) (*models.PaymentRequest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byLink[linkID]
	if !ok {
		return nil, false, ErrNotFound
	}

	switch stored.Status {
	case models.LINK_STATUS_PAID:
		if stored.Network == network && stored.SettlementTxHash != nil && strings.EqualFold(*stored.SettlementTxHash, txHash) {
			out := *stored
			return &out, true, nil
		}
		return nil, false, ErrInvalidTransition
	case models.LINK_STATUS_EXPIRED, models.LINK_STATUS_CANCELLED:
		return nil, false, ErrInvalidTransition
	}

	now := time.Now()
	if stored.IsExpired(now) {
		return nil, false, ErrLinkExpired
	}

	key := claimKey(network, txHash)
	if owner, exists := r.claimed[key]; exists && owner != linkID {
		return nil, false, ErrDuplicateSettlement
	}

	hash := txHash
	stored.Status = models.LINK_STATUS_PAID
	stored.SettlementTxHash = &hash
	stored.PaidAt = &now
	stored.UpdatedAt = now
	if payerAddress != "" && stored.Payer == nil {
		payer := payerAddress
		stored.Payer = &payer
	}
	r.claimed[key] = linkID

	out := *stored
	return &out, false, nil
}

func (r *memoryPaymentRequestRepository) Cancel(linkID, keyID string) (*models.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byLink[linkID]
	if !ok {
		return nil, ErrNotFound
	}
	if stored.AgentKeyID == nil || *stored.AgentKeyID != keyID {
		return nil, ErrNotFound
	}
	if stored.Status != models.LINK_STATUS_PENDING {
		return nil, ErrInvalidTransition
	}

	stored.Status = models.LINK_STATUS_CANCELLED
	stored.UpdatedAt = time.Now()
	out := *stored
	return &out, nil
}

func (r *memoryPaymentRequestRepository) MarkExpiredBefore(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for _, stored := range r.byLink {
		if stored.Status == models.LINK_STATUS_PENDING && stored.ExpiresAt != nil && stored.ExpiresAt.Before(cutoff) {
			stored.Status = models.LINK_STATUS_EXPIRED
			stored.UpdatedAt = time.Now()
			updated++
		}
	}
	return updated, nil
}

func (r *memoryPaymentRequestRepository) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byLink)), nil
}

// memoryFeeTransactionRepository is the in-process fee ledger.
type memoryFeeTransactionRepository struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.FeeTransaction
}

// NewMemoryFeeTransactionRepository creates an empty in-process fee ledger.
func NewMemoryFeeTransactionRepository() FeeTransactionRepository {
	return &memoryFeeTransactionRepository{}
}

func (r *memoryFeeTransactionRepository) Create(ft *models.FeeTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	ft.ID = r.nextID
	ft.CreatedAt = time.Now()
	r.rows = append(r.rows, *ft)
	return nil
}

func (r *memoryFeeTransactionRepository) GetByLinkID(linkID string) ([]models.FeeTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.FeeTransaction
	for _, row := range r.rows {
		if row.LinkID == linkID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memoryFeeTransactionRepository) HasCollected(linkID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.LinkID == linkID && row.Status == models.FEE_STATUS_COLLECTED {
			return true, nil
		}
	}
	return false, nil
}

// memoryAgentCredentialRepository is the in-process credential store.
type memoryAgentCredentialRepository struct {
	mu      sync.Mutex
	nextID  uint
	byKeyID map[string]*models.AgentCredential
}

// NewMemoryAgentCredentialRepository creates an empty in-process credential
// store.
func NewMemoryAgentCredentialRepository() AgentCredentialRepository {
	return &memoryAgentCredentialRepository{
		byKeyID: make(map[string]*models.AgentCredential),
	}
}

func (r *memoryAgentCredentialRepository) Create(cred *models.AgentCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	cred.ID = r.nextID
	cred.CreatedAt = time.Now()
	stored := *cred
	r.byKeyID[cred.KeyID] = &stored
	return nil
}

func (r *memoryAgentCredentialRepository) GetByKeyID(keyID string) (*models.AgentCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byKeyID[keyID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *stored
	return &out, nil
}

func (r *memoryAgentCredentialRepository) UpdateStatus(keyID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byKeyID[keyID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = status
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memoryAgentCredentialRepository) TouchLastUsed(keyID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byKeyID[keyID]
	if !ok {
		return ErrNotFound
	}
	stored.LastUsedAt = &at
	return nil
}
