package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agentpayhq/agentpay/app/models"
)

// paymentRequestRepository implements PaymentRequestRepository on GORM/MySQL.
type paymentRequestRepository struct {
	db *gorm.DB
}

// NewPaymentRequestRepository creates a new payment request repository.
func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &paymentRequestRepository{db: db}
}

func (r *paymentRequestRepository) Create(req *models.PaymentRequest) error {
	return r.db.Create(req).Error
}

func (r *paymentRequestRepository) GetByLinkID(linkID string) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	err := r.db.Where("link_id = ?", linkID).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *paymentRequestRepository) GetByShortCode(code string) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	err := r.db.Where("short_code = ?", code).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *paymentRequestRepository) ListByAgentKey(keyID string, offset, limit int) ([]models.PaymentRequest, error) {
	var reqs []models.PaymentRequest
	err := r.db.Where("agent_key_id = ?", keyID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

// MarkPaid runs the PAID transition inside a transaction with a row lock so
// that concurrent verification calls serialize per request. Hash reuse across
// requests is rejected by the unique (network, settlement_tx_hash) index, not
// by application logic, because callers run as independent processes.
func (r *paymentRequestRepository) MarkPaid(linkID, network, txHash, payerAddress string) (*models.PaymentRequest, bool, error) {
	var out *models.PaymentRequest
	alreadyPaid := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var req models.PaymentRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("link_id = ?", linkID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		switch req.Status {
		case models.LINK_STATUS_PAID:
			if req.Network == network && req.SettlementTxHash != nil && strings.EqualFold(*req.SettlementTxHash, txHash) {
				alreadyPaid = true
				out = &req
				return nil
			}
			return ErrInvalidTransition
		case models.LINK_STATUS_EXPIRED, models.LINK_STATUS_CANCELLED:
			return ErrInvalidTransition
		}

		now := time.Now()
		if req.IsExpired(now) {
			return ErrLinkExpired
		}

		req.Status = models.LINK_STATUS_PAID
		req.SettlementTxHash = &txHash
		req.PaidAt = &now
		if payerAddress != "" && req.Payer == nil {
			req.Payer = &payerAddress
		}

		if err := tx.Save(&req).Error; err != nil {
			if isDuplicateKeyError(err) {
				return ErrDuplicateSettlement
			}
			return err
		}
		out = &req
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, alreadyPaid, nil
}

func (r *paymentRequestRepository) Cancel(linkID, keyID string) (*models.PaymentRequest, error) {
	var out *models.PaymentRequest

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var req models.PaymentRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("link_id = ?", linkID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if req.AgentKeyID == nil || *req.AgentKeyID != keyID {
			// Do not leak existence of foreign links
			return ErrNotFound
		}
		if req.Status != models.LINK_STATUS_PENDING {
			return ErrInvalidTransition
		}

		req.Status = models.LINK_STATUS_CANCELLED
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		out = &req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentRequestRepository) MarkExpiredBefore(cutoff time.Time) (int64, error) {
	result := r.db.Model(&models.PaymentRequest{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.LINK_STATUS_PENDING, cutoff).
		Update("status", models.LINK_STATUS_EXPIRED)
	return result.RowsAffected, result.Error
}

func (r *paymentRequestRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.PaymentRequest{}).Count(&count).Error
	return count, err
}

// isDuplicateKeyError recognizes a violated unique index. GORM translates
// MySQL error 1062 to ErrDuplicatedKey; the message check covers drivers
// where translation is disabled.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}
