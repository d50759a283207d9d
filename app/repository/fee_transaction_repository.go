package repository

import (
	"gorm.io/gorm"

	"github.com/agentpayhq/agentpay/app/models"
)

// feeTransactionRepository implements FeeTransactionRepository on GORM/MySQL.
type feeTransactionRepository struct {
	db *gorm.DB
}

// NewFeeTransactionRepository creates a new fee ledger repository.
func NewFeeTransactionRepository(db *gorm.DB) FeeTransactionRepository {
	return &feeTransactionRepository{db: db}
}

func (r *feeTransactionRepository) Create(ft *models.FeeTransaction) error {
	return r.db.Create(ft).Error
}

func (r *feeTransactionRepository) GetByLinkID(linkID string) ([]models.FeeTransaction, error) {
	return models.FindFeeTransactionsByLinkID(r.db, linkID)
}

func (r *feeTransactionRepository) HasCollected(linkID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.FeeTransaction{}).
		Where("link_id = ? AND status = ?", linkID, models.FEE_STATUS_COLLECTED).
		Count(&count).Error
	return count > 0, err
}
