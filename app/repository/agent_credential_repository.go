package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/agentpayhq/agentpay/app/models"
)

// agentCredentialRepository implements AgentCredentialRepository on GORM/MySQL.
type agentCredentialRepository struct {
	db *gorm.DB
}

// NewAgentCredentialRepository creates a new credential repository.
func NewAgentCredentialRepository(db *gorm.DB) AgentCredentialRepository {
	return &agentCredentialRepository{db: db}
}

func (r *agentCredentialRepository) Create(cred *models.AgentCredential) error {
	return r.db.Create(cred).Error
}

func (r *agentCredentialRepository) GetByKeyID(keyID string) (*models.AgentCredential, error) {
	cred, err := models.FindAgentCredentialByKeyID(r.db, keyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cred, nil
}

func (r *agentCredentialRepository) UpdateStatus(keyID, status string) error {
	result := r.db.Model(&models.AgentCredential{}).
		Where("key_id = ?", keyID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *agentCredentialRepository) TouchLastUsed(keyID string, at time.Time) error {
	return r.db.Model(&models.AgentCredential{}).
		Where("key_id = ?", keyID).
		Update("last_used_at", at).Error
}
