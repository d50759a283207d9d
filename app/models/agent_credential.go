package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	CREDENTIAL_STATUS_ACTIVE    = "active"
	CREDENTIAL_STATUS_INACTIVE  = "inactive"
	CREDENTIAL_STATUS_SUSPENDED = "suspended"
)

// AgentCredential identifies one remote caller. The key identifier is public
// and returned to the caller; the secret is only ever used server-side to
// recompute request signatures and is printed exactly once at issuance.
type AgentCredential struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	KeyID         string     `gorm:"type:varchar(64) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"key_id" validate:"required"`
	Secret        string     `gorm:"type:char(64);not null" json:"-" validate:"required,len=64,hexadecimal"`
	WalletAddress string     `gorm:"type:varchar(64);not null" json:"wallet_address" validate:"required,eth_addr"`
	Status        string     `gorm:"type:varchar(20);default:'active'" json:"status" validate:"oneof=active inactive suspended"`
	LastUsedAt    *time.Time `gorm:"type:timestamp" json:"last_used_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *AgentCredential) Validate() error {
	v := validator.New()
	return v.Struct(a)
}

// IsActive reports whether the credential may authenticate requests.
func (a *AgentCredential) IsActive() bool {
	return a.Status == CREDENTIAL_STATUS_ACTIVE
}

// GenerateAgentCredential creates a fresh credential for the given wallet.
func GenerateAgentCredential(walletAddress string) (*AgentCredential, error) {
	keyBytes := make([]byte, 12)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, fmt.Errorf("failed to generate key id: %w", err)
	}
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}

	cred := &AgentCredential{
		KeyID:         "ak_" + hex.EncodeToString(keyBytes),
		Secret:        hex.EncodeToString(secretBytes),
		WalletAddress: walletAddress,
		Status:        CREDENTIAL_STATUS_ACTIVE,
	}
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	return cred, nil
}

// FindAgentCredentialByKeyID loads a credential by its public key identifier.
func FindAgentCredentialByKeyID(db *gorm.DB, keyID string) (*AgentCredential, error) {
	var cred AgentCredential
	result := db.Where("key_id = ?", keyID).First(&cred)
	return &cred, result.Error
}
