package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agentpayhq/agentpay/internal/pkg/shortener"
)

const (
	LINK_STATUS_PENDING   = "PENDING"
	LINK_STATUS_PAID      = "PAID"
	LINK_STATUS_EXPIRED   = "EXPIRED"
	LINK_STATUS_CANCELLED = "CANCELLED"
)

// PaymentRequest is one payable obligation published by a creator.
// The composite unique index over (network, settlement_tx_hash) is the
// structural guarantee that no two requests can ever claim the same
// on-chain transaction.
type PaymentRequest struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	LinkID      string  `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"link_id"`
	ShortCode   string  `gorm:"type:varchar(16) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex" json:"short_code"`
	Token       string  `gorm:"type:varchar(20);not null" json:"token" validate:"required,uppercase,max=20"`
	Amount      string  `gorm:"type:varchar(80);not null" json:"amount" validate:"required,max=80"`
	Receiver    string  `gorm:"type:varchar(64);not null" json:"receiver" validate:"required,eth_addr"`
	Payer       *string `gorm:"type:varchar(64)" json:"payer,omitempty"`
	Description string  `gorm:"type:text" json:"description" validate:"max=2000"`
	Network     string  `gorm:"type:varchar(32);not null;uniqueIndex:idx_settlement_network_tx,priority:1" json:"network" validate:"required,lowercase,max=32"`
	Status      string  `gorm:"type:varchar(20);default:'PENDING';index" json:"status" validate:"oneof=PENDING PAID EXPIRED CANCELLED"`

	CreatorWallet string  `gorm:"type:varchar(64)" json:"creator_wallet" validate:"omitempty,eth_addr"`
	AgentKeyID    *string `gorm:"type:varchar(64);index" json:"agent_key_id,omitempty"`

	SettlementTxHash *string    `gorm:"type:varchar(80);uniqueIndex:idx_settlement_network_tx,priority:2" json:"settlement_tx_hash,omitempty"`
	PaidAt           *time.Time `gorm:"type:timestamp" json:"paid_at,omitempty"`
	ExpiresAt        *time.Time `gorm:"type:timestamp;index" json:"expires_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the link identifier and public short code.
func (p *PaymentRequest) BeforeCreate(tx *gorm.DB) error {
	if p.LinkID == "" {
		p.LinkID = uuid.New().String()
	}
	if p.ShortCode == "" {
		code, err := shortener.GenerateSecureSlug(10)
		if err != nil {
			return err
		}
		p.ShortCode = code
	}
	if p.Status == "" {
		p.Status = LINK_STATUS_PENDING
	}
	return nil
}

func (p *PaymentRequest) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

// IsTerminal reports whether the stored status can never change again.
func (p *PaymentRequest) IsTerminal() bool {
	return p.Status == LINK_STATUS_PAID || p.Status == LINK_STATUS_EXPIRED || p.Status == LINK_STATUS_CANCELLED
}

// IsExpired reports whether a pending request is past its expiry time.
func (p *PaymentRequest) IsExpired(now time.Time) bool {
	return p.Status == LINK_STATUS_PENDING && p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// EffectiveStatus is the status as observed by a reader: a pending request
// past its expiry reads as EXPIRED even before the sweeper persists it.
func (p *PaymentRequest) EffectiveStatus(now time.Time) string {
	if p.IsExpired(now) {
		return LINK_STATUS_EXPIRED
	}
	return p.Status
}

// FindPaymentRequestByLinkID loads a request by its link identifier.
func FindPaymentRequestByLinkID(db *gorm.DB, linkID string) (*PaymentRequest, error) {
	var req PaymentRequest
	result := db.Where("link_id = ?", linkID).First(&req)
	return &req, result.Error
}
