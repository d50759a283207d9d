package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	FEE_STATUS_COLLECTED = "COLLECTED"
	FEE_STATUS_FAILED    = "FAILED"
)

// FeeTransaction is one ledger row per verification attempt that reached fee
// collection. Amounts are integer minor units stored as decimal strings.
// The row exists for reward accounting only; the canonical truth of a
// settlement is the on-chain transfer, not this ledger.
type FeeTransaction struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	LinkID string `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;index;not null" json:"link_id"`

	FeeToken            string  `gorm:"type:varchar(20);not null" json:"fee_token"`
	FeeTotal            string  `gorm:"type:varchar(80);not null" json:"fee_total"`
	PlatformShare       string  `gorm:"type:varchar(80);not null" json:"platform_share"`
	CreatorReward       string  `gorm:"type:varchar(80);not null" json:"creator_reward"`
	DeductedFromPayment bool    `gorm:"default:false" json:"deducted_from_payment"`
	RewardPriceUSD      *string `gorm:"type:varchar(80)" json:"reward_price_usd,omitempty"`
	PayerBalance        string  `gorm:"type:varchar(80)" json:"payer_balance"`

	PayerWallet  string  `gorm:"type:varchar(64)" json:"payer_wallet"`
	AgentKeyID   *string `gorm:"type:varchar(64);index" json:"agent_key_id,omitempty"`
	TxHash       string  `gorm:"type:varchar(80);not null" json:"tx_hash"`
	FeeTxHash    *string `gorm:"type:varchar(80)" json:"fee_tx_hash,omitempty"`
	RewardTxHash *string `gorm:"type:varchar(80)" json:"reward_tx_hash,omitempty"`
	Network      string  `gorm:"type:varchar(32);not null" json:"network"`
	Status       string  `gorm:"type:varchar(20);not null" json:"status"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FindFeeTransactionsByLinkID returns the ledger rows for one request.
func FindFeeTransactionsByLinkID(db *gorm.DB, linkID string) ([]FeeTransaction, error) {
	var rows []FeeTransaction
	err := db.Where("link_id = ?", linkID).Order("id ASC").Find(&rows).Error
	return rows, err
}
