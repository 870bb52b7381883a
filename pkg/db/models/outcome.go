package models

import (
	"time"

	"github.com/lib/pq"
)

// MintOutcome is one (wallet, target) result of a run.
type MintOutcome struct {
	ID        uint      `gorm:"primaryKey;column:id"`
	RunID     string    `gorm:"column:run_id;not null;index"`
	Address   string    `gorm:"column:address;not null;index"`
	Wallet    string    `gorm:"column:wallet"`
	Target    string    `gorm:"column:target;not null"`
	Status    string    `gorm:"column:status;not null"`
	TxHash    string    `gorm:"column:tx_hash"`
	Error     string    `gorm:"column:error"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for the MintOutcome model
func (MintOutcome) TableName() string {
	return "mint_outcomes"
}

// WalletProgress is the set of completed target labels of a wallet within a run.
// Labels only ever grow.
type WalletProgress struct {
	RunID     string         `gorm:"primaryKey;column:run_id"`
	Address   string         `gorm:"primaryKey;column:address"`
	Labels    pq.StringArray `gorm:"column:labels;type:text[]"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the WalletProgress model
func (WalletProgress) TableName() string {
	return "wallet_progress"
}
