package models

import "time"

// Transaction types.
const (
	TxnPayment    = "payment"
	TxnRedemption = "redemption"
	TxnCredit     = "credit"
)

// Transaction is an append-only audit record of money-equivalent events.
// Rows are never updated or deleted once written.
type Transaction struct {
	ID          uint      `gorm:"primaryKey"`
	RefID       string    `gorm:"size:64;uniqueIndex;not null"` // e.g. UUID
	ClientUID   string    `gorm:"size:64;index;not null"`
	Type        string    `gorm:"size:16;index;not null"` // payment / redemption / credit
	Amount      float64   `gorm:"not null"`               // currency units (USD)
	Description string    `gorm:"size:255"`
	Timestamp   time.Time `gorm:"index;not null"`
	CreatedAt   time.Time
}
