package models

import "time"

// Client represents a Readyaimgo client account.
//
// HousingWalletBalance is the authoritative, redeemable credit balance.
// It is nullable on purpose: nil means the starting grant was never written
// for this account. The read path treats nil as the 300-credit grant while
// the redemption path treats it as zero, matching observed product behavior.
// BeamCoinBalance is only a cached mirror of the external ledger and must
// never be used to decide redeemability.
type Client struct {
	ID           uint   `gorm:"primaryKey"`
	UID          string `gorm:"size:64;uniqueIndex;not null"` // opaque client identifier, all lookups go through this
	Name         string `gorm:"size:64"`
	Email        string `gorm:"size:128;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	PlanType     string `gorm:"size:32"`
	Admin        bool   `gorm:"not null;default:false"`

	StripeCustomerID string `gorm:"size:64;index"`

	BeamCoinBalance     float64 `gorm:"not null;default:0"`
	BeamCoinLastUpdated *time.Time

	HousingWalletBalance *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
