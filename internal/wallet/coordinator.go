// Package wallet holds the Housing Wallet redemption coordinator. The local
// clients table is the single source of truth for redeemable credits; the
// external BEAM Coin ledger only receives a best-effort mirror of each
// redemption.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"readyaimgo-dashboard/internal/ledger"
	"readyaimgo-dashboard/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditValue is the fixed conversion rate: 1 credit = $1.50.
const CreditValue = 1.5

// StartingCredits is the grant reported for accounts whose wallet balance
// was never written. It applies on the read path only; redemption treats an
// unset balance as zero.
const StartingCredits = 300

var (
	ErrInvalidCredits      = errors.New("credits must be a positive integer")
	ErrNotFound            = errors.New("client not found")
	ErrInsufficientBalance = errors.New("insufficient housing wallet credits")
)

// RedemptionResult is returned on a successful redemption.
type RedemptionResult struct {
	NewBalance int64
	Redeemed   int64
}

// Summary is the read-only housing wallet view.
type Summary struct {
	Credits     int64
	Value       float64
	Description string
}

// Coordinator performs housing wallet redemptions. It is safe for
// concurrent use; the sufficiency check and the debit are a single
// conditional UPDATE, so two concurrent redemptions can never overdraw an
// account.
type Coordinator struct {
	db     *gorm.DB
	ledger *ledger.Client
}

func NewCoordinator(db *gorm.DB, lc *ledger.Client) *Coordinator {
	return &Coordinator{db: db, ledger: lc}
}

// Redeem debits credits from the client's housing wallet, appends an audit
// transaction and mirrors a spend record to the BEAM ledger.
//
// The balance debit is the authoritative state change. A failure writing the
// audit record is surfaced as an error but the debit is not rolled back; a
// failure reaching the ledger mirror is logged and swallowed and the call
// still succeeds. Redeem is not idempotent: the same request twice debits
// twice, so callers must not retry ambiguous failures blindly.
func (co *Coordinator) Redeem(ctx context.Context, clientUID string, credits int64, description string) (*RedemptionResult, error) {
	if credits <= 0 {
		return nil, ErrInvalidCredits
	}

	var client models.Client
	if err := co.db.WithContext(ctx).Where("uid = ?", clientUID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load client: %w", err)
	}

	// Atomic conditional decrement. A NULL balance fails the comparison and
	// counts as insufficient, same as zero. RETURNING hands back the balance
	// this statement produced, so the reported value is exact even when
	// another redemption lands right after ours.
	res := co.db.WithContext(ctx).Model(&client).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "housing_wallet_balance"}}}).
		Where("uid = ? AND housing_wallet_balance >= ?", clientUID, credits).
		UpdateColumn("housing_wallet_balance", gorm.Expr("housing_wallet_balance - ?", credits))
	if res.Error != nil {
		return nil, fmt.Errorf("debit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientBalance
	}

	var newBalance int64
	if client.HousingWalletBalance != nil {
		newBalance = *client.HousingWalletBalance
	}

	recordDesc := description
	if recordDesc == "" {
		recordDesc = fmt.Sprintf("Housing redemption - %d credits", credits)
	}
	record := models.Transaction{
		RefID:       uuid.NewString(),
		ClientUID:   clientUID,
		Type:        models.TxnRedemption,
		Amount:      float64(credits) * CreditValue,
		Description: recordDesc,
		Timestamp:   time.Now(),
	}
	if err := co.db.WithContext(ctx).Create(&record).Error; err != nil {
		// The debit already happened; the account is left without an audit
		// row rather than re-credited.
		return nil, fmt.Errorf("record redemption: %w", err)
	}

	mirrorDesc := description
	if mirrorDesc == "" {
		mirrorDesc = fmt.Sprintf("Redeemed %d housing credits", credits)
	}
	co.bestEffortMirror(ctx, clientUID, credits, mirrorDesc)

	return &RedemptionResult{NewBalance: newBalance, Redeemed: credits}, nil
}

// bestEffortMirror posts the spend to the BEAM ledger and discards any
// error. The ledger is an eventually-consistent secondary view; losing a
// mirror record must never fail the redemption.
func (co *Coordinator) bestEffortMirror(ctx context.Context, clientUID string, credits int64, description string) {
	if co.ledger == nil {
		return
	}
	_, err := co.ledger.AddTransaction(ctx, ledger.Transaction{
		UID:         clientUID,
		Type:        ledger.TypeSpend,
		Amount:      float64(credits),
		Description: description,
	})
	if err != nil {
		log.Printf("beam ledger mirror failed for %s: %v", clientUID, err)
	}
}

// HousingWallet returns the wallet summary for a client. An account whose
// balance was never written reports the starting grant.
func (co *Coordinator) HousingWallet(ctx context.Context, clientUID string) (*Summary, error) {
	var client models.Client
	if err := co.db.WithContext(ctx).Where("uid = ?", clientUID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load client: %w", err)
	}

	credits := int64(StartingCredits)
	if client.HousingWalletBalance != nil {
		credits = *client.HousingWalletBalance
	}

	return &Summary{
		Credits:     credits,
		Value:       float64(credits) * CreditValue,
		Description: "Housing credits available for hotel redemptions",
	}, nil
}

// Transactions lists a client's audit records, most recent first.
func (co *Coordinator) Transactions(ctx context.Context, clientUID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := co.db.WithContext(ctx).
		Where("client_uid = ?", clientUID).
		Order("timestamp DESC").
		Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}
