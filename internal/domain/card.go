// internal/domain/card.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// BalanceScale is the number of fractional digits kept for card balances.
const BalanceScale = 2

// Card represents a bank card. The PAN is only ever held encrypted.
type Card struct {
	ID              int64           `db:"id" json:"id"`                   // Primary key, BIGSERIAL in DB
	EncryptedNumber string          `db:"encrypted_number" json:"-"`      // AES-GCM ciphertext of the PAN
	OwnerID         int64           `db:"owner_id" json:"owner_id"`       // Foreign key to User, immutable
	OwnerEmail      string          `db:"owner_email" json:"owner_email"` // Joined from users on reads
	ExpiryDate      time.Time       `db:"expiry_date" json:"expiry_date"` // Date-only semantics
	Status          CardStatus      `db:"status" json:"status"`           // Stored status, may lag behind the calendar
	Balance         decimal.Decimal `db:"balance" json:"balance"`         // NUMERIC(19, 2) in DB
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// NewCard creates a new active Card instance.
func NewCard(ownerID int64, encryptedNumber string, expiryDate time.Time, balance decimal.Decimal) *Card {
	now := time.Now().UTC()
	return &Card{
		EncryptedNumber: encryptedNumber,
		OwnerID:         ownerID,
		ExpiryDate:      DateOf(expiryDate),
		Status:          CardStatusActive,
		Balance:         balance.Round(BalanceScale),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CardFilter narrows card listings. Nil fields do not filter.
type CardFilter struct {
	OwnerID *int64
	Status  *CardStatus
}

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateCardRequest is the input for issuing a card. A nil InitialBalance means zero.
type CreateCardRequest struct {
	OwnerID        int64
	ExpiryDate     time.Time
	InitialBalance *decimal.Decimal
}
