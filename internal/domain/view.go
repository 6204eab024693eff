// internal/domain/view.go
package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// CardView is the response-safe representation of a card: the PAN appears only masked.
type CardView struct {
	ID           int64           `json:"id"`
	MaskedNumber string          `json:"masked_card_number"`
	OwnerID      int64           `json:"owner_id"`
	OwnerEmail   string          `json:"owner_email,omitempty"`
	ExpiryDate   string          `json:"expiry_date"` // YYYY-MM-DD
	Status       CardStatus      `json:"status"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewCardView builds a CardView, reporting the calendar-derived status.
func NewCardView(card *Card, maskedNumber string, now time.Time) CardView {
	return CardView{
		ID:           card.ID,
		MaskedNumber: maskedNumber,
		OwnerID:      card.OwnerID,
		OwnerEmail:   card.OwnerEmail,
		ExpiryDate:   card.ExpiryDate.Format(time.DateOnly),
		Status:       card.EffectiveStatus(now),
		Balance:      card.Balance.Round(BalanceScale),
		CreatedAt:    card.CreatedAt,
		UpdatedAt:    card.UpdatedAt,
	}
}

// BalanceView pairs a masked PAN with the card balance.
type BalanceView struct {
	CardID       int64           `json:"card_id"`
	MaskedNumber string          `json:"masked_card_number"`
	Balance      decimal.Decimal `json:"balance"`
}

// PageRequest selects one zero-based page of a listing.
type PageRequest struct {
	Page int
	Size int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps Offset from overflowing at any page size.
	MaxPage = math.MaxInt / MaxPageSize
)

// Normalize clamps the request into a valid page.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}
