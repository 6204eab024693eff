// internal/domain/transfer.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transfer is the journal record of a completed balance movement between two cards.
type Transfer struct {
	ID         int64           `db:"id" json:"id"`
	Reference  string          `db:"reference" json:"reference"` // UUID handed back to the caller
	FromCardID int64           `db:"from_card_id" json:"from_card_id"`
	ToCardID   int64           `db:"to_card_id" json:"to_card_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// NewTransfer creates a new Transfer instance with a fresh reference.
func NewTransfer(fromCardID, toCardID int64, amount decimal.Decimal) *Transfer {
	return &Transfer{
		Reference:  uuid.NewString(),
		FromCardID: fromCardID,
		ToCardID:   toCardID,
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
	}
}

// TransferRequest is the input of a transfer between two cards of the caller.
type TransferRequest struct {
	FromCardID int64
	ToCardID   int64
	Amount     decimal.Decimal
}

// TransferResult reports the outcome of a successful transfer.
type TransferResult struct {
	Reference          string          `json:"reference"`
	FromCardID         int64           `json:"from_card_id"`
	ToCardID           int64           `json:"to_card_id"`
	Amount             decimal.Decimal `json:"amount"`
	FromCardNewBalance decimal.Decimal `json:"from_card_new_balance"`
	ToCardNewBalance   decimal.Decimal `json:"to_card_new_balance"`
}
