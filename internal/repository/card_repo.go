// internal/repository/card_repo.go
package repository

import (
	"context"
	"time"

	"bankcards/internal/domain"

	"github.com/shopspring/decimal"
)

// CardRepository defines the interface for card data operations.
type CardRepository interface {
	// CreateCard adds a new card and sets its ID.
	CreateCard(ctx context.Context, q DBExecutor, card *domain.Card) error
	// GetCardByID retrieves a card together with its owner's email.
	GetCardByID(ctx context.Context, q DBExecutor, id int64) (*domain.Card, error)
	// LockCard retrieves a card and holds its row lock until q's transaction ends.
	LockCard(ctx context.Context, q DBExecutor, id int64) (*domain.Card, error)
	// ListCards returns one page of cards ordered by id and the total number of matches.
	// Status filters are evaluated against the calendar date of now.
	ListCards(ctx context.Context, q DBExecutor, filter domain.CardFilter, now time.Time, limit, offset int) ([]domain.Card, int64, error)
	// UpdateCardStatus persists a new status.
	UpdateCardStatus(ctx context.Context, q DBExecutor, id int64, status domain.CardStatus) error
	// UpdateCardBalance overwrites the balance of a card locked by q's transaction.
	UpdateCardBalance(ctx context.Context, q DBExecutor, id int64, balance decimal.Decimal) error
	// DeleteCard removes a card.
	DeleteCard(ctx context.Context, q DBExecutor, id int64) error
	// ListUnexpiredCards returns up to limit cards with id > afterID whose stored status is not EXPIRED.
	ListUnexpiredCards(ctx context.Context, q DBExecutor, afterID int64, limit int) ([]domain.Card, error)
	// MarkCardExpired flips a single overdue card to EXPIRED and reports whether it changed.
	MarkCardExpired(ctx context.Context, q DBExecutor, id int64, now time.Time) (bool, error)
}
