// internal/repository/sqlstore/card_store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bankcards/internal/domain"
	"bankcards/internal/repository"
	"bankcards/internal/util"
	"bankcards/pkg/db"

	"github.com/shopspring/decimal"
)

const cardColumns = `c.id, c.encrypted_number, c.owner_id, u.email AS owner_email, c.expiry_date, c.status, c.balance, c.created_at, c.updated_at`

// CardRepository implements repository.CardRepository on sqlx.
type CardRepository struct {
	dialect db.Dialect
}

// NewCardRepository creates a new CardRepository for the given dialect.
func NewCardRepository(dialect db.Dialect) repository.CardRepository {
	return &CardRepository{dialect: dialect}
}

// CreateCard inserts a new card using the provided DBExecutor.
func (r *CardRepository) CreateCard(ctx context.Context, q repository.DBExecutor, card *domain.Card) error {
	query := q.Rebind(`INSERT INTO cards (encrypted_number, owner_id, expiry_date, status, balance, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := q.QueryRowContext(ctx, query,
		card.EncryptedNumber,
		card.OwnerID,
		domain.DateOf(card.ExpiryDate),
		card.Status,
		card.Balance,
		card.CreatedAt,
		card.UpdatedAt,
	).Scan(&card.ID)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// GetCardByID retrieves a card with its owner's email.
func (r *CardRepository) GetCardByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Card, error) {
	var card domain.Card
	query := q.Rebind(`SELECT ` + cardColumns + ` FROM cards c JOIN users u ON u.id = c.owner_id WHERE c.id = ?`)
	if err := q.GetContext(ctx, &card, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card by ID %d: %w", id, err)
	}
	return &card, nil
}

// LockCard reads a card row and locks it for the rest of the transaction behind q.
func (r *CardRepository) LockCard(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Card, error) {
	var card domain.Card
	query := q.Rebind(`SELECT id, encrypted_number, owner_id, expiry_date, status, balance, created_at, updated_at
              FROM cards WHERE id = ?` + db.LockClause(r.dialect))
	if err := q.GetContext(ctx, &card, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock card %d: %w", id, err)
	}
	return &card, nil
}

// ListCards retrieves a page of cards ordered by id together with the total count.
// It performs two queries: one for the data and one for the total count.
func (r *CardRepository) ListCards(ctx context.Context, q repository.DBExecutor, filter domain.CardFilter, now time.Time, limit, offset int) ([]domain.Card, int64, error) {
	where, args := cardFilterClause(filter, domain.DateOf(now))

	cards := []domain.Card{}
	query := q.Rebind(`SELECT ` + cardColumns + ` FROM cards c JOIN users u ON u.id = c.owner_id` +
		where + ` ORDER BY c.id ASC LIMIT ? OFFSET ?`)
	if err := q.SelectContext(ctx, &cards, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list cards: %w", err)
	}

	var totalCount int64
	countQuery := q.Rebind(`SELECT COUNT(*) FROM cards c` + where)
	if err := q.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return cards, totalCount, nil
}

// cardFilterClause builds the WHERE clause of a listing. Active and blocked
// exclude cards past their expiry date; expired includes them whatever their stored status.
func cardFilterClause(filter domain.CardFilter, today time.Time) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if filter.OwnerID != nil {
		conds = append(conds, "c.owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if filter.Status != nil {
		switch *filter.Status {
		case domain.CardStatusExpired:
			conds = append(conds, "(c.status = ? OR c.expiry_date < ?)")
			args = append(args, domain.CardStatusExpired, today)
		default:
			conds = append(conds, "c.status = ? AND c.expiry_date >= ?")
			args = append(args, *filter.Status, today)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// UpdateCardStatus updates the status of a card.
func (r *CardRepository) UpdateCardStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.CardStatus) error {
	query := q.Rebind(`UPDATE cards SET status = ?, updated_at = ? WHERE id = ?`)
	result, err := q.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update status of card %d: %w", id, err)
	}
	return expectOneRow(result, util.ErrNotFound, "updating card status")
}

// UpdateCardBalance sets the balance of a card. The caller must hold the card's lock.
func (r *CardRepository) UpdateCardBalance(ctx context.Context, q repository.DBExecutor, id int64, balance decimal.Decimal) error {
	query := q.Rebind(`UPDATE cards SET balance = ?, updated_at = ? WHERE id = ?`)
	result, err := q.ExecContext(ctx, query, balance.Round(domain.BalanceScale), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update balance of card %d: %w", id, err)
	}
	return expectOneRow(result, util.ErrNotFound, "updating card balance")
}

// DeleteCard removes a card by ID.
func (r *CardRepository) DeleteCard(ctx context.Context, q repository.DBExecutor, id int64) error {
	result, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM cards WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete card %d: %w", id, err)
	}
	return expectOneRow(result, util.ErrNotFound, "deleting card")
}

// ListUnexpiredCards pages through cards not yet marked EXPIRED using the id as keyset.
func (r *CardRepository) ListUnexpiredCards(ctx context.Context, q repository.DBExecutor, afterID int64, limit int) ([]domain.Card, error) {
	cards := []domain.Card{}
	query := q.Rebind(`SELECT id, owner_id, expiry_date, status FROM cards
              WHERE status <> ? AND id > ? ORDER BY id ASC LIMIT ?`)
	if err := q.SelectContext(ctx, &cards, query, domain.CardStatusExpired, afterID, limit); err != nil {
		return nil, fmt.Errorf("failed to list unexpired cards: %w", err)
	}
	return cards, nil
}

// MarkCardExpired sets a single overdue card to EXPIRED in one statement.
func (r *CardRepository) MarkCardExpired(ctx context.Context, q repository.DBExecutor, id int64, now time.Time) (bool, error) {
	query := q.Rebind(`UPDATE cards SET status = ?, updated_at = ?
              WHERE id = ? AND status <> ? AND expiry_date < ?`)
	result, err := q.ExecContext(ctx, query,
		domain.CardStatusExpired, now.UTC(), id, domain.CardStatusExpired, domain.DateOf(now))
	if err != nil {
		return false, fmt.Errorf("failed to expire card %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected after expiring card %d: %w", id, err)
	}
	return affected > 0, nil
}
