// internal/repository/sqlstore/transfer_store.go
package sqlstore

import (
	"context"
	"fmt"

	"bankcards/internal/domain"
	"bankcards/internal/repository"
)

// TransferRepository implements repository.TransferRepository on sqlx.
type TransferRepository struct{}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository() repository.TransferRepository {
	return &TransferRepository{}
}

// CreateTransfer inserts a new transfer record using the provided DBExecutor.
func (r *TransferRepository) CreateTransfer(ctx context.Context, q repository.DBExecutor, transfer *domain.Transfer) error {
	query := q.Rebind(`INSERT INTO transfers (reference, from_card_id, to_card_id, amount, created_at)
              VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := q.QueryRowContext(ctx, query,
		transfer.Reference,
		transfer.FromCardID,
		transfer.ToCardID,
		transfer.Amount,
		transfer.CreatedAt,
	).Scan(&transfer.ID)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

// GetTransfersByCardID retrieves a paginated list of transfers for a specific card.
// It performs two queries: one for the data and one for the total count.
func (r *TransferRepository) GetTransfersByCardID(ctx context.Context, q repository.DBExecutor, cardID int64, limit, offset int) ([]domain.Transfer, int64, error) {
	transfers := []domain.Transfer{}

	// Both directions count as touching the card.
	query := q.Rebind(`
		SELECT id, reference, from_card_id, to_card_id, amount, created_at
		FROM transfers
		WHERE from_card_id = ? OR to_card_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`)
	if err := q.SelectContext(ctx, &transfers, query, cardID, cardID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transfers for card %d: %w", cardID, err)
	}

	var totalCount int64
	countQuery := q.Rebind(`SELECT COUNT(*) FROM transfers WHERE from_card_id = ? OR to_card_id = ?`)
	if err := q.GetContext(ctx, &totalCount, countQuery, cardID, cardID); err != nil {
		return nil, 0, fmt.Errorf("failed to get total transfer count for card %d: %w", cardID, err)
	}

	return transfers, totalCount, nil
}
