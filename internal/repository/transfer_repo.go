// internal/repository/transfer_repo.go
package repository

import (
	"context"

	"bankcards/internal/domain"
)

// TransferRepository defines the interface for the transfer journal.
type TransferRepository interface {
	// CreateTransfer adds a new transfer record using the provided DBExecutor.
	CreateTransfer(ctx context.Context, q DBExecutor, transfer *domain.Transfer) error
	// GetTransfersByCardID retrieves transfers touching a card, newest first, and their total count.
	GetTransfersByCardID(ctx context.Context, q DBExecutor, cardID int64, limit, offset int) ([]domain.Transfer, int64, error)
}
