// internal/service/transfer.go
package service

import (
	"context"
	"fmt"

	"bankcards/internal/domain"
	"bankcards/internal/policy"
	"bankcards/internal/util"
)

// Transfer moves money between two cards owned by the caller.
//
// Both card rows are locked in ascending id order before anything is read
// for validation, so two opposing transfers on the same pair cannot deadlock
// and no transfer can observe a balance another one is about to change.
func (s *cardService) Transfer(ctx context.Context, caller domain.Caller, req domain.TransferRequest) (*domain.TransferResult, error) {
	if req.FromCardID == req.ToCardID {
		return nil, util.InvalidOperation(util.ReasonSameCard)
	}
	if !hasBalanceScale(req.Amount) {
		return nil, fmt.Errorf("transfer: amount must have at most 2 decimals: %w", util.ErrInvalidInput)
	}

	txController, txExecutor, err := s.begin(ctx, "transfer")
	if err != nil {
		return nil, err
	}
	defer s.rollbackTx(txController) // Rollback if not committed

	firstID, secondID := req.FromCardID, req.ToCardID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}
	first, err := s.cardRepo.LockCard(ctx, txExecutor, firstID)
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to get card %d: %w", firstID, err)
	}
	second, err := s.cardRepo.LockCard(ctx, txExecutor, secondID)
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to get card %d: %w", secondID, err)
	}

	source, destination := first, second
	if source.ID != req.FromCardID {
		source, destination = second, first
	}

	if err := policy.Authorize(caller, policy.Transfer, source.OwnerID, destination.OwnerID); err != nil {
		return nil, err
	}

	now := s.now()
	if err := source.CheckUsable(util.SideSource, now); err != nil {
		return nil, err
	}
	if err := destination.CheckUsable(util.SideDestination, now); err != nil {
		return nil, err
	}

	if !req.Amount.IsPositive() || source.Balance.LessThan(req.Amount) {
		return nil, util.ErrInsufficientFunds
	}

	newSourceBalance := source.Balance.Sub(req.Amount).Round(domain.BalanceScale)
	newDestinationBalance := destination.Balance.Add(req.Amount).Round(domain.BalanceScale)

	if err := s.cardRepo.UpdateCardBalance(ctx, txExecutor, source.ID, newSourceBalance); err != nil {
		return nil, fmt.Errorf("transfer: failed to debit card %d: %w", source.ID, err)
	}
	if err := s.cardRepo.UpdateCardBalance(ctx, txExecutor, destination.ID, newDestinationBalance); err != nil {
		return nil, fmt.Errorf("transfer: failed to credit card %d: %w", destination.ID, err)
	}

	record := domain.NewTransfer(source.ID, destination.ID, req.Amount)
	if err := s.transferRepo.CreateTransfer(ctx, txExecutor, record); err != nil {
		return nil, fmt.Errorf("transfer: failed to record transfer: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("transfer: failed to commit transaction: %w", err)
	}

	s.logger.Info("Transfer completed",
		"reference", record.Reference,
		"from_card_id", source.ID,
		"to_card_id", destination.ID,
		"amount", req.Amount.String(),
		"caller_id", caller.UserID)

	return &domain.TransferResult{
		Reference:          record.Reference,
		FromCardID:         source.ID,
		ToCardID:           destination.ID,
		Amount:             req.Amount,
		FromCardNewBalance: newSourceBalance,
		ToCardNewBalance:   newDestinationBalance,
	}, nil
}
