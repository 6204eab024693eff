// internal/service/card_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bankcards/internal/cardcrypto"
	"bankcards/internal/cardgen"
	"bankcards/internal/domain"
	"bankcards/internal/policy"
	"bankcards/internal/repository"
	"bankcards/internal/util"
	"bankcards/pkg/db"

	"github.com/shopspring/decimal"
)

// sweepBatchSize is the number of cards the expiry sweep reads per query.
const sweepBatchSize = 200

// CardService defines the interface for card lifecycle and transfer logic.
// Every operation receives the resolved caller explicitly.
type CardService interface {
	CreateCard(ctx context.Context, caller domain.Caller, req domain.CreateCardRequest) (*domain.CardView, error)
	GetCard(ctx context.Context, caller domain.Caller, id int64) (*domain.CardView, error)
	ListCards(ctx context.Context, caller domain.Caller, filter domain.CardFilter, page domain.PageRequest) ([]domain.CardView, int64, error)
	SetStatus(ctx context.Context, caller domain.Caller, id int64, target domain.CardStatus) (*domain.CardView, error)
	RequestBlock(ctx context.Context, caller domain.Caller, id int64) (*domain.CardView, error)
	DeleteCard(ctx context.Context, caller domain.Caller, id int64) error
	Transfer(ctx context.Context, caller domain.Caller, req domain.TransferRequest) (*domain.TransferResult, error)
	GetBalance(ctx context.Context, caller domain.Caller, id int64) (*domain.BalanceView, error)
	GetTransferHistory(ctx context.Context, caller domain.Caller, cardID int64, page domain.PageRequest) ([]domain.Transfer, int64, error)
	ExpireOverdueCards(ctx context.Context) (int, error)
}

// CardCipher encrypts and decrypts card numbers. *cardcrypto.Cipher implements it.
type CardCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Option customizes a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now as the source of the current date.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// cardService implements the CardService interface.
type cardService struct {
	dbBeginner   db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor   repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	userRepo     repository.UserRepository
	cardRepo     repository.CardRepository
	transferRepo repository.TransferRepository
	cipher       CardCipher
	beginTx      db.BeginTxFunc
	commitTx     db.CommitTxFunc
	rollbackTx   db.RollbackTxFunc
	logger       *slog.Logger
	now          func() time.Time
}

// NewCardService creates a new instance of CardService.
func NewCardService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	cardRepo repository.CardRepository,
	transferRepo repository.TransferRepository,
	cipher CardCipher,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
	opts ...Option,
) CardService {
	o := buildOptions(opts)
	return &cardService{
		dbBeginner:   dbBeginner,
		dbExecutor:   dbExecutor,
		userRepo:     userRepo,
		cardRepo:     cardRepo,
		transferRepo: transferRepo,
		cipher:       cipher,
		beginTx:      beginTx,
		commitTx:     commitTx,
		rollbackTx:   rollbackTx,
		logger:       logger,
		now:          o.now,
	}
}

// begin starts a transaction and returns both its controller and the executor repositories use.
func (s *cardService) begin(ctx context.Context, op string) (db.TxController, repository.DBExecutor, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		s.rollbackTx(txController)
		return nil, nil, fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}
	return txController, txExecutor, nil
}

// CreateCard issues a new active card with a freshly generated PAN.
func (s *cardService) CreateCard(ctx context.Context, caller domain.Caller, req domain.CreateCardRequest) (*domain.CardView, error) {
	if err := policy.Authorize(caller, policy.CreateCard); err != nil {
		return nil, err
	}

	now := s.now()
	if !domain.DateOf(req.ExpiryDate).After(domain.DateOf(now)) {
		return nil, fmt.Errorf("create card: expiry date must be in the future: %w", util.ErrInvalidInput)
	}
	balance := decimal.Zero
	if req.InitialBalance != nil {
		balance = *req.InitialBalance
	}
	if balance.IsNegative() || !hasBalanceScale(balance) {
		return nil, fmt.Errorf("create card: initial balance must be a non-negative amount with at most 2 decimals: %w", util.ErrInvalidInput)
	}

	pan := cardgen.Generate()
	encrypted, err := s.cipher.Encrypt(pan)
	if err != nil {
		return nil, fmt.Errorf("create card: failed to encrypt card number: %w", err)
	}

	txController, txExecutor, err := s.begin(ctx, "create card")
	if err != nil {
		return nil, err
	}
	defer s.rollbackTx(txController)

	owner, err := s.userRepo.GetUserByID(ctx, txExecutor, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("create card: failed to get owner %d: %w", req.OwnerID, err)
	}

	card := domain.NewCard(owner.ID, encrypted, req.ExpiryDate, balance)
	if err := s.cardRepo.CreateCard(ctx, txExecutor, card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("create card: failed to commit transaction: %w", err)
	}

	card.OwnerEmail = owner.Email
	view := domain.NewCardView(card, cardcrypto.Mask(pan), now)
	s.logger.Info("Card created", "card_id", card.ID, "owner_id", card.OwnerID, "expiry_date", view.ExpiryDate)
	return &view, nil
}

// GetCard returns the masked view of a card to its owner or an administrator.
func (s *cardService) GetCard(ctx context.Context, caller domain.Caller, id int64) (*domain.CardView, error) {
	card, err := s.cardRepo.GetCardByID(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	if err := policy.Authorize(caller, policy.ReadCard, card.OwnerID); err != nil {
		return nil, err
	}
	return s.toView(card)
}

// ListCards returns one page of cards. Non-administrators only ever see their own cards.
func (s *cardService) ListCards(ctx context.Context, caller domain.Caller, filter domain.CardFilter, page domain.PageRequest) ([]domain.CardView, int64, error) {
	op := policy.ListAll
	switch {
	case filter.OwnerID == nil && !caller.IsAdmin():
		ownerID := caller.UserID
		filter.OwnerID = &ownerID
		op = policy.ListOwn
	case filter.OwnerID != nil && *filter.OwnerID == caller.UserID:
		op = policy.ListOwn
	}
	if err := policy.Authorize(caller, op); err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	cards, total, err := s.cardRepo.ListCards(ctx, s.dbExecutor, filter, s.now(), page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list cards: %w", err)
	}

	views := make([]domain.CardView, 0, len(cards))
	for i := range cards {
		view, err := s.toView(&cards[i])
		if err != nil {
			return nil, 0, fmt.Errorf("list cards: %w", err)
		}
		views = append(views, *view)
	}
	return views, total, nil
}

// SetStatus blocks or re-activates a card on behalf of an administrator.
func (s *cardService) SetStatus(ctx context.Context, caller domain.Caller, id int64, target domain.CardStatus) (*domain.CardView, error) {
	var op policy.Operation
	switch target {
	case domain.CardStatusBlocked:
		op = policy.ForceBlock
	case domain.CardStatusActive:
		op = policy.ForceActivate
	default:
		return nil, util.InvalidOperation(util.ReasonInvalidTarget)
	}
	if err := policy.Authorize(caller, op); err != nil {
		return nil, err
	}
	return s.changeStatus(ctx, caller, id, target, "set status", nil)
}

// RequestBlock lets an owner block their own card.
func (s *cardService) RequestBlock(ctx context.Context, caller domain.Caller, id int64) (*domain.CardView, error) {
	return s.changeStatus(ctx, caller, id, domain.CardStatusBlocked, "request block", func(card *domain.Card) error {
		return policy.Authorize(caller, policy.RequestBlock, card.OwnerID)
	})
}

// changeStatus applies a lifecycle transition under the card's row lock.
// authorize, when set, runs after the card is read and before anything is written.
func (s *cardService) changeStatus(ctx context.Context, caller domain.Caller, id int64, target domain.CardStatus, op string, authorize func(*domain.Card) error) (*domain.CardView, error) {
	txController, txExecutor, err := s.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer s.rollbackTx(txController)

	card, err := s.cardRepo.LockCard(ctx, txExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get card %d: %w", op, id, err)
	}
	if authorize != nil {
		if err := authorize(card); err != nil {
			return nil, err
		}
	}
	if err := card.TransitionTo(target, s.now()); err != nil {
		return nil, err
	}
	if err := s.cardRepo.UpdateCardStatus(ctx, txExecutor, id, card.Status); err != nil {
		return nil, fmt.Errorf("%s: failed to update card status: %w", op, err)
	}

	updated, err := s.cardRepo.GetCardByID(ctx, txExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to re-fetch card %d: %w", op, id, err)
	}
	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	s.logger.Info("Card status changed", "card_id", id, "status", updated.Status, "caller_id", caller.UserID)
	return s.toView(updated)
}

// DeleteCard removes a card. It takes the card's row lock first, so it waits for
// any transfer touching the card to finish.
func (s *cardService) DeleteCard(ctx context.Context, caller domain.Caller, id int64) error {
	if err := policy.Authorize(caller, policy.DeleteCard); err != nil {
		return err
	}

	txController, txExecutor, err := s.begin(ctx, "delete card")
	if err != nil {
		return err
	}
	defer s.rollbackTx(txController)

	if _, err := s.cardRepo.LockCard(ctx, txExecutor, id); err != nil {
		return fmt.Errorf("delete card: failed to get card %d: %w", id, err)
	}
	if err := s.cardRepo.DeleteCard(ctx, txExecutor, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if err := s.commitTx(txController); err != nil {
		return fmt.Errorf("delete card: failed to commit transaction: %w", err)
	}

	s.logger.Info("Card deleted", "card_id", id, "caller_id", caller.UserID)
	return nil
}

// GetBalance returns the masked number and balance of a card.
func (s *cardService) GetBalance(ctx context.Context, caller domain.Caller, id int64) (*domain.BalanceView, error) {
	card, err := s.cardRepo.GetCardByID(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	if err := policy.Authorize(caller, policy.ReadBalance, card.OwnerID); err != nil {
		return nil, err
	}
	masked, err := s.maskedNumber(card)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &domain.BalanceView{
		CardID:       card.ID,
		MaskedNumber: masked,
		Balance:      card.Balance.Round(domain.BalanceScale),
	}, nil
}

// GetTransferHistory retrieves a paginated list of transfers touching a card.
func (s *cardService) GetTransferHistory(ctx context.Context, caller domain.Caller, cardID int64, page domain.PageRequest) ([]domain.Transfer, int64, error) {
	card, err := s.cardRepo.GetCardByID(ctx, s.dbExecutor, cardID)
	if err != nil {
		return nil, 0, fmt.Errorf("transfer history: %w", err)
	}
	if err := policy.Authorize(caller, policy.ReadCard, card.OwnerID); err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	transfers, total, err := s.transferRepo.GetTransfersByCardID(ctx, s.dbExecutor, cardID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("transfer history: %w", err)
	}
	return transfers, total, nil
}

// ExpireOverdueCards marks every card past its expiry date as EXPIRED.
// Each card is flipped by its own single-row statement, so the sweep never
// holds more than one card lock at a time.
func (s *cardService) ExpireOverdueCards(ctx context.Context) (int, error) {
	now := s.now()
	expired := 0
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		cards, err := s.cardRepo.ListUnexpiredCards(ctx, s.dbExecutor, afterID, sweepBatchSize)
		if err != nil {
			return expired, fmt.Errorf("expire cards: %w", err)
		}
		for i := range cards {
			afterID = cards[i].ID
			if !cards[i].IsExpired(now) {
				continue
			}
			changed, err := s.cardRepo.MarkCardExpired(ctx, s.dbExecutor, cards[i].ID, now)
			if err != nil {
				return expired, fmt.Errorf("expire cards: %w", err)
			}
			if changed {
				expired++
			}
		}
		if len(cards) < sweepBatchSize {
			break
		}
	}
	if expired > 0 {
		s.logger.Info("Expired overdue cards", "count", expired)
	}
	return expired, nil
}

func (s *cardService) toView(card *domain.Card) (*domain.CardView, error) {
	masked, err := s.maskedNumber(card)
	if err != nil {
		return nil, err
	}
	view := domain.NewCardView(card, masked, s.now())
	return &view, nil
}

// maskedNumber decrypts the PAN only long enough to mask it.
func (s *cardService) maskedNumber(card *domain.Card) (string, error) {
	pan, err := s.cipher.Decrypt(card.EncryptedNumber)
	if err != nil {
		return "", fmt.Errorf("card %d: %w", card.ID, err)
	}
	return cardcrypto.Mask(pan), nil
}

// hasBalanceScale reports whether amount fits in BalanceScale fractional digits.
func hasBalanceScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(domain.BalanceScale))
}
