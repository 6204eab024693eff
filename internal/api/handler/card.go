// internal/api/handler/card.go
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"bankcards/internal/api/types"
	"bankcards/internal/domain"
	"bankcards/internal/service"
	"bankcards/internal/util"
)

// CardHandler handles HTTP requests related to cards and transfers.
type CardHandler struct {
	responder
	service service.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(svc service.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// CreateCardRequest represents the request body for issuing a card.
type CreateCardRequest struct {
	OwnerID        int64            `json:"owner_id"`
	ExpiryDate     string           `json:"expiry_date"` // YYYY-MM-DD
	InitialBalance *decimal.Decimal `json:"initial_balance,omitempty"`
}

// CreateCard handles the card issuing request.
// POST /cards
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}

	var req CreateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if req.OwnerID <= 0 {
		h.respondWithError(w, fmt.Errorf("owner_id is required: %w", util.ErrInvalidInput))
		return
	}
	expiry, err := time.Parse(time.DateOnly, req.ExpiryDate)
	if err != nil {
		h.respondWithError(w, fmt.Errorf("expiry_date must be YYYY-MM-DD: %w", util.ErrInvalidInput))
		return
	}

	card, err := h.service.CreateCard(r.Context(), caller, domain.CreateCardRequest{
		OwnerID:        req.OwnerID,
		ExpiryDate:     expiry,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, card)
}

// ListOwnCards lists the caller's cards.
// GET /cards?status=&page=&size=
func (h *CardHandler) ListOwnCards(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}
	ownerID := caller.UserID
	h.listCards(w, r, caller, &ownerID)
}

// ListAllCards lists every card, optionally narrowed to one owner. Administrators only.
// GET /cards/all?owner_id=&status=&page=&size=
func (h *CardHandler) ListAllCards(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}
	if !caller.IsAdmin() {
		h.respondWithError(w, util.ErrAccessDenied)
		return
	}

	var ownerID *int64
	if raw := r.URL.Query().Get("owner_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.respondWithError(w, fmt.Errorf("owner_id must be an integer: %w", util.ErrInvalidInput))
			return
		}
		ownerID = &id
	}
	h.listCards(w, r, caller, ownerID)
}

func (h *CardHandler) listCards(w http.ResponseWriter, r *http.Request, caller domain.Caller, ownerID *int64) {
	filter := domain.CardFilter{OwnerID: ownerID}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := domain.ParseCardStatus(raw)
		if err != nil {
			h.respondWithError(w, fmt.Errorf("%v: %w", err, util.ErrInvalidInput))
			return
		}
		filter.Status = &status
	}

	page := pageParams(r)
	cards, total, err := h.service.ListCards(r.Context(), caller, filter, page)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewPaginatedResponse(cards, page.Page, page.Size, total))
}

// GetCard returns a single card.
// GET /cards/{cardID}
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	caller, cardID, ok := h.callerAndCard(w, r)
	if !ok {
		return
	}
	card, err := h.service.GetCard(r.Context(), caller, cardID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, card)
}

// GetBalance handles the card balance request.
// GET /cards/{cardID}/balance
func (h *CardHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	caller, cardID, ok := h.callerAndCard(w, r)
	if !ok {
		return
	}
	balance, err := h.service.GetBalance(r.Context(), caller, cardID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, balance)
}

// GetTransferHistory handles the transfer history request.
// GET /cards/{cardID}/transfers?page=&size=
func (h *CardHandler) GetTransferHistory(w http.ResponseWriter, r *http.Request) {
	caller, cardID, ok := h.callerAndCard(w, r)
	if !ok {
		return
	}
	page := pageParams(r)
	transfers, total, err := h.service.GetTransferHistory(r.Context(), caller, cardID, page)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewPaginatedResponse(transfers, page.Page, page.Size, total))
}

// BlockCard blocks a card. Administrators only.
// PUT /cards/{cardID}/block
func (h *CardHandler) BlockCard(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.CardStatusBlocked)
}

// ActivateCard re-activates a blocked card. Administrators only.
// PUT /cards/{cardID}/activate
func (h *CardHandler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.CardStatusActive)
}

func (h *CardHandler) setStatus(w http.ResponseWriter, r *http.Request, target domain.CardStatus) {
	caller, cardID, ok := h.callerAndCard(w, r)
	if !ok {
		return
	}
	card, err := h.service.SetStatus(r.Context(), caller, cardID, target)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, card)
}

// RequestBlock lets an owner block their own card.
// POST /cards/{cardID}/request-block
func (h *CardHandler) RequestBlock(w http.ResponseWriter, r *http.Request) {
	caller, cardID, ok := h.callerAndCard(w, r)
	if !ok {
		return
	}
	card, err := h.service.RequestBlock(r.Context(), caller, cardID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, card)
}

// DeleteCard removes a card. Administrators only.
// DELETE /cards/{cardID}
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	caller, cardID, ok := h.callerAndCard(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCard(r.Context(), caller, cardID); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	FromCardID int64           `json:"from_card_id"`
	ToCardID   int64           `json:"to_card_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// Transfer handles the transfer money request.
// POST /cards/transfer
func (h *CardHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}

	var req TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	// Basic validation
	if req.FromCardID <= 0 || req.ToCardID <= 0 {
		h.respondWithError(w, fmt.Errorf("from_card_id and to_card_id are required: %w", util.ErrInvalidInput))
		return
	}

	result, err := h.service.Transfer(r.Context(), caller, domain.TransferRequest{
		FromCardID: req.FromCardID,
		ToCardID:   req.ToCardID,
		Amount:     req.Amount,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, result)
}

// callerAndCard resolves the caller and the {cardID} path parameter, answering the request on failure.
func (h *CardHandler) callerAndCard(w http.ResponseWriter, r *http.Request) (domain.Caller, int64, bool) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return domain.Caller{}, 0, false
	}
	cardID, err := idParam(r, "cardID")
	if err != nil {
		h.respondWithError(w, err)
		return domain.Caller{}, 0, false
	}
	return caller, cardID, true
}
