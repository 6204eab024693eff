// internal/api/handler/response.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bankcards/internal/domain"
	"bankcards/internal/util" // For custom errors
)

// DefaultTimeout bounds the handling of a single request.
const DefaultTimeout = 30 * time.Second

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Card   string `json:"card,omitempty"` // source or destination, for unusable cards
}

// responder carries the JSON helpers shared by all handlers.
type responder struct {
	logger *slog.Logger
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode, body := errorResponse(err)
	if statusCode == http.StatusInternalServerError {
		h.logger.Error("Unhandled service error", "error", err)
	}
	h.respondWithJSON(w, statusCode, body)
}

// errorResponse maps a service error onto a status code and body.
// Internal failures, including undecryptable card numbers, are never described to the client.
func errorResponse(err error) (int, ErrorResponse) {
	var invalidOp *util.InvalidOperationError
	var notUsable *util.CardNotUsableError

	switch {
	case errors.As(err, &notUsable):
		return http.StatusBadRequest, ErrorResponse{Error: notUsable.Error(), Reason: string(notUsable.Reason), Card: string(notUsable.Which)}
	case errors.As(err, &invalidOp):
		return http.StatusBadRequest, ErrorResponse{Error: invalidOp.Error(), Reason: invalidOp.Reason}
	case util.IsError(err, util.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()} // Use the error message directly for invalid input
	case util.IsError(err, util.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Resource not found"}
	case util.IsError(err, util.ErrAccessDenied):
		return http.StatusForbidden, ErrorResponse{Error: "Access denied"}
	case util.IsError(err, util.ErrInsufficientFunds):
		return http.StatusPaymentRequired, ErrorResponse{Error: "Insufficient funds"} // 402 Payment Required
	case util.IsError(err, util.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"}
	case util.IsError(err, util.ErrDuplicateEntry):
		return http.StatusConflict, ErrorResponse{Error: "Resource already exists"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"}
	}
}

// decodeJSON reads a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return util.ErrInvalidInput
	}
	return nil
}

// idParam parses a positive int64 path parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.ErrInvalidInput
	}
	return id, nil
}

// pageParams reads the zero-based page and size query parameters.
// Missing or malformed values fall back to the defaults.
func pageParams(r *http.Request) domain.PageRequest {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = domain.DefaultPageSize
	}
	return domain.PageRequest{Page: page, Size: size}.Normalize()
}
