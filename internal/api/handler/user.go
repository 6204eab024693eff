// internal/api/handler/user.go
package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"bankcards/internal/api/types"
	"bankcards/internal/domain"
	"bankcards/internal/service"
	"bankcards/internal/util"
)

// UserHandler handles login and account management.
type UserHandler struct {
	responder
	service service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued on login.
type LoginResponse struct {
	Token  string      `json:"token"`
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Login exchanges credentials for a bearer token.
// POST /auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respondWithError(w, fmt.Errorf("email and password are required: %w", util.ErrInvalidInput))
		return
	}

	token, user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, LoginResponse{Token: token, UserID: user.ID, Role: user.Role})
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"` // USER by default
}

// CreateUser registers an account. Administrators only.
// POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}

	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	role := domain.RoleOwner
	if req.Role != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			h.respondWithError(w, fmt.Errorf("%v: %w", err, util.ErrInvalidInput))
			return
		}
		role = parsed
	}

	user, err := h.service.CreateUser(r.Context(), caller, req.Email, req.Password, role)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, user)
}

// ListUsers returns one page of users. Administrators only.
// GET /users?page=&size=
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}
	page := pageParams(r)
	users, total, err := h.service.ListUsers(r.Context(), caller, page)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewPaginatedResponse(users, page.Page, page.Size, total))
}

// GetUser returns a user to an administrator or to the user themself.
// GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}
	userID, err := idParam(r, "userID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), caller, userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account and its cards. Administrators only.
// DELETE /users/{userID}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}
	userID, err := idParam(r, "userID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), caller, userID); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
