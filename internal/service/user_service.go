// internal/service/user_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"bankcards/internal/auth"
	"bankcards/internal/domain"
	"bankcards/internal/policy"
	"bankcards/internal/repository"
	"bankcards/internal/util"
)

// MinPasswordLength is the shortest password accepted for new users.
const MinPasswordLength = 8

// UserService defines the interface for account management and login.
type UserService interface {
	Authenticate(ctx context.Context, email, password string) (string, *domain.User, error)
	CreateUser(ctx context.Context, caller domain.Caller, email, password string, role domain.Role) (*domain.User, error)
	GetUser(ctx context.Context, caller domain.Caller, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, caller domain.Caller, page domain.PageRequest) ([]domain.User, int64, error)
	DeleteUser(ctx context.Context, caller domain.Caller, id int64) error
	EnsureAdmin(ctx context.Context, email, password string) error
}

// TokenIssuer signs bearer tokens. *auth.TokenManager implements it.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// userService implements the UserService interface.
type userService struct {
	dbExecutor repository.DBExecutor
	userRepo   repository.UserRepository
	tokens     TokenIssuer
	logger     *slog.Logger
}

// NewUserService creates a new instance of UserService.
func NewUserService(dbExecutor repository.DBExecutor, userRepo repository.UserRepository, tokens TokenIssuer, logger *slog.Logger) UserService {
	return &userService{
		dbExecutor: dbExecutor,
		userRepo:   userRepo,
		tokens:     tokens,
		logger:     logger,
	}
}

// Authenticate checks credentials and returns a signed token for the user.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *userService) Authenticate(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, s.dbExecutor, normalizeEmail(email))
	if errors.Is(err, util.ErrNotFound) {
		return "", nil, fmt.Errorf("%w: invalid credentials", util.ErrUnauthenticated)
	}
	if err != nil {
		return "", nil, fmt.Errorf("authenticate: %w", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", util.ErrUnauthenticated)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("authenticate: %w", err)
	}
	s.logger.Info("User logged in", "user_id", user.ID)
	return token, user, nil
}

// CreateUser registers a new account. Only administrators may do this.
func (s *userService) CreateUser(ctx context.Context, caller domain.Caller, email, password string, role domain.Role) (*domain.User, error) {
	if err := policy.Authorize(caller, policy.ManageUsers); err != nil {
		return nil, err
	}
	return s.createUser(ctx, email, password, role)
}

func (s *userService) createUser(ctx context.Context, email, password string, role domain.Role) (*domain.User, error) {
	email = normalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("create user: invalid email: %w", util.ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("create user: password must be at least %d characters: %w", MinPasswordLength, util.ErrInvalidInput)
	}
	if role == "" {
		role = domain.RoleOwner
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user := domain.NewUser(email, hash, role)
	if err := s.userRepo.CreateUser(ctx, s.dbExecutor, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// GetUser returns a user to an administrator or to the user themself.
func (s *userService) GetUser(ctx context.Context, caller domain.Caller, id int64) (*domain.User, error) {
	if caller.UserID != id {
		if err := policy.Authorize(caller, policy.ManageUsers); err != nil {
			return nil, err
		}
	}
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns one page of users.
func (s *userService) ListUsers(ctx context.Context, caller domain.Caller, page domain.PageRequest) ([]domain.User, int64, error) {
	if err := policy.Authorize(caller, policy.ManageUsers); err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	users, total, err := s.userRepo.ListUsers(ctx, s.dbExecutor, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// DeleteUser removes an account together with its cards.
// Administrators cannot delete their own account.
func (s *userService) DeleteUser(ctx context.Context, caller domain.Caller, id int64) error {
	if err := policy.Authorize(caller, policy.ManageUsers); err != nil {
		return err
	}
	if _, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if id == caller.UserID {
		return util.InvalidOperation(util.ReasonSelfDelete)
	}
	if err := s.userRepo.DeleteUser(ctx, s.dbExecutor, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("User deleted", "user_id", id, "caller_id", caller.UserID)
	return nil
}

// EnsureAdmin creates the bootstrap administrator if no user with email exists.
// An empty email disables bootstrapping.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	_, err := s.userRepo.GetUserByEmail(ctx, s.dbExecutor, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	user, err := s.createUser(ctx, email, password, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	s.logger.Info("Bootstrap administrator created", "user_id", user.ID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
