// internal/repository/sqlstore/user_store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bankcards/internal/domain"
	"bankcards/internal/repository"
	"bankcards/internal/util"
)

// UserRepository implements repository.UserRepository on sqlx.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository.
func NewUserRepository() repository.UserRepository {
	return &UserRepository{}
}

// CreateUser inserts a new user into the database using the provided DBExecutor.
func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := q.Rebind(`INSERT INTO users (email, password_hash, role, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := q.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return util.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID using the provided DBExecutor.
func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	var user domain.User
	query := q.Rebind(`SELECT id, email, password_hash, role, created_at, updated_at FROM users WHERE id = ?`)
	if err := q.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by their email using the provided DBExecutor.
func (r *UserRepository) GetUserByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.User, error) {
	var user domain.User
	query := q.Rebind(`SELECT id, email, password_hash, role, created_at, updated_at FROM users WHERE email = ?`)
	if err := q.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// ListUsers retrieves a page of users ordered by id and the total count.
func (r *UserRepository) ListUsers(ctx context.Context, q repository.DBExecutor, limit, offset int) ([]domain.User, int64, error) {
	users := []domain.User{}
	query := q.Rebind(`SELECT id, email, password_hash, role, created_at, updated_at FROM users ORDER BY id ASC LIMIT ? OFFSET ?`)
	if err := q.SelectContext(ctx, &users, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	var totalCount int64
	if err := q.GetContext(ctx, &totalCount, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return users, totalCount, nil
}

// DeleteUser removes a user by ID.
func (r *UserRepository) DeleteUser(ctx context.Context, q repository.DBExecutor, id int64) error {
	result, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return expectOneRow(result, util.ErrNotFound, "deleting user")
}
