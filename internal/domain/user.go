// internal/domain/user.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleOwner Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User represents an account holder or an administrator.
type User struct {
	ID           int64     `db:"id" json:"id"`                 // Primary key, BIGSERIAL in DB
	Email        string    `db:"email" json:"email"`           // Unique email
	PasswordHash string    `db:"password_hash" json:"-"`       // bcrypt hash, never serialized
	Role         Role      `db:"role" json:"role"`             // USER or ADMIN
	CreatedAt    time.Time `db:"created_at" json:"created_at"` // Timestamp of creation
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"` // Timestamp of last update
}

// NewUser creates a new User instance.
func NewUser(email, passwordHash string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Caller is the resolved identity of whoever invokes a core operation.
// It is passed explicitly into every service method.
type Caller struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the caller holds the administrator role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
