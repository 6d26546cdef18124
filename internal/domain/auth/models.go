package auth

import (
	"errors"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleOperator = "operator"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidRole        = errors.New("invalid role")
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserContext is what authenticated requests carry.
type UserContext struct {
	UserID   string
	Username string
	Role     string
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator:
		return true
	}
	return false
}

// CanApprove reports whether the role may drive payroll periods through
// their lifecycle and export backups.
func CanApprove(role string) bool {
	return role == RoleAdmin || role == RoleManager
}

// CanManageUsers reports whether the role may create or remove users.
func CanManageUsers(role string) bool {
	return role == RoleAdmin
}
