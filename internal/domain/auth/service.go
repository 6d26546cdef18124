package auth

import (
	"context"
	"fmt"
	"time"
)

const tokenTTL = 12 * time.Hour

// StoreAPI is what the service needs from persistence.
type StoreAPI interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u User) (string, error)
	List(ctx context.Context) ([]User, error)
	UpdatePassword(ctx context.Context, userID, hash string) error
	Delete(ctx context.Context, userID string) error
	CountAdmins(ctx context.Context) (int, error)
}

// AuditLog mirrors the audit service surface the other domains use.
type AuditLog interface {
	Record(ctx context.Context, action, entityType, entityID, description string, before, after any) error
}

type Service struct {
	store  StoreAPI
	audit  AuditLog
	secret string
}

func NewService(store StoreAPI, auditLog AuditLog, jwtSecret string) *Service {
	return &Service{store: store, audit: auditLog, secret: jwtSecret}
}

// Login verifies the credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, User, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return "", User{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return "", User{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.secret, Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, tokenTTL)
	if err != nil {
		return "", User{}, err
	}
	return token, user, nil
}

// VerifyPassword re-checks a user's password. It backs confirmation
// gates on sensitive actions, independent of any session token.
func (s *Service) VerifyPassword(ctx context.Context, userID, password string) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, username, displayName, role, password string) (User, error) {
	if !ValidRole(role) {
		return User{}, ErrInvalidRole
	}
	taken, err := s.store.Exists(ctx, username)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrUsernameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	user := User{Username: username, DisplayName: displayName, Role: role, PasswordHash: hash}
	id, err := s.store.Create(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.ID = id

	if err := s.audit.Record(ctx, "user_created", "user", id,
		fmt.Sprintf("user %s created with role %s", username, role), nil, nil); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := s.VerifyPassword(ctx, userID, current); err != nil {
		return err
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}

// DeleteUser removes a user, refusing to remove the last admin.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == RoleAdmin {
		admins, err := s.store.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return fmt.Errorf("cannot remove the last admin")
		}
	}
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}
	return s.audit.Record(ctx, "user_deleted", "user", userID,
		fmt.Sprintf("user %s removed", user.Username), nil, nil)
}
