// Package identity provides credential verification and login/register
// endpoints. Token issuance lives in the jwt subpackage.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/icnsas/payslip-vault/internal/directory"
	"github.com/icnsas/payslip-vault/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// UserDirectory is the subset of the directory used by authentication.
type UserDirectory interface {
	Create(ctx context.Context, input directory.CreateInput) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Authenticator mints access tokens for verified users.
type Authenticator interface {
	Issue(ctx context.Context, user *domain.User) (string, error)
}

// Service implements authentication business logic.
type Service struct {
	users UserDirectory
	auth  Authenticator
}

// NewService creates a new identity service.
func NewService(users UserDirectory, auth Authenticator) *Service {
	return &Service{users: users, auth: auth}
}

// RegisterInput holds data for self-service registration.
type RegisterInput struct {
	NationalID string
	Name       string
	Email      string
	Password   string
}

// Register creates a new employee account. The role is always employee;
// administrators are created through the directory by another admin.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	user, err := s.users.Create(ctx, directory.CreateInput{
		NationalID: input.NationalID,
		Name:       input.Name,
		Email:      input.Email,
		Password:   input.Password,
		Role:       domain.RoleEmployee,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Verify checks a claimed email/password pair against the stored hash.
// A wrong password is a non-match, not an error: it returns (nil, nil).
// A missing account returns directory.ErrUserNotFound. On match the
// returned user carries no password hash.
func (s *Service) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}

	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown email
// and wrong password both collapse to ErrInvalidCredentials so the
// response does not reveal which one failed.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("verify credentials: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.auth.Issue(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return user, token, nil
}
