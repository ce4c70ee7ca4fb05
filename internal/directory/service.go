// Package directory provides CRUD over user records and the guarded
// self-service password change.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/icnsas/payslip-vault/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the hashing cost applied on creation and password change.
const bcryptCost = 10

// Service implements user directory business logic.
type Service struct {
	repo Repository
}

// NewService creates a new directory service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds data for creating a user.
type CreateInput struct {
	NationalID string
	Name       string
	Email      string
	Password   string
	Role       domain.Role
}

// UpdateInput holds data for updating a user. Nil pointer fields are
// left untouched. Password and NewPassword must be supplied together
// to change the stored hash.
type UpdateInput struct {
	Name        *string
	Email       *string
	Password    string
	NewPassword string
}

// UserWithPayslips is a user together with the metadata of the payslips
// they own.
type UserWithPayslips struct {
	domain.User
	Payslips []domain.PayslipRef `json:"documents"`
}

// Create registers a new user. National id and email are each checked
// for uniqueness up front so the caller gets a specific conflict.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	if _, err := s.repo.GetUserByNationalID(ctx, input.NationalID); err == nil {
		return nil, fmt.Errorf("%w: cc %s", ErrNationalIDExists, input.NationalID)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check national id: %w", err)
	}

	if _, err := s.repo.GetUserByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailExists, input.Email)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleEmployee
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		NationalID:   input.NationalID,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// FindAll returns all users.
func (s *Service) FindAll(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// FindOne returns a user by id together with their payslip metadata.
func (s *Service) FindOne(ctx context.Context, id string) (*UserWithPayslips, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	refs, err := s.repo.ListPayslipRefs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list payslips for user: %w", err)
	}

	return &UserWithPayslips{User: *user, Payslips: refs}, nil
}

// FindByEmail returns a user by email. Used by the credential verifier.
func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetUserByEmail(ctx, email)
}

// GetSelf returns the reduced profile view of a user: name, email and
// role only.
func (s *Service) GetSelf(ctx context.Context, id string) (*domain.Profile, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// Update merges the supplied fields into the user. A password change
// requires both the current and the new password, and the current one
// must verify against the stored hash. Name and email changes apply
// regardless of whether a password change was requested.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*domain.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if (input.Password == "") != (input.NewPassword == "") {
		return nil, ErrPasswordPairRequired
	}

	if input.Password != "" && input.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
			return nil, ErrPasswordMismatch
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// Remove deletes a user by id. Their payslips are removed with them.
func (s *Service) Remove(ctx context.Context, id string) error {
	if _, err := s.repo.GetUserByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, id)
}
