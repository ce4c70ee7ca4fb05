package directory

import (
	"context"

	"github.com/icnsas/payslip-vault/internal/domain"
)

// Repository defines the interface for user directory data operations.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByNationalID(ctx context.Context, nationalID string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error

	// ListPayslipRefs returns metadata of the payslips owned by a user,
	// without payloads. Ownership is one-directional so the join lives
	// on the directory side.
	ListPayslipRefs(ctx context.Context, userID string) ([]domain.PayslipRef, error)
}
