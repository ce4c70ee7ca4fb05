package payslips

import (
	"context"

	"github.com/icnsas/payslip-vault/internal/domain"
)

// Repository defines the interface for payslip data operations.
type Repository interface {
	CreatePayslip(ctx context.Context, payslip *domain.Payslip) error

	// CreatePayslipBatch persists all payslips inside one transaction:
	// either every row lands or none does.
	CreatePayslipBatch(ctx context.Context, batch []*domain.Payslip) error

	// GetPayslipByID is the unscoped primary-key lookup, owner included.
	GetPayslipByID(ctx context.Context, id string) (*domain.Payslip, error)

	// GetPayslipByOwnerKey resolves the (owner, mount, year) composite,
	// owner included. Duplicate periods resolve deterministically to
	// the earliest created row.
	GetPayslipByOwnerKey(ctx context.Context, ownerID, mount, year string) (*domain.Payslip, error)

	ListPayslips(ctx context.Context) ([]domain.Payslip, error)
	DeletePayslip(ctx context.Context, id string) error

	// Owner resolution by business key, used to bind uploads.
	GetOwnerByNationalID(ctx context.Context, nationalID string) (*domain.User, error)
	ListOwnersByNationalIDs(ctx context.Context, nationalIDs []string) ([]domain.User, error)
}
