// Package postgres provides the PostgreSQL implementation of the
// payslips repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/icnsas/payslip-vault/internal/domain"
	"github.com/icnsas/payslip-vault/internal/payslips"
)

// Repository implements the payslips.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreatePayslip inserts a single payslip.
func (r *Repository) CreatePayslip(ctx context.Context, payslip *domain.Payslip) error {
	query := `
		INSERT INTO payslips (id, user_id, mount, year, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		payslip.ID,
		payslip.OwnerID,
		payslip.Mount,
		payslip.Year,
		payslip.Data,
	).Scan(&payslip.CreatedAt, &payslip.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create payslip: %w", err)
	}
	return nil
}

// CreatePayslipBatch inserts all payslips in one transaction. A failure
// on any row rolls back the whole batch.
func (r *Repository) CreatePayslipBatch(ctx context.Context, batch []*domain.Payslip) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO payslips (id, user_id, mount, year, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	for _, payslip := range batch {
		err := tx.QueryRow(ctx, query,
			payslip.ID,
			payslip.OwnerID,
			payslip.Mount,
			payslip.Year,
			payslip.Data,
		).Scan(&payslip.CreatedAt, &payslip.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create payslip in batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch transaction: %w", err)
	}
	return nil
}

const payslipWithOwnerQuery = `
	SELECT p.id, p.user_id, p.mount, p.year, p.data, p.created_at, p.updated_at,
	       u.id, u.national_id, u.name, u.email, u.role, u.created_at, u.updated_at
	FROM payslips p
	JOIN users u ON u.id = p.user_id
`

func scanPayslipWithOwner(row pgx.Row) (*domain.Payslip, error) {
	var payslip domain.Payslip
	var owner domain.User
	err := row.Scan(
		&payslip.ID,
		&payslip.OwnerID,
		&payslip.Mount,
		&payslip.Year,
		&payslip.Data,
		&payslip.CreatedAt,
		&payslip.UpdatedAt,
		&owner.ID,
		&owner.NationalID,
		&owner.Name,
		&owner.Email,
		&owner.Role,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	payslip.Size = len(payslip.Data)
	payslip.Owner = &owner
	return &payslip, nil
}

// GetPayslipByID retrieves a payslip by primary key including its owner.
func (r *Repository) GetPayslipByID(ctx context.Context, id string) (*domain.Payslip, error) {
	query := payslipWithOwnerQuery + ` WHERE p.id = $1`

	payslip, err := scanPayslipWithOwner(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payslips.ErrPayslipNotFound
		}
		return nil, fmt.Errorf("get payslip by id: %w", err)
	}
	return payslip, nil
}

// GetPayslipByOwnerKey resolves the (owner, mount, year) composite.
// Duplicate periods are possible, so the earliest created row wins.
func (r *Repository) GetPayslipByOwnerKey(ctx context.Context, ownerID, mount, year string) (*domain.Payslip, error) {
	query := payslipWithOwnerQuery + `
		WHERE p.user_id = $1 AND p.mount = $2 AND p.year = $3
		ORDER BY p.created_at, p.id
		LIMIT 1
	`

	payslip, err := scanPayslipWithOwner(r.db.QueryRow(ctx, query, ownerID, mount, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payslips.ErrPayslipNotFound
		}
		return nil, fmt.Errorf("get payslip by owner key: %w", err)
	}
	return payslip, nil
}

// ListPayslips retrieves all payslips without payloads.
func (r *Repository) ListPayslips(ctx context.Context) ([]domain.Payslip, error) {
	query := `
		SELECT id, user_id, mount, year, octet_length(data), created_at, updated_at
		FROM payslips
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list payslips: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Payslip, 0)
	for rows.Next() {
		var payslip domain.Payslip
		err := rows.Scan(
			&payslip.ID,
			&payslip.OwnerID,
			&payslip.Mount,
			&payslip.Year,
			&payslip.Size,
			&payslip.CreatedAt,
			&payslip.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payslip: %w", err)
		}
		result = append(result, payslip)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payslips: %w", err)
	}

	return result, nil
}

// DeletePayslip deletes a payslip by primary key.
func (r *Repository) DeletePayslip(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payslips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payslip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payslips.ErrPayslipNotFound
	}
	return nil
}

// GetOwnerByNationalID resolves an upload's owner by business key.
func (r *Repository) GetOwnerByNationalID(ctx context.Context, nationalID string) (*domain.User, error) {
	query := `
		SELECT id, national_id, name, email, role, created_at, updated_at
		FROM users
		WHERE national_id = $1
	`
	var owner domain.User
	err := r.db.QueryRow(ctx, query, nationalID).Scan(
		&owner.ID,
		&owner.NationalID,
		&owner.Name,
		&owner.Email,
		&owner.Role,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payslips.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("get owner by national id: %w", err)
	}
	return &owner, nil
}

// ListOwnersByNationalIDs resolves a set of business keys in one query.
// Unknown ids are simply absent from the result.
func (r *Repository) ListOwnersByNationalIDs(ctx context.Context, nationalIDs []string) ([]domain.User, error) {
	query := `
		SELECT id, national_id, name, email, role, created_at, updated_at
		FROM users
		WHERE national_id = ANY($1)
	`
	rows, err := r.db.Query(ctx, query, nationalIDs)
	if err != nil {
		return nil, fmt.Errorf("list owners by national ids: %w", err)
	}
	defer rows.Close()

	owners := make([]domain.User, 0, len(nationalIDs))
	for rows.Next() {
		var owner domain.User
		err := rows.Scan(
			&owner.ID,
			&owner.NationalID,
			&owner.Name,
			&owner.Email,
			&owner.Role,
			&owner.CreatedAt,
			&owner.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, owner)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}

	return owners, nil
}
