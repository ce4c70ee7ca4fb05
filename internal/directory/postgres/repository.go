// Package postgres provides the PostgreSQL implementation of the
// directory repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/icnsas/payslip-vault/internal/directory"
	"github.com/icnsas/payslip-vault/internal/domain"
)

// Repository implements the directory.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const userColumns = "id, national_id, name, email, password_hash, role, created_at, updated_at"

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.NationalID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, national_id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.NationalID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by primary key.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by unique email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// GetUserByNationalID retrieves a user by unique national id.
func (r *Repository) GetUserByNationalID(ctx context.Context, nationalID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE national_id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, nationalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by national id: %w", err)
	}
	return user, nil
}

// ListUsers retrieves all users ordered by creation time.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// UpdateUser updates name, email, password hash and role.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, role = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return directory.ErrUserNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteUser deletes a user. Payslips cascade at the schema level.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return directory.ErrUserNotFound
	}
	return nil
}

// ListPayslipRefs returns payslip metadata for a user, newest first.
func (r *Repository) ListPayslipRefs(ctx context.Context, userID string) ([]domain.PayslipRef, error) {
	query := `
		SELECT id, mount, year, octet_length(data), created_at
		FROM payslips
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list payslip refs: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.PayslipRef, 0)
	for rows.Next() {
		var ref domain.PayslipRef
		if err := rows.Scan(&ref.ID, &ref.Mount, &ref.Year, &ref.Size, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payslip ref: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payslip refs: %w", err)
	}

	return refs, nil
}
