// Package payslips is the document-resolution core: it binds uploads to
// owners, scopes lookups to identities and hands resolved documents to
// the mail dispatcher.
package payslips

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/icnsas/payslip-vault/internal/domain"
	"github.com/icnsas/payslip-vault/internal/pkg/ctxlog"
	"github.com/icnsas/payslip-vault/internal/pkg/metrics"
)

// Mailer delivers a resolved payslip as an email attachment.
type Mailer interface {
	SendPayslip(ctx context.Context, payslip *domain.Payslip, to string) error
}

// Service implements payslip business logic.
type Service struct {
	repo   Repository
	mailer Mailer
}

// NewService creates a new payslip service.
func NewService(repo Repository, mailer Mailer) *Service {
	return &Service{repo: repo, mailer: mailer}
}

// Period identifies a pay period: the mount (cycle label) and year.
type Period struct {
	Mount string
	Year  string
}

// UploadFile is one uploaded payslip file.
type UploadFile struct {
	Filename string
	Data     []byte
}

// CreateInput holds data for a single structured upload. The owner is
// named explicitly by national id instead of being parsed out of the
// filename.
type CreateInput struct {
	NationalID string
	Period     Period
	File       UploadFile
}

// BatchResult reports the outcome of a batch upload.
type BatchResult struct {
	Created       bool     `json:"created"`
	Message       string   `json:"message"`
	NotFoundUsers []string `json:"not_found_users"`
}

// Create stores a single payslip bound to the owner with the given
// national id.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Payslip, error) {
	owner, err := s.repo.GetOwnerByNationalID(ctx, input.NationalID)
	if err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			return nil, fmt.Errorf("%w: cc %s", ErrOwnerNotFound, input.NationalID)
		}
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	payslip := &domain.Payslip{
		ID:      uuid.NewString(),
		OwnerID: owner.ID,
		Mount:   input.Period.Mount,
		Year:    input.Period.Year,
		Data:    input.File.Data,
	}

	if err := s.repo.CreatePayslip(ctx, payslip); err != nil {
		return nil, fmt.Errorf("create payslip: %w", err)
	}

	metrics.PayslipsUploaded.WithLabelValues("single").Inc()

	payslip.Size = len(payslip.Data)
	payslip.Owner = owner
	return payslip, nil
}

// ownerRefFromFilename extracts the owner national id from a
// machine-named payroll export: the leading whitespace-delimited token,
// parsed as an integer and re-stringified. A malformed name yields the
// raw leading token, which never matches a user and therefore surfaces
// as owner-not-found rather than a parse error.
func ownerRefFromFilename(filename string) string {
	fields := strings.Fields(filename)
	if len(fields) == 0 {
		return filename
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return fields[0]
	}
	return strconv.Itoa(n)
}

// CreateBatch stores one payslip per file, binding each file to the
// owner named by its filename's leading token. Validation is
// all-or-nothing: every owner is resolved in a single query first, and
// if any identifier has no matching user the whole batch fails with
// the full list of missing identifiers and nothing is persisted. The
// inserts themselves run inside one transaction.
func (s *Service) CreateBatch(ctx context.Context, files []UploadFile, period Period) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, ErrEmptyUpload
	}

	refs := make([]string, len(files))
	for i, f := range files {
		refs[i] = ownerRefFromFilename(f.Filename)
	}

	owners, err := s.repo.ListOwnersByNationalIDs(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("resolve owners: %w", err)
	}

	ownerByRef := make(map[string]*domain.User, len(owners))
	for i := range owners {
		ownerByRef[owners[i].NationalID] = &owners[i]
	}

	var missing []string
	seen := make(map[string]bool)
	for _, ref := range refs {
		if ownerByRef[ref] == nil && !seen[ref] {
			missing = append(missing, ref)
			seen[ref] = true
		}
	}
	if len(missing) > 0 {
		return nil, &BatchOwnersError{NotFound: missing}
	}

	batch := make([]*domain.Payslip, len(files))
	for i, f := range files {
		batch[i] = &domain.Payslip{
			ID:      uuid.NewString(),
			OwnerID: ownerByRef[refs[i]].ID,
			Mount:   period.Mount,
			Year:    period.Year,
			Data:    f.Data,
		}
	}

	if err := s.repo.CreatePayslipBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create payslip batch: %w", err)
	}

	metrics.PayslipsUploaded.WithLabelValues("batch").Add(float64(len(batch)))

	return &BatchResult{
		Created:       true,
		Message:       "all documents were successfully created",
		NotFoundUsers: []string{},
	}, nil
}

// ResolveByID returns a payslip by primary key, owner included. This is
// the unscoped privileged path.
func (s *Service) ResolveByID(ctx context.Context, id string) (*domain.Payslip, error) {
	return s.repo.GetPayslipByID(ctx, id)
}

// ResolveByOwnerKey returns the payslip matching (owner, mount, year).
// The owner id must come from the caller's verified identity, never
// from request input: this is what scopes the self-service path.
func (s *Service) ResolveByOwnerKey(ctx context.Context, ownerID string, period Period) (*domain.Payslip, error) {
	return s.repo.GetPayslipByOwnerKey(ctx, ownerID, period.Mount, period.Year)
}

// FindAll lists all payslips without payloads.
func (s *Service) FindAll(ctx context.Context) ([]domain.Payslip, error) {
	payslips, err := s.repo.ListPayslips(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payslips: %w", err)
	}
	return payslips, nil
}

// Remove deletes a payslip by id.
func (s *Service) Remove(ctx context.Context, id string) error {
	if _, err := s.repo.GetPayslipByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeletePayslip(ctx, id)
}

// SendByID resolves a payslip by primary key and emails it. Privileged
// path: the recipient is chosen by the caller.
func (s *Service) SendByID(ctx context.Context, id, to string) error {
	payslip, err := s.repo.GetPayslipByID(ctx, id)
	if err != nil {
		return err
	}
	return s.send(ctx, payslip, to)
}

// SendToOwner resolves the caller's own payslip for the period and
// emails it to the caller's token email.
func (s *Service) SendToOwner(ctx context.Context, ownerID, email string, period Period) error {
	payslip, err := s.repo.GetPayslipByOwnerKey(ctx, ownerID, period.Mount, period.Year)
	if err != nil {
		return err
	}
	return s.send(ctx, payslip, email)
}

func (s *Service) send(ctx context.Context, payslip *domain.Payslip, to string) error {
	if err := s.mailer.SendPayslip(ctx, payslip, to); err != nil {
		metrics.PayslipsSent.WithLabelValues("failed").Inc()
		return err
	}

	metrics.PayslipsSent.WithLabelValues("sent").Inc()
	ctxlog.FromContext(ctx).Info("payslip sent",
		"payslip_id", payslip.ID,
		"mount", payslip.Mount,
		"year", payslip.Year,
	)
	return nil
}
