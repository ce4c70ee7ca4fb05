package payslips

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/icnsas/payslip-vault/internal/domain"
	"github.com/icnsas/payslip-vault/internal/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	owners   map[string]*domain.User // keyed by national id
	payslips map[string]*domain.Payslip

	createErr error
	batchErr  error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		owners:   make(map[string]*domain.User),
		payslips: make(map[string]*domain.Payslip),
	}
}

func (m *mockRepository) seedOwner(id, nationalID, name, email string) *domain.User {
	user := &domain.User{
		ID:         id,
		NationalID: nationalID,
		Name:       name,
		Email:      email,
		Role:       domain.RoleEmployee,
	}
	m.owners[nationalID] = user
	return user
}

func (m *mockRepository) ownerByID(id string) *domain.User {
	for _, u := range m.owners {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (m *mockRepository) CreatePayslip(_ context.Context, payslip *domain.Payslip) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.payslips[payslip.ID] = payslip
	return nil
}

func (m *mockRepository) CreatePayslipBatch(_ context.Context, batch []*domain.Payslip) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	for _, p := range batch {
		m.payslips[p.ID] = p
	}
	return nil
}

func (m *mockRepository) GetPayslipByID(_ context.Context, id string) (*domain.Payslip, error) {
	payslip, ok := m.payslips[id]
	if !ok {
		return nil, ErrPayslipNotFound
	}
	out := *payslip
	out.Size = len(out.Data)
	out.Owner = m.ownerByID(out.OwnerID)
	return &out, nil
}

func (m *mockRepository) GetPayslipByOwnerKey(_ context.Context, ownerID, mount, year string) (*domain.Payslip, error) {
	for _, p := range m.payslips {
		if p.OwnerID == ownerID && p.Mount == mount && p.Year == year {
			out := *p
			out.Size = len(out.Data)
			out.Owner = m.ownerByID(out.OwnerID)
			return &out, nil
		}
	}
	return nil, ErrPayslipNotFound
}

func (m *mockRepository) ListPayslips(_ context.Context) ([]domain.Payslip, error) {
	out := make([]domain.Payslip, 0, len(m.payslips))
	for _, p := range m.payslips {
		ref := *p
		ref.Size = len(ref.Data)
		ref.Data = nil
		out = append(out, ref)
	}
	return out, nil
}

func (m *mockRepository) DeletePayslip(_ context.Context, id string) error {
	if _, ok := m.payslips[id]; !ok {
		return ErrPayslipNotFound
	}
	delete(m.payslips, id)
	return nil
}

func (m *mockRepository) GetOwnerByNationalID(_ context.Context, nationalID string) (*domain.User, error) {
	owner, ok := m.owners[nationalID]
	if !ok {
		return nil, ErrOwnerNotFound
	}
	return owner, nil
}

func (m *mockRepository) ListOwnersByNationalIDs(_ context.Context, nationalIDs []string) ([]domain.User, error) {
	seen := make(map[string]bool)
	var out []domain.User
	for _, id := range nationalIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if owner, ok := m.owners[id]; ok {
			out = append(out, *owner)
		}
	}
	return out, nil
}

type mockMailer struct {
	sent    []string // recipients in order
	sendErr error
}

func (m *mockMailer) SendPayslip(_ context.Context, _ *domain.Payslip, to string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, to)
	return nil
}

func TestOwnerRefFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"plain export name", "100 Ana Gomez.pdf", "100"},
		{"zero padded id", "007 James.pdf", "7"},
		{"tab separated", "250\tnomina.pdf", "250"},
		{"no digits", "nomina.pdf", "nomina.pdf"},
		{"empty", "", ""},
		{"only whitespace", "   ", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ownerRefFromFilename(tt.filename))
		})
	}
}

func TestCreate(t *testing.T) {
	repo := newMockRepository()
	owner := repo.seedOwner("u1", "100", "Ana Gomez", "ana@example.com")
	service := NewService(repo, &mockMailer{})

	payslip, err := service.Create(context.Background(), CreateInput{
		NationalID: "100",
		Period:     Period{Mount: "enero", Year: "2024"},
		File:       UploadFile{Filename: "anything.pdf", Data: []byte("%PDF-1.4")},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, payslip.ID)
	assert.Equal(t, owner.ID, payslip.OwnerID)
	assert.Equal(t, "enero", payslip.Mount)
	assert.Equal(t, "2024", payslip.Year)
	assert.Equal(t, len(payslip.Data), payslip.Size)
	require.NotNil(t, payslip.Owner)
	assert.Equal(t, "100", payslip.Owner.NationalID)
	assert.Len(t, repo.payslips, 1)
}

func TestCreate_UnknownOwner(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockMailer{})

	_, err := service.Create(context.Background(), CreateInput{
		NationalID: "999",
		Period:     Period{Mount: "enero", Year: "2024"},
		File:       UploadFile{Filename: "x.pdf", Data: []byte("pdf")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOwnerNotFound)
	assert.Empty(t, repo.payslips)
}

func TestCreateBatch(t *testing.T) {
	repo := newMockRepository()
	ana := repo.seedOwner("u1", "100", "Ana Gomez", "ana@example.com")
	luis := repo.seedOwner("u2", "200", "Luis Rios", "luis@example.com")
	service := NewService(repo, &mockMailer{})

	result, err := service.CreateBatch(context.Background(), []UploadFile{
		{Filename: "100 Ana Gomez.pdf", Data: []byte("a")},
		{Filename: "200 Luis Rios.pdf", Data: []byte("b")},
	}, Period{Mount: "enero", Year: "2024"})
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "all documents were successfully created", result.Message)
	assert.Empty(t, result.NotFoundUsers)
	assert.NotNil(t, result.NotFoundUsers)

	require.Len(t, repo.payslips, 2)
	ownerIDs := make(map[string]bool)
	for _, p := range repo.payslips {
		ownerIDs[p.OwnerID] = true
		assert.Equal(t, "enero", p.Mount)
		assert.Equal(t, "2024", p.Year)
	}
	assert.True(t, ownerIDs[ana.ID])
	assert.True(t, ownerIDs[luis.ID])
}

func TestCreateBatch_MissingOwnersFailsWhole(t *testing.T) {
	repo := newMockRepository()
	repo.seedOwner("u1", "100", "Ana Gomez", "ana@example.com")
	repo.seedOwner("u2", "200", "Luis Rios", "luis@example.com")
	service := NewService(repo, &mockMailer{})

	_, err := service.CreateBatch(context.Background(), []UploadFile{
		{Filename: "100 Ana Gomez.pdf", Data: []byte("a")},
		{Filename: "200 Luis Rios.pdf", Data: []byte("b")},
		{Filename: "999 Nadie.pdf", Data: []byte("c")},
	}, Period{Mount: "enero", Year: "2024"})
	require.Error(t, err)

	var batchErr *BatchOwnersError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, []string{"999"}, batchErr.NotFound)

	// All-or-nothing: the two resolvable files must not be persisted.
	assert.Empty(t, repo.payslips)
}

func TestCreateBatch_MissingOwnersDeduplicated(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockMailer{})

	_, err := service.CreateBatch(context.Background(), []UploadFile{
		{Filename: "999 enero.pdf", Data: []byte("a")},
		{Filename: "999 febrero.pdf", Data: []byte("b")},
		{Filename: "888 enero.pdf", Data: []byte("c")},
	}, Period{Mount: "enero", Year: "2024"})
	require.Error(t, err)

	var batchErr *BatchOwnersError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, []string{"999", "888"}, batchErr.NotFound)
}

func TestCreateBatch_Empty(t *testing.T) {
	service := NewService(newMockRepository(), &mockMailer{})

	_, err := service.CreateBatch(context.Background(), nil, Period{Mount: "enero", Year: "2024"})
	assert.ErrorIs(t, err, ErrEmptyUpload)
}

func TestCreateBatch_RepositoryError(t *testing.T) {
	repo := newMockRepository()
	repo.seedOwner("u1", "100", "Ana Gomez", "ana@example.com")
	repo.batchErr = fmt.Errorf("connection lost")
	service := NewService(repo, &mockMailer{})

	_, err := service.CreateBatch(context.Background(), []UploadFile{
		{Filename: "100 Ana Gomez.pdf", Data: []byte("a")},
	}, Period{Mount: "enero", Year: "2024"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
}

func TestResolveByOwnerKey_ScopedToOwner(t *testing.T) {
	repo := newMockRepository()
	ana := repo.seedOwner("u1", "100", "Ana Gomez", "ana@example.com")
	luis := repo.seedOwner("u2", "200", "Luis Rios", "luis@example.com")
	repo.payslips["ps1"] = &domain.Payslip{
		ID: "ps1", OwnerID: ana.ID, Mount: "enero", Year: "2024", Data: []byte("ana-doc"),
	}
	service := NewService(repo, &mockMailer{})

	payslip, err := service.ResolveByOwnerKey(context.Background(), ana.ID, Period{Mount: "enero", Year: "2024"})
	require.NoError(t, err)
	assert.Equal(t, "ps1", payslip.ID)
	require.NotNil(t, payslip.Owner)
	assert.Equal(t, "100", payslip.Owner.NationalID)

	// The same period under another identity resolves nothing.
	_, err = service.ResolveByOwnerKey(context.Background(), luis.ID, Period{Mount: "enero", Year: "2024"})
	assert.ErrorIs(t, err, ErrPayslipNotFound)
}

func TestRemove_Unknown(t *testing.T) {
	service := NewService(newMockRepository(), &mockMailer{})

	err := service.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPayslipNotFound)
}

func TestSendByID(t *testing.T) {
	repo := newMockRepository()
	ana := repo.seedOwner("u1", "100", "Ana Gomez", "ana@example.com")
	repo.payslips["ps1"] = &domain.Payslip{
		ID: "ps1", OwnerID: ana.ID, Mount: "enero", Year: "2024", Data: []byte("doc"),
	}
	mailer := &mockMailer{}
	service := NewService(repo, mailer)

	err := service.SendByID(context.Background(), "ps1", "manager@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"manager@example.com"}, mailer.sent)
}

func TestSendByID_NotFound(t *testing.T) {
	mailer := &mockMailer{}
	service := NewService(newMockRepository(), mailer)

	err := service.SendByID(context.Background(), "missing", "x@example.com")
	assert.ErrorIs(t, err, ErrPayslipNotFound)
	assert.Empty(t, mailer.sent)
}

func TestSendToOwner(t *testing.T) {
	repo := newMockRepository()
	ana := repo.seedOwner("u1", "100", "Ana Gomez", "ana@example.com")
	repo.payslips["ps1"] = &domain.Payslip{
		ID: "ps1", OwnerID: ana.ID, Mount: "enero", Year: "2024", Data: []byte("doc"),
	}
	mailer := &mockMailer{}
	service := NewService(repo, mailer)

	err := service.SendToOwner(context.Background(), ana.ID, "ana@example.com", Period{Mount: "enero", Year: "2024"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, mailer.sent)
}

func TestSendToOwner_DeliveryFailure(t *testing.T) {
	repo := newMockRepository()
	ana := repo.seedOwner("u1", "100", "Ana Gomez", "ana@example.com")
	repo.payslips["ps1"] = &domain.Payslip{
		ID: "ps1", OwnerID: ana.ID, Mount: "enero", Year: "2024", Data: []byte("doc"),
	}
	mailer := &mockMailer{sendErr: &notifications.DeliveryError{To: "ana@example.com", Err: errors.New("smtp down")}}
	service := NewService(repo, mailer)

	err := service.SendToOwner(context.Background(), ana.ID, "ana@example.com", Period{Mount: "enero", Year: "2024"})
	require.Error(t, err)

	// A transport failure stays distinct from resolution failures.
	assert.ErrorIs(t, err, notifications.ErrDeliveryFailed)
	assert.NotErrorIs(t, err, ErrPayslipNotFound)
}
