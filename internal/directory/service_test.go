package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/icnsas/payslip-vault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	users         map[string]*domain.User // keyed by id
	payslipRefs   map[string][]domain.PayslipRef
	createUserErr error
	deleted       []string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:       make(map[string]*domain.User),
		payslipRefs: make(map[string][]domain.PayslipRef),
	}
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	if m.createUserErr != nil {
		return m.createUserErr
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetUserByNationalID(_ context.Context, nationalID string) (*domain.User, error) {
	for _, u := range m.users {
		if u.NationalID == nationalID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockRepository) UpdateUser(_ context.Context, user *domain.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockRepository) DeleteUser(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRepository) ListPayslipRefs(_ context.Context, userID string) ([]domain.PayslipRef, error) {
	return m.payslipRefs[userID], nil
}

func seedUser(t *testing.T, repo *mockRepository, nationalID, email, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		ID:           "user-" + nationalID,
		NationalID:   nationalID,
		Name:         "Test User " + nationalID,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleEmployee,
	}
	repo.users[user.ID] = user
	return user
}

func TestCreate_HashesPasswordAndDefaultsRole(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	user, err := service.Create(context.Background(), CreateInput{
		NationalID: "100",
		Name:       "Ana",
		Email:      "ana@example.com",
		Password:   "password123",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.RoleEmployee, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
}

func TestCreate_DuplicateNationalID(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "100", "existing@example.com", "password123")
	service := NewService(repo)

	user, err := service.Create(context.Background(), CreateInput{
		NationalID: "100",
		Name:       "Other",
		Email:      "other@example.com",
		Password:   "password123",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrNationalIDExists)
	assert.Len(t, repo.users, 1, "no new row persisted on conflict")
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "100", "existing@example.com", "password123")
	service := NewService(repo)

	user, err := service.Create(context.Background(), CreateInput{
		NationalID: "200",
		Name:       "Other",
		Email:      "existing@example.com",
		Password:   "password123",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Len(t, repo.users, 1, "no new row persisted on conflict")
}

func TestCreate_RepositoryFails(t *testing.T) {
	repo := newMockRepository()
	repo.createUserErr = errors.New("database error")
	service := NewService(repo)

	user, err := service.Create(context.Background(), CreateInput{
		NationalID: "100",
		Name:       "Ana",
		Email:      "ana@example.com",
		Password:   "password123",
	})

	assert.Nil(t, user)
	assert.Error(t, err)
}

func TestUpdate_PasswordChangeRequiresPair(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "100", "ana@example.com", "oldpassword")
	service := NewService(repo)

	_, err := service.Update(context.Background(), user.ID, UpdateInput{
		NewPassword: "newpassword1",
	})
	assert.ErrorIs(t, err, ErrPasswordPairRequired)

	_, err = service.Update(context.Background(), user.ID, UpdateInput{
		Password: "oldpassword",
	})
	assert.ErrorIs(t, err, ErrPasswordPairRequired)
}

func TestUpdate_WrongCurrentPasswordLeavesHashUnchanged(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "100", "ana@example.com", "oldpassword")
	originalHash := user.PasswordHash
	service := NewService(repo)

	_, err := service.Update(context.Background(), user.ID, UpdateInput{
		Password:    "wrongpassword",
		NewPassword: "newpassword1",
	})

	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Equal(t, originalHash, repo.users[user.ID].PasswordHash)
}

func TestUpdate_PasswordChangeSucceeds(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "100", "ana@example.com", "oldpassword")
	service := NewService(repo)

	updated, err := service.Update(context.Background(), user.ID, UpdateInput{
		Password:    "oldpassword",
		NewPassword: "newpassword1",
	})

	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newpassword1")))
}

func TestUpdate_MergesNameAndEmailWithoutPassword(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "100", "ana@example.com", "oldpassword")
	originalHash := user.PasswordHash
	service := NewService(repo)

	name := "Ana Maria"
	email := "ana.maria@example.com"
	updated, err := service.Update(context.Background(), user.ID, UpdateInput{
		Name:  &name,
		Email: &email,
	})

	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, "ana.maria@example.com", updated.Email)
	assert.Equal(t, originalHash, updated.PasswordHash)
}

func TestGetSelf_ProjectsProfile(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "100", "ana@example.com", "password123")
	service := NewService(repo)

	profile, err := service.GetSelf(context.Background(), user.ID)

	require.NoError(t, err)
	assert.Equal(t, user.Name, profile.Name)
	assert.Equal(t, user.Email, profile.Email)
	assert.Equal(t, user.Role, profile.Role)
}

func TestFindOne_IncludesPayslipRefs(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "100", "ana@example.com", "password123")
	repo.payslipRefs[user.ID] = []domain.PayslipRef{
		{ID: "p1", Mount: "enero", Year: "2024", Size: 1024},
	}
	service := NewService(repo)

	result, err := service.FindOne(context.Background(), user.ID)

	require.NoError(t, err)
	require.Len(t, result.Payslips, 1)
	assert.Equal(t, "p1", result.Payslips[0].ID)
}

func TestRemove_UnknownUser(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	err := service.Remove(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrUserNotFound)
}
