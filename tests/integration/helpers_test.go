//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/icnsas/payslip-vault/internal/testutil"
	"github.com/stretchr/testify/require"
)

// samplePDF returns a minimal PDF-looking payload tagged so tests can
// tell documents apart.
func samplePDF(tag string) []byte {
	return []byte("%PDF-1.4\n% " + tag + "\n%%EOF\n")
}

type testUser struct {
	ID         string
	NationalID string
	Name       string
	Email      string
	Password   string
}

// createTestUser creates a user through the admin API and returns its
// identifiers. The client must be logged in as admin. Cleanup deletes
// the user, which cascades to its payslips.
func createTestUser(t *testing.T, client *testutil.Client, name string) testUser {
	t.Helper()

	user := testUser{
		NationalID: testutil.RandomNationalID(),
		Name:       name,
		Email:      testutil.RandomEmail(),
		Password:   "password123",
	}

	resp, err := client.POST("/api/v1/users", map[string]string{
		"cc":       user.NationalID,
		"name":     user.Name,
		"email":    user.Email,
		"password": user.Password,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	user.ID = result.Data.ID

	t.Cleanup(func() { deleteUser(t, client, user.ID) })
	return user
}

// deleteUser removes a user. Does not fail if already deleted.
func deleteUser(t *testing.T, client *testutil.Client, id string) {
	t.Helper()
	resp, err := client.DELETE("/api/v1/users/" + id)
	if err != nil {
		t.Logf("cleanup warning (user %s): %v", id, err)
		return
	}
	resp.Body.Close()
}

// uploadPayslip uploads a single document for the user and returns the
// payslip id. The client must be logged in as admin.
func uploadPayslip(t *testing.T, client *testutil.Client, nationalID, mount, year string, content []byte) string {
	t.Helper()

	resp, err := client.POSTMultipart("/api/v1/payslips",
		[]testutil.MultipartFile{
			{Field: "file", Filename: fmt.Sprintf("%s payslip.pdf", nationalID), Content: content},
		},
		map[string]string{
			"mount":       mount,
			"year":        year,
			"national_id": nationalID,
		})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	id := result.Data.ID
	t.Cleanup(func() { deletePayslip(t, client, id) })
	return id
}

// deletePayslip removes a payslip. Does not fail if already deleted.
func deletePayslip(t *testing.T, client *testutil.Client, id string) {
	t.Helper()
	resp, err := client.DELETE("/api/v1/payslips/" + id)
	if err != nil {
		t.Logf("cleanup warning (payslip %s): %v", id, err)
		return
	}
	resp.Body.Close()
}

// loginAs creates a fresh client logged in with the given credentials.
func loginAs(t *testing.T, email, password string) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	client.LoginAs(t, email, password)
	return client
}
