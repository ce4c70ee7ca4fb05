// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
)

// Client is an HTTP client for testing API endpoints. Authentication is
// a bearer token carried in the Authorization header.
type Client struct {
	BaseURL     string
	Token       string
	HTTPClient  *http.Client
	Validator   *OpenAPIValidator
	ValidateAPI bool
	t           *testing.T
}

// NewClient creates a new test client without validation.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
	}
}

// NewClientWithValidator creates a new test client with a pre-loaded OpenAPI validator.
// Use this in TestMain where *testing.T is not available during initialization.
func NewClientWithValidator(baseURL string, validator *OpenAPIValidator) *Client {
	return &Client{
		BaseURL:     baseURL,
		HTTPClient:  &http.Client{},
		Validator:   validator,
		ValidateAPI: true,
	}
}

// SetT sets the testing.T for validation error reporting.
// This should be called at the beginning of each test when using a shared client.
func (c *Client) SetT(t *testing.T) {
	c.t = t
}

// WithoutValidation returns a copy of the client with validation disabled.
// Use this for negative tests where you expect invalid responses.
func (c *Client) WithoutValidation() *Client {
	clone := *c
	clone.ValidateAPI = false
	return &clone
}

// LoginAs authenticates using email/password and stores the returned
// access token for subsequent requests.
func (c *Client) LoginAs(t *testing.T, email, password string) {
	t.Helper()
	c.t = t

	resp, err := c.POST("/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("login failed: status=%d body=%s", resp.StatusCode, body)
	}

	var loginResp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.Data.AccessToken == "" {
		t.Fatal("login returned empty access token")
	}

	c.Token = loginResp.Data.AccessToken
}

// LoginAsAdmin logs in as admin@example.com.
func (c *Client) LoginAsAdmin(t *testing.T) {
	t.Helper()
	c.LoginAs(t, "admin@example.com", "admin123")
}

// LoginAsEmployee logs in as employee@example.com.
func (c *Client) LoginAsEmployee(t *testing.T) {
	t.Helper()
	c.LoginAs(t, "employee@example.com", "employee123")
}

// ClearToken removes the stored token.
func (c *Client) ClearToken() {
	c.Token = ""
}

// GET performs a GET request.
func (c *Client) GET(path string) (*http.Response, error) {
	return c.do("GET", path, nil)
}

// POST performs a POST request with JSON body.
func (c *Client) POST(path string, body interface{}) (*http.Response, error) {
	return c.do("POST", path, body)
}

// PUT performs a PUT request with JSON body.
func (c *Client) PUT(path string, body interface{}) (*http.Response, error) {
	return c.do("PUT", path, body)
}

// DELETE performs a DELETE request.
func (c *Client) DELETE(path string) (*http.Response, error) {
	return c.do("DELETE", path, nil)
}

// MultipartFile is one file part of a multipart upload request.
type MultipartFile struct {
	Field    string
	Filename string
	Content  []byte
}

// POSTMultipart performs a POST request with a multipart form carrying
// the given files and text fields.
func (c *Client) POSTMultipart(path string, files []MultipartFile, fields map[string]string) (*http.Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := mw.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
	}
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequest("POST", c.BaseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	return c.HTTPClient.Do(req)
}

func (c *Client) do(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	var bodyBytes []byte

	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	// Validate response against OpenAPI spec if enabled
	if c.ValidateAPI && c.Validator != nil && c.t != nil {
		// Create a new request for validation (original body was consumed)
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		validationReq, _ := http.NewRequest(method, c.BaseURL+path, bodyReader)
		validationReq.Header = req.Header
		validationReq.URL = req.URL

		c.Validator.ValidateResponse(c.t, validationReq, resp)
	}

	return resp, nil
}

// DecodeJSON decodes response body into v.
func DecodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// ReadBody reads and returns response body as string.
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}
