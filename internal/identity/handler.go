package identity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/icnsas/payslip-vault/internal/directory"
	"github.com/icnsas/payslip-vault/internal/domain"
	"github.com/icnsas/payslip-vault/internal/pkg/ctxlog"
	"github.com/icnsas/payslip-vault/internal/pkg/httputil"
)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers the public authentication routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
}

// RegisterRequest represents registration request body.
type RegisterRequest struct {
	NationalID string `json:"cc" validate:"required,min=1,max=32"`
	Name       string `json:"name" validate:"required,min=1,max=255"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		NationalID: req.NationalID,
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, user)
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents login response.
type LoginResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, LoginResponse{
		User:        user,
		AccessToken: token,
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		httputil.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, directory.ErrNationalIDExists), errors.Is(err, directory.ErrEmailExists):
		httputil.Error(w, http.StatusConflict, err.Error())
	default:
		ctxlog.FromContext(r.Context()).Error("internal error", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal error")
	}
}
