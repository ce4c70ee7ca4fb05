package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/icnsas/payslip-vault/internal/domain"
	"github.com/icnsas/payslip-vault/internal/pkg/ctxlog"
	"github.com/icnsas/payslip-vault/internal/pkg/httputil"
)

// Handler handles HTTP requests for the directory module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new directory handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterProtectedRoutes registers self-service routes. They only need
// a valid token; every lookup is scoped to the caller's own identity.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/users/me", h.GetMe)
	r.Put("/users/me", h.UpdateMe)
}

// RegisterAdminRoutes registers user management routes (admin only).
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	NationalID string `json:"cc" validate:"required,min=1,max=32"`
	Name       string `json:"name" validate:"required,min=1,max=255"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"omitempty,oneof=employee admin"`
}

// UpdateUserRequest represents the request body for updating a user.
// Password and NewPassword must both be present to change the password.
type UpdateUserRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Password    string  `json:"password"`
	NewPassword string  `json:"new_password" validate:"omitempty,min=8"`
}

// Create handles POST /users.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, err := h.service.Create(r.Context(), CreateInput{
		NationalID: req.NationalID,
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       domain.Role(req.Role),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, user)
}

// List handles GET /users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.FindAll(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, users)
}

// Get handles GET /users/{id}. The response includes the metadata of
// the user's payslips.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.FindOne(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, user)
}

// Update handles PUT /users/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, chi.URLParam(r, "id"))
}

// Delete handles DELETE /users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Remove(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetMe handles GET /users/me.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := httputil.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.service.GetSelf(r.Context(), identity.ID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, profile)
}

// UpdateMe handles PUT /users/me. Same merge semantics as the admin
// update, scoped to the caller's token subject.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := httputil.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.update(w, r, identity.ID)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, user)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNationalIDExists), errors.Is(err, ErrEmailExists):
		httputil.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrPasswordPairRequired), errors.Is(err, ErrPasswordMismatch):
		httputil.Error(w, http.StatusBadRequest, err.Error())
	default:
		ctxlog.FromContext(r.Context()).Error("internal error", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal error")
	}
}
