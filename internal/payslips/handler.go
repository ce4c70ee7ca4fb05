package payslips

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/icnsas/payslip-vault/internal/notifications"
	"github.com/icnsas/payslip-vault/internal/pkg/ctxlog"
	"github.com/icnsas/payslip-vault/internal/pkg/httputil"
)

// UploadLimits bounds multipart uploads.
type UploadLimits struct {
	MaxFileSize  int64
	MaxBatchSize int
}

// Handler handles HTTP requests for the payslips module.
type Handler struct {
	service   *Service
	validator *validator.Validate
	limits    UploadLimits
}

// NewHandler creates a new payslips handler.
func NewHandler(service *Service, limits UploadLimits) *Handler {
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = 10 << 20
	}
	if limits.MaxBatchSize <= 0 {
		limits.MaxBatchSize = 200
	}
	return &Handler{
		service:   service,
		validator: validator.New(),
		limits:    limits,
	}
}

// RegisterProtectedRoutes registers self-service routes. The owner is
// always the caller's token subject; no request input can widen that.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/payslips/download/me", h.DownloadMine)
	r.Post("/payslips/send/me", h.SendMine)
}

// RegisterAdminRoutes registers the unscoped document routes (admin only).
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/payslips", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Post("/upload", h.CreateBatch)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/download", h.Download)
		r.Post("/{id}/send", h.Send)
	})
}

// PeriodRequest represents a pay period in request bodies and form fields.
type PeriodRequest struct {
	Mount string `json:"mount" validate:"required,min=1,max=64"`
	Year  string `json:"year" validate:"required,len=4,numeric"`
}

// SendRequest represents the request body for the admin send endpoint.
type SendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) errorMappings() []httputil.ErrorMapping {
	return []httputil.ErrorMapping{
		{Error: ErrPayslipNotFound, Status: http.StatusNotFound},
		{Error: ErrOwnerNotFound, Status: http.StatusNotFound},
		{Error: ErrEmptyUpload, Status: http.StatusBadRequest},
		{Error: notifications.ErrDeliveryFailed, Status: http.StatusBadGateway},
	}
}

// Create handles POST /payslips. Multipart form: file "file" plus
// "mount", "year" and "national_id" fields.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.limits.MaxFileSize); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	period := PeriodRequest{
		Mount: r.FormValue("mount"),
		Year:  r.FormValue("year"),
	}
	if err := h.validator.Struct(period); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	nationalID := r.FormValue("national_id")
	if nationalID == "" {
		httputil.Error(w, http.StatusBadRequest, "national_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	upload, err := readUpload(file, header, h.limits.MaxFileSize)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	payslip, err := h.service.Create(r.Context(), CreateInput{
		NationalID: nationalID,
		Period:     Period{Mount: period.Mount, Year: period.Year},
		File:       upload,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, h.errorMappings())
		return
	}

	httputil.Success(w, http.StatusCreated, payslip)
}

// CreateBatch handles POST /payslips/upload. Multipart form: files
// "files" plus shared "mount" and "year" fields. All-or-nothing: any
// unknown owner fails the whole batch.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	maxMemory := h.limits.MaxFileSize * int64(h.limits.MaxBatchSize)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	period := PeriodRequest{
		Mount: r.FormValue("mount"),
		Year:  r.FormValue("year"),
	}
	if err := h.validator.Struct(period); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) > h.limits.MaxBatchSize {
		httputil.Error(w, http.StatusBadRequest, "too many files in batch")
		return
	}

	files := make([]UploadFile, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "unreadable file in batch")
			return
		}
		upload, err := readUpload(file, header, h.limits.MaxFileSize)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		files = append(files, upload)
	}

	result, err := h.service.CreateBatch(r.Context(), files, Period{Mount: period.Mount, Year: period.Year})
	if err != nil {
		var batchErr *BatchOwnersError
		if errors.As(err, &batchErr) {
			httputil.JSON(w, http.StatusBadRequest, BatchResult{
				Created:       false,
				Message:       "some users were not found in the system",
				NotFoundUsers: batchErr.NotFound,
			})
			return
		}
		httputil.HandleError(r.Context(), w, err, h.errorMappings())
		return
	}

	httputil.Success(w, http.StatusCreated, result)
}

// List handles GET /payslips.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	payslips, err := h.service.FindAll(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, h.errorMappings())
		return
	}

	httputil.Success(w, http.StatusOK, payslips)
}

// Get handles GET /payslips/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	payslip, err := h.service.ResolveByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, h.errorMappings())
		return
	}

	httputil.Success(w, http.StatusOK, payslip)
}

// Delete handles DELETE /payslips/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, h.errorMappings())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Download handles GET /payslips/{id}/download.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	payslip, err := h.service.ResolveByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, h.errorMappings())
		return
	}

	h.writeEnvelope(w, r, BuildDownloadEnvelope(payslip))
}

// Send handles POST /payslips/{id}/send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if err := h.service.SendByID(r.Context(), chi.URLParam(r, "id"), req.Email); err != nil {
		httputil.HandleError(r.Context(), w, err, h.errorMappings())
		return
	}

	httputil.Success(w, http.StatusOK, map[string]string{"sent_to": req.Email})
}

// DownloadMine handles POST /payslips/download/me. The owner is the
// token subject, never request input.
func (h *Handler) DownloadMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := httputil.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	payslip, err := h.service.ResolveByOwnerKey(r.Context(), identity.ID, Period{Mount: req.Mount, Year: req.Year})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, h.errorMappings())
		return
	}

	h.writeEnvelope(w, r, BuildDownloadEnvelope(payslip))
}

// SendMine handles POST /payslips/send/me. The document goes to the
// email in the caller's verified token.
func (h *Handler) SendMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := httputil.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	err := h.service.SendToOwner(r.Context(), identity.ID, identity.Email, Period{Mount: req.Mount, Year: req.Year})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, h.errorMappings())
		return
	}

	httputil.Success(w, http.StatusOK, map[string]string{"sent_to": identity.Email})
}

func (h *Handler) writeEnvelope(w http.ResponseWriter, r *http.Request, envelope DownloadEnvelope) {
	w.Header().Set("Content-Type", envelope.ContentType)
	w.Header().Set("Content-Disposition", envelope.ContentDisposition)
	w.Header().Set("Content-Length", envelope.ContentLength)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(envelope.Data); err != nil {
		ctxlog.FromContext(r.Context()).Error("failed to write payslip payload", "error", err)
	}
}

func readUpload(file multipart.File, header *multipart.FileHeader, maxSize int64) (UploadFile, error) {
	defer func() { _ = file.Close() }()

	if header.Size > maxSize {
		return UploadFile{}, errors.New("file exceeds maximum size")
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return UploadFile{}, errors.New("unreadable file")
	}
	if int64(len(data)) > maxSize {
		return UploadFile{}, errors.New("file exceeds maximum size")
	}

	return UploadFile{Filename: header.Filename, Data: data}, nil
}
