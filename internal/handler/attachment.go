package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/medsport/attachments/internal/ctxkeys"
	"github.com/medsport/attachments/internal/model"
	"github.com/medsport/attachments/internal/service"
)

const (
	// multipartMemory is how much of an upload is buffered in memory before spilling to disk
	multipartMemory = 8 << 20
	// multipartOverhead allows for form fields and boundaries on top of the file cap
	multipartOverhead = 1 << 20
	maxJSONBody       = 1 << 20
)

type AttachmentHandler struct {
	attachmentService *service.AttachmentService
	maxUploadSize     int64
}

func NewAttachmentHandler(attachmentService *service.AttachmentService, maxUploadSize int64) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		maxUploadSize:     maxUploadSize,
	}
}

// Upload handles POST /attachments/upload (multipart: file, entity_type, entity_id,
// optional category, description, metadata, is_sensitive).
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeValidation(w, "file", "file too large")
			return
		}
		writeValidation(w, "", "request must be multipart/form-data")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidation(w, "file", "file is required")
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close uploaded file", "error", closeErr)
		}
	}()

	in := service.UploadInput{
		File:        file,
		Filename:    header.Filename,
		MimeType:    header.Header.Get("Content-Type"),
		Size:        header.Size,
		EntityType:  r.FormValue("entity_type"),
		EntityID:    r.FormValue("entity_id"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Metadata:    r.FormValue("metadata"),
		Actor:       ctxkeys.Actor(r.Context()),
	}

	if raw := r.FormValue("is_sensitive"); raw != "" {
		sensitive, err := strconv.ParseBool(raw)
		if err != nil {
			writeValidation(w, "is_sensitive", "is_sensitive must be a boolean")
			return
		}
		in.IsSensitive = &sensitive
	}

	a, err := h.attachmentService.Upload(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err, "")
		return
	}

	w.Header().Set("Location", "/attachments/"+a.ID)
	writeJSON(w, http.StatusCreated, toResponse(a))
}

// ListForEntity handles GET /attachments/entity/{entity_type}/{entity_id}?category=&include_deleted=
func (h *AttachmentHandler) ListForEntity(w http.ResponseWriter, r *http.Request) {
	includeDeleted := false
	if raw := r.URL.Query().Get("include_deleted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeValidation(w, "include_deleted", "include_deleted must be a boolean")
			return
		}
		includeDeleted = v
	}

	attachments, err := h.attachmentService.ListForEntity(r.Context(),
		r.PathValue("entity_type"),
		r.PathValue("entity_id"),
		r.URL.Query().Get("category"),
		includeDeleted,
	)
	if err != nil {
		handleServiceError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, toResponses(attachments))
}

// Get handles GET /attachments/{id}. Soft-deleted records are returned with is_deleted set.
func (h *AttachmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	a, err := h.attachmentService.ByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, id)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(a))
}

func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "attachment")
}

// View serves bytes inline. Cross-origin headers are added by the route's middleware.
func (h *AttachmentHandler) View(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "inline")
}

func (h *AttachmentHandler) serve(w http.ResponseWriter, r *http.Request, disposition string) {
	id := r.PathValue("id")

	a, obj, err := h.attachmentService.Open(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, id)
		return
	}
	defer obj.Close()

	header := w.Header()
	header.Set("Content-Type", a.MimeType)
	header.Set("Content-Disposition", contentDisposition(disposition, a.OriginalFilename))
	header.Set("Cache-Control", "private, no-cache")
	if a.SHA256 != nil {
		header.Set("ETag", `"`+*a.SHA256+`"`)
	}

	// Seekable backends get Range and conditional request support
	if rs, ok := obj.ReadCloser.(io.ReadSeeker); ok {
		http.ServeContent(w, r, "", obj.ModTime, rs)
		return
	}

	if obj.Size >= 0 {
		header.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	_, err = io.Copy(w, obj)
	if err != nil {
		slog.Warn("attachment stream interrupted", "error", err, "attachment_id", id)
	}
}

type updateRequest struct {
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Metadata    *json.RawMessage `json:"metadata"`
}

// Update handles PUT /attachments/{id}. Only category, description and metadata can change.
// metadata may be a JSON-encoded string or a JSON value; "" clears it.
func (h *AttachmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	err := dec.Decode(&req)
	if err != nil {
		writeValidation(w, "", "invalid JSON body: only category, description and metadata can be updated")
		return
	}

	in := service.UpdateInput{
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Metadata != nil {
		raw := strings.TrimSpace(string(*req.Metadata))
		var s string
		if json.Unmarshal(*req.Metadata, &s) == nil {
			raw = s
		}
		in.Metadata = &raw
	}

	a, err := h.attachmentService.Update(r.Context(), id, in)
	if err != nil {
		handleServiceError(w, r, err, id)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(a))
}

// SoftDelete handles DELETE /attachments/{id}/soft.
func (h *AttachmentHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	a, err := h.attachmentService.SoftDelete(r.Context(), id, ctxkeys.Actor(r.Context()))
	if err != nil {
		handleServiceError(w, r, err, id)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(a))
}

// HardDelete handles DELETE /attachments/{id}/hard.
func (h *AttachmentHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.attachmentService.HardDelete(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /attachments/{id}/restore.
func (h *AttachmentHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	a, err := h.attachmentService.Restore(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, id)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(a))
}

// Stats handles GET /attachments/stats?entity_type=&entity_id=
func (h *AttachmentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stats, err := h.attachmentService.Stats(r.Context(), q.Get("entity_type"), q.Get("entity_id"))
	if err != nil {
		handleServiceError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Verify handles GET /attachments/{id}/verify.
func (h *AttachmentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	res, err := h.attachmentService.Verify(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, id)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type vocabularyResponse struct {
	EntityTypes []model.EntityType `json:"entity_types"`
	Categories  []model.Category   `json:"categories"`
	MaxSize     int64              `json:"max_size"`
}

// Vocabulary handles GET /attachments/vocabulary.
func (h *AttachmentHandler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, vocabularyResponse{
		EntityTypes: model.EntityTypes,
		Categories:  model.Categories,
		MaxSize:     h.maxUploadSize,
	})
}
