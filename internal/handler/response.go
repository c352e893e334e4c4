package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/medsport/attachments/internal/model"
	"github.com/medsport/attachments/internal/service"
)

// Error codes of the JSON error envelope.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeFileMissing     = "FILE_MISSING"
	CodeGone            = "GONE"
	CodeConflict        = "CONFLICT"
	CodeUnavailable     = "UNAVAILABLE"
	CodeInternalError   = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeValidation(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
		Code:    CodeValidationError,
		Message: message,
		Field:   field,
	}})
}

// handleServiceError maps service errors onto HTTP statuses. Unclassified errors are logged and hidden.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, id string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr.Field, verr.Message)
	case errors.Is(err, service.ErrAttachmentNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "attachment not found")
	case errors.Is(err, service.ErrFileMissing):
		writeError(w, http.StatusNotFound, CodeFileMissing, "attachment file not found in storage")
	case errors.Is(err, service.ErrAttachmentGone):
		writeError(w, http.StatusGone, CodeGone, "attachment has been deleted")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, service.ErrConcurrentModification):
		writeError(w, http.StatusConflict, CodeConflict, "attachment was modified concurrently, retry")
	case errors.Is(err, context.Canceled):
		slog.Warn("request cancelled", "path", r.URL.Path, "attachment_id", id)
		writeError(w, http.StatusServiceUnavailable, CodeUnavailable, "request was cancelled")
	default:
		slog.Error("attachment operation failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"attachment_id", id,
		)
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
	}
}

// attachmentResponse is the client view of an attachment. storage_path is never exposed.
type attachmentResponse struct {
	ID               string          `json:"id"`
	EntityType       string          `json:"entity_type"`
	EntityID         string          `json:"entity_id"`
	Category         string          `json:"category"`
	Filename         string          `json:"filename"`
	OriginalFilename string          `json:"original_filename"`
	MimeType         string          `json:"mime_type"`
	URL              string          `json:"url"`
	DownloadURL      string          `json:"download_url"`
	SizeBytes        int64           `json:"size_bytes"`
	SHA256           *string         `json:"sha256"`
	UploadedBy       *string         `json:"uploaded_by"`
	Description      *string         `json:"description"`
	Metadata         json.RawMessage `json:"metadata"`
	IsSensitive      bool            `json:"is_sensitive"`
	Status           model.State     `json:"status"`
	IsDeleted        bool            `json:"is_deleted"`
	DeletedAt        *time.Time      `json:"deleted_at"`
	DeletedBy        *string         `json:"deleted_by"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func toResponse(a *model.Attachment) attachmentResponse {
	resp := attachmentResponse{
		ID:               a.ID,
		EntityType:       string(a.EntityType),
		EntityID:         a.EntityID,
		Category:         string(a.Category),
		Filename:         a.Filename,
		OriginalFilename: a.OriginalFilename,
		MimeType:         a.MimeType,
		URL:              a.URL,
		DownloadURL:      "/attachments/" + a.ID + "/download",
		SizeBytes:        a.SizeBytes,
		SHA256:           a.SHA256,
		UploadedBy:       a.UploadedBy,
		Description:      a.Description,
		IsSensitive:      a.IsSensitive,
		Status:           a.Status,
		IsDeleted:        a.IsDeleted(),
		DeletedAt:        a.DeletedAt,
		DeletedBy:        a.DeletedBy,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.Metadata.Valid {
		resp.Metadata = json.RawMessage(a.Metadata.JSONText)
	}
	return resp
}

func toResponses(as []*model.Attachment) []attachmentResponse {
	out := make([]attachmentResponse, 0, len(as))
	for _, a := range as {
		out = append(out, toResponse(a))
	}
	return out
}

// NotFound answers every unrouted path with the JSON error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, CodeNotFound, "no route for "+r.Method+" "+r.URL.Path)
}
