package validation

import (
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/jmoiron/sqlx/types"
	"github.com/medsport/attachments/internal/model"
)

// Error is a rejected upload or update. Nothing has been written when it is returned.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UploadConstraints defines validation rules for attachment uploads
type UploadConstraints struct {
	AllowedMimeTypes map[string]bool
	MaxSize          int64
}

// NewUploadConstraints builds constraints from configuration values.
func NewUploadConstraints(allowedMimeTypes []string, maxSize int64) UploadConstraints {
	allowed := make(map[string]bool, len(allowedMimeTypes))
	for _, mt := range allowedMimeTypes {
		allowed[strings.ToLower(strings.TrimSpace(mt))] = true
	}
	return UploadConstraints{
		AllowedMimeTypes: allowed,
		MaxSize:          maxSize,
	}
}

// NormalizeMimeType lowercases a declared content type and drops its parameters.
func NormalizeMimeType(declared string) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(declared))
	}
	return mediaType
}

// CheckFile validates the declared content type and size of an upload.
// size < 0 means the size is unknown up front and is enforced while streaming.
func (c UploadConstraints) CheckFile(filename, mimeType string, size int64) error {
	if filename == "" {
		return invalid("file", "file is required")
	}
	if size == 0 {
		return invalid("file", "file is empty")
	}
	if !c.AllowedMimeTypes[mimeType] {
		return invalid("mime_type", "file type %q is not allowed", mimeType)
	}
	if size > c.MaxSize {
		return c.TooLarge()
	}
	return nil
}

// TooLarge is the error for uploads over the size cap.
func (c UploadConstraints) TooLarge() error {
	maxMB := float64(c.MaxSize) / (1 << 20)
	return invalid("file", "file too large: maximum size is %.0f MB", maxMB)
}

// EntityRef validates the polymorphic association pair.
func EntityRef(entityType, entityID string) (model.EntityType, error) {
	if entityType == "" {
		return "", invalid("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(entityID) == "" {
		return "", invalid("entity_id", "entity_id is required")
	}
	et := model.EntityType(entityType)
	if !et.Valid() {
		return "", invalid("entity_type", "unknown entity type %q", entityType)
	}
	return et, nil
}

// ParseCategory returns the default category for an empty value.
func ParseCategory(category string) (model.Category, error) {
	if category == "" {
		return model.CategoryGeneral, nil
	}
	c := model.Category(category)
	if !c.Valid() {
		return "", invalid("category", "unknown category %q", category)
	}
	return c, nil
}

// ParseMetadata parses a caller supplied JSON document. An empty string means no metadata.
func ParseMetadata(raw string) (types.NullJSONText, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.NullJSONText{}, nil
	}
	if !json.Valid([]byte(raw)) {
		return types.NullJSONText{}, invalid("metadata", "metadata is not valid JSON")
	}
	return types.NullJSONText{JSONText: types.JSONText(raw), Valid: true}, nil
}
