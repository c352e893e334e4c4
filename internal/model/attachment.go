package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type Attachment struct {
	ID               string             `db:"id"`
	EntityType       EntityType         `db:"entity_type"` // Polymorphic type tag
	EntityID         string             `db:"entity_id"`   // Polymorphic FK, never joined
	Category         Category           `db:"category"`
	Filename         string             `db:"filename"` // Generated storage name
	OriginalFilename string             `db:"original_filename"`
	MimeType         string             `db:"mime_type"`
	StoragePath      string             `db:"storage_path"` // Internal, never exposed
	URL              string             `db:"url"`
	SizeBytes        int64              `db:"size_bytes"`
	SHA256           *string            `db:"sha256"` // Nil when hashing failed
	UploadedBy       *string            `db:"uploaded_by"`
	Description      *string            `db:"description"`
	Metadata         types.NullJSONText `db:"metadata"`
	IsSensitive      bool               `db:"is_sensitive"`
	Status           State              `db:"status"`
	DeletedAt        *time.Time         `db:"deleted_at"`
	DeletedBy        *string            `db:"deleted_by"`
	Version          int64              `db:"version"` // Bumped on every write, used for compare-and-swap
	CreatedAt        time.Time          `db:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at"`
}

func (a *Attachment) IsDeleted() bool {
	return a.Status == StateSoftDeleted
}

// Scope narrows list and stats queries. Empty fields are unconstrained.
type Scope struct {
	EntityType EntityType
	EntityID   string
}

// CategoryStats aggregates non-deleted attachments of one category.
type CategoryStats struct {
	Category       Category `db:"category" json:"category"`
	Count          int64    `db:"count" json:"count"`
	TotalSizeBytes int64    `db:"total_size_bytes" json:"total_size_bytes"`
}

type Stats struct {
	ByCategory []CategoryStats `json:"by_category"`
	Total      int64           `json:"total"`
	TotalSize  int64           `json:"total_size"`
}
