package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/medsport/attachments/internal/model"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrVersionConflict means the row changed since it was read.
	ErrVersionConflict = errors.New("attachment was modified concurrently")
)

// ListFilter selects attachments of one entity.
type ListFilter struct {
	EntityType     model.EntityType
	EntityID       string
	Category       model.Category // Empty = any category
	IncludeDeleted bool
}

type AttachmentRepository interface {
	Create(ctx context.Context, a *model.Attachment) error
	ByID(ctx context.Context, id string) (*model.Attachment, error)
	ListForEntity(ctx context.Context, f ListFilter) ([]*model.Attachment, error)
	IDs(ctx context.Context) ([]string, error)
	UpdateDetails(ctx context.Context, a *model.Attachment) error
	UpdateLifecycle(ctx context.Context, a *model.Attachment) error
	UpdateDigest(ctx context.Context, a *model.Attachment) error
	Delete(ctx context.Context, id string, version int64) error
	Stats(ctx context.Context, scope model.Scope) ([]model.CategoryStats, error)
}

type attachmentRepository struct {
	db *sqlx.DB
}

func NewAttachmentRepository(db *sqlx.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, a *model.Attachment) error {
	query := `INSERT INTO attachments (id, entity_type, entity_id, category, filename, original_filename, mime_type,
	          storage_path, url, size_bytes, sha256, uploaded_by, description, metadata, is_sensitive, status,
	          deleted_at, deleted_by, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.EntityType,
		a.EntityID,
		a.Category,
		a.Filename,
		a.OriginalFilename,
		a.MimeType,
		a.StoragePath,
		a.URL,
		a.SizeBytes,
		a.SHA256,
		a.UploadedBy,
		a.Description,
		a.Metadata,
		a.IsSensitive,
		a.Status,
		a.DeletedAt,
		a.DeletedBy,
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)

	return err
}

func (r *attachmentRepository) ByID(ctx context.Context, id string) (*model.Attachment, error) {
	a := &model.Attachment{}
	query := `SELECT * FROM attachments WHERE id = $1`

	err := r.db.GetContext(ctx, a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (r *attachmentRepository) ListForEntity(ctx context.Context, f ListFilter) ([]*model.Attachment, error) {
	conditions := []string{"entity_type = $1", "entity_id = $2"}
	args := []any{f.EntityType, f.EntityID}

	if f.Category != "" {
		args = append(args, f.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if !f.IncludeDeleted {
		args = append(args, model.StateActive)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT * FROM attachments WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY created_at DESC, id DESC`

	attachments := []*model.Attachment{}
	err := r.db.SelectContext(ctx, &attachments, query, args...)
	if err != nil {
		return nil, err
	}

	return attachments, nil
}

// IDs returns every stored attachment id, oldest first.
func (r *attachmentRepository) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM attachments ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateDetails writes the mutable descriptive fields if a.Version is still current.
func (r *attachmentRepository) UpdateDetails(ctx context.Context, a *model.Attachment) error {
	query := `UPDATE attachments SET category = $1, description = $2, metadata = $3, updated_at = $4, version = version + 1
	          WHERE id = $5 AND version = $6`

	return r.compareAndSwap(ctx, a, query,
		a.Category,
		a.Description,
		a.Metadata,
		a.UpdatedAt,
		a.ID,
		a.Version,
	)
}

// UpdateLifecycle writes status, deleted_at and deleted_by together if a.Version is still current.
func (r *attachmentRepository) UpdateLifecycle(ctx context.Context, a *model.Attachment) error {
	query := `UPDATE attachments SET status = $1, deleted_at = $2, deleted_by = $3, updated_at = $4, version = version + 1
	          WHERE id = $5 AND version = $6`

	return r.compareAndSwap(ctx, a, query,
		a.Status,
		a.DeletedAt,
		a.DeletedBy,
		a.UpdatedAt,
		a.ID,
		a.Version,
	)
}

func (r *attachmentRepository) UpdateDigest(ctx context.Context, a *model.Attachment) error {
	query := `UPDATE attachments SET sha256 = $1, updated_at = $2, version = version + 1
	          WHERE id = $3 AND version = $4`

	return r.compareAndSwap(ctx, a, query,
		a.SHA256,
		a.UpdatedAt,
		a.ID,
		a.Version,
	)
}

func (r *attachmentRepository) compareAndSwap(ctx context.Context, a *model.Attachment, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	err = r.checkSwapped(ctx, res, a.ID)
	if err != nil {
		return err
	}

	a.Version++
	return nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id string, version int64) error {
	query := `DELETE FROM attachments WHERE id = $1 AND version = $2`

	res, err := r.db.ExecContext(ctx, query, id, version)
	if err != nil {
		return err
	}

	return r.checkSwapped(ctx, res, id)
}

// checkSwapped tells a lost race (row still there) apart from a missing row.
func (r *attachmentRepository) checkSwapped(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = r.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrAttachmentNotFound
	}
	return ErrVersionConflict
}

// Stats groups non-deleted attachments by category. Empty scope fields are not filtered.
func (r *attachmentRepository) Stats(ctx context.Context, scope model.Scope) ([]model.CategoryStats, error) {
	conditions := []string{"status = $1"}
	args := []any{model.StateActive}

	if scope.EntityType != "" {
		args = append(args, scope.EntityType)
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if scope.EntityID != "" {
		args = append(args, scope.EntityID)
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", len(args)))
	}

	query := `SELECT category, COUNT(*) AS count, CAST(COALESCE(SUM(size_bytes), 0) AS BIGINT) AS total_size_bytes
	          FROM attachments WHERE ` + strings.Join(conditions, " AND ") + `
	          GROUP BY category ORDER BY category`

	stats := []model.CategoryStats{}
	err := r.db.SelectContext(ctx, &stats, query, args...)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Now returns the current time at the precision shared by sqlite and postgres.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
