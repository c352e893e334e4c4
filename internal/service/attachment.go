package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/medsport/attachments/internal/metrics"
	"github.com/medsport/attachments/internal/model"
	"github.com/medsport/attachments/internal/repository"
	"github.com/medsport/attachments/internal/storage"
	"github.com/medsport/attachments/internal/validation"
)

// UploadInput is one incoming file plus its association metadata.
type UploadInput struct {
	File        io.Reader
	Filename    string // Original client file name
	MimeType    string // Declared content type
	Size        int64  // Declared size, -1 if unknown
	EntityType  string
	EntityID    string
	Category    string
	Description string
	Metadata    string // JSON document, parsed and validated
	IsSensitive *bool  // Defaults to true
	Actor       string // Empty for anonymous or system uploads
}

// UpdateInput carries the mutable fields; nil fields are left unchanged.
type UpdateInput struct {
	Category    *string
	Description *string
	Metadata    *string
}

type AttachmentService struct {
	repo        repository.AttachmentRepository
	storage     storage.Storage
	constraints validation.UploadConstraints
	prefix      string // Purpose directory, e.g. "attachments"
	locks       *keyedMutex
}

func NewAttachmentService(repo repository.AttachmentRepository, storage storage.Storage, constraints validation.UploadConstraints, prefix string) *AttachmentService {
	return &AttachmentService{
		repo:        repo,
		storage:     storage,
		constraints: constraints,
		prefix:      prefix,
		locks:       newKeyedMutex(),
	}
}

// Upload validates, stores, hashes and records a file. It either fully succeeds
// or leaves neither bytes nor a record behind.
func (s *AttachmentService) Upload(ctx context.Context, in UploadInput) (*model.Attachment, error) {
	a, err := s.prepare(in)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// Enforce the cap on the stream too: the declared size may be absent or wrong
	limited := io.LimitReader(in.File, s.constraints.MaxSize+1)
	size, err := s.storage.Save(ctx, a.StoragePath, limited)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("upload aborted: %w", ctxErr)
		}
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	if size > s.constraints.MaxSize {
		s.discard(a.StoragePath)
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, s.constraints.TooLarge()
	}
	if size == 0 {
		s.discard(a.StoragePath)
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, &ValidationError{Field: "file", Message: "file is empty"}
	}
	a.SizeBytes = size

	digest, _, err := s.digest(ctx, a.StoragePath)
	if err != nil {
		metrics.IntegrityWarningsTotal.WithLabelValues("hash_failed").Inc()
		slog.Warn("failed to hash attachment, storing without digest",
			"error", err,
			"attachment_id", a.ID,
			"storage_path", a.StoragePath,
		)
	} else {
		a.SHA256 = &digest
	}

	// The client went away after the bytes landed: treat as failed, not half-created
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.discard(a.StoragePath)
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("upload aborted: %w", ctxErr)
	}

	err = s.repo.Create(ctx, a)
	if err != nil {
		s.discard(a.StoragePath)
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to create attachment record: %w", err)
	}

	metrics.UploadsTotal.WithLabelValues("created").Inc()
	metrics.UploadedBytesTotal.Add(float64(a.SizeBytes))
	slog.Info("attachment uploaded",
		"attachment_id", a.ID,
		"entity_type", a.EntityType,
		"entity_id", a.EntityID,
		"category", a.Category,
		"size_bytes", a.SizeBytes,
	)

	return a, nil
}

// prepare runs every check that must pass before anything touches disk or database.
func (s *AttachmentService) prepare(in UploadInput) (*model.Attachment, error) {
	if in.File == nil {
		return nil, &ValidationError{Field: "file", Message: "file is required"}
	}

	entityType, err := validation.EntityRef(in.EntityType, in.EntityID)
	if err != nil {
		return nil, err
	}

	category, err := validation.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}

	mimeType := validation.NormalizeMimeType(in.MimeType)
	err = s.constraints.CheckFile(in.Filename, mimeType, in.Size)
	if err != nil {
		return nil, err
	}

	metadata, err := validation.ParseMetadata(in.Metadata)
	if err != nil {
		return nil, err
	}

	now := repository.Now()
	id := uuid.New().String()
	filename := storageName(now, in.Filename)

	a := &model.Attachment{
		ID:               id,
		EntityType:       entityType,
		EntityID:         strings.TrimSpace(in.EntityID),
		Category:         category,
		Filename:         filename,
		OriginalFilename: filepath.Base(in.Filename),
		MimeType:         mimeType,
		StoragePath:      path.Join(s.prefix, filename),
		URL:              "/attachments/" + id + "/view",
		Metadata:         metadata,
		IsSensitive:      true,
		Status:           model.StateActive,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.IsSensitive != nil {
		a.IsSensitive = *in.IsSensitive
	}
	if in.Actor != "" {
		a.UploadedBy = &in.Actor
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		a.Description = &d
	}

	return a, nil
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// storageName builds <unix-nanos>-<random>.<ext>; the extension is kept only if it is plain.
func storageName(now time.Time, original string) string {
	random := strings.ReplaceAll(uuid.New().String(), "-", "")
	ext := strings.ToLower(filepath.Ext(original))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", now.UnixNano(), random, ext)
}

// discard is the compensating delete for a failed upload. It must run even
// when the request context is already cancelled.
func (s *AttachmentService) discard(storagePath string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.storage.Delete(ctx, storagePath)
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		slog.Error("failed to delete file from storage during cleanup", "error", err, "path", storagePath)
	}
}

// digest reads the stored object back and returns its SHA-256 and byte count.
func (s *AttachmentService) digest(ctx context.Context, storagePath string) (string, int64, error) {
	obj, err := s.storage.Open(ctx, storagePath)
	if err != nil {
		return "", 0, err
	}
	defer obj.Close()

	hasher := sha256.New()
	n, err := io.Copy(hasher, obj)
	if err != nil {
		return "", n, fmt.Errorf("failed to read %s: %w", storagePath, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

// ByID returns the attachment in any stored state.
func (s *AttachmentService) ByID(ctx context.Context, id string) (*model.Attachment, error) {
	a, err := s.repo.ByID(ctx, id)
	if errors.Is(err, repository.ErrAttachmentNotFound) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return a, nil
}

// ListForEntity returns the entity's attachments newest first.
func (s *AttachmentService) ListForEntity(ctx context.Context, entityType, entityID, category string, includeDeleted bool) ([]*model.Attachment, error) {
	et, err := validation.EntityRef(entityType, entityID)
	if err != nil {
		return nil, err
	}

	filter := repository.ListFilter{
		EntityType:     et,
		EntityID:       entityID,
		IncludeDeleted: includeDeleted,
	}
	if category != "" {
		filter.Category, err = validation.ParseCategory(category)
		if err != nil {
			return nil, err
		}
	}

	attachments, err := s.repo.ListForEntity(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

// Update changes category, description and metadata of an active attachment.
func (s *AttachmentService) Update(ctx context.Context, id string, in UpdateInput) (*model.Attachment, error) {
	var (
		category model.Category
		metadata types.NullJSONText
		err      error
	)
	if in.Category != nil {
		category, err = validation.ParseCategory(*in.Category)
		if err != nil {
			return nil, err
		}
	}
	if in.Metadata != nil {
		metadata, err = validation.ParseMetadata(*in.Metadata)
		if err != nil {
			return nil, err
		}
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	a, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsDeleted() {
		return nil, ErrAttachmentGone
	}

	if in.Category != nil {
		a.Category = category
	}
	if in.Description != nil {
		a.Description = nil
		if d := strings.TrimSpace(*in.Description); d != "" {
			a.Description = &d
		}
	}
	if in.Metadata != nil {
		a.Metadata = metadata
	}
	a.UpdatedAt = repository.Now()

	err = s.repo.UpdateDetails(ctx, a)
	if err != nil {
		return nil, s.mapWriteErr(err, "update")
	}

	return a, nil
}

// mapWriteErr translates repository compare-and-swap failures.
func (s *AttachmentService) mapWriteErr(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrAttachmentNotFound):
		return ErrAttachmentNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrConcurrentModification
	default:
		return fmt.Errorf("failed to %s attachment: %w", op, err)
	}
}

// IDs lists every stored attachment id regardless of state.
func (s *AttachmentService) IDs(ctx context.Context) ([]string, error) {
	return s.repo.IDs(ctx)
}

// Stats aggregates active attachments by category within the optional scope.
func (s *AttachmentService) Stats(ctx context.Context, entityType, entityID string) (*model.Stats, error) {
	scope := model.Scope{EntityID: strings.TrimSpace(entityID)}
	if entityType != "" {
		et := model.EntityType(entityType)
		if !et.Valid() {
			return nil, &ValidationError{Field: "entity_type", Message: fmt.Sprintf("unknown entity type %q", entityType)}
		}
		scope.EntityType = et
	}

	byCategory, err := s.repo.Stats(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to compute attachment stats: %w", err)
	}

	stats := &model.Stats{ByCategory: byCategory}
	for _, c := range byCategory {
		stats.Total += c.Count
		stats.TotalSize += c.TotalSizeBytes
	}
	return stats, nil
}
