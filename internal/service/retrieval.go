package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/medsport/attachments/internal/metrics"
	"github.com/medsport/attachments/internal/model"
	"github.com/medsport/attachments/internal/repository"
	"github.com/medsport/attachments/internal/storage"
)

// Open returns the record and its bytes for download or inline view.
// Soft-deleted attachments are Gone; an active record without bytes is ErrFileMissing.
func (s *AttachmentService) Open(ctx context.Context, id string) (*model.Attachment, *storage.Object, error) {
	a, err := s.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if a.IsDeleted() {
		return nil, nil, ErrAttachmentGone
	}

	obj, err := s.storage.Open(ctx, a.StoragePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		metrics.IntegrityWarningsTotal.WithLabelValues("file_missing").Inc()
		slog.Error("attachment file missing for active record",
			"attachment_id", a.ID,
			"storage_path", a.StoragePath,
		)
		return nil, nil, ErrFileMissing
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open attachment file: %w", err)
	}

	return a, obj, nil
}

// VerifyResult compares the recorded size and digest with the stored bytes.
type VerifyResult struct {
	ID             string `json:"id"`
	ExpectedSHA256 string `json:"expected_sha256,omitempty"`
	ActualSHA256   string `json:"actual_sha256"`
	ExpectedSize   int64  `json:"expected_size"`
	ActualSize     int64  `json:"actual_size"`
	Backfilled     bool   `json:"backfilled"` // Digest was absent and has now been recorded
	OK             bool   `json:"ok"`
}

// Verify rehashes the stored bytes of an attachment in any state.
// A record uploaded without a digest gets one recorded.
func (s *AttachmentService) Verify(ctx context.Context, id string) (*VerifyResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	a, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	digest, n, err := s.digest(ctx, a.StoragePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		metrics.IntegrityWarningsTotal.WithLabelValues("file_missing").Inc()
		return nil, ErrFileMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash attachment file: %w", err)
	}

	res := &VerifyResult{
		ID:           a.ID,
		ActualSHA256: digest,
		ExpectedSize: a.SizeBytes,
		ActualSize:   n,
	}

	if a.SHA256 == nil {
		a.SHA256 = &digest
		a.UpdatedAt = repository.Now()
		err = s.repo.UpdateDigest(ctx, a)
		if err != nil {
			return nil, s.mapWriteErr(err, "record digest of")
		}
		res.Backfilled = true
		res.ExpectedSHA256 = digest
	} else {
		res.ExpectedSHA256 = *a.SHA256
	}

	res.OK = res.ExpectedSHA256 == res.ActualSHA256 && res.ExpectedSize == res.ActualSize
	if !res.OK {
		metrics.IntegrityWarningsTotal.WithLabelValues("digest_mismatch").Inc()
		slog.Warn("attachment integrity mismatch",
			"attachment_id", a.ID,
			"expected_sha256", res.ExpectedSHA256,
			"actual_sha256", res.ActualSHA256,
			"expected_size", res.ExpectedSize,
			"actual_size", res.ActualSize,
		)
	}

	return res, nil
}
