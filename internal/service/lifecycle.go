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

// SoftDelete withdraws an active attachment. The record and its bytes are kept.
func (s *AttachmentService) SoftDelete(ctx context.Context, id, actor string) (*model.Attachment, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	a, err := s.transition(ctx, id, model.TransitionSoftDelete, func(a *model.Attachment) {
		now := repository.Now()
		a.DeletedAt = &now
		a.DeletedBy = nil
		if actor != "" {
			a.DeletedBy = &actor
		}
		a.UpdatedAt = now
	})
	if err != nil {
		return nil, err
	}

	slog.Info("attachment soft deleted", "attachment_id", id, "actor", actor)
	return a, nil
}

// Restore makes a soft-deleted attachment active again.
func (s *AttachmentService) Restore(ctx context.Context, id string) (*model.Attachment, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	a, err := s.transition(ctx, id, model.TransitionRestore, func(a *model.Attachment) {
		a.DeletedAt = nil
		a.DeletedBy = nil
		a.UpdatedAt = repository.Now()
	})
	if err != nil {
		return nil, err
	}

	slog.Info("attachment restored", "attachment_id", id)
	return a, nil
}

// transition loads the record, checks the state machine, applies mutate and
// writes the lifecycle fields back under a version check. Callers hold the id lock.
func (s *AttachmentService) transition(ctx context.Context, id string, t model.Transition, mutate func(a *model.Attachment)) (*model.Attachment, error) {
	a, err := s.ByID(ctx, id)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(t), "not_found").Inc()
		return nil, err
	}

	next, err := a.Status.Next(t)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(t), "conflict").Inc()
		return nil, err
	}

	a.Status = next
	mutate(a)

	err = s.repo.UpdateLifecycle(ctx, a)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(t), "error").Inc()
		return nil, s.mapWriteErr(err, string(t))
	}

	metrics.TransitionsTotal.WithLabelValues(string(t), "ok").Inc()
	return a, nil
}

// HardDelete removes the bytes and then the record. A file that is already
// gone is logged and tolerated; any other storage failure keeps the record.
func (s *AttachmentService) HardDelete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	t := model.TransitionHardDelete

	a, err := s.ByID(ctx, id)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(t), "not_found").Inc()
		return err
	}

	_, err = a.Status.Next(t)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(t), "conflict").Inc()
		return err
	}

	err = s.storage.Delete(ctx, a.StoragePath)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		metrics.IntegrityWarningsTotal.WithLabelValues("file_missing").Inc()
		slog.Warn("attachment file already missing during hard delete",
			"attachment_id", a.ID,
			"storage_path", a.StoragePath,
		)
	case err != nil:
		metrics.TransitionsTotal.WithLabelValues(string(t), "error").Inc()
		return fmt.Errorf("failed to delete file from storage: %w", err)
	}

	err = s.repo.Delete(ctx, a.ID, a.Version)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(t), "error").Inc()
		return s.mapWriteErr(err, "delete")
	}

	metrics.TransitionsTotal.WithLabelValues(string(t), "ok").Inc()
	slog.Info("attachment purged", "attachment_id", a.ID)
	return nil
}
