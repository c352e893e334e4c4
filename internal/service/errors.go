package service

import (
	"errors"

	"github.com/medsport/attachments/internal/model"
	"github.com/medsport/attachments/internal/validation"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrAttachmentGone is returned for reads and edits of a soft-deleted attachment.
	ErrAttachmentGone = errors.New("attachment has been deleted")
	// ErrFileMissing means the record is active but its bytes are not in storage.
	ErrFileMissing            = errors.New("attachment file is missing from storage")
	ErrInvalidTransition      = model.ErrInvalidTransition
	ErrConcurrentModification = errors.New("attachment was modified concurrently, retry")
)

// ValidationError is returned for rejected input; nothing was written.
type ValidationError = validation.Error

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
