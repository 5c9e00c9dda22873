package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/data/repos"
)

var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrVideoNotFound       = errors.New("video not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email already registered")
	ErrAlreadyEnrolled     = errors.New("already enrolled in this course")
	ErrMediaDisabled       = errors.New("media upload is not configured")
	ErrTranscriptionOff    = errors.New("transcription disabled")
	ErrVersionConflict     = repos.ErrVersionConflict
	ErrParentMessageAbsent = fmt.Errorf("%w: parent message does not exist in this course", ErrInvalidInput)
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ReorderValidationError lists every reason a submitted order was rejected.
// Nothing is written when it is returned.
type ReorderValidationError struct {
	UnknownIDs   []uuid.UUID
	DuplicateIDs []uuid.UUID
	MissingIDs   []uuid.UUID
}

func (e *ReorderValidationError) Error() string {
	parts := make([]string, 0, 3)
	if len(e.UnknownIDs) > 0 {
		parts = append(parts, "unknown video ids: "+joinIDs(e.UnknownIDs))
	}
	if len(e.DuplicateIDs) > 0 {
		parts = append(parts, "duplicate video ids: "+joinIDs(e.DuplicateIDs))
	}
	if len(e.MissingIDs) > 0 {
		parts = append(parts, "missing video ids: "+joinIDs(e.MissingIDs))
	}
	if len(parts) == 0 {
		return "invalid video order"
	}
	return "invalid video order: " + strings.Join(parts, "; ")
}

func (e *ReorderValidationError) Is(target error) bool { return target == ErrInvalidInput }

// InvalidIDs is the union of unknown, duplicate and missing ids, in that order.
func (e *ReorderValidationError) InvalidIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(e.UnknownIDs)+len(e.DuplicateIDs)+len(e.MissingIDs))
	out = append(out, e.UnknownIDs...)
	out = append(out, e.DuplicateIDs...)
	out = append(out, e.MissingIDs...)
	return out
}

func (e *ReorderValidationError) empty() bool {
	return len(e.UnknownIDs) == 0 && len(e.DuplicateIDs) == 0 && len(e.MissingIDs) == 0
}

func joinIDs(ids []uuid.UUID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return strings.Join(s, ", ")
}
