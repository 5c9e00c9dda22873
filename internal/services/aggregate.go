package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/data/repos"
	"github.com/yungbote/coursecast-backend/internal/domain"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

const maxSaveAttempts = 3

// courseWriter applies a change to a fresh copy of the aggregate and saves it under
// the version it was read at, reloading and reapplying when another writer got there first.
type courseWriter struct {
	log        *logger.Logger
	courseRepo repos.CourseRepo
	cache      repos.CourseCache
}

func (w *courseWriter) load(ctx context.Context, courseID uuid.UUID) (*domain.Course, error) {
	course, err := w.courseRepo.FindByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (w *courseWriter) loadOwned(ctx context.Context, courseID, tutorID uuid.UUID) (*domain.Course, error) {
	course, err := w.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TutorID != tutorID {
		return nil, ErrForbidden
	}
	return course, nil
}

// mutate returns whatever error apply returns without writing anything.
func (w *courseWriter) mutate(
	ctx context.Context,
	courseID uuid.UUID,
	authorize func(c *domain.Course) error,
	apply func(c *domain.Course) error,
) (*domain.Course, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		current, err := w.load(ctx, courseID)
		if err != nil {
			return nil, err
		}
		if authorize != nil {
			if err := authorize(current); err != nil {
				return nil, err
			}
		}
		candidate := current.Clone()
		if err := apply(candidate); err != nil {
			return nil, err
		}
		saved, err := w.courseRepo.Save(ctx, nil, candidate)
		if errors.Is(err, repos.ErrVersionConflict) {
			w.log.Debug("Course changed underneath write, retrying", "course_id", courseID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save course: %w", err)
		}
		w.cache.Invalidate(ctx, courseID, saved.Version)
		return saved, nil
	}
	return nil, ErrVersionConflict
}

func ownedBy(tutorID uuid.UUID) func(c *domain.Course) error {
	return func(c *domain.Course) error {
		if c.TutorID != tutorID {
			return ErrForbidden
		}
		return nil
	}
}
