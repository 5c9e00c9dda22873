package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/data/repos"
	"github.com/yungbote/coursecast-backend/internal/domain"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

const (
	maxCourseTitleLen       = 100
	maxCourseDescriptionLen = 500
)

type CreateCourseInput struct {
	Title       string
	Description string
	Thumbnail   string
}

// UpdateMetadataInput fields are optional; nil or empty means unchanged.
type UpdateMetadataInput struct {
	Title       *string
	Description *string
	Thumbnail   *string
}

type CourseService interface {
	CreateCourse(ctx context.Context, tutorID uuid.UUID, in CreateCourseInput) (*domain.Course, error)
	UpdateMetadata(ctx context.Context, tutorID, courseID uuid.UUID, in UpdateMetadataInput) (*domain.Course, error)
	ListMine(ctx context.Context, tutorID uuid.UUID) ([]*domain.CourseSummary, error)
	GetCourse(ctx context.Context, callerID uuid.UUID, role domain.Role, courseID uuid.UUID) (*domain.Course, error)
}

type courseService struct {
	log        *logger.Logger
	courseRepo repos.CourseRepo
	cache      repos.CourseCache
	writer     *courseWriter
}

func NewCourseService(baseLog *logger.Logger, courseRepo repos.CourseRepo, cache repos.CourseCache) CourseService {
	serviceLog := baseLog.With("service", "CourseService")
	if cache == nil {
		cache = repos.NewNoopCourseCache()
	}
	return &courseService{
		log:        serviceLog,
		courseRepo: courseRepo,
		cache:      cache,
		writer:     &courseWriter{log: serviceLog, courseRepo: courseRepo, cache: cache},
	}
}

func validateCourseFields(title, description, thumbnail string) error {
	if title == "" || description == "" || thumbnail == "" {
		return invalidf("title, description and thumbnail are required")
	}
	return validateCourseLengths(title, description)
}

func validateCourseLengths(title, description string) error {
	if utf8.RuneCountInString(title) > maxCourseTitleLen {
		return invalidf("title must be at most %d characters", maxCourseTitleLen)
	}
	if utf8.RuneCountInString(description) > maxCourseDescriptionLen {
		return invalidf("description must be at most %d characters", maxCourseDescriptionLen)
	}
	return nil
}

func (cs *courseService) CreateCourse(ctx context.Context, tutorID uuid.UUID, in CreateCourseInput) (*domain.Course, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	thumbnail := strings.TrimSpace(in.Thumbnail)
	if err := validateCourseFields(title, description, thumbnail); err != nil {
		return nil, err
	}
	course, err := cs.courseRepo.Create(ctx, nil, &domain.Course{
		Title:       title,
		Description: description,
		Thumbnail:   thumbnail,
		TutorID:     tutorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	cs.log.Info("Course created", "course_id", course.ID, "tutor_id", tutorID)
	return course, nil
}

func (cs *courseService) UpdateMetadata(ctx context.Context, tutorID, courseID uuid.UUID, in UpdateMetadataInput) (*domain.Course, error) {
	fields := repos.CourseMetadata{
		Title:       nonEmpty(in.Title),
		Description: nonEmpty(in.Description),
		Thumbnail:   nonEmpty(in.Thumbnail),
	}
	var title, description string
	if fields.Title != nil {
		title = *fields.Title
	}
	if fields.Description != nil {
		description = *fields.Description
	}
	if err := validateCourseLengths(title, description); err != nil {
		return nil, err
	}

	current, err := cs.writer.loadOwned(ctx, courseID, tutorID)
	if err != nil {
		return nil, err
	}
	if fields.Title == nil && fields.Description == nil && fields.Thumbnail == nil {
		return current, nil
	}

	course, err := cs.courseRepo.UpdateMetadata(ctx, nil, courseID, fields)
	if err != nil {
		return nil, fmt.Errorf("update course metadata: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	cs.cache.Invalidate(ctx, courseID, course.Version)
	return course, nil
}

func (cs *courseService) ListMine(ctx context.Context, tutorID uuid.UUID) ([]*domain.CourseSummary, error) {
	rows, err := cs.courseRepo.FindByTutor(ctx, nil, tutorID)
	if err != nil {
		return nil, fmt.Errorf("list tutor courses: %w", err)
	}
	return rows, nil
}

// GetCourse returns the full aggregate to the owning tutor or an enrolled student.
func (cs *courseService) GetCourse(ctx context.Context, callerID uuid.UUID, role domain.Role, courseID uuid.UUID) (*domain.Course, error) {
	course, err := cs.writer.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	switch {
	case role == domain.RoleTutor && course.TutorID == callerID:
	case role == domain.RoleStudent && course.IsEnrolled(callerID):
	default:
		return nil, ErrForbidden
	}
	return course, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
