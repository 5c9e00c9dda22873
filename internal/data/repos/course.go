package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/domain"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

// ErrVersionConflict is returned by versioned writes when the row changed after it was read.
var ErrVersionConflict = errors.New("record was modified concurrently")

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, course *domain.Course) (*domain.Course, error)
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Course, error)
	FindByTutor(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID) ([]*domain.CourseSummary, error)
	ListExcluding(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID) ([]*domain.Course, error)
	Save(ctx context.Context, tx *gorm.DB, course *domain.Course) (*domain.Course, error)
	UpdateMetadata(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields CourseMetadata) (*domain.Course, error)
	ListFailedTranscripts(ctx context.Context, tx *gorm.DB, onlyIDs []uuid.UUID, limit int) ([]FailedTranscripts, error)
}

// FailedTranscripts counts the videos of one course whose transcription failed.
type FailedTranscripts struct {
	CourseID uuid.UUID
	Failed   int
}

// CourseMetadata holds the optional top-level fields a tutor may edit; nil means unchanged.
type CourseMetadata struct {
	Title       *string
	Description *string
	Thumbnail   *string
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func (r *courseRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, course *domain.Course) (*domain.Course, error) {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	course.Version = 1
	if course.Videos == nil {
		course.Videos = []domain.Video{}
	}
	if course.Enrollments == nil {
		course.Enrollments = []domain.Enrollment{}
	}
	if course.ChatRoom == nil {
		course.ChatRoom = []domain.ChatMessage{}
	}
	if err := r.conn(tx).WithContext(ctx).Create(course).Error; err != nil {
		return nil, err
	}
	return course, nil
}

// FindByID returns (nil, nil) when the course does not exist.
func (r *courseRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	err := r.conn(tx).WithContext(ctx).First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) FindByTutor(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID) ([]*domain.CourseSummary, error) {
	var rows []*domain.Course
	if err := r.conn(tx).WithContext(ctx).
		Select("id", "title", "description", "thumbnail", "created_at", "videos").
		Where("tutor_id = ?", tutorID).
		Order("created_at desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.CourseSummary, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.Summary())
	}
	return out, nil
}

func (r *courseRepo) ListExcluding(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID) ([]*domain.Course, error) {
	q := r.conn(tx).WithContext(ctx).
		Select("id", "title", "description", "thumbnail", "tutor_id", "created_at").
		Order("created_at desc")
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	var rows []*domain.Course
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save writes the whole aggregate as one conditional row update. On success the
// passed course carries the new version.
func (r *courseRepo) Save(ctx context.Context, tx *gorm.DB, course *domain.Course) (*domain.Course, error) {
	now := time.Now().UTC()
	next := course.Version + 1
	res := r.conn(tx).WithContext(ctx).
		Model(&domain.Course{}).
		Where("id = ? AND version = ?", course.ID, course.Version).
		Updates(map[string]interface{}{
			"title":       course.Title,
			"description": course.Description,
			"thumbnail":   course.Thumbnail,
			"tutor_id":    course.TutorID,
			"videos":      course.Videos,
			"enrollments": course.Enrollments,
			"chat_room":   course.ChatRoom,
			"version":     next,
			"updated_at":  now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Warn("Course save lost a version race", "course_id", course.ID, "version", course.Version)
		return nil, ErrVersionConflict
	}
	course.Version = next
	course.UpdatedAt = now
	return course, nil
}

// UpdateMetadata returns (nil, nil) when the course does not exist.
func (r *courseRepo) UpdateMetadata(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields CourseMetadata) (*domain.Course, error) {
	updates := map[string]interface{}{
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now().UTC(),
	}
	if fields.Title != nil {
		updates["title"] = *fields.Title
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Thumbnail != nil {
		updates["thumbnail"] = *fields.Thumbnail
	}
	res := r.conn(tx).WithContext(ctx).Model(&domain.Course{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, tx, id)
}

// ListFailedTranscripts returns courses holding at least one failed transcript, oldest
// first. onlyIDs narrows the scan when non-empty; limit <= 0 means no limit.
func (r *courseRepo) ListFailedTranscripts(ctx context.Context, tx *gorm.DB, onlyIDs []uuid.UUID, limit int) ([]FailedTranscripts, error) {
	q := r.conn(tx).WithContext(ctx).Select("id", "videos").Order("created_at asc")
	if len(onlyIDs) > 0 {
		q = q.Where("id IN ?", onlyIDs)
	}
	var rows []*domain.Course
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	var out []FailedTranscripts
	for _, c := range rows {
		failed := 0
		for _, v := range c.Videos {
			if v.TranscriptStatus == domain.TranscriptStatusFailed {
				failed++
			}
		}
		if failed == 0 {
			continue
		}
		out = append(out, FailedTranscripts{CourseID: c.ID, Failed: failed})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
