package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/data/repos"
	"github.com/yungbote/coursecast-backend/internal/domain"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

type TutorRef struct {
	ID    uuid.UUID `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

type AvailableCourse struct {
	ID          uuid.UUID `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	CreatedAt   time.Time `json:"createdAt"`
	Tutor       *TutorRef `json:"tutor"`
	IsEnrolled  bool      `json:"isEnrolled"`
}

type CourseDetailVideo struct {
	ID    uuid.UUID `json:"_id"`
	Title string    `json:"title"`
	Order int       `json:"order"`
}

// CourseDetails is the public view of a course shown before enrolling.
type CourseDetails struct {
	ID          uuid.UUID           `json:"_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Thumbnail   string              `json:"thumbnail"`
	CreatedAt   time.Time           `json:"createdAt"`
	Enrollments int                 `json:"enrollments"`
	Tutor       *TutorRef           `json:"tutor"`
	Videos      []CourseDetailVideo `json:"videos"`
}

type EnrollmentService interface {
	AvailableCourses(ctx context.Context, studentID uuid.UUID) ([]*AvailableCourse, error)
	CourseDetails(ctx context.Context, courseID uuid.UUID) (*CourseDetails, error)
	Enroll(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Course, error)
}

type enrollmentService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
	userRepo   repos.UserRepo
	cache      repos.CourseCache
	now        func() time.Time
}

func NewEnrollmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	userRepo repos.UserRepo,
	cache repos.CourseCache,
) EnrollmentService {
	if cache == nil {
		cache = repos.NewNoopCourseCache()
	}
	return &enrollmentService{
		db:         db,
		log:        baseLog.With("service", "EnrollmentService"),
		courseRepo: courseRepo,
		userRepo:   userRepo,
		cache:      cache,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (es *enrollmentService) loadStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*domain.User, error) {
	users, err := es.userRepo.GetByIDs(ctx, tx, []uuid.UUID{studentID})
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if len(users) == 0 || users[0] == nil {
		return nil, ErrUnauthorized
	}
	if !users[0].IsStudent() {
		return nil, ErrForbidden
	}
	return users[0], nil
}

func (es *enrollmentService) tutorRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*TutorRef, error) {
	users, err := es.userRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load tutors: %w", err)
	}
	out := make(map[uuid.UUID]*TutorRef, len(users))
	for _, u := range users {
		out[u.ID] = &TutorRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out, nil
}

func (es *enrollmentService) AvailableCourses(ctx context.Context, studentID uuid.UUID) ([]*AvailableCourse, error) {
	student, err := es.loadStudent(ctx, nil, studentID)
	if err != nil {
		return nil, err
	}
	courses, err := es.courseRepo.ListExcluding(ctx, nil, student.EnrolledCourses)
	if err != nil {
		return nil, fmt.Errorf("list available courses: %w", err)
	}

	tutorIDs := make([]uuid.UUID, 0, len(courses))
	seen := map[uuid.UUID]bool{}
	for _, c := range courses {
		if !seen[c.TutorID] {
			seen[c.TutorID] = true
			tutorIDs = append(tutorIDs, c.TutorID)
		}
	}
	tutors, err := es.tutorRefs(ctx, tutorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*AvailableCourse, 0, len(courses))
	for _, c := range courses {
		out = append(out, &AvailableCourse{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Thumbnail:   c.Thumbnail,
			CreatedAt:   c.CreatedAt,
			Tutor:       tutors[c.TutorID],
			IsEnrolled:  false,
		})
	}
	return out, nil
}

func (es *enrollmentService) CourseDetails(ctx context.Context, courseID uuid.UUID) (*CourseDetails, error) {
	course, ok := es.cache.Get(ctx, courseID)
	if !ok {
		loaded, err := es.courseRepo.FindByID(ctx, nil, courseID)
		if err != nil {
			return nil, fmt.Errorf("load course: %w", err)
		}
		if loaded == nil {
			return nil, ErrCourseNotFound
		}
		es.cache.Set(ctx, loaded)
		course = loaded
	}

	tutors, err := es.tutorRefs(ctx, []uuid.UUID{course.TutorID})
	if err != nil {
		return nil, err
	}
	var tutor *TutorRef
	if t, ok := tutors[course.TutorID]; ok {
		tutor = &TutorRef{ID: t.ID, Name: t.Name}
	}

	videos := make([]CourseDetailVideo, 0, len(course.Videos))
	for _, v := range course.Videos {
		videos = append(videos, CourseDetailVideo{ID: v.ID, Title: v.Title, Order: v.Order})
	}
	return &CourseDetails{
		ID:          course.ID,
		Title:       course.Title,
		Description: course.Description,
		Thumbnail:   course.Thumbnail,
		CreatedAt:   course.CreatedAt,
		Enrollments: len(course.Enrollments),
		Tutor:       tutor,
		Videos:      videos,
	}, nil
}

// Enroll records the enrollment on both the student and the course in one transaction.
// Both rows are version guarded; losing a race to another writer reruns the transaction.
func (es *enrollmentService) Enroll(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Course, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		enrolled, err := es.enrollOnce(ctx, studentID, courseID)
		if errors.Is(err, repos.ErrVersionConflict) {
			es.log.Debug("Enrollment raced another write, retrying", "course_id", courseID, "student_id", studentID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		es.cache.Invalidate(ctx, courseID, enrolled.Version)
		es.log.Info("Student enrolled", "course_id", courseID, "student_id", studentID)
		return enrolled, nil
	}
	return nil, ErrVersionConflict
}

func (es *enrollmentService) enrollOnce(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Course, error) {
	var enrolled *domain.Course
	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := es.courseRepo.FindByID(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		if course == nil {
			return ErrCourseNotFound
		}
		if course.IsEnrolled(studentID) {
			return ErrAlreadyEnrolled
		}
		student, err := es.loadStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}
		if student.HasEnrollment(courseID) {
			return ErrAlreadyEnrolled
		}

		student.EnrolledCourses = append(student.EnrolledCourses, courseID)
		if err := es.userRepo.UpdateEnrolledCourses(ctx, tx, student); err != nil {
			return fmt.Errorf("update student enrollments: %w", err)
		}
		course.Enrollments = append(course.Enrollments, domain.Enrollment{
			ID:         uuid.New(),
			StudentID:  studentID,
			EnrolledAt: es.now(),
		})
		saved, err := es.courseRepo.Save(ctx, tx, course)
		if err != nil {
			return fmt.Errorf("save course enrollment: %w", err)
		}
		enrolled = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrolled, nil
}
