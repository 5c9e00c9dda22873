package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/data/repos"
	"github.com/yungbote/coursecast-backend/internal/domain"
	"github.com/yungbote/coursecast-backend/internal/realtime"
)

type fakeCourseRepo struct {
	mu         sync.Mutex
	courses    map[uuid.UUID]*domain.Course
	saves      int
	saveErr    error
	beforeSave func(r *fakeCourseRepo, c *domain.Course)
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[uuid.UUID]*domain.Course{}}
}

func (r *fakeCourseRepo) put(c *domain.Course) *domain.Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	r.courses[c.ID] = c.Clone()
	return c
}

func (r *fakeCourseRepo) get(id uuid.UUID) *domain.Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.courses[id].Clone()
}

// bump simulates another writer saving the course.
func (r *fakeCourseRepo) bump(id uuid.UUID, fn func(c *domain.Course)) {
	c := r.courses[id]
	fn(c)
	c.Version++
}

func (r *fakeCourseRepo) Create(_ context.Context, _ *gorm.DB, c *domain.Course) (*domain.Course, error) {
	c.Version = 1
	c.CreatedAt = time.Now().UTC()
	return r.put(c), nil
}

func (r *fakeCourseRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*domain.Course, error) {
	return r.get(id), nil
}

func (r *fakeCourseRepo) FindByTutor(_ context.Context, _ *gorm.DB, tutorID uuid.UUID) ([]*domain.CourseSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CourseSummary
	for _, c := range r.courses {
		if c.TutorID == tutorID {
			out = append(out, c.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeCourseRepo) ListExcluding(_ context.Context, _ *gorm.DB, exclude []uuid.UUID) ([]*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	skip := map[uuid.UUID]bool{}
	for _, id := range exclude {
		skip[id] = true
	}
	var out []*domain.Course
	for _, c := range r.courses {
		if !skip[c.ID] {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) Save(_ context.Context, _ *gorm.DB, c *domain.Course) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeSave != nil {
		hook := r.beforeSave
		r.beforeSave = nil
		hook(r, c)
	}
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	stored, ok := r.courses[c.ID]
	if !ok || stored.Version != c.Version {
		return nil, repos.ErrVersionConflict
	}
	c.Version++
	r.courses[c.ID] = c.Clone()
	r.saves++
	return c, nil
}

func (r *fakeCourseRepo) UpdateMetadata(_ context.Context, _ *gorm.DB, id uuid.UUID, f repos.CourseMetadata) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, nil
	}
	if f.Title != nil {
		c.Title = *f.Title
	}
	if f.Description != nil {
		c.Description = *f.Description
	}
	if f.Thumbnail != nil {
		c.Thumbnail = *f.Thumbnail
	}
	c.Version++
	r.saves++
	return c.Clone(), nil
}

func (r *fakeCourseRepo) ListFailedTranscripts(_ context.Context, _ *gorm.DB, _ []uuid.UUID, _ int) ([]repos.FailedTranscripts, error) {
	return nil, nil
}

type fakeTranscriber struct {
	mu    sync.Mutex
	calls []string
	text  string
	err   error
}

func (t *fakeTranscriber) Transcribe(_ context.Context, mediaRef string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, mediaRef)
	if t.err != nil {
		return "", t.err
	}
	return t.text + ":" + mediaRef, nil
}

func (t *fakeTranscriber) Name() string { return "fake" }
func (t *fakeTranscriber) Close() error { return nil }

func (t *fakeTranscriber) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

var errProviderDown = errors.New("provider rejected media")

type fakeCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*domain.Course
	floors      map[uuid.UUID]int64
	gets        int
	skipped     int
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[uuid.UUID]*domain.Course{}, floors: map[uuid.UUID]int64{}}
}

func (c *fakeCache) Get(_ context.Context, id uuid.UUID) (*domain.Course, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[id]
	return v.Clone(), ok
}

func (c *fakeCache) Set(_ context.Context, course *domain.Course) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if course.Version < c.floors[course.ID] {
		c.skipped++
		return
	}
	c.entries[course.ID] = course.Clone()
}

func (c *fakeCache) Invalidate(_ context.Context, id uuid.UUID, version int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	if version > c.floors[id] {
		c.floors[id] = version
	}
	c.invalidated = append(c.invalidated, id)
}

type fakeEmitter struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (e *fakeEmitter) Emit(_ context.Context, msg realtime.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func seedVideos(tutorID uuid.UUID, titles ...string) *domain.Course {
	c := &domain.Course{
		ID:          uuid.New(),
		Title:       "Go Concurrency",
		Description: "channels and friends",
		Thumbnail:   "https://cdn.example.com/go.png",
		TutorID:     tutorID,
		Version:     1,
		CreatedAt:   time.Now().UTC(),
	}
	for i, t := range titles {
		c.Videos = append(c.Videos, domain.Video{
			ID:               uuid.New(),
			URL:              "https://media.example.com/" + t + ".mp4",
			Title:            t,
			Transcript:       "transcript of " + t,
			TranscriptStatus: domain.TranscriptStatusCompleted,
			Order:            i + 1,
			CreatedAt:        time.Now().UTC(),
		})
	}
	return c
}

func videoIDs(c *domain.Course) []uuid.UUID {
	out := make([]uuid.UUID, len(c.Videos))
	for i, v := range c.Videos {
		out[i] = v.ID
	}
	return out
}

type fakeUserRepo struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*domain.User
	beforeUpdate func(r *fakeUserRepo, u *domain.User)
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*domain.User{}}
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	cp.EnrolledCourses = append([]uuid.UUID(nil), u.EnrolledCourses...)
	return &cp
}

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Version = 1
	r.users[u.ID] = copyUser(u)
	return u, nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateEnrolledCourses(_ context.Context, _ *gorm.DB, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeUpdate != nil {
		hook := r.beforeUpdate
		r.beforeUpdate = nil
		hook(r, u)
	}
	stored, ok := r.users[u.ID]
	if !ok || stored.Version != u.Version {
		return repos.ErrVersionConflict
	}
	u.Version++
	r.users[u.ID] = copyUser(u)
	return nil
}
