package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursecast-backend/internal/domain"
)

func seedCourse(t *testing.T, repo CourseRepo, tutorID uuid.UUID, title string) *domain.Course {
	t.Helper()
	c, err := repo.Create(context.Background(), nil, &domain.Course{
		Title:       title,
		Description: "desc " + title,
		Thumbnail:   "https://cdn.example.com/" + title + ".png",
		TutorID:     tutorID,
	})
	if err != nil {
		t.Fatalf("Create %s: %v", title, err)
	}
	return c
}

func TestCourseRepoCreateAndFind(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))

	tutorID := uuid.New()
	created := seedCourse(t, repo, tutorID, "go")
	if created.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}
	if created.Version != 1 {
		t.Fatalf("version: want=1 got=%d", created.Version)
	}

	got, err := repo.FindByID(ctx, nil, created.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID: got=%v err=%v", got, err)
	}
	if got.Title != "go" || got.TutorID != tutorID {
		t.Fatalf("unexpected course: %+v", got)
	}
	if len(got.Videos) != 0 || len(got.Enrollments) != 0 || len(got.ChatRoom) != 0 {
		t.Fatalf("expected empty embedded collections")
	}

	missing, err := repo.FindByID(ctx, nil, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("FindByID missing: got=%v err=%v", missing, err)
	}
}

func TestCourseRepoSaveWritesAggregateAndBumpsVersion(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))

	c := seedCourse(t, repo, uuid.New(), "rust")
	now := time.Now().UTC()
	c.Videos = append(c.Videos,
		domain.Video{ID: uuid.New(), URL: "https://v/1", Title: "one", Transcript: "hello", TranscriptStatus: domain.TranscriptStatusCompleted, Order: 1, CreatedAt: now},
		domain.Video{ID: uuid.New(), URL: "https://v/2", Title: "two", TranscriptStatus: domain.TranscriptStatusFailed, Order: 2, CreatedAt: now},
	)
	saved, err := repo.Save(ctx, nil, c)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Version != 2 {
		t.Fatalf("version: want=2 got=%d", saved.Version)
	}

	got, err := repo.FindByID(ctx, nil, c.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID: got=%v err=%v", got, err)
	}
	if len(got.Videos) != 2 {
		t.Fatalf("videos: want=2 got=%d", len(got.Videos))
	}
	if got.Videos[0].Transcript != "hello" || got.Videos[1].TranscriptStatus != domain.TranscriptStatusFailed {
		t.Fatalf("video fields not persisted: %+v", got.Videos)
	}
	if got.Videos[1].Order != 2 {
		t.Fatalf("order: want=2 got=%d", got.Videos[1].Order)
	}
}

func TestCourseRepoSaveRejectsStaleVersion(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))

	c := seedCourse(t, repo, uuid.New(), "python")
	first, _ := repo.FindByID(ctx, nil, c.ID)
	second, _ := repo.FindByID(ctx, nil, c.ID)

	first.Title = "python 3"
	if _, err := repo.Save(ctx, nil, first); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	second.Title = "python 2"
	if _, err := repo.Save(ctx, nil, second); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("second Save: want ErrVersionConflict got %v", err)
	}

	got, _ := repo.FindByID(ctx, nil, c.ID)
	if got.Title != "python 3" {
		t.Fatalf("stale write applied: title=%q", got.Title)
	}
}

func TestCourseRepoFindByTutorNewestFirst(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))

	tutorID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i, title := range []string{"old", "mid", "new"} {
		c := &domain.Course{Title: title, Description: "d", Thumbnail: "t", TutorID: tutorID}
		c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := repo.Create(ctx, nil, c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	seedCourse(t, repo, uuid.New(), "someone-else")

	rows, err := repo.FindByTutor(ctx, nil, tutorID)
	if err != nil {
		t.Fatalf("FindByTutor: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len: want=3 got=%d", len(rows))
	}
	if rows[0].Title != "new" || rows[2].Title != "old" {
		t.Fatalf("order: got %s,%s,%s", rows[0].Title, rows[1].Title, rows[2].Title)
	}
}

func TestCourseRepoListExcluding(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))

	a := seedCourse(t, repo, uuid.New(), "a")
	b := seedCourse(t, repo, uuid.New(), "b")

	all, err := repo.ListExcluding(ctx, nil, nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListExcluding none: len=%d err=%v", len(all), err)
	}
	rows, err := repo.ListExcluding(ctx, nil, []uuid.UUID{a.ID})
	if err != nil || len(rows) != 1 || rows[0].ID != b.ID {
		t.Fatalf("ListExcluding a: rows=%v err=%v", rows, err)
	}
}

func TestCourseRepoUpdateMetadata(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))

	c, err := repo.Create(ctx, tx, &domain.Course{Title: "t", Description: "d", Thumbnail: "th", TutorID: uuid.New()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	title := "renamed"
	got, err := repo.UpdateMetadata(ctx, tx, c.ID, CourseMetadata{Title: &title})
	if err != nil || got == nil {
		t.Fatalf("UpdateMetadata: got=%v err=%v", got, err)
	}
	if got.Title != "renamed" || got.Description != "d" {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if got.Version != 2 {
		t.Fatalf("version: want=2 got=%d", got.Version)
	}

	missing, err := repo.UpdateMetadata(ctx, tx, uuid.New(), CourseMetadata{Title: &title})
	if err != nil || missing != nil {
		t.Fatalf("UpdateMetadata missing: got=%v err=%v", missing, err)
	}
}

func TestCourseRepoListFailedTranscripts(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))
	tutorID := uuid.New()

	withFailures := func(title string, statuses ...domain.TranscriptStatus) *domain.Course {
		c := seedCourse(t, repo, tutorID, title)
		for i, st := range statuses {
			c.Videos = append(c.Videos, domain.Video{ID: uuid.New(), Title: title, URL: "https://x/" + title, Order: i + 1, TranscriptStatus: st})
		}
		if _, err := repo.Save(ctx, nil, c); err != nil {
			t.Fatalf("Save %s: %v", title, err)
		}
		return c
	}
	broken := withFailures("broken", domain.TranscriptStatusFailed, domain.TranscriptStatusCompleted, domain.TranscriptStatusFailed)
	healthy := withFailures("healthy", domain.TranscriptStatusCompleted)
	other := withFailures("other", domain.TranscriptStatusFailed)

	all, err := repo.ListFailedTranscripts(ctx, nil, nil, 0)
	if err != nil {
		t.Fatalf("ListFailedTranscripts: %v", err)
	}
	counts := map[uuid.UUID]int{}
	for _, row := range all {
		counts[row.CourseID] = row.Failed
	}
	if len(all) != 2 || counts[broken.ID] != 2 || counts[other.ID] != 1 {
		t.Fatalf("failed transcripts: %+v", all)
	}
	if _, ok := counts[healthy.ID]; ok {
		t.Fatalf("healthy course listed")
	}

	only, err := repo.ListFailedTranscripts(ctx, nil, []uuid.UUID{other.ID, healthy.ID}, 0)
	if err != nil || len(only) != 1 || only[0].CourseID != other.ID {
		t.Fatalf("narrowed: %+v err=%v", only, err)
	}
	limited, err := repo.ListFailedTranscripts(ctx, nil, nil, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited: %+v err=%v", limited, err)
	}
}
