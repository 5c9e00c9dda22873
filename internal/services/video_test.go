package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursecast-backend/internal/domain"
)

type videoFixture struct {
	repo   *fakeCourseRepo
	cache  *fakeCache
	tr     *fakeTranscriber
	svc    VideoService
	tutor  uuid.UUID
	course *domain.Course
}

func newVideoFixture(t *testing.T, titles ...string) *videoFixture {
	t.Helper()
	f := &videoFixture{
		repo:  newFakeCourseRepo(),
		cache: newFakeCache(),
		tr:    &fakeTranscriber{text: "words"},
		tutor: uuid.New(),
	}
	f.course = f.repo.put(seedVideos(f.tutor, titles...))
	f.svc = NewVideoService(testutil.Logger(t), f.repo, f.cache, f.tr)
	return f
}

func assertOrders(t *testing.T, c *domain.Course, wantIDs []uuid.UUID) {
	t.Helper()
	if len(c.Videos) != len(wantIDs) {
		t.Fatalf("videos: want=%d got=%d", len(wantIDs), len(c.Videos))
	}
	for i, v := range c.Videos {
		if v.ID != wantIDs[i] {
			t.Fatalf("position %d: want=%s got=%s", i, wantIDs[i], v.ID)
		}
		if v.Order != i+1 {
			t.Fatalf("position %d: order want=%d got=%d", i, i+1, v.Order)
		}
	}
}

func TestReorderVideosAppliesPermutation(t *testing.T) {
	f := newVideoFixture(t, "a", "b", "c")
	ids := videoIDs(f.course)
	a, b, c := ids[0], ids[1], ids[2]

	got, err := f.svc.ReorderVideos(context.Background(), f.tutor, f.course.ID, []uuid.UUID{c, a, b})
	if err != nil {
		t.Fatalf("ReorderVideos: %v", err)
	}
	assertOrders(t, got, []uuid.UUID{c, a, b})
	assertOrders(t, f.repo.get(f.course.ID), []uuid.UUID{c, a, b})

	// Records keep their content, only position changes.
	stored := f.repo.get(f.course.ID)
	if stored.Videos[0].Title != "c" || stored.Videos[0].Transcript != "transcript of c" {
		t.Fatalf("video content changed: %+v", stored.Videos[0])
	}
	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != f.course.ID {
		t.Fatalf("cache invalidation: %v", f.cache.invalidated)
	}
}

func TestReorderVideosIsIdempotent(t *testing.T) {
	f := newVideoFixture(t, "a", "b", "c")
	ids := videoIDs(f.course)
	order := []uuid.UUID{ids[2], ids[0], ids[1]}
	ctx := context.Background()

	first, err := f.svc.ReorderVideos(ctx, f.tutor, f.course.ID, order)
	if err != nil {
		t.Fatalf("first reorder: %v", err)
	}
	second, err := f.svc.ReorderVideos(ctx, f.tutor, f.course.ID, order)
	if err != nil {
		t.Fatalf("second reorder: %v", err)
	}
	for i := range first.Videos {
		if first.Videos[i].ID != second.Videos[i].ID || first.Videos[i].Order != second.Videos[i].Order {
			t.Fatalf("position %d differs between runs", i)
		}
	}
}

func TestReorderVideosRejectsInvalidSubmissions(t *testing.T) {
	stranger := uuid.New()
	cases := []struct {
		name      string
		build     func(ids []uuid.UUID) []uuid.UUID
		unknown   int
		duplicate int
		missing   int
	}{
		{
			name:    "unknown_id",
			build:   func(ids []uuid.UUID) []uuid.UUID { return []uuid.UUID{ids[0], stranger, ids[1], ids[2]} },
			unknown: 1,
		},
		{
			name:      "duplicate_id",
			build:     func(ids []uuid.UUID) []uuid.UUID { return []uuid.UUID{ids[0], ids[0], ids[1], ids[2]} },
			duplicate: 1,
		},
		{
			name:    "missing_id",
			build:   func(ids []uuid.UUID) []uuid.UUID { return []uuid.UUID{ids[1], ids[0]} },
			missing: 1,
		},
		{
			name:    "empty_list",
			build:   func(ids []uuid.UUID) []uuid.UUID { return nil },
			missing: 3,
		},
		{
			name:      "everything_wrong",
			build:     func(ids []uuid.UUID) []uuid.UUID { return []uuid.UUID{stranger, ids[0], ids[0]} },
			unknown:   1,
			duplicate: 1,
			missing:   2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newVideoFixture(t, "a", "b", "c")
			before := f.repo.get(f.course.ID)

			_, err := f.svc.ReorderVideos(context.Background(), f.tutor, f.course.ID, tc.build(videoIDs(before)))
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
			var verr *ReorderValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("want *ReorderValidationError, got %T", err)
			}
			if len(verr.UnknownIDs) != tc.unknown || len(verr.DuplicateIDs) != tc.duplicate || len(verr.MissingIDs) != tc.missing {
				t.Fatalf("unknown=%d duplicate=%d missing=%d", len(verr.UnknownIDs), len(verr.DuplicateIDs), len(verr.MissingIDs))
			}
			if tc.unknown > 0 && verr.UnknownIDs[0] != stranger {
				t.Fatalf("unknown id not reported: %v", verr.UnknownIDs)
			}
			if f.repo.saves != 0 {
				t.Fatalf("expected no write, got %d saves", f.repo.saves)
			}
			assertOrders(t, f.repo.get(f.course.ID), videoIDs(before))
		})
	}
}

func TestReorderVideosRetriesOnConcurrentAppend(t *testing.T) {
	f := newVideoFixture(t, "a", "b")
	ids := videoIDs(f.course)
	appended := uuid.New()
	f.repo.beforeSave = func(r *fakeCourseRepo, _ *domain.Course) {
		r.bump(f.course.ID, func(c *domain.Course) {
			c.Videos = append(c.Videos, domain.Video{ID: appended, Title: "late", Order: 3})
		})
	}

	_, err := f.svc.ReorderVideos(context.Background(), f.tutor, f.course.ID, []uuid.UUID{ids[1], ids[0]})
	var verr *ReorderValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want validation error after reload, got %v", err)
	}
	if len(verr.MissingIDs) != 1 || verr.MissingIDs[0] != appended {
		t.Fatalf("missing ids: %v", verr.MissingIDs)
	}
	stored := f.repo.get(f.course.ID)
	if len(stored.Videos) != 3 || stored.Videos[2].ID != appended {
		t.Fatalf("concurrent append lost: %+v", stored.Videos)
	}
}

func TestReorderVideosOwnershipAndExistence(t *testing.T) {
	f := newVideoFixture(t, "a")
	ctx := context.Background()

	if _, err := f.svc.ReorderVideos(ctx, uuid.New(), f.course.ID, videoIDs(f.course)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner: want ErrForbidden, got %v", err)
	}
	if _, err := f.svc.ReorderVideos(ctx, f.tutor, uuid.New(), nil); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("unknown course: want ErrCourseNotFound, got %v", err)
	}
}

func TestAddVideoAppendsWithTranscript(t *testing.T) {
	f := newVideoFixture(t, "a", "b")

	got, err := f.svc.AddVideo(context.Background(), f.tutor, f.course.ID, AddVideoInput{
		URL:   " https://media.example.com/new.mp4 ",
		Title: "new",
	})
	if err != nil {
		t.Fatalf("AddVideo: %v", err)
	}
	if len(got.Videos) != 3 {
		t.Fatalf("videos: want=3 got=%d", len(got.Videos))
	}
	v := got.Videos[2]
	if v.Order != 3 || v.Title != "new" || v.URL != "https://media.example.com/new.mp4" {
		t.Fatalf("unexpected video: %+v", v)
	}
	if v.Transcript != "words:https://media.example.com/new.mp4" || v.TranscriptStatus != domain.TranscriptStatusCompleted {
		t.Fatalf("transcript: %q status=%q", v.Transcript, v.TranscriptStatus)
	}
	if f.tr.callCount() != 1 {
		t.Fatalf("transcriber calls: want=1 got=%d", f.tr.callCount())
	}
}

func TestAddVideoSurvivesTranscriptionFailure(t *testing.T) {
	f := newVideoFixture(t, "a", "b", "c")
	f.tr.err = errProviderDown

	got, err := f.svc.AddVideo(context.Background(), f.tutor, f.course.ID, AddVideoInput{
		URL:   "https://media.example.com/broken.mp4",
		Title: "broken",
	})
	if err != nil {
		t.Fatalf("AddVideo should succeed when transcription fails: %v", err)
	}
	v := got.Videos[len(got.Videos)-1]
	if v.Order != 4 {
		t.Fatalf("order: want=4 got=%d", v.Order)
	}
	if v.Transcript != "" || v.TranscriptStatus != domain.TranscriptStatusFailed {
		t.Fatalf("want empty failed transcript, got %q status=%q", v.Transcript, v.TranscriptStatus)
	}
}

func TestAddVideoValidationAndAccess(t *testing.T) {
	f := newVideoFixture(t, "a")
	ctx := context.Background()

	if _, err := f.svc.AddVideo(ctx, f.tutor, f.course.ID, AddVideoInput{Title: "no url"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing url: want ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.AddVideo(ctx, f.tutor, f.course.ID, AddVideoInput{URL: "https://x/y.mp4", Title: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank title: want ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.AddVideo(ctx, f.tutor, uuid.New(), AddVideoInput{URL: "https://x/y.mp4", Title: "t"}); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("unknown course: want ErrCourseNotFound, got %v", err)
	}
	if _, err := f.svc.AddVideo(ctx, uuid.New(), f.course.ID, AddVideoInput{URL: "https://x/y.mp4", Title: "t"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner: want ErrForbidden, got %v", err)
	}
	if f.tr.callCount() != 0 {
		t.Fatalf("transcriber should not run on rejected input, calls=%d", f.tr.callCount())
	}
	if f.repo.saves != 0 {
		t.Fatalf("expected no writes, got %d", f.repo.saves)
	}
}

func TestAddVideoKeepsConcurrentAppend(t *testing.T) {
	f := newVideoFixture(t, "a")
	other := uuid.New()
	f.repo.beforeSave = func(r *fakeCourseRepo, _ *domain.Course) {
		r.bump(f.course.ID, func(c *domain.Course) {
			c.Videos = append(c.Videos, domain.Video{ID: other, Title: "other", Order: 2})
		})
	}

	got, err := f.svc.AddVideo(context.Background(), f.tutor, f.course.ID, AddVideoInput{URL: "https://x/mine.mp4", Title: "mine"})
	if err != nil {
		t.Fatalf("AddVideo: %v", err)
	}
	if len(got.Videos) != 3 || got.Videos[1].ID != other || got.Videos[2].Title != "mine" || got.Videos[2].Order != 3 {
		t.Fatalf("unexpected videos after retry: %+v", got.Videos)
	}
	if f.tr.callCount() != 1 {
		t.Fatalf("retry must not re-transcribe, calls=%d", f.tr.callCount())
	}
}

func TestUpdateVideoTitleOnly(t *testing.T) {
	f := newVideoFixture(t, "a", "b")
	target := f.course.Videos[1]
	title := "renamed"
	empty := ""

	got, err := f.svc.UpdateVideo(context.Background(), f.tutor, f.course.ID, target.ID, UpdateVideoInput{Title: &title, URL: &empty})
	if err != nil {
		t.Fatalf("UpdateVideo: %v", err)
	}
	v := got.Videos[1]
	if v.Title != "renamed" || v.URL != target.URL || v.Transcript != target.Transcript || v.Order != 2 {
		t.Fatalf("unexpected video: %+v", v)
	}
	if f.tr.callCount() != 0 {
		t.Fatalf("title change must not transcribe, calls=%d", f.tr.callCount())
	}
}

func TestUpdateVideoURLChangeRetranscribes(t *testing.T) {
	f := newVideoFixture(t, "a")
	target := f.course.Videos[0]
	ctx := context.Background()

	same := target.URL
	if _, err := f.svc.UpdateVideo(ctx, f.tutor, f.course.ID, target.ID, UpdateVideoInput{URL: &same}); err != nil {
		t.Fatalf("UpdateVideo same url: %v", err)
	}
	if f.tr.callCount() != 0 {
		t.Fatalf("unchanged url must not transcribe, calls=%d", f.tr.callCount())
	}

	next := "https://media.example.com/v2.mp4"
	got, err := f.svc.UpdateVideo(ctx, f.tutor, f.course.ID, target.ID, UpdateVideoInput{URL: &next})
	if err != nil {
		t.Fatalf("UpdateVideo new url: %v", err)
	}
	if f.tr.callCount() != 1 {
		t.Fatalf("changed url must transcribe once, calls=%d", f.tr.callCount())
	}
	v := got.Videos[0]
	if v.URL != next || v.Transcript != "words:"+next || v.Title != "a" {
		t.Fatalf("unexpected video: %+v", v)
	}
}

func TestUpdateVideoURLChangeWithFailingProvider(t *testing.T) {
	f := newVideoFixture(t, "a")
	f.tr.err = errProviderDown
	next := "https://media.example.com/v2.mp4"

	got, err := f.svc.UpdateVideo(context.Background(), f.tutor, f.course.ID, f.course.Videos[0].ID, UpdateVideoInput{URL: &next})
	if err != nil {
		t.Fatalf("UpdateVideo: %v", err)
	}
	v := got.Videos[0]
	if v.URL != next || v.Transcript != "" || v.TranscriptStatus != domain.TranscriptStatusFailed {
		t.Fatalf("unexpected video: %+v", v)
	}
}

func TestUpdateVideoErrors(t *testing.T) {
	f := newVideoFixture(t, "a")
	ctx := context.Background()
	title := "x"

	if _, err := f.svc.UpdateVideo(ctx, f.tutor, f.course.ID, uuid.New(), UpdateVideoInput{Title: &title}); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("unknown video: want ErrVideoNotFound, got %v", err)
	}
	if _, err := f.svc.UpdateVideo(ctx, uuid.New(), f.course.ID, f.course.Videos[0].ID, UpdateVideoInput{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner: want ErrForbidden, got %v", err)
	}
	if _, err := f.svc.UpdateVideo(ctx, f.tutor, uuid.New(), f.course.Videos[0].ID, UpdateVideoInput{Title: &title}); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("unknown course: want ErrCourseNotFound, got %v", err)
	}
}

func TestMutateGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := newFakeCourseRepo()
	tutor := uuid.New()
	course := repo.put(seedVideos(tutor, "a"))
	w := &courseWriter{log: testutil.Logger(t), courseRepo: repo, cache: newFakeCache()}

	attempts := 0
	_, err := w.mutate(context.Background(), course.ID, ownedBy(tutor), func(c *domain.Course) error {
		attempts++
		// Every attempt loses the race.
		repo.courses[course.ID].Version++
		return nil
	})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("want ErrVersionConflict, got %v", err)
	}
	if attempts != maxSaveAttempts {
		t.Fatalf("attempts: want=%d got=%d", maxSaveAttempts, attempts)
	}
}

func TestReorderHelperKeepsCanonicalRecords(t *testing.T) {
	existing := seedVideos(uuid.New(), "a", "b").Videos
	out, err := reorder(existing, []uuid.UUID{existing[1].ID, existing[0].ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if out[0].URL != existing[1].URL || out[0].Order != 1 || out[1].Order != 2 {
		t.Fatalf("unexpected output: %+v", out)
	}
	if existing[0].Order != 1 || existing[1].Order != 2 {
		t.Fatalf("input slice mutated: %+v", existing)
	}
}

func TestRetryFailedTranscriptsRecoversOnlyUnchangedVideos(t *testing.T) {
	f := newVideoFixture(t, "a", "b", "c")
	c := f.repo.get(f.course.ID)
	for _, i := range []int{0, 2} {
		c.Videos[i].Transcript = ""
		c.Videos[i].TranscriptStatus = domain.TranscriptStatusFailed
	}
	f.repo.put(c)
	moved := c.Videos[2].ID
	f.repo.beforeSave = func(r *fakeCourseRepo, _ *domain.Course) {
		r.bump(f.course.ID, func(c *domain.Course) {
			c.Videos[c.VideoIndex(moved)].URL = "https://media.example.com/replaced.mp4"
		})
	}

	res, err := f.svc.RetryFailedTranscripts(context.Background(), f.course.ID)
	if err != nil {
		t.Fatalf("RetryFailedTranscripts: %v", err)
	}
	if res.Attempted != 2 || res.Recovered != 1 {
		t.Fatalf("result = %+v", res)
	}
	if f.tr.callCount() != 2 {
		t.Fatalf("transcriber calls: want=2 got=%d", f.tr.callCount())
	}
	stored := f.repo.get(f.course.ID)
	first := stored.Videos[0]
	if first.TranscriptStatus != domain.TranscriptStatusCompleted || first.Transcript != "words:"+first.URL {
		t.Fatalf("first video not recovered: %+v", first)
	}
	if last := stored.Videos[2]; last.TranscriptStatus != domain.TranscriptStatusFailed {
		t.Fatalf("replaced video must keep failed status: %+v", last)
	}
	if stored.Videos[1].Transcript != "transcript of b" {
		t.Fatalf("completed video touched: %+v", stored.Videos[1])
	}
}

func TestRetryFailedTranscriptsNothingToDo(t *testing.T) {
	f := newVideoFixture(t, "a")
	res, err := f.svc.RetryFailedTranscripts(context.Background(), f.course.ID)
	if err != nil || res.Attempted != 0 {
		t.Fatalf("result = %+v, %v", res, err)
	}
	if f.repo.saves != 0 || f.tr.callCount() != 0 {
		t.Fatalf("expected no work, saves=%d calls=%d", f.repo.saves, f.tr.callCount())
	}

	f.tr.err = errProviderDown
	c := f.repo.get(f.course.ID)
	c.Videos[0].TranscriptStatus = domain.TranscriptStatusFailed
	f.repo.put(c)
	res, err = f.svc.RetryFailedTranscripts(context.Background(), f.course.ID)
	if err != nil || res.Attempted != 1 || res.Recovered != 0 || f.repo.saves != 0 {
		t.Fatalf("still-failing provider: %+v, %v, saves=%d", res, err, f.repo.saves)
	}

	if _, err := f.svc.RetryFailedTranscripts(context.Background(), uuid.New()); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("want ErrCourseNotFound, got %v", err)
	}
}
