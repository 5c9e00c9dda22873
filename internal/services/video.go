package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/data/repos"
	"github.com/yungbote/coursecast-backend/internal/domain"
	"github.com/yungbote/coursecast-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

type AddVideoInput struct {
	URL   string
	Title string
}

// UpdateVideoInput fields are optional; nil or empty means unchanged.
type UpdateVideoInput struct {
	Title *string
	URL   *string
}

type VideoService interface {
	AddVideo(ctx context.Context, tutorID, courseID uuid.UUID, in AddVideoInput) (*domain.Course, error)
	UpdateVideo(ctx context.Context, tutorID, courseID, videoID uuid.UUID, in UpdateVideoInput) (*domain.Course, error)
	ReorderVideos(ctx context.Context, tutorID, courseID uuid.UUID, videoIDs []uuid.UUID) (*domain.Course, error)
	RetryFailedTranscripts(ctx context.Context, courseID uuid.UUID) (RetryResult, error)
}

// RetryResult counts the failed transcripts a retry pass attempted and recovered.
type RetryResult struct {
	Attempted int
	Recovered int
}

type videoService struct {
	log         *logger.Logger
	writer      *courseWriter
	transcriber Transcriber
	now         func() time.Time
}

func NewVideoService(
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	cache repos.CourseCache,
	transcriber Transcriber,
) VideoService {
	serviceLog := baseLog.With("service", "VideoService")
	if cache == nil {
		cache = repos.NewNoopCourseCache()
	}
	return &videoService{
		log:         serviceLog,
		writer:      &courseWriter{log: serviceLog, courseRepo: courseRepo, cache: cache},
		transcriber: transcriber,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// transcribe never fails: provider errors come back as an empty failed transcript.
func (vs *videoService) transcribe(ctx context.Context, courseID uuid.UUID, mediaRef string) (string, domain.TranscriptStatus) {
	text, err := vs.transcriber.Transcribe(ctx, mediaRef)
	if err != nil {
		fields := append([]interface{}{
			"course_id", courseID,
			"provider", vs.transcriber.Name(),
			"media_ref", mediaRef,
			"error", err,
		}, ctxutil.LogFields(ctx)...)
		vs.log.Warn("Transcription failed, storing empty transcript", fields...)
		return "", domain.TranscriptStatusFailed
	}
	return text, domain.TranscriptStatusCompleted
}

func (vs *videoService) AddVideo(ctx context.Context, tutorID, courseID uuid.UUID, in AddVideoInput) (*domain.Course, error) {
	url := strings.TrimSpace(in.URL)
	title := strings.TrimSpace(in.Title)
	if url == "" || title == "" {
		return nil, invalidf("url and title are required")
	}
	if _, err := vs.writer.loadOwned(ctx, courseID, tutorID); err != nil {
		return nil, err
	}

	transcript, status := vs.transcribe(ctx, courseID, url)

	video := domain.Video{
		ID:               uuid.New(),
		URL:              url,
		Title:            title,
		Transcript:       transcript,
		TranscriptStatus: status,
		CreatedAt:        vs.now(),
	}
	course, err := vs.writer.mutate(ctx, courseID, ownedBy(tutorID), func(c *domain.Course) error {
		v := video
		v.Order = len(c.Videos) + 1
		c.Videos = append(c.Videos, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	vs.log.Info("Video added", "course_id", courseID, "video_id", video.ID, "transcript_status", status)
	return course, nil
}

func (vs *videoService) UpdateVideo(ctx context.Context, tutorID, courseID, videoID uuid.UUID, in UpdateVideoInput) (*domain.Course, error) {
	title := trimmedOrEmpty(in.Title)
	url := trimmedOrEmpty(in.URL)

	current, err := vs.writer.loadOwned(ctx, courseID, tutorID)
	if err != nil {
		return nil, err
	}
	idx := current.VideoIndex(videoID)
	if idx < 0 {
		return nil, ErrVideoNotFound
	}

	urlChanged := url != "" && url != current.Videos[idx].URL
	var transcript string
	var status domain.TranscriptStatus
	if urlChanged {
		transcript, status = vs.transcribe(ctx, courseID, url)
	}

	course, err := vs.writer.mutate(ctx, courseID, ownedBy(tutorID), func(c *domain.Course) error {
		i := c.VideoIndex(videoID)
		if i < 0 {
			return ErrVideoNotFound
		}
		v := &c.Videos[i]
		if title != "" {
			v.Title = title
		}
		if urlChanged {
			v.URL = url
			v.Transcript = transcript
			v.TranscriptStatus = status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	vs.log.Info("Video updated", "course_id", courseID, "video_id", videoID, "retranscribed", urlChanged)
	return course, nil
}

func (vs *videoService) ReorderVideos(ctx context.Context, tutorID, courseID uuid.UUID, videoIDs []uuid.UUID) (*domain.Course, error) {
	course, err := vs.writer.mutate(ctx, courseID, ownedBy(tutorID), func(c *domain.Course) error {
		reordered, err := reorder(c.Videos, videoIDs)
		if err != nil {
			return err
		}
		c.Videos = reordered
		return nil
	})
	if err != nil {
		return nil, err
	}
	vs.log.Info("Videos reordered", "course_id", courseID, "count", len(videoIDs))
	return course, nil
}

// RetryFailedTranscripts re-runs transcription for every video whose last attempt
// failed. A result is applied only if the video still has the URL that was transcribed.
func (vs *videoService) RetryFailedTranscripts(ctx context.Context, courseID uuid.UUID) (RetryResult, error) {
	current, err := vs.writer.load(ctx, courseID)
	if err != nil {
		return RetryResult{}, err
	}

	type outcome struct {
		url        string
		transcript string
	}
	recovered := map[uuid.UUID]outcome{}
	var res RetryResult
	for _, v := range current.Videos {
		if v.TranscriptStatus != domain.TranscriptStatusFailed {
			continue
		}
		res.Attempted++
		text, status := vs.transcribe(ctx, courseID, v.URL)
		if status == domain.TranscriptStatusCompleted {
			recovered[v.ID] = outcome{url: v.URL, transcript: text}
		}
	}
	if len(recovered) == 0 {
		return res, nil
	}

	_, err = vs.writer.mutate(ctx, courseID, nil, func(c *domain.Course) error {
		res.Recovered = 0
		for i := range c.Videos {
			v := &c.Videos[i]
			out, ok := recovered[v.ID]
			if !ok || v.URL != out.url || v.TranscriptStatus != domain.TranscriptStatusFailed {
				continue
			}
			v.Transcript = out.transcript
			v.TranscriptStatus = domain.TranscriptStatusCompleted
			res.Recovered++
		}
		return nil
	})
	if err != nil {
		return RetryResult{}, err
	}
	vs.log.Info("Failed transcripts retried", "course_id", courseID, "attempted", res.Attempted, "recovered", res.Recovered)
	return res, nil
}

// reorder rebuilds the list from the canonical records in the submitted sequence.
// The submission must be a permutation of the existing ids.
func reorder(existing []domain.Video, ids []uuid.UUID) ([]domain.Video, error) {
	byID := make(map[uuid.UUID]domain.Video, len(existing))
	for _, v := range existing {
		byID[v.ID] = v
	}

	verr := &ReorderValidationError{}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			verr.UnknownIDs = append(verr.UnknownIDs, id)
			continue
		}
		if seen[id] {
			verr.DuplicateIDs = append(verr.DuplicateIDs, id)
			continue
		}
		seen[id] = true
	}
	for _, v := range existing {
		if !seen[v.ID] {
			verr.MissingIDs = append(verr.MissingIDs, v.ID)
		}
	}
	if !verr.empty() {
		return nil, verr
	}

	out := make([]domain.Video, 0, len(ids))
	for i, id := range ids {
		v := byID[id]
		v.Order = i + 1
		out = append(out, v)
	}
	return out, nil
}

func trimmedOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
