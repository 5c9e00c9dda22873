package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/platform/gcp"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

var allowedMediaExts = map[string]bool{
	".mp4": true, ".m4v": true, ".mov": true, ".webm": true,
	".mp3": true, ".wav": true,
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true,
}

type UploadedMedia struct {
	// MediaReference is the gs:// URI the Google transcribers read from.
	MediaReference string `json:"mediaReference"`
	URL            string `json:"url"`
	Key            string `json:"key"`
}

type MediaService interface {
	Upload(ctx context.Context, tutorID uuid.UUID, filename string, contentType string, body io.Reader) (*UploadedMedia, error)
}

type mediaService struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

// NewMediaService accepts a nil bucket; every upload then fails with ErrMediaDisabled.
func NewMediaService(baseLog *logger.Logger, bucket gcp.BucketService) MediaService {
	return &mediaService{log: baseLog.With("service", "MediaService"), bucket: bucket}
}

func (ms *mediaService) Upload(ctx context.Context, tutorID uuid.UUID, filename string, contentType string, body io.Reader) (*UploadedMedia, error) {
	if ms.bucket == nil {
		return nil, ErrMediaDisabled
	}
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filename)))
	if !allowedMediaExts[ext] {
		return nil, invalidf("unsupported media type %q", ext)
	}
	key := fmt.Sprintf("videos/%s/%s%s", tutorID, uuid.New(), ext)
	if err := ms.bucket.UploadFile(ctx, key, body, contentType); err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}
	ms.log.Info("Media uploaded", "tutor_id", tutorID, "key", key)
	return &UploadedMedia{
		MediaReference: ms.bucket.ObjectURI(key),
		URL:            ms.bucket.GetPublicURL(key),
		Key:            key,
	}, nil
}
