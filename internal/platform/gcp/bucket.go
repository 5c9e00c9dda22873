package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

var ErrNotGCSObject = errors.New("url does not reference a cloud storage object")

type BucketConfig struct {
	Name          string
	CDNDomain     string
	EmulatorHost  string
	PublicBaseURL string
	Credentials   string
}

type BucketService interface {
	UploadFile(ctx context.Context, key string, file io.Reader, contentType string) error
	DeleteFile(ctx context.Context, key string) error
	GetPublicURL(key string) string
	ObjectURI(key string) string
	Close() error
}

type bucketService struct {
	log           *logger.Logger
	client        *storage.Client
	name          string
	cdnDomain     string
	emulatorHost  string
	publicBaseURL string
}

func NewBucketService(log *logger.Logger, cfg BucketConfig) (BucketService, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("missing bucket name")
	}
	serviceLog := log.With("service", "BucketService")

	ctx := context.Background()
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("Object storage initialized",
		"bucket", cfg.Name,
		"cdn_domain", cfg.CDNDomain,
		"emulator_host", cfg.EmulatorHost,
	)
	return newBucketServiceWithClient(serviceLog, client, cfg), nil
}

func newBucketServiceWithClient(log *logger.Logger, client *storage.Client, cfg BucketConfig) *bucketService {
	return &bucketService{
		log:           log,
		client:        client,
		name:          strings.TrimSpace(cfg.Name),
		cdnDomain:     strings.TrimSpace(cfg.CDNDomain),
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"),
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
	}
}

func newStorageClient(ctx context.Context, cfg BucketConfig) (*storage.Client, error) {
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", host)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := ClientOptions(cfg.Credentials)
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.client == nil {
		return nil
	}
	return bs.client.Close()
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, file io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	w := bs.client.Bucket(bs.name).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = ContentTypeForKey(key)
	}
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
	err := bs.client.Bucket(bs.name).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object: %w", err)
	}
	return nil
}

func (bs *bucketService) GetPublicURL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if bs.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cdnDomain, key)
	}
	if bs.emulatorHost != "" {
		base := bs.publicBaseURL
		if base == "" {
			base = bs.emulatorHost
		}
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(bs.name), url.PathEscape(key))
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, bs.name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.name, key)
}

func (bs *bucketService) ObjectURI(key string) string {
	return fmt.Sprintf("gs://%s/%s", bs.name, strings.TrimLeft(key, "/"))
}

// GCSURIFromURL maps gs:// references and storage.googleapis.com URLs to a gs:// URI
// that the Google speech and video APIs accept.
func GCSURIFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "gs://") {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrNotGCSObject
	}
	switch u.Host {
	case "storage.googleapis.com", "storage.cloud.google.com":
		p := strings.TrimLeft(u.Path, "/")
		bucket, object, ok := strings.Cut(p, "/")
		if !ok || bucket == "" || object == "" {
			return "", ErrNotGCSObject
		}
		return "gs://" + bucket + "/" + object, nil
	}
	if bucket, ok := strings.CutSuffix(u.Host, ".storage.googleapis.com"); ok && bucket != "" {
		object := strings.TrimLeft(u.Path, "/")
		if object == "" {
			return "", ErrNotGCSObject
		}
		return "gs://" + bucket + "/" + object, nil
	}
	return "", ErrNotGCSObject
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch path.Ext(s) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	default:
		return ""
	}
}
