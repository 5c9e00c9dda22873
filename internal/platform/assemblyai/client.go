package assemblyai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/yungbote/coursecast-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

// ErrTranscriptFailed is returned when the provider finished the job with status "error".
var ErrTranscriptFailed = errors.New("assemblyai transcript failed")

type Config struct {
	APIKey       string
	BaseURL      string
	LanguageCode string
	PollInterval time.Duration
	Timeout      time.Duration
	MaxRetries   int
}

type Client interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

type client struct {
	log          *logger.Logger
	sdk          *aai.Client
	languageCode aai.TranscriptLanguageCode
	pollInterval time.Duration
	timeout      time.Duration
	maxRetries   int
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing ASSEMBLYAI_API_KEY")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	opts := []aai.ClientOption{
		aai.WithAPIKey(apiKey),
		aai.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, aai.WithBaseURL(base))
	}
	return &client{
		log:          log.With("service", "AssemblyAI"),
		sdk:          aai.NewClientWithOptions(opts...),
		languageCode: aai.TranscriptLanguageCode(languageCode(cfg.LanguageCode)),
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
		maxRetries:   cfg.MaxRetries,
	}, nil
}

// languageCode converts a BCP-47 tag like en-US into the provider's en_us form.
func languageCode(tag string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), "-", "_")
}

// Transcribe submits audioURL and blocks until the transcript completes, fails, or ctx ends.
func (c *client) Transcribe(ctx context.Context, audioURL string) (string, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &aai.TranscriptOptionalParams{}
	if c.languageCode != "" {
		params.LanguageCode = c.languageCode
	}
	created, err := c.withRetry(ctx, "submit", func() (aai.Transcript, error) {
		return c.sdk.Transcripts.SubmitFromURL(ctx, audioURL, params)
	})
	if err != nil {
		return "", err
	}
	id := aai.ToString(created.ID)
	if id == "" {
		return "", fmt.Errorf("assemblyai: empty transcript id")
	}

	current := created
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		switch current.Status {
		case aai.TranscriptStatusCompleted:
			return strings.TrimSpace(aai.ToString(current.Text)), nil
		case aai.TranscriptStatusError:
			return "", fmt.Errorf("%w: %s", ErrTranscriptFailed, aai.ToString(current.Error))
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
		current, err = c.withRetry(ctx, "poll", func() (aai.Transcript, error) {
			return c.sdk.Transcripts.Get(ctx, id)
		})
		if err != nil {
			return "", err
		}
	}
}

func (c *client) withRetry(ctx context.Context, op string, call func() (aai.Transcript, error)) (aai.Transcript, error) {
	backoff := time.Second
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return aai.Transcript{}, ctx.Err()
		}
		t, err := call()
		if err == nil {
			return t, nil
		}
		if !isRetryable(err) || attempt >= c.maxRetries {
			return aai.Transcript{}, err
		}
		sleepFor := retryDelay(backoff)
		c.log.Warn("AssemblyAI request retrying",
			"op", op,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return aai.Transcript{}, ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
}
