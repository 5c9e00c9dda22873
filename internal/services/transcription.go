package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/coursecast-backend/internal/platform/assemblyai"
	"github.com/yungbote/coursecast-backend/internal/platform/gcp"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

const (
	TranscriptionProviderAssemblyAI = "assemblyai"
	TranscriptionProviderGCPSpeech  = "gcp_speech"
	TranscriptionProviderGCPVideo   = "gcp_video"
	TranscriptionProviderNone       = "none"
)

// Transcriber turns a media reference into text. Callers treat every error as a
// soft failure.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaRef string) (string, error)
	Name() string
	Close() error
}

type TranscriptionConfig struct {
	Provider       string
	LanguageCode   string
	MaxRetries     int
	Timeout        time.Duration
	AssemblyAI     assemblyai.Config
	GCPCredentials string
}

func NewTranscriber(log *logger.Logger, cfg TranscriptionConfig) (Transcriber, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = TranscriptionProviderAssemblyAI
	}
	lang := strings.TrimSpace(cfg.LanguageCode)
	if lang == "" {
		lang = "en-US"
	}

	switch provider {
	case TranscriptionProviderAssemblyAI:
		aaCfg := cfg.AssemblyAI
		if aaCfg.LanguageCode == "" {
			aaCfg.LanguageCode = lang
		}
		if aaCfg.MaxRetries == 0 {
			aaCfg.MaxRetries = cfg.MaxRetries
		}
		if aaCfg.Timeout == 0 {
			aaCfg.Timeout = cfg.Timeout
		}
		client, err := assemblyai.NewClient(log, aaCfg)
		if err != nil {
			return nil, err
		}
		return &assemblyAITranscriber{client: client}, nil
	case TranscriptionProviderGCPSpeech:
		sp, err := gcp.NewSpeech(log, cfg.GCPCredentials, cfg.MaxRetries)
		if err != nil {
			return nil, err
		}
		return &gcpSpeechTranscriber{speech: sp, lang: lang}, nil
	case TranscriptionProviderGCPVideo:
		v, err := gcp.NewVideo(log, cfg.GCPCredentials, cfg.MaxRetries)
		if err != nil {
			return nil, err
		}
		return &gcpVideoTranscriber{video: v, lang: lang}, nil
	case TranscriptionProviderNone:
		return disabledTranscriber{}, nil
	default:
		return nil, fmt.Errorf("unknown TRANSCRIPTION_PROVIDER %q", cfg.Provider)
	}
}

type assemblyAITranscriber struct {
	client assemblyai.Client
}

func (t *assemblyAITranscriber) Name() string { return TranscriptionProviderAssemblyAI }
func (t *assemblyAITranscriber) Close() error { return nil }

func (t *assemblyAITranscriber) Transcribe(ctx context.Context, mediaRef string) (string, error) {
	return t.client.Transcribe(ctx, mediaRef)
}

type gcpSpeechTranscriber struct {
	speech gcp.Speech
	lang   string
}

func (t *gcpSpeechTranscriber) Name() string { return TranscriptionProviderGCPSpeech }
func (t *gcpSpeechTranscriber) Close() error { return t.speech.Close() }

func (t *gcpSpeechTranscriber) Transcribe(ctx context.Context, mediaRef string) (string, error) {
	uri, err := gcp.GCSURIFromURL(mediaRef)
	if err != nil {
		return "", err
	}
	return t.speech.TranscribeGCS(ctx, uri, gcp.SpeechConfig{
		LanguageCode:               t.lang,
		EnableAutomaticPunctuation: true,
	})
}

type gcpVideoTranscriber struct {
	video gcp.Video
	lang  string
}

func (t *gcpVideoTranscriber) Name() string { return TranscriptionProviderGCPVideo }
func (t *gcpVideoTranscriber) Close() error { return t.video.Close() }

func (t *gcpVideoTranscriber) Transcribe(ctx context.Context, mediaRef string) (string, error) {
	uri, err := gcp.GCSURIFromURL(mediaRef)
	if err != nil {
		return "", err
	}
	return t.video.TranscribeGCS(ctx, uri, gcp.VideoConfig{
		LanguageCode:               t.lang,
		EnableAutomaticPunctuation: true,
	})
}

type disabledTranscriber struct{}

func (disabledTranscriber) Name() string { return TranscriptionProviderNone }
func (disabledTranscriber) Close() error { return nil }
func (disabledTranscriber) Transcribe(context.Context, string) (string, error) {
	return "", ErrTranscriptionOff
}
