package assemblyai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		LanguageCode: "en-US",
		PollInterval: 5 * time.Millisecond,
		Timeout:      5 * time.Second,
		MaxRetries:   retries,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestTranscribePollsUntilCompleted(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "bad key"})
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/transcript":
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["audio_url"] != "https://media.example.com/a.mp4" || req["language_code"] != "en_us" {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unexpected body"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": "tx1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/v2/transcript/tx1":
			if atomic.AddInt32(&polls, 1) < 2 {
				writeJSON(w, http.StatusOK, map[string]any{"id": "tx1", "status": "processing"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": "tx1", "status": "completed", "text": " hello world "})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		}
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv, 0).Transcribe(context.Background(), "https://media.example.com/a.mp4")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("text: got %q", got)
	}
	if n := atomic.LoadInt32(&polls); n != 2 {
		t.Fatalf("polls: want=2 got=%d", n)
	}
}

func TestTranscribeReportsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "tx2", "status": "error", "error": "unsupported format"})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 0).Transcribe(context.Background(), "bad-url")
	if !errors.Is(err, ErrTranscriptFailed) {
		t.Fatalf("want ErrTranscriptFailed got %v", err)
	}
}

func TestTranscribeDoesNotRetryByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "overloaded"})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 0).Transcribe(context.Background(), "https://media.example.com/a.mp4")
	if code := statusCode(err); code != http.StatusServiceUnavailable {
		t.Fatalf("want 503 api error got %v (status %d)", err, code)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls: want=1 got=%d", n)
	}
}

func TestTranscribeRetriesWhenConfigured(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "slow down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "tx3", "status": "completed", "text": "ok"})
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv, 1).Transcribe(context.Background(), "https://media.example.com/a.mp4")
	if err != nil || got != "ok" {
		t.Fatalf("got=%q err=%v", got, err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls: want=2 got=%d", n)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
