package gcp

import (
	"context"
	"errors"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	vipb "cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWithRetryNoRetriesByDefault(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), 0, func() (string, error) {
		calls++
		return "", status.Error(codes.Unavailable, "down")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), 3, func() (string, error) {
		calls++
		return "", status.Error(codes.InvalidArgument, "bad audio")
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestWithRetryRecoversFromTransientError(t *testing.T) {
	calls := 0
	got, err := withRetry(context.Background(), 2, func() (string, error) {
		calls++
		if calls == 1 {
			return "", status.Error(codes.Unavailable, "blip")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("got=%q err=%v", got, err)
	}
}

func TestWithRetryHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := withRetry(ctx, 2, func() (string, error) { return "x", nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got %v", err)
	}
}

func TestSpeechTextJoinsAlternatives(t *testing.T) {
	resp := &speechpb.LongRunningRecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " Hello  there. "}}},
			nil,
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "General Kenobi."}}},
		},
	}
	if got := speechText(resp); got != "Hello there. General Kenobi." {
		t.Fatalf("speechText: got %q", got)
	}
	if got := speechText(nil); got != "" {
		t.Fatalf("speechText(nil): got %q", got)
	}
}

func TestVideoTextReadsFirstAnnotation(t *testing.T) {
	resp := &vipb.AnnotateVideoResponse{
		AnnotationResults: []*vipb.VideoAnnotationResults{{
			SpeechTranscriptions: []*vipb.SpeechTranscription{
				{Alternatives: []*vipb.SpeechRecognitionAlternative{{Transcript: "intro to"}}},
				{Alternatives: []*vipb.SpeechRecognitionAlternative{{Transcript: "channels"}}},
			},
		}},
	}
	if got := videoText(resp); got != "intro to channels" {
		t.Fatalf("videoText: got %q", got)
	}
}
