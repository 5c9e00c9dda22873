package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/coursecast-backend/internal/observability"
	"github.com/yungbote/coursecast-backend/internal/services"
)

type instrumentedTranscriber struct {
	inner   services.Transcriber
	metrics *observability.Metrics
	tracer  trace.Tracer
}

func instrumentTranscriber(inner services.Transcriber, metrics *observability.Metrics) services.Transcriber {
	if inner == nil {
		return nil
	}
	return &instrumentedTranscriber{
		inner:   inner,
		metrics: metrics,
		tracer:  otel.Tracer("coursecast/transcription"),
	}
}

func (t *instrumentedTranscriber) Name() string { return t.inner.Name() }
func (t *instrumentedTranscriber) Close() error { return t.inner.Close() }

func (t *instrumentedTranscriber) Transcribe(ctx context.Context, mediaRef string) (string, error) {
	ctx, span := t.tracer.Start(ctx, "transcription.transcribe",
		trace.WithAttributes(attribute.String("transcription.provider", t.inner.Name())))
	defer span.End()

	start := time.Now()
	text, err := t.inner.Transcribe(ctx, mediaRef)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("transcription.chars", len(text)))
	}
	t.metrics.ObserveTranscription(t.inner.Name(), status, time.Since(start))
	return text, err
}
