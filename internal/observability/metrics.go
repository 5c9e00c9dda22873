package observability

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

type MetricsConfig struct {
	Enabled        bool
	ScrapeInterval time.Duration
}

type Metrics struct {
	apiRequests          *CounterVec
	apiLatency           *HistogramVec
	apiInflight          *Gauge
	apiReqError          *Counter
	transcriptions       *CounterVec
	transcriptionLatency *HistogramVec
	realtimeRooms        *Gauge
	pgStats              *GaugeVec
	redisUp              *Gauge
	redisPing            *Gauge

	scrapeInterval time.Duration
}

// NewMetrics returns nil when metrics are disabled. Every method is safe on a nil receiver.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	interval := cfg.ScrapeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Metrics{
		apiRequests: NewCounterVec("cc_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cc_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("cc_api_inflight_requests", "In-flight API requests."),
		apiReqError: NewCounter("cc_api_requests_error_total", "API requests answered with a 5xx status."),
		transcriptions: NewCounterVec(
			"cc_transcriptions_total",
			"Transcription attempts by provider/status.",
			[]string{"provider", "status"},
		),
		transcriptionLatency: NewHistogramVec(
			"cc_transcription_duration_seconds",
			"Transcription latency in seconds by provider/status.",
			[]string{"provider", "status"},
			[]float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		),
		realtimeRooms:  NewGauge("cc_realtime_rooms", "Chat rooms with at least one live connection."),
		pgStats:        NewGaugeVec("cc_postgres_pool", "Postgres connection pool stats.", []string{"stat"}),
		redisUp:        NewGauge("cc_redis_up", "1 when the last redis ping succeeded."),
		redisPing:      NewGauge("cc_redis_ping_seconds", "Latency of the last redis ping."),
		scrapeInterval: interval,
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface {
		WritePrometheus(w io.Writer) error
	}{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqError,
		m.transcriptions, m.transcriptionLatency,
		m.realtimeRooms, m.pgStats, m.redisUp, m.redisPing,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveTranscription(provider, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.transcriptions.Inc(provider, status)
	m.transcriptionLatency.Observe(dur.Seconds(), provider, status)
}

// StartRealtimeCollector samples the live room count of the hub.
func (m *Metrics) StartRealtimeCollector(ctx context.Context, rooms interface{ RoomCount() int }) {
	if m == nil || rooms == nil {
		return
	}
	go m.every(ctx, func() {
		m.realtimeRooms.Set(float64(rooms.RoomCount()))
	})
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go m.every(ctx, func() {
		sqlDB, err := db.DB()
		if err != nil {
			if log != nil {
				log.Warn("metrics: postgres stats unavailable", "error", err)
			}
			return
		}
		stats := sqlDB.Stats()
		m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
		m.pgStats.Set(float64(stats.InUse), "in_use")
		m.pgStats.Set(float64(stats.Idle), "idle")
		m.pgStats.Set(float64(stats.WaitCount), "wait_count")
		m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
		m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
	})
}

// StartRedisCollector pings rdb on every tick. The client is owned by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	go m.every(ctx, func() {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil && ctx.Err() == nil {
				log.Warn("metrics: redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}

func (m *Metrics) every(ctx context.Context, fn func()) {
	ticker := time.NewTicker(m.scrapeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
