package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursecast-backend/internal/observability"
	"github.com/yungbote/coursecast-backend/internal/platform/gcp"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
	"github.com/yungbote/coursecast-backend/internal/realtime/bus"
	"github.com/yungbote/coursecast-backend/internal/services"
)

// Clients holds the external connections. Redis and the bucket are optional:
// without them chat fan-out stays in-process and media upload is disabled.
type Clients struct {
	Redis       *goredis.Client
	Bus         bus.Bus
	Bucket      gcp.BucketService
	Transcriber services.Transcriber
}

func wireClients(log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	if cfg.RedisAddr != "" {
		rdb, err := bus.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
		b, err := bus.NewRedisBus(log, rdb, cfg.RedisChannel)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init realtime bus: %w", err)
		}
		out.Bus = b
	} else {
		log.Warn("REDIS_ADDR not set; chat fan-out and course cache are process-local")
	}

	if cfg.Bucket.Name != "" {
		bucket, err := gcp.NewBucketService(log, cfg.Bucket)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init bucket client: %w", err)
		}
		out.Bucket = bucket
	} else {
		log.Warn("MEDIA_GCS_BUCKET not set; media upload disabled")
	}

	transcriber, err := services.NewTranscriber(log, cfg.Transcription)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init transcriber: %w", err)
	}
	out.Transcriber = instrumentTranscriber(transcriber, metrics)
	log.Info("Transcription provider ready", "provider", transcriber.Name())

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Transcriber != nil {
		_ = c.Transcriber.Close()
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
