package repos

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursecast-backend/internal/domain"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

const (
	courseDetailKeyPrefix  = "course:detail:"
	courseVersionKeyPrefix = "course:version:"
)

// CourseCache holds fully loaded aggregates for the student read path. Misses and
// backend errors are indistinguishable to callers; the database stays authoritative.
//
// Invalidate records the version a writer just committed. Set drops any course
// older than that, so a read that raced a write cannot repopulate stale data.
type CourseCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Course, bool)
	Set(ctx context.Context, course *domain.Course)
	Invalidate(ctx context.Context, id uuid.UUID, version int64)
}

// KEYS: detail, version. ARGV: version, payload, ttl ms.
var setIfCurrentScript = goredis.NewScript(`
local floor = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[1]) < floor then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// KEYS: detail, version. ARGV: version, ttl ms.
var invalidateScript = goredis.NewScript(`
redis.call('DEL', KEYS[1])
local floor = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[1]) > floor then
  redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
end
return 1
`)

type redisCourseCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedisCourseCache(rdb *goredis.Client, ttl time.Duration, baseLog *logger.Logger) CourseCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisCourseCache{rdb: rdb, ttl: ttl, log: baseLog.With("repo", "CourseCache")}
}

func courseDetailKey(id uuid.UUID) string  { return courseDetailKeyPrefix + id.String() }
func courseVersionKey(id uuid.UUID) string { return courseVersionKeyPrefix + id.String() }

func (c *redisCourseCache) Get(ctx context.Context, id uuid.UUID) (*domain.Course, bool) {
	raw, err := c.rdb.Get(ctx, courseDetailKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("Course cache read failed", "course_id", id, "error", err)
		}
		return nil, false
	}
	var course domain.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		c.log.Warn("Course cache entry undecodable", "course_id", id, "error", err)
		return nil, false
	}
	return &course, true
}

func (c *redisCourseCache) Set(ctx context.Context, course *domain.Course) {
	if course == nil {
		return
	}
	raw, err := json.Marshal(course)
	if err != nil {
		return
	}
	keys := []string{courseDetailKey(course.ID), courseVersionKey(course.ID)}
	stored, err := setIfCurrentScript.Run(ctx, c.rdb, keys, course.Version, raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Warn("Course cache write failed", "course_id", course.ID, "error", err)
		return
	}
	if stored == 0 {
		c.log.Debug("Course cache write skipped for superseded version", "course_id", course.ID, "version", course.Version)
	}
}

func (c *redisCourseCache) Invalidate(ctx context.Context, id uuid.UUID, version int64) {
	keys := []string{courseDetailKey(id), courseVersionKey(id)}
	// The floor outlives the entry it guards.
	ttl := 2 * c.ttl.Milliseconds()
	if err := invalidateScript.Run(ctx, c.rdb, keys, version, ttl).Err(); err != nil {
		c.log.Warn("Course cache invalidate failed", "course_id", id, "error", err)
	}
}

type noopCourseCache struct{}

// NewNoopCourseCache is used when REDIS_ADDR is unset.
func NewNoopCourseCache() CourseCache { return noopCourseCache{} }

func (noopCourseCache) Get(context.Context, uuid.UUID) (*domain.Course, bool) { return nil, false }
func (noopCourseCache) Set(context.Context, *domain.Course)                   {}
func (noopCourseCache) Invalidate(context.Context, uuid.UUID, int64)          {}
