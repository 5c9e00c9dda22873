package app

import (
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/data/repos"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

type Repos struct {
	User        repos.UserRepo
	Course      repos.CourseRepo
	CourseCache repos.CourseCache
}

func wireRepos(db *gorm.DB, rdb *goredis.Client, cfg Config, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	cache := repos.NewNoopCourseCache()
	if rdb != nil {
		cache = repos.NewRedisCourseCache(rdb, cfg.CourseCacheTTL, log)
	}
	return Repos{
		User:        repos.NewUserRepo(db, log),
		Course:      repos.NewCourseRepo(db, log),
		CourseCache: cache,
	}
}
