package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/platform/logger"
	"github.com/yungbote/coursecast-backend/internal/realtime/bus"
	"github.com/yungbote/coursecast-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Course     services.CourseService
	Video      services.VideoService
	Enrollment services.EnrollmentService
	Chat       services.ChatService
	Media      services.MediaService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, emitter *bus.Emitter) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:       services.NewAuthService(log, reposet.User, cfg.JWTSecret, cfg.JWTTTL),
		Course:     services.NewCourseService(log, reposet.Course, reposet.CourseCache),
		Video:      services.NewVideoService(log, reposet.Course, reposet.CourseCache, clients.Transcriber),
		Enrollment: services.NewEnrollmentService(db, log, reposet.Course, reposet.User, reposet.CourseCache),
		Chat:       services.NewChatService(log, reposet.Course, reposet.CourseCache, emitter),
		Media:      services.NewMediaService(log, clients.Bucket),
	}
}
