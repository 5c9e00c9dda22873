package app

import (
	"context"

	httpH "github.com/yungbote/coursecast-backend/internal/http/handlers"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
	"github.com/yungbote/coursecast-backend/internal/realtime"
)

type Handlers struct {
	Auth       *httpH.AuthHandler
	Course     *httpH.CourseHandler
	Media      *httpH.MediaHandler
	Enrollment *httpH.EnrollmentHandler
	Chat       *httpH.ChatHandler
	Health     *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, cfg Config, serviceset Services, hub *realtime.Hub, ping func(ctx context.Context) error) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:       httpH.NewAuthHandler(log, serviceset.Auth, cfg.CookieTTL, cfg.CookieSecure),
		Course:     httpH.NewCourseHandler(log, serviceset.Course, serviceset.Video),
		Media:      httpH.NewMediaHandler(log, serviceset.Media, cfg.MaxUploadBytes),
		Enrollment: httpH.NewEnrollmentHandler(log, serviceset.Enrollment),
		Chat:       httpH.NewChatHandler(log, serviceset.Chat, hub),
		Health:     httpH.NewHealthHandler(ping),
	}
}
