package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/coursecast-backend/internal/http"
	"github.com/yungbote/coursecast-backend/internal/observability"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlerset Handlers, mw Middleware) *gin.Engine {
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        metrics,
		Tracing:        cfg.Otel.Enabled,

		AuthMiddleware: mw.Auth,

		AuthHandler:       handlerset.Auth,
		CourseHandler:     handlerset.Course,
		MediaHandler:      handlerset.Media,
		EnrollmentHandler: handlerset.Enrollment,
		ChatHandler:       handlerset.Chat,
		HealthHandler:     handlerset.Health,
	})
}
