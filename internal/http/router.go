package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/coursecast-backend/internal/domain"
	httpH "github.com/yungbote/coursecast-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursecast-backend/internal/http/middleware"
	"github.com/yungbote/coursecast-backend/internal/observability"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics
	Tracing        bool

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler       *httpH.AuthHandler
	CourseHandler     *httpH.CourseHandler
	MediaHandler      *httpH.MediaHandler
	EnrollmentHandler *httpH.EnrollmentHandler
	ChatHandler       *httpH.ChatHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")

	// Auth (public)
	if cfg.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.POST("/signup", cfg.AuthHandler.Signup)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.GET("/isloggedin", cfg.AuthHandler.IsLoggedIn)
		auth.GET("/logout", cfg.AuthHandler.Logout)
	}

	am := cfg.AuthMiddleware
	if am == nil {
		return r
	}
	tutorOnly := am.RequireRole(domain.RoleTutor)
	studentOnly := am.RequireRole(domain.RoleStudent)

	// Course
	course := api.Group("/course", am.RequireAuth())
	if cfg.CourseHandler != nil {
		course.POST("/create", tutorOnly, cfg.CourseHandler.CreateCourse)
		course.POST("/add-video/:courseId", tutorOnly, cfg.CourseHandler.AddVideo)
		course.PUT("/:courseId/metadata", tutorOnly, cfg.CourseHandler.UpdateMetadata)
		course.PUT("/:courseId/video/:videoId", tutorOnly, cfg.CourseHandler.UpdateVideo)
		course.PUT("/:courseId/videos/order", tutorOnly, cfg.CourseHandler.ReorderVideos)
		course.GET("/my-courses", tutorOnly, cfg.CourseHandler.MyCourses)
		course.GET("/:courseId", cfg.CourseHandler.GetCourse)
	}
	if cfg.MediaHandler != nil {
		course.POST("/media", tutorOnly, cfg.MediaHandler.Upload)
	}

	// Enrollment
	if cfg.EnrollmentHandler != nil {
		enrollment := api.Group("/enrollment", am.RequireAuth(), studentOnly)
		enrollment.GET("/avail-courses", cfg.EnrollmentHandler.AvailableCourses)
		enrollment.GET("/:courseId", cfg.EnrollmentHandler.CourseDetails)
		enrollment.POST("/:courseId", cfg.EnrollmentHandler.Enroll)
	}

	// Chat
	if cfg.ChatHandler != nil {
		chat := api.Group("/chat", am.RequireAuth())
		chat.POST("/:courseId", cfg.ChatHandler.SendMessage)
		chat.GET("/:courseId", cfg.ChatHandler.History)
		chat.GET("/:courseId/stream", cfg.ChatHandler.Stream)
	}

	return r
}
