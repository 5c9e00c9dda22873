package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecast-backend/internal/http/response"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
	"github.com/yungbote/coursecast-backend/internal/services"
)

type EnrollmentHandler struct {
	log               *logger.Logger
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(log *logger.Logger, enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		log:               log.With("handler", "EnrollmentHandler"),
		enrollmentService: enrollmentService,
	}
}

// GET /api/enrollment/avail-courses
func (h *EnrollmentHandler) AvailableCourses(c *gin.Context) {
	studentID, _, ok := caller(c)
	if !ok {
		return
	}
	courses, err := h.enrollmentService.AvailableCourses(c.Request.Context(), studentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": len(courses), "courses": courses})
}

// GET /api/enrollment/:courseId
func (h *EnrollmentHandler) CourseDetails(c *gin.Context) {
	if _, _, ok := caller(c); !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	details, err := h.enrollmentService.CourseDetails(c.Request.Context(), courseID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": details})
}

// POST /api/enrollment/:courseId
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	studentID, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	if _, err := h.enrollmentService.Enroll(c.Request.Context(), studentID, courseID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Enrolled successfully", "courseId": courseID})
}
