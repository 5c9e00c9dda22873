package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/http/response"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
	"github.com/yungbote/coursecast-backend/internal/services"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
	videoService  services.VideoService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService, videoService services.VideoService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
		videoService:  videoService,
	}
}

// POST /api/course/create
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	tutorID, _, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Thumbnail   string `json:"thumbnail"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.courseService.CreateCourse(c.Request.Context(), tutorID, services.CreateCourseInput{
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": "Course created successfully", "course": course})
}

// PUT /api/course/:courseId/metadata
func (h *CourseHandler) UpdateMetadata(c *gin.Context) {
	tutorID, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Thumbnail   *string `json:"thumbnail"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.courseService.UpdateMetadata(c.Request.Context(), tutorID, courseID, services.UpdateMetadataInput{
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Course updated successfully", "course": course})
}

// POST /api/course/add-video/:courseId
func (h *CourseHandler) AddVideo(c *gin.Context) {
	tutorID, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	var req struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.videoService.AddVideo(c.Request.Context(), tutorID, courseID, services.AddVideoInput{
		URL:   req.URL,
		Title: req.Title,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Video added successfully", "course": course})
}

// PUT /api/course/:courseId/video/:videoId
func (h *CourseHandler) UpdateVideo(c *gin.Context) {
	tutorID, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	videoID, ok := uuidParam(c, "videoId")
	if !ok {
		return
	}
	var req struct {
		Title *string `json:"title"`
		URL   *string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.videoService.UpdateVideo(c.Request.Context(), tutorID, courseID, videoID, services.UpdateVideoInput{
		Title: req.Title,
		URL:   req.URL,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Video updated successfully", "course": course})
}

// PUT /api/course/:courseId/videos/order
func (h *CourseHandler) ReorderVideos(c *gin.Context) {
	tutorID, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	var req struct {
		VideoIDs *[]string `json:"videoIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.VideoIDs == nil {
		response.RespondServiceError(c, services.ErrInvalidInput)
		return
	}
	ids, malformed := parseVideoIDs(*req.VideoIDs)
	if len(malformed) > 0 {
		response.RespondErrorDetails(c, http.StatusBadRequest, "invalid_video_order",
			fmt.Errorf("%w: malformed video ids", services.ErrInvalidInput),
			map[string]any{"invalidVideoIds": malformed})
		return
	}
	course, err := h.videoService.ReorderVideos(c.Request.Context(), tutorID, courseID, ids)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Videos reordered successfully", "course": course})
}

func parseVideoIDs(raw []string) ([]uuid.UUID, []string) {
	ids := make([]uuid.UUID, 0, len(raw))
	var malformed []string
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			malformed = append(malformed, s)
			continue
		}
		ids = append(ids, id)
	}
	return ids, malformed
}

// GET /api/course/my-courses
func (h *CourseHandler) MyCourses(c *gin.Context) {
	tutorID, _, ok := caller(c)
	if !ok {
		return
	}
	courses, err := h.courseService.ListMine(c.Request.Context(), tutorID)
	if err != nil {
		h.log.Error("MyCourses failed", "error", err, "tutor_id", tutorID)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": len(courses), "courses": courses})
}

// GET /api/course/:courseId
func (h *CourseHandler) GetCourse(c *gin.Context) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	course, err := h.courseService.GetCourse(c.Request.Context(), userID, role, courseID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}
