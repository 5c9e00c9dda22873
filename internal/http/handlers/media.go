package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecast-backend/internal/http/response"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
	"github.com/yungbote/coursecast-backend/internal/services"
)

const defaultMaxUploadBytes = 2 << 30

type MediaHandler struct {
	log          *logger.Logger
	mediaService services.MediaService
	maxBytes     int64
}

func NewMediaHandler(log *logger.Logger, mediaService services.MediaService, maxBytes int64) *MediaHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &MediaHandler{
		log:          log.With("handler", "MediaHandler"),
		mediaService: mediaService,
		maxBytes:     maxBytes,
	}
}

// POST /api/course/media (multipart/form-data, field "file")
func (h *MediaHandler) Upload(c *gin.Context) {
	tutorID, _, ok := caller(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "open_file_failed", err)
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	uploaded, err := h.mediaService.Upload(c.Request.Context(), tutorID, fh.Filename, contentType, f)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidInput) && !errors.Is(err, services.ErrMediaDisabled) {
			h.log.Error("Media upload failed", "error", err, "tutor_id", tutorID)
		}
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"mediaReference": uploaded.MediaReference,
		"url":            uploaded.URL,
		"key":            uploaded.Key,
	})
}
