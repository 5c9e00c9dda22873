package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/http/response"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
	"github.com/yungbote/coursecast-backend/internal/realtime"
	"github.com/yungbote/coursecast-backend/internal/services"
)

var errRealtimeUnavailable = errors.New("realtime is shutting down")

type ChatHandler struct {
	log         *logger.Logger
	chatService services.ChatService
	hub         *realtime.Hub
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService, hub *realtime.Hub) *ChatHandler {
	return &ChatHandler{
		log:         log.With("handler", "ChatHandler"),
		chatService: chatService,
		hub:         hub,
	}
}

// POST /api/chat/:courseId
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	var req struct {
		Text          string  `json:"text"`
		ParentMessage *string `json:"parentMessage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := services.SendMessageInput{Text: req.Text}
	if req.ParentMessage != nil && *req.ParentMessage != "" {
		parentID, err := uuid.Parse(*req.ParentMessage)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_parentMessage", err)
			return
		}
		in.ParentMessageID = &parentID
	}
	msg, err := h.chatService.SendMessage(c.Request.Context(), userID, courseID, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": msg})
}

// GET /api/chat/:courseId
func (h *ChatHandler) History(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	messages, err := h.chatService.History(c.Request.Context(), userID, courseID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": len(messages), "messages": messages})
}

// GET /api/chat/:courseId/stream holds an SSE connection joined to the course room.
func (h *ChatHandler) Stream(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	if err := h.chatService.Authorize(c.Request.Context(), userID, courseID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	client := h.hub.Connect(userID)
	if client == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "realtime_unavailable", errRealtimeUnavailable)
		return
	}
	defer h.hub.Disconnect(client)

	room := realtime.CourseRoom(courseID)
	h.hub.Join(client, room)
	h.log.Debug("Chat stream open", "user_id", userID, "room", room, "client_id", client.ID)
	h.hub.ServeSSE(c.Writer, c.Request, client)
	h.log.Debug("Chat stream closed", "user_id", userID, "room", room, "client_id", client.ID)
}
