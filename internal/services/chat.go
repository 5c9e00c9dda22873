package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/data/repos"
	"github.com/yungbote/coursecast-backend/internal/domain"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
	"github.com/yungbote/coursecast-backend/internal/realtime"
)

const maxChatMessageLen = 2000

// RealtimeEmitter delivers a message to every live member of its room.
type RealtimeEmitter interface {
	Emit(ctx context.Context, msg realtime.Message)
}

type SendMessageInput struct {
	Text            string
	ParentMessageID *uuid.UUID
}

type ChatService interface {
	SendMessage(ctx context.Context, userID uuid.UUID, courseID uuid.UUID, in SendMessageInput) (*domain.ChatMessage, error)
	History(ctx context.Context, userID uuid.UUID, courseID uuid.UUID) ([]domain.ChatMessage, error)
	// Authorize reports whether userID may read and post in the course room.
	Authorize(ctx context.Context, userID uuid.UUID, courseID uuid.UUID) error
}

type chatService struct {
	log     *logger.Logger
	writer  *courseWriter
	emitter RealtimeEmitter
	now     func() time.Time
}

func NewChatService(baseLog *logger.Logger, courseRepo repos.CourseRepo, cache repos.CourseCache, emitter RealtimeEmitter) ChatService {
	serviceLog := baseLog.With("service", "ChatService")
	if cache == nil {
		cache = repos.NewNoopCourseCache()
	}
	return &chatService{
		log:     serviceLog,
		writer:  &courseWriter{log: serviceLog, courseRepo: courseRepo, cache: cache},
		emitter: emitter,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func memberOf(userID uuid.UUID) func(c *domain.Course) error {
	return func(c *domain.Course) error {
		if c.TutorID == userID || c.IsEnrolled(userID) {
			return nil
		}
		return ErrForbidden
	}
}

func (cs *chatService) Authorize(ctx context.Context, userID uuid.UUID, courseID uuid.UUID) error {
	course, err := cs.writer.load(ctx, courseID)
	if err != nil {
		return err
	}
	return memberOf(userID)(course)
}

func (cs *chatService) SendMessage(ctx context.Context, userID uuid.UUID, courseID uuid.UUID, in SendMessageInput) (*domain.ChatMessage, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, invalidf("text is required")
	}
	if len([]rune(text)) > maxChatMessageLen {
		return nil, invalidf("text must be at most %d characters", maxChatMessageLen)
	}

	msg := domain.ChatMessage{
		ID:              uuid.New(),
		UserID:          userID,
		Text:            text,
		ParentMessageID: in.ParentMessageID,
		CreatedAt:       cs.now(),
	}
	if _, err := cs.writer.mutate(ctx, courseID, memberOf(userID), func(c *domain.Course) error {
		if msg.ParentMessageID != nil && !c.HasMessage(*msg.ParentMessageID) {
			return ErrParentMessageAbsent
		}
		c.ChatRoom = append(c.ChatRoom, msg)
		return nil
	}); err != nil {
		return nil, err
	}

	if cs.emitter != nil {
		cs.emitter.Emit(ctx, realtime.Message{
			Room:  realtime.CourseRoom(courseID),
			Event: realtime.EventChatMessageCreated,
			Data:  msg,
		})
	}
	return &msg, nil
}

func (cs *chatService) History(ctx context.Context, userID uuid.UUID, courseID uuid.UUID) ([]domain.ChatMessage, error) {
	course, err := cs.writer.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := memberOf(userID)(course); err != nil {
		return nil, err
	}
	out := make([]domain.ChatMessage, len(course.ChatRoom))
	copy(out, course.ChatRoom)
	return out, nil
}
