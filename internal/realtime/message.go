package realtime

import (
	"github.com/google/uuid"
)

type Event string

const (
	EventChatMessageCreated Event = "ChatMessageCreated"
	EventCourseUpdated      Event = "CourseUpdated"
)

type Message struct {
	Room  string `json:"room"`
	Event Event  `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// CourseRoom is the room every member of a course listens on.
func CourseRoom(courseID uuid.UUID) string {
	return "course:" + courseID.String()
}
