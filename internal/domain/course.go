package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TranscriptStatus string

const (
	TranscriptStatusCompleted TranscriptStatus = "completed"
	TranscriptStatusFailed    TranscriptStatus = "failed"
)

// Course is the aggregate root. Videos, enrollments and chat messages are embedded
// JSON columns so the whole aggregate is read and written as one row.
type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	Title       string    `gorm:"column:title;not null;size:100" json:"title"`
	Description string    `gorm:"column:description;not null;size:500" json:"description"`
	Thumbnail   string    `gorm:"column:thumbnail;not null" json:"thumbnail"`
	TutorID     uuid.UUID `gorm:"type:uuid;column:tutor_id;not null;index" json:"tutor"`

	Videos      datatypes.JSONSlice[Video]       `gorm:"column:videos" json:"videos"`
	Enrollments datatypes.JSONSlice[Enrollment]  `gorm:"column:enrollments" json:"enrollments"`
	ChatRoom    datatypes.JSONSlice[ChatMessage] `gorm:"column:chat_room" json:"chatRoom"`

	// Version increments on every save; writes are conditional on the version read.
	Version int64 `gorm:"column:version;not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Course) TableName() string { return "courses" }

type Video struct {
	ID               uuid.UUID        `json:"_id"`
	URL              string           `json:"url"`
	Title            string           `json:"title"`
	Transcript       string           `json:"transcript"`
	TranscriptStatus TranscriptStatus `json:"transcriptStatus,omitempty"`
	Order            int              `json:"order"`
	CreatedAt        time.Time        `json:"createdAt"`
}

type Enrollment struct {
	ID         uuid.UUID `json:"_id"`
	StudentID  uuid.UUID `json:"student"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

type ChatMessage struct {
	ID              uuid.UUID  `json:"_id"`
	UserID          uuid.UUID  `json:"user"`
	Text            string     `json:"text"`
	ParentMessageID *uuid.UUID `json:"parentMessage,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// CourseSummary is the tutor dashboard projection; transcripts and embedded
// enrollments/chat are left out.
type CourseSummary struct {
	ID          uuid.UUID      `json:"_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Thumbnail   string         `json:"thumbnail"`
	CreatedAt   time.Time      `json:"createdAt"`
	Videos      []VideoSummary `json:"videos"`
}

type VideoSummary struct {
	ID        uuid.UUID `json:"_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Course) Summary() *CourseSummary {
	out := &CourseSummary{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Thumbnail:   c.Thumbnail,
		CreatedAt:   c.CreatedAt,
		Videos:      make([]VideoSummary, 0, len(c.Videos)),
	}
	for _, v := range c.Videos {
		out.Videos = append(out.Videos, VideoSummary{
			ID:        v.ID,
			Title:     v.Title,
			URL:       v.URL,
			Order:     v.Order,
			CreatedAt: v.CreatedAt,
		})
	}
	return out
}

func (c *Course) VideoIndex(id uuid.UUID) int {
	for i := range c.Videos {
		if c.Videos[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Course) IsEnrolled(studentID uuid.UUID) bool {
	for _, e := range c.Enrollments {
		if e.StudentID == studentID {
			return true
		}
	}
	return false
}

func (c *Course) HasMessage(id uuid.UUID) bool {
	for _, m := range c.ChatRoom {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Clone deep-copies the embedded slices so a reconciler can build a candidate state
// without touching the loaded aggregate.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	out := *c
	out.Videos = append(datatypes.JSONSlice[Video](nil), c.Videos...)
	out.Enrollments = append(datatypes.JSONSlice[Enrollment](nil), c.Enrollments...)
	out.ChatRoom = append(datatypes.JSONSlice[ChatMessage](nil), c.ChatRoom...)
	return &out
}
