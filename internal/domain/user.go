package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleTutor   Role = "tutor"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleTutor || r == RoleStudent
}

// User is a single record for every account; Role selects which optional fields apply.
// EnrolledCourses is only populated for students.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	Name     string    `gorm:"column:name;not null" json:"name"`
	Email    string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Password string    `gorm:"column:password;not null" json:"-"`
	Role     Role      `gorm:"column:role;not null;default:tutor;index" json:"role"`

	EnrolledCourses datatypes.JSONSlice[uuid.UUID] `gorm:"column:enrolled_courses" json:"enrolledCourses,omitempty"`
	// Version guards EnrolledCourses against lost updates.
	Version int64 `gorm:"column:version;not null;default:1" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) IsStudent() bool { return u != nil && u.Role == RoleStudent }
func (u *User) IsTutor() bool   { return u != nil && u.Role == RoleTutor }

func (u *User) HasEnrollment(courseID uuid.UUID) bool {
	if !u.IsStudent() {
		return false
	}
	for _, id := range u.EnrolledCourses {
		if id == courseID {
			return true
		}
	}
	return false
}

// PublicUser is the shape returned to clients.
type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
