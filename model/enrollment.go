package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnrollmentStatus represents the approval state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusPending  EnrollmentStatus = "pending"
	EnrollmentStatusApproved EnrollmentStatus = "approved"
	EnrollmentStatusRejected EnrollmentStatus = "rejected"
)

// QuizScore records a student's best result on one quiz
type QuizScore struct {
	QuizID     uint    `json:"quiz_id"`
	Percentage float64 `json:"percentage"` // 0-100
}

// Enrollment is the single authoritative record of one student's relationship
// to one course: approval state, progress and quiz results. One row per
// (course_id, student_id) pair.
type Enrollment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;uniqueIndex:idx_course_student" json:"course_id"`
	StudentID uint           `gorm:"not null;uniqueIndex:idx_course_student" json:"student_id"`

	Status         EnrollmentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ApprovedAt     *time.Time       `json:"approved_at,omitempty"`
	RejectedAt     *time.Time       `json:"rejected_at,omitempty"`
	RejectedReason string           `gorm:"type:text" json:"rejected_reason,omitempty"`

	Progress      int                            `gorm:"default:0" json:"progress"` // 0-100
	Completed     bool                           `gorm:"default:false" json:"completed"`
	CompletedAt   *time.Time                     `json:"completed_at,omitempty"`
	CurrentModule int                            `gorm:"default:0" json:"current_module"`
	QuizScores    datatypes.JSONSlice[QuizScore] `json:"quiz_scores"`
	LastAccessed  *time.Time                     `json:"last_accessed,omitempty"`

	// Version guards state transitions against concurrent writers
	Version int `gorm:"default:0" json:"-"`

	// Relationships
	Course  Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Student User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// ScoreFor returns the recorded score for a quiz, if any
func (e *Enrollment) ScoreFor(quizID uint) (QuizScore, bool) {
	for _, s := range e.QuizScores {
		if s.QuizID == quizID {
			return s, true
		}
	}
	return QuizScore{}, false
}

// LessonCompletion marks one lesson as finished by one enrollment.
// Progress is derived from these rows, never stored as the source of truth.
type LessonCompletion struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EnrollmentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_lesson" json:"enrollment_id"`
	LessonID     uint      `gorm:"not null;uniqueIndex:idx_enrollment_lesson" json:"lesson_id"`
	CreatedAt    time.Time `json:"created_at"`

	// Relationships
	Enrollment Enrollment `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
	Lesson     Lesson     `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for LessonCompletion
func (LessonCompletion) TableName() string {
	return "lesson_completions"
}
