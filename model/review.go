package model

import (
	"time"
)

// Review is a student's course review. One row per (course_id, student_id);
// a second submission replaces the first (upsert semantics). Deletes are hard
// deletes: the unique slot must free up so the student can review again.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_review_course_student" json:"course_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_review_course_student" json:"student_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text;not null" json:"comment"`

	// StudentProgress is a snapshot of the enrollment's progress at submission
	// time. IsVerified is derived from it once and not re-evaluated later.
	StudentProgress int  `gorm:"default:0" json:"student_progress"`
	IsVerified      bool `gorm:"default:false" json:"is_verified"`

	// Relationships
	Course  Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Student User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}
