package model

import (
	"time"

	"gorm.io/gorm"
)

// QuizKind distinguishes how a quiz counts toward certificate requirements
type QuizKind string

const (
	QuizKindQuiz       QuizKind = "quiz"
	QuizKindFinalExam  QuizKind = "final_exam"
	QuizKindAssignment QuizKind = "assignment"
)

// CertificateRequirements configures which checks gate certificate issuance for a course.
// Embedded into Course with a cert_req_ column prefix.
type CertificateRequirements struct {
	CompleteAllLessons  bool    `gorm:"default:true" json:"complete_all_lessons"`
	PassFinalExam       bool    `gorm:"default:false" json:"pass_final_exam"`
	PassAllQuizzes      bool    `gorm:"default:false" json:"pass_all_quizzes"`
	CompleteAssignments bool    `gorm:"default:false" json:"complete_assignments"`
	MinimumGrade        float64 `gorm:"default:70" json:"minimum_grade"` // percentage 0-100
}

// Course represents a sellable course with its content structure and
// denormalized engine counters. The counters are a cache over Enrollments,
// Reviews and StudentActivity; the reconciliation job rewrites them from scans.
type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"not null" json:"title"`
	Category    string         `gorm:"type:varchar(100);index" json:"category"`
	Instructor  string         `gorm:"type:varchar(255)" json:"instructor"`
	Description string         `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"default:0" json:"price"` // 0 means free

	Requirements CertificateRequirements `gorm:"embedded;embeddedPrefix:cert_req_" json:"certificate_requirements"`

	// Denormalized counters (cache; reconciled from scans by the cron job)
	EnrollmentCount     int64   `gorm:"default:0" json:"enrollment_count"`
	CompletionCount     int64   `gorm:"default:0" json:"completion_count"`
	AverageRating       float64 `gorm:"default:0" json:"average_rating"`
	RatingCount         int64   `gorm:"default:0" json:"rating_count"`
	ActiveStudentsCount int64   `gorm:"default:0" json:"active_students_count"`

	// Relationships
	Modules     []CourseModule    `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"modules,omitempty"`
	Quizzes     []Quiz            `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"quizzes,omitempty"`
	Enrollments []Enrollment      `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Reviews     []Review          `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Activity    []StudentActivity `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// CourseModule represents an ordered unit of course content
type CourseModule struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	Title     string         `gorm:"not null" json:"title"`
	Position  int            `gorm:"not null;default:0" json:"position"`

	// Relationships
	Course  Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Lessons []Lesson `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

// TableName specifies the table name for CourseModule
func (CourseModule) TableName() string {
	return "course_modules"
}

// Lesson represents a single lesson within a module
type Lesson struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	ModuleID         uint           `gorm:"not null;index" json:"module_id"`
	Title            string         `gorm:"not null" json:"title"`
	Position         int            `gorm:"not null;default:0" json:"position"`
	EstimatedMinutes int            `gorm:"default:0" json:"estimated_minutes"`

	// Relationships
	Module CourseModule `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"-"`
}

// Quiz represents a graded assessment attached to a course. Kind controls
// which certificate requirement the quiz counts toward.
type Quiz struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	ModuleID  *uint          `gorm:"index" json:"module_id,omitempty"`
	Title     string         `gorm:"not null" json:"title"`
	Kind      QuizKind       `gorm:"type:varchar(20);not null;default:'quiz'" json:"kind"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}
