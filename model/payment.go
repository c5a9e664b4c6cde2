package model

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus represents the state of a course payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// CoursePayment records the payment collaborator's signal for a paid course.
// The engine only reads it as a precondition on enrollment requests; it owns
// no payment logic.
type CoursePayment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	Reference string         `gorm:"type:varchar(100);uniqueIndex" json:"reference"`
	Amount    float64        `gorm:"not null" json:"amount"`
	Currency  string         `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Status    PaymentStatus  `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for CoursePayment
func (CoursePayment) TableName() string {
	return "course_payments"
}
