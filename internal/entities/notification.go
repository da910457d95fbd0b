package entities

import (
	"time"
)

// Notification is a message delivered to a student, typically an overdue
// notice produced by the sweep.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	StudentID uint       `gorm:"index;not null" json:"student_id"`
	LoanID    uint       `gorm:"index" json:"loan_id,omitempty"`
	Message   string     `gorm:"size:512" json:"message"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
