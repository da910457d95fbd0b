package entities

import (
	"time"
)

// LoanStatus is the stored lifecycle state of a loan.
//
// Only "issued" and "returned" are ever persisted. "overdue" is a derived
// state computed from the due date at read time (see the loans package),
// so no background job has to rewrite rows as time passes.
type LoanStatus string

const (
	LoanStatusIssued   LoanStatus = "issued"
	LoanStatusReturned LoanStatus = "returned"
	LoanStatusOverdue  LoanStatus = "overdue"
)

// Loan records the lending of one book copy to a student.
//
// Created in "issued" state with nil ReturnedAt and nil Fine; transitions
// to "returned" exactly once, at which point ReturnedAt is set and the
// fine is computed from the loan policy.
type Loan struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	BookID       uint       `gorm:"index;not null" json:"book_id"`
	StudentID    uint       `gorm:"index;not null" json:"student_id"`
	LibrarianID  uint       `gorm:"index;not null" json:"librarian_id"`
	IssuedAt     time.Time  `json:"issued_at"`
	DueDate      time.Time  `gorm:"index" json:"due_date"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	RenewalCount int        `gorm:"default:0" json:"renewal_count"`
	Fine         *int64     `json:"fine,omitempty"`
	Status       LoanStatus `gorm:"size:20;default:'issued'" json:"status"`

	Book      Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Student   Student   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Librarian Librarian `gorm:"foreignKey:LibrarianID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open reports whether the loan has not been returned yet.
func (l *Loan) Open() bool {
	return l.ReturnedAt == nil
}

func (Loan) TableName() string {
	return "loans"
}
