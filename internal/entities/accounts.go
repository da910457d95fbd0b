package entities

import (
	"time"
)

// AccountType distinguishes the three account classes in the system.
type AccountType string

const (
	AccountTypeAdmin     AccountType = "admin"
	AccountTypeLibrarian AccountType = "librarian"
	AccountTypeStudent   AccountType = "student"
)

// Admin is a top-level account with no ownership edges in the schema.
type Admin struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:256" json:"name"`
	Phone            string     `gorm:"size:20" json:"phone,omitempty"`
	Email            string     `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash     string     `gorm:"size:255" json:"-"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Librarian is a staff account. Librarians own the students and books
// they registered.
type Librarian struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:256" json:"name"`
	Phone            string     `gorm:"size:20" json:"phone,omitempty"`
	Email            string     `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash     string     `gorm:"size:255" json:"-"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Student is a borrower account, registered by a librarian.
type Student struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:256" json:"name"`
	Phone            string     `gorm:"size:20" json:"phone,omitempty"`
	Email            string     `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash     string     `gorm:"size:255" json:"-"`
	Address          string     `gorm:"size:512" json:"address,omitempty"`
	LibrarianID      uint       `gorm:"index" json:"librarian_id"`
	Librarian        Librarian  `gorm:"foreignKey:LibrarianID" json:"-"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Admin) TableName() string {
	return "admins"
}

func (Librarian) TableName() string {
	return "librarians"
}

func (Student) TableName() string {
	return "students"
}
