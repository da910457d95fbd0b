package entities

import (
	"time"
)

// Category groups books by subject. Names are unique.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Book is a catalog entry covering all physical copies of a title.
// Invariant: 0 <= CopiesAvailable <= TotalCopies, and the difference
// equals the number of open loans for the book.
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"index;size:512" json:"title"`
	Author          string    `gorm:"index;size:256" json:"author"`
	ISBN            string    `gorm:"uniqueIndex;size:20" json:"isbn"`
	CategoryID      uint      `gorm:"index" json:"category_id"`
	Category        Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	TotalCopies     int       `gorm:"default:1" json:"total_copies"`
	CopiesAvailable int       `gorm:"default:1" json:"copies_available"`
	LibrarianID     uint      `gorm:"index" json:"librarian_id"`
	Librarian       Librarian `gorm:"foreignKey:LibrarianID" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Available reports whether at least one copy can be issued.
func (b *Book) Available() bool {
	return b.CopiesAvailable > 0
}

func (Category) TableName() string {
	return "categories"
}

func (Book) TableName() string {
	return "books"
}
