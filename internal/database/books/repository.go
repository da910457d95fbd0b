// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByISBN("9780134190440")
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrBookNotFound     = errors.New("book not found")
	ErrISBNExists       = errors.New("book with this ISBN already exists")
	ErrBookHasOpenLoans = errors.New("book has open loans")
	ErrInvalidCopyCount = errors.New("total copies must cover copies currently on loan")
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new book. ISBN is unique; CopiesAvailable starts equal
// to TotalCopies.
func (r *Repository) Create(book *entities.Book) (*entities.Book, error) {
	var existing entities.Book
	err := r.db.Where("isbn = ?", book.ISBN).First(&existing).Error
	if err == nil {
		return nil, ErrISBNExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing book: %w", err)
	}

	if book.TotalCopies <= 0 {
		book.TotalCopies = 1
	}
	book.CopiesAvailable = book.TotalCopies

	if err := r.db.Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// GetByID retrieves a book with its category preloaded.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Category").First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// GetByISBN retrieves a book by its unique ISBN.
func (r *Repository) GetByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Category").Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// GetAll returns the full catalog with categories preloaded.
func (r *Repository) GetAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Category").Order("title ASC").Find(&books).Error
	return books, err
}

// GetByCategory returns all books in a category.
func (r *Repository) GetByCategory(categoryID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Category").Where("category_id = ?", categoryID).
		Order("title ASC").Find(&books).Error
	return books, err
}

// Search finds books whose title or author matches the query.
func (r *Repository) Search(query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + query + "%"
	err := r.db.Preload("Category").
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern).
		Order("title ASC").Find(&books).Error
	return books, err
}

// Update modifies catalog fields. A change to TotalCopies adjusts
// CopiesAvailable by the same delta so the open-loan count is preserved;
// shrinking below the number of copies on loan is refused.
func (r *Repository) Update(id uint, title, author string, categoryID uint, totalCopies int) (*entities.Book, error) {
	book, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	if title != "" {
		book.Title = title
	}
	if author != "" {
		book.Author = author
	}
	if categoryID > 0 {
		book.CategoryID = categoryID
	}
	if totalCopies > 0 && totalCopies != book.TotalCopies {
		onLoan := book.TotalCopies - book.CopiesAvailable
		if totalCopies < onLoan {
			return nil, ErrInvalidCopyCount
		}
		book.CopiesAvailable = totalCopies - onLoan
		book.TotalCopies = totalCopies
	}

	if err := r.db.Save(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes a book from the catalog. Refused while open loans exist.
func (r *Repository) Delete(id uint) error {
	if _, err := r.GetByID(id); err != nil {
		return err
	}

	var open int64
	err := r.db.Model(&entities.Loan{}).
		Where("book_id = ? AND returned_at IS NULL", id).Count(&open).Error
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrBookHasOpenLoans
	}

	return r.db.Delete(&entities.Book{}, id).Error
}
