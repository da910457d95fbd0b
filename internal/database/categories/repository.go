// Package categories provides database operations for book categories.
//
// # Usage
//
//	repo := categories.NewRepository(db)
//	cat, err := repo.Create("Fiction")
package categories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category is referenced by books")
)

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new category. Names are unique; a duplicate name fails
// the pre-check here or, in the race case, the unique index.
func (r *Repository) Create(name string) (*entities.Category, error) {
	var existing entities.Category
	err := r.db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, ErrCategoryExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing category: %w", err)
	}

	category := &entities.Category{Name: name}
	if err := r.db.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// GetByID retrieves a category by ID.
func (r *Repository) GetByID(id uint) (*entities.Category, error) {
	var category entities.Category
	err := r.db.First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// GetByName retrieves a category by its unique name.
func (r *Repository) GetByName(name string) (*entities.Category, error) {
	var category entities.Category
	err := r.db.Where("name = ?", name).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// GetAll returns all categories ordered by name.
func (r *Repository) GetAll() ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

// Rename updates a category's name, keeping the uniqueness pre-check.
func (r *Repository) Rename(id uint, name string) (*entities.Category, error) {
	category, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	var existing entities.Category
	err = r.db.Where("name = ? AND id <> ?", name, id).First(&existing).Error
	if err == nil {
		return nil, ErrCategoryExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category.Name = name
	if err := r.db.Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category. Deletion is refused while any book still
// references the category.
func (r *Repository) Delete(id uint) error {
	if _, err := r.GetByID(id); err != nil {
		return err
	}

	var count int64
	if err := r.db.Model(&entities.Book{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	return r.db.Delete(&entities.Category{}, id).Error
}
