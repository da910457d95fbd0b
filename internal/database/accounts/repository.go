// Package accounts provides database operations for the three account
// classes: students, librarians, and admins. Account creation goes through
// the auth service, which owns password hashing and duplicate checks.
package accounts

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrLibrarianNotFound  = errors.New("librarian not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrStudentHasOpenLoans = errors.New("student has open loans")
)

// Repository handles account database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new accounts repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// --- Students ---

func (r *Repository) GetStudentByID(id uint) (*entities.Student, error) {
	var student entities.Student
	err := r.db.First(&student, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (r *Repository) GetStudentByEmail(email string) (*entities.Student, error) {
	var student entities.Student
	err := r.db.Where("email = ?", email).First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (r *Repository) GetAllStudents() ([]entities.Student, error) {
	var students []entities.Student
	err := r.db.Order("name ASC").Find(&students).Error
	return students, err
}

// GetStudentsForLibrarian returns the students a librarian registered.
func (r *Repository) GetStudentsForLibrarian(librarianID uint) ([]entities.Student, error) {
	var students []entities.Student
	err := r.db.Where("librarian_id = ?", librarianID).Order("name ASC").Find(&students).Error
	return students, err
}

// UpdateStudent modifies profile fields. Empty values leave the field unchanged.
func (r *Repository) UpdateStudent(id uint, name, phone, address string) (*entities.Student, error) {
	student, err := r.GetStudentByID(id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		student.Name = name
	}
	if phone != "" {
		student.Phone = phone
	}
	if address != "" {
		student.Address = address
	}
	if err := r.db.Save(student).Error; err != nil {
		return nil, err
	}
	return student, nil
}

// DeleteStudent removes a student account. Refused while the student has
// open loans, to keep the loan ledger consistent.
func (r *Repository) DeleteStudent(id uint) error {
	if _, err := r.GetStudentByID(id); err != nil {
		return err
	}

	var open int64
	err := r.db.Model(&entities.Loan{}).
		Where("student_id = ? AND returned_at IS NULL", id).Count(&open).Error
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrStudentHasOpenLoans
	}

	return r.db.Delete(&entities.Student{}, id).Error
}

// --- Librarians ---

func (r *Repository) GetLibrarianByID(id uint) (*entities.Librarian, error) {
	var librarian entities.Librarian
	err := r.db.First(&librarian, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibrarianNotFound
		}
		return nil, err
	}
	return &librarian, nil
}

func (r *Repository) GetLibrarianByEmail(email string) (*entities.Librarian, error) {
	var librarian entities.Librarian
	err := r.db.Where("email = ?", email).First(&librarian).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibrarianNotFound
		}
		return nil, err
	}
	return &librarian, nil
}

func (r *Repository) GetAllLibrarians() ([]entities.Librarian, error) {
	var librarians []entities.Librarian
	err := r.db.Order("name ASC").Find(&librarians).Error
	return librarians, err
}

func (r *Repository) UpdateLibrarian(id uint, name, phone string) (*entities.Librarian, error) {
	librarian, err := r.GetLibrarianByID(id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		librarian.Name = name
	}
	if phone != "" {
		librarian.Phone = phone
	}
	if err := r.db.Save(librarian).Error; err != nil {
		return nil, err
	}
	return librarian, nil
}

func (r *Repository) DeleteLibrarian(id uint) error {
	if _, err := r.GetLibrarianByID(id); err != nil {
		return err
	}
	return r.db.Delete(&entities.Librarian{}, id).Error
}

// --- Admins ---

func (r *Repository) GetAdminByID(id uint) (*entities.Admin, error) {
	var admin entities.Admin
	err := r.db.First(&admin, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *Repository) GetAdminByEmail(email string) (*entities.Admin, error) {
	var admin entities.Admin
	err := r.db.Where("email = ?", email).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *Repository) GetAllAdmins() ([]entities.Admin, error) {
	var admins []entities.Admin
	err := r.db.Order("name ASC").Find(&admins).Error
	return admins, err
}

func (r *Repository) UpdateAdmin(id uint, name, phone string) (*entities.Admin, error) {
	admin, err := r.GetAdminByID(id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		admin.Name = name
	}
	if phone != "" {
		admin.Phone = phone
	}
	if err := r.db.Save(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

func (r *Repository) DeleteAdmin(id uint) error {
	if _, err := r.GetAdminByID(id); err != nil {
		return err
	}
	return r.db.Delete(&entities.Admin{}, id).Error
}
