// Package notifications provides database operations for student
// notifications, mainly overdue notices produced by the sweep.
package notifications

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Repository handles all notification database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notifications repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a notification for a student.
func (r *Repository) Create(studentID, loanID uint, message string) (*entities.Notification, error) {
	notification := &entities.Notification{
		StudentID: studentID,
		LoanID:    loanID,
		Message:   message,
	}
	if err := r.db.Create(notification).Error; err != nil {
		return nil, err
	}
	return notification, nil
}

// GetByID returns a single notification.
func (r *Repository) GetByID(id uint) (*entities.Notification, error) {
	var notification entities.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

// ListForStudent returns a student's notifications, newest first.
func (r *Repository) ListForStudent(studentID uint) ([]entities.Notification, error) {
	var notifications []entities.Notification
	err := r.db.Where("student_id = ?", studentID).
		Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

// MarkRead sets the read timestamp on a notification.
func (r *Repository) MarkRead(id uint) error {
	result := r.db.Model(&entities.Notification{}).Where("id = ?", id).
		Update("read_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// HasNoticeForLoanSince reports whether a notification already exists for
// the loan after the given time. Used to deduplicate overdue notices so a
// student gets at most one notice per loan per sweep interval.
func (r *Repository) HasNoticeForLoanSince(loanID uint, since time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Notification{}).
		Where("loan_id = ? AND created_at > ?", loanID, since).Count(&count).Error
	return count > 0, err
}

// DeleteOlderThan removes notifications created before the cutoff.
// Returns the number of deleted rows.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.Notification{})
	return result.RowsAffected, result.Error
}
