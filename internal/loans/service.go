// Package loans implements the circulation lifecycle: issuing a book copy
// to a student, returning it with fine assessment, and renewals.
//
// Issue and return each run inside a single database transaction so the
// loan row and the book's availability counter change together or not at
// all.
package loans

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/database/settings"
	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrLoanNotFound     = errors.New("loan not found")
	ErrBookNotFound     = errors.New("book not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrLibrarianNotFound = errors.New("librarian not found")
	ErrNoCopies         = errors.New("no copies available")
	ErrAlreadyReturned  = errors.New("loan already returned")
	ErrRenewalLimit     = errors.New("renewal limit reached")
	ErrLoanLimit        = errors.New("student has reached the open loan limit")
	ErrDueDateInPast    = errors.New("due date is in the past")
)

// AuditLogger records circulation events. Satisfied by the audit repository.
type AuditLogger interface {
	LogEvent(event *entities.AuditEvent) error
}

// Service manages the loan lifecycle against the shared database handle.
type Service struct {
	db       *gorm.DB
	settings *settings.Repository
	defaults settings.LoanPolicy
	audit    AuditLogger
}

// NewService creates a loan service. audit may be nil to disable the
// audit trail.
func NewService(db *gorm.DB, settingsRepo *settings.Repository, defaults settings.LoanPolicy, audit AuditLogger) *Service {
	return &Service{
		db:       db,
		settings: settingsRepo,
		defaults: defaults,
		audit:    audit,
	}
}

// Policy returns the active loan policy: stored settings overriding the
// configured defaults.
func (s *Service) Policy() settings.LoanPolicy {
	if s.settings == nil {
		return s.defaults
	}
	policy, err := s.settings.GetLoanPolicy(s.defaults)
	if err != nil {
		return s.defaults
	}
	return policy
}

// Issue lends a book copy to a student. The availability check, the copy
// counter decrement, and the loan insert happen in one transaction; two
// concurrent issues of the last copy cannot both succeed.
//
// A zero dueDate applies the policy's loan period from today.
func (s *Service) Issue(bookID, studentID, librarianID uint, dueDate time.Time) (*entities.Loan, error) {
	policy := s.Policy()
	now := time.Now()

	if dueDate.IsZero() {
		dueDate = CalendarDate(now).AddDate(0, 0, policy.LoanPeriodDays)
	}
	if CalendarDate(dueDate).Before(CalendarDate(now)) {
		return nil, ErrDueDateInPast
	}

	var loan *entities.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var student entities.Student
		if err := tx.First(&student, studentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStudentNotFound
			}
			return err
		}

		var librarian entities.Librarian
		if err := tx.First(&librarian, librarianID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLibrarianNotFound
			}
			return err
		}

		var book entities.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if book.CopiesAvailable <= 0 {
			return ErrNoCopies
		}

		if policy.MaxOpenLoans > 0 {
			var open int64
			err := tx.Model(&entities.Loan{}).
				Where("student_id = ? AND returned_at IS NULL", studentID).Count(&open).Error
			if err != nil {
				return err
			}
			if open >= int64(policy.MaxOpenLoans) {
				return ErrLoanLimit
			}
		}

		// Guarded decrement: the WHERE clause re-checks availability so a
		// concurrent issue that took the last copy makes this a no-op.
		result := tx.Model(&entities.Book{}).
			Where("id = ? AND copies_available > 0", bookID).
			UpdateColumn("copies_available", gorm.Expr("copies_available - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNoCopies
		}

		loan = &entities.Loan{
			BookID:      bookID,
			StudentID:   studentID,
			LibrarianID: librarianID,
			IssuedAt:    now,
			DueDate:     CalendarDate(dueDate),
			Status:      entities.LoanStatusIssued,
		}
		return tx.Create(loan).Error
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(entities.AuditEventIssue, librarianID, loan.ID,
		fmt.Sprintf("book %d issued to student %d, due %s", bookID, studentID, loan.DueDate.Format("2006-01-02")))

	return loan, nil
}

// Return closes a loan: sets the return date to the current calendar date,
// computes the fine from the policy, and releases the held copy. The loan
// row and the availability counter change in the same transaction, and a
// second return of the same loan fails with ErrAlreadyReturned.
func (s *Service) Return(loanID uint) (*entities.Loan, error) {
	policy := s.Policy()
	now := time.Now()

	var loan entities.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if loan.ReturnedAt != nil {
			return ErrAlreadyReturned
		}

		returnedAt := CalendarDate(now)
		fine := CalculateFine(loan.DueDate, returnedAt, policy.FinePerDay, policy.FineCap)

		loan.ReturnedAt = &returnedAt
		loan.Fine = &fine
		loan.Status = entities.LoanStatusReturned
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}

		return tx.Model(&entities.Book{}).
			Where("id = ? AND copies_available < total_copies", loan.BookID).
			UpdateColumn("copies_available", gorm.Expr("copies_available + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(entities.AuditEventReturn, loan.LibrarianID, loan.ID,
		fmt.Sprintf("loan %d returned, fine %d", loan.ID, *loan.Fine))

	return &loan, nil
}

// Renew extends an open loan's due date by the policy's renewal period,
// bounded by the policy's renewal limit. The extension is measured from
// the later of the current due date and today, so renewing an overdue
// loan does not grant extra time retroactively.
func (s *Service) Renew(loanID uint) (*entities.Loan, error) {
	policy := s.Policy()
	now := time.Now()

	var loan entities.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if loan.ReturnedAt != nil {
			return ErrAlreadyReturned
		}
		if policy.MaxRenewals > 0 && loan.RenewalCount >= policy.MaxRenewals {
			return ErrRenewalLimit
		}

		base := CalendarDate(loan.DueDate)
		if today := CalendarDate(now); today.After(base) {
			base = today
		}
		loan.DueDate = base.AddDate(0, 0, policy.RenewalPeriodDays)
		loan.RenewalCount++
		return tx.Save(&loan).Error
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(entities.AuditEventRenew, loan.LibrarianID, loan.ID,
		fmt.Sprintf("loan %d renewed, due %s (renewal %d)", loan.ID, loan.DueDate.Format("2006-01-02"), loan.RenewalCount))

	return &loan, nil
}

// GetByID retrieves a loan with book and student preloaded.
func (s *Service) GetByID(id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := s.db.Preload("Book").Preload("Student").First(&loan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// GetAll returns every loan, newest first.
func (s *Service) GetAll() ([]entities.Loan, error) {
	var loans []entities.Loan
	err := s.db.Preload("Book").Preload("Student").
		Order("issued_at DESC").Find(&loans).Error
	return loans, err
}

// GetForStudent returns a student's loans, newest first.
func (s *Service) GetForStudent(studentID uint) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := s.db.Preload("Book").Where("student_id = ?", studentID).
		Order("issued_at DESC").Find(&loans).Error
	return loans, err
}

// OverdueLoans returns open loans whose due date is strictly before asOf's
// calendar date. Feeds the overdue sweep.
func (s *Service) OverdueLoans(asOf time.Time) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := s.db.Preload("Book").Preload("Student").
		Where("returned_at IS NULL AND due_date < ?", CalendarDate(asOf)).
		Order("due_date ASC").Find(&loans).Error
	return loans, err
}

// Delete removes a loan record. Deleting an open loan releases the held
// copy in the same transaction so the availability invariant survives.
func (s *Service) Delete(loanID uint) error {
	var loan entities.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}

		if loan.ReturnedAt == nil {
			err := tx.Model(&entities.Book{}).
				Where("id = ? AND copies_available < total_copies", loan.BookID).
				UpdateColumn("copies_available", gorm.Expr("copies_available + 1")).Error
			if err != nil {
				return err
			}
		}

		return tx.Delete(&entities.Loan{}, loanID).Error
	})
	if err != nil {
		return err
	}

	s.logEvent(entities.AuditEventDelete, 0, loanID, fmt.Sprintf("loan %d deleted", loanID))
	return nil
}

func (s *Service) logEvent(eventType entities.AuditEventType, librarianID, loanID uint, detail string) {
	if s.audit == nil {
		return
	}
	err := s.audit.LogEvent(&entities.AuditEvent{
		EventType: eventType,
		ActorType: entities.AccountTypeLibrarian,
		ActorID:   librarianID,
		LoanID:    loanID,
		Detail:    detail,
	})
	if err != nil {
		log.Printf("Failed to log audit event %s: %v", eventType, err)
	}
}
