package loans

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/settings"
	"github.com/openshelf/openshelf/internal/entities"
)

func setupLoanTest(t *testing.T) (*database.Database, *Service, func()) {
	t.Helper()

	dbPath := "./test_loans_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	defaults := settings.LoanPolicy{
		FinePerDay:        200,
		LoanPeriodDays:    14,
		RenewalPeriodDays: 7,
		MaxRenewals:       2,
		MaxOpenLoans:      3,
	}
	service := NewService(db.DB, settings.NewRepository(db.DB), defaults, nil)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, service, cleanup
}

func seedCirculation(t *testing.T, db *database.Database, copies int) (bookID, studentID, librarianID uint) {
	t.Helper()

	librarian := entities.Librarian{Name: "Ada", Email: "ada@example.org", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(&librarian).Error)

	student := entities.Student{Name: "Sam", Email: "sam@example.org", PasswordHash: "x", LibrarianID: librarian.ID}
	require.NoError(t, db.DB.Create(&student).Error)

	category := entities.Category{Name: "Fiction"}
	require.NoError(t, db.DB.Create(&category).Error)

	book := entities.Book{
		Title:           "The Dispossessed",
		Author:          "Ursula K. Le Guin",
		ISBN:            "9780061054884",
		CategoryID:      category.ID,
		TotalCopies:     copies,
		CopiesAvailable: copies,
		LibrarianID:     librarian.ID,
	}
	require.NoError(t, db.DB.Create(&book).Error)

	return book.ID, student.ID, librarian.ID
}

func bookAvailability(t *testing.T, db *database.Database, bookID uint) int {
	t.Helper()
	var book entities.Book
	require.NoError(t, db.DB.First(&book, bookID).Error)
	return book.CopiesAvailable
}

func TestService_Issue(t *testing.T) {
	t.Run("issue decrements availability and creates the loan", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 2)

		loan, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)

		assert.Equal(t, entities.LoanStatusIssued, loan.Status)
		assert.Nil(t, loan.ReturnedAt)
		assert.Nil(t, loan.Fine)
		assert.Equal(t, 1, bookAvailability(t, db, bookID))

		expectedDue := CalendarDate(time.Now()).AddDate(0, 0, 14)
		assert.True(t, expectedDue.Equal(CalendarDate(loan.DueDate)),
			"due date %v, want %v", loan.DueDate, expectedDue)
	})

	t.Run("issuing the last copy exhausts availability", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		_, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 0, bookAvailability(t, db, bookID))

		_, err = service.Issue(bookID, studentID, librarianID, time.Time{})
		assert.ErrorIs(t, err, ErrNoCopies)
		assert.Equal(t, 0, bookAvailability(t, db, bookID))
	})

	t.Run("unknown student or book is rejected", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		_, err := service.Issue(bookID, 9999, librarianID, time.Time{})
		assert.ErrorIs(t, err, ErrStudentNotFound)

		_, err = service.Issue(9999, studentID, librarianID, time.Time{})
		assert.ErrorIs(t, err, ErrBookNotFound)

		// Failed issues must not leak copies.
		assert.Equal(t, 1, bookAvailability(t, db, bookID))
	})

	t.Run("due date in the past is rejected", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		_, err := service.Issue(bookID, studentID, librarianID, time.Now().AddDate(0, 0, -1))
		assert.ErrorIs(t, err, ErrDueDateInPast)
	})

	t.Run("open loan limit is enforced", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 5)

		for i := 0; i < 3; i++ {
			_, err := service.Issue(bookID, studentID, librarianID, time.Time{})
			require.NoError(t, err)
		}

		_, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		assert.ErrorIs(t, err, ErrLoanLimit)
	})
}

func TestService_Return(t *testing.T) {
	t.Run("on-time return owes nothing and releases the copy", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		loan, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 0, bookAvailability(t, db, bookID))

		returned, err := service.Return(loan.ID)
		require.NoError(t, err)

		assert.Equal(t, entities.LoanStatusReturned, returned.Status)
		require.NotNil(t, returned.ReturnedAt)
		require.NotNil(t, returned.Fine)
		assert.Equal(t, int64(0), *returned.Fine)
		assert.Equal(t, 1, bookAvailability(t, db, bookID))
	})

	t.Run("late return is fined per day", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		loan, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)

		// Backdate the due date five days: due 2024-08-15, returned
		// 2024-08-20 must cost five days at the per-day rate.
		pastDue := CalendarDate(time.Now()).AddDate(0, 0, -5)
		require.NoError(t, db.DB.Model(&entities.Loan{}).
			Where("id = ?", loan.ID).Update("due_date", pastDue).Error)

		returned, err := service.Return(loan.ID)
		require.NoError(t, err)
		require.NotNil(t, returned.Fine)
		assert.Equal(t, int64(5*200), *returned.Fine)
	})

	t.Run("second return of the same loan fails", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		loan, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)

		_, err = service.Return(loan.ID)
		require.NoError(t, err)

		_, err = service.Return(loan.ID)
		assert.ErrorIs(t, err, ErrAlreadyReturned)

		// Availability must not be incremented twice.
		assert.Equal(t, 1, bookAvailability(t, db, bookID))
	})

	t.Run("returning an unknown loan fails", func(t *testing.T) {
		_, service, cleanup := setupLoanTest(t)
		defer cleanup()

		_, err := service.Return(12345)
		assert.ErrorIs(t, err, ErrLoanNotFound)
	})
}

func TestService_Renew(t *testing.T) {
	t.Run("renewal extends the due date", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		loan, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)
		originalDue := CalendarDate(loan.DueDate)

		renewed, err := service.Renew(loan.ID)
		require.NoError(t, err)

		wantDue := originalDue.AddDate(0, 0, 7)
		assert.True(t, wantDue.Equal(CalendarDate(renewed.DueDate)),
			"due date %v, want %v", renewed.DueDate, wantDue)
		assert.Equal(t, 1, renewed.RenewalCount)
	})

	t.Run("renewal limit is enforced", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		loan, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)

		_, err = service.Renew(loan.ID)
		require.NoError(t, err)
		_, err = service.Renew(loan.ID)
		require.NoError(t, err)

		_, err = service.Renew(loan.ID)
		assert.ErrorIs(t, err, ErrRenewalLimit)
	})

	t.Run("overdue renewal extends from today", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		loan, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)

		pastDue := CalendarDate(time.Now()).AddDate(0, 0, -10)
		require.NoError(t, db.DB.Model(&entities.Loan{}).
			Where("id = ?", loan.ID).Update("due_date", pastDue).Error)

		renewed, err := service.Renew(loan.ID)
		require.NoError(t, err)

		wantDue := CalendarDate(time.Now()).AddDate(0, 0, 7)
		assert.True(t, wantDue.Equal(CalendarDate(renewed.DueDate)),
			"due date %v, want %v", renewed.DueDate, wantDue)
	})

	t.Run("returned loan cannot be renewed", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		loan, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)
		_, err = service.Return(loan.ID)
		require.NoError(t, err)

		_, err = service.Renew(loan.ID)
		assert.ErrorIs(t, err, ErrAlreadyReturned)
	})
}

func TestService_OverdueLoans(t *testing.T) {
	db, service, cleanup := setupLoanTest(t)
	defer cleanup()
	bookID, studentID, librarianID := seedCirculation(t, db, 3)

	current, err := service.Issue(bookID, studentID, librarianID, time.Time{})
	require.NoError(t, err)

	late, err := service.Issue(bookID, studentID, librarianID, time.Time{})
	require.NoError(t, err)
	pastDue := CalendarDate(time.Now()).AddDate(0, 0, -3)
	require.NoError(t, db.DB.Model(&entities.Loan{}).
		Where("id = ?", late.ID).Update("due_date", pastDue).Error)

	overdue, err := service.OverdueLoans(time.Now())
	require.NoError(t, err)

	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)
	assert.NotEqual(t, current.ID, overdue[0].ID)
}

func TestService_Delete(t *testing.T) {
	t.Run("deleting an open loan releases the copy", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		loan, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 0, bookAvailability(t, db, bookID))

		require.NoError(t, service.Delete(loan.ID))
		assert.Equal(t, 1, bookAvailability(t, db, bookID))

		_, err = service.GetByID(loan.ID)
		assert.ErrorIs(t, err, ErrLoanNotFound)
	})

	t.Run("deleting a returned loan leaves availability alone", func(t *testing.T) {
		db, service, cleanup := setupLoanTest(t)
		defer cleanup()
		bookID, studentID, librarianID := seedCirculation(t, db, 1)

		loan, err := service.Issue(bookID, studentID, librarianID, time.Time{})
		require.NoError(t, err)
		_, err = service.Return(loan.ID)
		require.NoError(t, err)

		require.NoError(t, service.Delete(loan.ID))
		assert.Equal(t, 1, bookAvailability(t, db, bookID))
	})
}

func TestService_PolicyOverrides(t *testing.T) {
	db, service, cleanup := setupLoanTest(t)
	defer cleanup()

	// Defaults apply with no stored overrides.
	assert.Equal(t, int64(200), service.Policy().FinePerDay)

	repo := settings.NewRepository(db.DB)
	policy := service.Policy()
	policy.FinePerDay = 50
	policy.MaxRenewals = 5
	require.NoError(t, repo.SaveLoanPolicy(policy))

	assert.Equal(t, int64(50), service.Policy().FinePerDay)
	assert.Equal(t, 5, service.Policy().MaxRenewals)
}
