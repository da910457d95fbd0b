package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/settings"
	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/loans"
)

type loanTestEnv struct {
	db          *database.Database
	router      *gin.Engine
	bookID      uint
	studentID   uint
	librarianID uint
}

// setupLoanTestEnv builds a router with the circulation routes and a
// middleware that fakes an authenticated librarian.
func setupLoanTestEnv(t *testing.T) (*loanTestEnv, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_loans_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	librarian := entities.Librarian{Name: "Ada", Email: "ada@example.org", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(&librarian).Error)
	student := entities.Student{Name: "Sam", Email: "sam@example.org", PasswordHash: "x", LibrarianID: librarian.ID}
	require.NoError(t, db.DB.Create(&student).Error)
	category := entities.Category{Name: "Fiction"}
	require.NoError(t, db.DB.Create(&category).Error)
	book := entities.Book{
		Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593",
		CategoryID: category.ID, TotalCopies: 1, CopiesAvailable: 1, LibrarianID: librarian.ID,
	}
	require.NoError(t, db.DB.Create(&book).Error)

	defaults := settings.LoanPolicy{FinePerDay: 200, LoanPeriodDays: 14, RenewalPeriodDays: 7, MaxRenewals: 2, MaxOpenLoans: 3}
	service := loans.NewService(db.DB, settings.NewRepository(db.DB), defaults, nil)
	controller := NewLoansController(service)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(auth.ContextKeyAccountID, librarian.ID)
		c.Set(auth.ContextKeyAccountType, entities.AccountTypeLibrarian)
		c.Next()
	})
	router.GET("/api/loans", controller.GetAll)
	router.GET("/api/loans/overdue", controller.GetOverdue)
	router.GET("/api/loans/:id", controller.Get)
	router.POST("/api/loans", controller.Issue)
	router.POST("/api/loans/:id/return", controller.Return)
	router.POST("/api/loans/:id/renew", controller.Renew)
	router.DELETE("/api/loans/:id", controller.Delete)

	env := &loanTestEnv{
		db:          db,
		router:      router,
		bookID:      book.ID,
		studentID:   student.ID,
		librarianID: librarian.ID,
	}
	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return env, cleanup
}

func (env *loanTestEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	return w
}

func (env *loanTestEnv) issue(t *testing.T) LoanView {
	t.Helper()
	w := env.do(t, "POST", "/api/loans", gin.H{"book_id": env.bookID, "student_id": env.studentID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view LoanView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func TestLoansController_Issue(t *testing.T) {
	t.Run("issues a loan and reports issued status", func(t *testing.T) {
		env, cleanup := setupLoanTestEnv(t)
		defer cleanup()

		view := env.issue(t)
		assert.Equal(t, entities.LoanStatusIssued, view.Status)
		assert.Equal(t, env.bookID, view.BookID)
		assert.Equal(t, env.librarianID, view.LibrarianID)
	})

	t.Run("second issue of the last copy conflicts", func(t *testing.T) {
		env, cleanup := setupLoanTestEnv(t)
		defer cleanup()

		env.issue(t)
		w := env.do(t, "POST", "/api/loans", gin.H{"book_id": env.bookID, "student_id": env.studentID})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "no copies available")
	})

	t.Run("missing fields are a bad request", func(t *testing.T) {
		env, cleanup := setupLoanTestEnv(t)
		defer cleanup()

		w := env.do(t, "POST", "/api/loans", gin.H{"book_id": env.bookID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed due date is a bad request", func(t *testing.T) {
		env, cleanup := setupLoanTestEnv(t)
		defer cleanup()

		w := env.do(t, "POST", "/api/loans", gin.H{
			"book_id": env.bookID, "student_id": env.studentID, "due_date": "15-08-2024",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown student is not found", func(t *testing.T) {
		env, cleanup := setupLoanTestEnv(t)
		defer cleanup()

		w := env.do(t, "POST", "/api/loans", gin.H{"book_id": env.bookID, "student_id": 9999})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLoansController_Return(t *testing.T) {
	t.Run("returns a loan with zero fine when on time", func(t *testing.T) {
		env, cleanup := setupLoanTestEnv(t)
		defer cleanup()

		view := env.issue(t)
		w := env.do(t, "POST", fmt.Sprintf("/api/loans/%d/return", view.ID), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var returned LoanView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &returned))
		assert.Equal(t, entities.LoanStatusReturned, returned.Status)
		require.NotNil(t, returned.Fine)
		assert.Equal(t, int64(0), *returned.Fine)
	})

	t.Run("second return conflicts", func(t *testing.T) {
		env, cleanup := setupLoanTestEnv(t)
		defer cleanup()

		view := env.issue(t)
		env.do(t, "POST", fmt.Sprintf("/api/loans/%d/return", view.ID), nil)

		w := env.do(t, "POST", fmt.Sprintf("/api/loans/%d/return", view.ID), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already returned")
	})

	t.Run("unknown loan is not found", func(t *testing.T) {
		env, cleanup := setupLoanTestEnv(t)
		defer cleanup()

		w := env.do(t, "POST", "/api/loans/9999/return", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLoansController_Overdue(t *testing.T) {
	env, cleanup := setupLoanTestEnv(t)
	defer cleanup()

	view := env.issue(t)

	// Nothing is overdue yet.
	w := env.do(t, "GET", "/api/loans/overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var overdue []LoanView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overdue))
	assert.Empty(t, overdue)

	// Backdate the due date; the same loan now reads overdue.
	pastDue := loans.CalendarDate(time.Now()).AddDate(0, 0, -2)
	require.NoError(t, env.db.DB.Model(&entities.Loan{}).
		Where("id = ?", view.ID).Update("due_date", pastDue).Error)

	w = env.do(t, "GET", "/api/loans/overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overdue))
	require.Len(t, overdue, 1)
	assert.Equal(t, entities.LoanStatusOverdue, overdue[0].Status)

	// The stored row still says issued; overdue is derived.
	var stored entities.Loan
	require.NoError(t, env.db.DB.First(&stored, view.ID).Error)
	assert.Equal(t, entities.LoanStatusIssued, stored.Status)
}

func TestLoansController_Renew(t *testing.T) {
	env, cleanup := setupLoanTestEnv(t)
	defer cleanup()

	view := env.issue(t)

	w := env.do(t, "POST", fmt.Sprintf("/api/loans/%d/renew", view.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var renewed LoanView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &renewed))
	assert.Equal(t, 1, renewed.RenewalCount)
	assert.True(t, renewed.DueDate.After(view.DueDate))
}

func TestLoansController_Delete(t *testing.T) {
	env, cleanup := setupLoanTestEnv(t)
	defer cleanup()

	view := env.issue(t)

	w := env.do(t, "DELETE", fmt.Sprintf("/api/loans/%d", view.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The held copy is released.
	var book entities.Book
	require.NoError(t, env.db.DB.First(&book, env.bookID).Error)
	assert.Equal(t, 1, book.CopiesAvailable)

	w = env.do(t, "GET", fmt.Sprintf("/api/loans/%d", view.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
