package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/loans"
)

// LoanView is a loan as served over the API. Status is derived at read
// time so an open loan past its due date reports "overdue" without any
// row rewrite.
type LoanView struct {
	entities.Loan
	Status entities.LoanStatus `json:"status"`
}

func loanView(loan entities.Loan) LoanView {
	return LoanView{
		Loan:   loan,
		Status: loans.EffectiveStatus(&loan, time.Now()),
	}
}

func loanViews(list []entities.Loan) []LoanView {
	views := make([]LoanView, 0, len(list))
	for _, loan := range list {
		views = append(views, loanView(loan))
	}
	return views
}

type LoansController struct {
	service *loans.Service
}

func NewLoansController(service *loans.Service) *LoansController {
	return &LoansController{service: service}
}

// GetAll returns every loan, newest first.
// GET /api/loans
func (lc *LoansController) GetAll(c *gin.Context) {
	all, err := lc.service.GetAll()
	if err != nil {
		respondInternalError(c, err, "get all loans")
		return
	}
	c.JSON(http.StatusOK, loanViews(all))
}

// GetMine returns the calling student's own loans.
// GET /api/my/loans
func (lc *LoansController) GetMine(c *gin.Context) {
	mine, err := lc.service.GetForStudent(auth.GetAccountID(c))
	if err != nil {
		respondInternalError(c, err, "get own loans")
		return
	}
	c.JSON(http.StatusOK, loanViews(mine))
}

// Get returns a single loan.
// GET /api/loans/:id
func (lc *LoansController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.service.GetByID(id)
	if err != nil {
		if errors.Is(err, loans.ErrLoanNotFound) {
			respondNotFound(c, "loan")
			return
		}
		respondInternalError(c, err, "get loan")
		return
	}
	c.JSON(http.StatusOK, loanView(*loan))
}

// GetOverdue returns open loans past their due date.
// GET /api/loans/overdue
func (lc *LoansController) GetOverdue(c *gin.Context) {
	overdue, err := lc.service.OverdueLoans(time.Now())
	if err != nil {
		respondInternalError(c, err, "get overdue loans")
		return
	}
	c.JSON(http.StatusOK, loanViews(overdue))
}

type issueLoanRequest struct {
	BookID    uint   `json:"book_id" binding:"required"`
	StudentID uint   `json:"student_id" binding:"required"`
	DueDate   string `json:"due_date"`
}

// Issue lends a book copy to a student. The calling librarian is recorded
// on the loan. An omitted due_date applies the policy's loan period.
// POST /api/loans
func (lc *LoansController) Issue(c *gin.Context) {
	var req issueLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id and student_id are required")
		return
	}

	var dueDate time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			respondBadRequest(c, "due_date must be in YYYY-MM-DD format")
			return
		}
		dueDate = parsed
	}

	loan, err := lc.service.Issue(req.BookID, req.StudentID, auth.GetAccountID(c), dueDate)
	if err != nil {
		respondLoanError(c, err, "issue loan")
		return
	}
	respondCreated(c, loanView(*loan))
}

// Return closes a loan and reports the assessed fine.
// POST /api/loans/:id/return
func (lc *LoansController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.service.Return(id)
	if err != nil {
		respondLoanError(c, err, "return loan")
		return
	}
	c.JSON(http.StatusOK, loanView(*loan))
}

// Renew extends an open loan's due date.
// POST /api/loans/:id/renew
func (lc *LoansController) Renew(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.service.Renew(id)
	if err != nil {
		respondLoanError(c, err, "renew loan")
		return
	}
	c.JSON(http.StatusOK, loanView(*loan))
}

// Delete removes a loan record, releasing the held copy if still open.
// DELETE /api/loans/:id
func (lc *LoansController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := lc.service.Delete(id); err != nil {
		respondLoanError(c, err, "delete loan")
		return
	}
	respondSuccess(c, "loan deleted")
}

// respondLoanError maps circulation errors to HTTP statuses.
func respondLoanError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, loans.ErrLoanNotFound):
		respondNotFound(c, "loan")
	case errors.Is(err, loans.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, loans.ErrStudentNotFound):
		respondNotFound(c, "student")
	case errors.Is(err, loans.ErrLibrarianNotFound):
		respondNotFound(c, "librarian")
	case errors.Is(err, loans.ErrNoCopies):
		respondConflict(c, "no copies available")
	case errors.Is(err, loans.ErrAlreadyReturned):
		respondConflict(c, "loan already returned")
	case errors.Is(err, loans.ErrRenewalLimit):
		respondConflict(c, "renewal limit reached")
	case errors.Is(err, loans.ErrLoanLimit):
		respondConflict(c, "student has reached the open loan limit")
	case errors.Is(err, loans.ErrDueDateInPast):
		respondBadRequest(c, "due date is in the past")
	default:
		respondInternalError(c, err, context)
	}
}
