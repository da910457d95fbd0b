package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/accounts"
	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/loans"
)

type StudentsController struct {
	repo        *accounts.Repository
	authService *auth.Service
	loanService *loans.Service
	audit       AuditWriter
}

func NewStudentsController(repo *accounts.Repository, authService *auth.Service, loanService *loans.Service, audit AuditWriter) *StudentsController {
	return &StudentsController{repo: repo, authService: authService, loanService: loanService, audit: audit}
}

// GetAll returns students. Librarians see only the students they
// registered; admins see everyone.
// GET /api/students
func (sc *StudentsController) GetAll(c *gin.Context) {
	var (
		students []entities.Student
		err      error
	)
	if auth.GetAccountType(c) == entities.AccountTypeLibrarian {
		students, err = sc.repo.GetStudentsForLibrarian(auth.GetAccountID(c))
	} else {
		students, err = sc.repo.GetAllStudents()
	}
	if err != nil {
		respondInternalError(c, err, "get students")
		return
	}
	c.JSON(http.StatusOK, students)
}

// Get returns a single student.
// GET /api/students/:id
func (sc *StudentsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	student, err := sc.repo.GetStudentByID(id)
	if err != nil {
		if errors.Is(err, accounts.ErrStudentNotFound) {
			respondNotFound(c, "student")
			return
		}
		respondInternalError(c, err, "get student")
		return
	}
	c.JSON(http.StatusOK, student)
}

type registerStudentRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Address  string `json:"address"`
}

// Register creates a student account owned by the calling librarian.
// POST /api/students
func (sc *StudentsController) Register(c *gin.Context) {
	var req registerStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and password are required")
		return
	}

	student, err := sc.authService.RegisterStudent(
		req.Name, req.Phone, req.Email, req.Password, req.Address, auth.GetAccountID(c))
	if err != nil {
		respondRegistrationError(c, err, "register student")
		return
	}

	if sc.audit != nil {
		_ = sc.audit.LogEvent(&entities.AuditEvent{
			EventType: entities.AuditEventRegister,
			ActorType: auth.GetAccountType(c),
			ActorID:   auth.GetAccountID(c),
			Detail:    "student " + student.Email,
		})
	}

	respondCreated(c, student)
}

type updateStudentRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Update modifies a student's profile fields.
// PUT /api/students/:id
func (sc *StudentsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	student, err := sc.repo.UpdateStudent(id, req.Name, req.Phone, req.Address)
	if err != nil {
		if errors.Is(err, accounts.ErrStudentNotFound) {
			respondNotFound(c, "student")
			return
		}
		respondInternalError(c, err, "update student")
		return
	}
	c.JSON(http.StatusOK, student)
}

// Delete removes a student account. Refused while the student has open
// loans.
// DELETE /api/students/:id
func (sc *StudentsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := sc.repo.DeleteStudent(id); err != nil {
		switch {
		case errors.Is(err, accounts.ErrStudentNotFound):
			respondNotFound(c, "student")
		case errors.Is(err, accounts.ErrStudentHasOpenLoans):
			respondConflict(c, "student has open loans")
		default:
			respondInternalError(c, err, "delete student")
		}
		return
	}
	respondSuccess(c, "student deleted")
}

// GetLoans returns a student's loan history with derived overdue status.
// GET /api/students/:id/loans
func (sc *StudentsController) GetLoans(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := sc.repo.GetStudentByID(id); err != nil {
		if errors.Is(err, accounts.ErrStudentNotFound) {
			respondNotFound(c, "student")
			return
		}
		respondInternalError(c, err, "get student")
		return
	}

	studentLoans, err := sc.loanService.GetForStudent(id)
	if err != nil {
		respondInternalError(c, err, "get student loans")
		return
	}
	c.JSON(http.StatusOK, loanViews(studentLoans))
}
