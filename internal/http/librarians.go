package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/accounts"
	"github.com/openshelf/openshelf/internal/entities"
)

type LibrariansController struct {
	repo        *accounts.Repository
	authService *auth.Service
	audit       AuditWriter
}

func NewLibrariansController(repo *accounts.Repository, authService *auth.Service, audit AuditWriter) *LibrariansController {
	return &LibrariansController{repo: repo, authService: authService, audit: audit}
}

// GetAll returns all librarian accounts.
// GET /api/librarians
func (lc *LibrariansController) GetAll(c *gin.Context) {
	librarians, err := lc.repo.GetAllLibrarians()
	if err != nil {
		respondInternalError(c, err, "get all librarians")
		return
	}
	c.JSON(http.StatusOK, librarians)
}

// Get returns a single librarian.
// GET /api/librarians/:id
func (lc *LibrariansController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	librarian, err := lc.repo.GetLibrarianByID(id)
	if err != nil {
		if errors.Is(err, accounts.ErrLibrarianNotFound) {
			respondNotFound(c, "librarian")
			return
		}
		respondInternalError(c, err, "get librarian")
		return
	}
	c.JSON(http.StatusOK, librarian)
}

type registerAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a librarian account.
// POST /api/librarians
func (lc *LibrariansController) Register(c *gin.Context) {
	var req registerAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and password are required")
		return
	}

	librarian, err := lc.authService.RegisterLibrarian(req.Name, req.Phone, req.Email, req.Password)
	if err != nil {
		respondRegistrationError(c, err, "register librarian")
		return
	}

	if lc.audit != nil {
		_ = lc.audit.LogEvent(&entities.AuditEvent{
			EventType: entities.AuditEventRegister,
			ActorType: auth.GetAccountType(c),
			ActorID:   auth.GetAccountID(c),
			Detail:    "librarian " + librarian.Email,
		})
	}

	respondCreated(c, librarian)
}

type updateAccountRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Update modifies a librarian's profile fields.
// PUT /api/librarians/:id
func (lc *LibrariansController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	librarian, err := lc.repo.UpdateLibrarian(id, req.Name, req.Phone)
	if err != nil {
		if errors.Is(err, accounts.ErrLibrarianNotFound) {
			respondNotFound(c, "librarian")
			return
		}
		respondInternalError(c, err, "update librarian")
		return
	}
	c.JSON(http.StatusOK, librarian)
}

// Delete removes a librarian account.
// DELETE /api/librarians/:id
func (lc *LibrariansController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := lc.repo.DeleteLibrarian(id); err != nil {
		if errors.Is(err, accounts.ErrLibrarianNotFound) {
			respondNotFound(c, "librarian")
			return
		}
		respondInternalError(c, err, "delete librarian")
		return
	}
	respondSuccess(c, "librarian deleted")
}
