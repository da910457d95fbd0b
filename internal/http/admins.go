package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/accounts"
	"github.com/openshelf/openshelf/internal/entities"
)

type AdminsController struct {
	repo        *accounts.Repository
	authService *auth.Service
	audit       AuditWriter
}

func NewAdminsController(repo *accounts.Repository, authService *auth.Service, audit AuditWriter) *AdminsController {
	return &AdminsController{repo: repo, authService: authService, audit: audit}
}

// GetAll returns all admin accounts.
// GET /api/admins
func (ac *AdminsController) GetAll(c *gin.Context) {
	admins, err := ac.repo.GetAllAdmins()
	if err != nil {
		respondInternalError(c, err, "get all admins")
		return
	}
	c.JSON(http.StatusOK, admins)
}

// Get returns a single admin.
// GET /api/admins/:id
func (ac *AdminsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	admin, err := ac.repo.GetAdminByID(id)
	if err != nil {
		if errors.Is(err, accounts.ErrAdminNotFound) {
			respondNotFound(c, "admin")
			return
		}
		respondInternalError(c, err, "get admin")
		return
	}
	c.JSON(http.StatusOK, admin)
}

// Register creates an admin account.
// POST /api/admins
func (ac *AdminsController) Register(c *gin.Context) {
	var req registerAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and password are required")
		return
	}

	admin, err := ac.authService.RegisterAdmin(req.Name, req.Phone, req.Email, req.Password)
	if err != nil {
		respondRegistrationError(c, err, "register admin")
		return
	}

	if ac.audit != nil {
		_ = ac.audit.LogEvent(&entities.AuditEvent{
			EventType: entities.AuditEventRegister,
			ActorType: auth.GetAccountType(c),
			ActorID:   auth.GetAccountID(c),
			Detail:    "admin " + admin.Email,
		})
	}

	respondCreated(c, admin)
}

// Update modifies an admin's profile fields.
// PUT /api/admins/:id
func (ac *AdminsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	admin, err := ac.repo.UpdateAdmin(id, req.Name, req.Phone)
	if err != nil {
		if errors.Is(err, accounts.ErrAdminNotFound) {
			respondNotFound(c, "admin")
			return
		}
		respondInternalError(c, err, "update admin")
		return
	}
	c.JSON(http.StatusOK, admin)
}

// Delete removes an admin account. The last admin cannot be removed.
// DELETE /api/admins/:id
func (ac *AdminsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	admins, err := ac.repo.GetAllAdmins()
	if err != nil {
		respondInternalError(c, err, "get all admins")
		return
	}
	if len(admins) <= 1 {
		respondConflict(c, "cannot delete the last admin account")
		return
	}

	if err := ac.repo.DeleteAdmin(id); err != nil {
		if errors.Is(err, accounts.ErrAdminNotFound) {
			respondNotFound(c, "admin")
			return
		}
		respondInternalError(c, err, "delete admin")
		return
	}
	respondSuccess(c, "admin deleted")
}
