package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/entities"
)

// AuthController handles login, logout, and first-run setup.
type AuthController struct {
	service  *auth.Service
	sessions *auth.SessionManager
	audit    AuditWriter
}

// AuditWriter records account events. Satisfied by the audit repository.
type AuditWriter interface {
	LogEvent(event *entities.AuditEvent) error
}

func NewAuthController(service *auth.Service, sessions *auth.SessionManager, audit AuditWriter) *AuthController {
	return &AuthController{service: service, sessions: sessions, audit: audit}
}

type loginRequest struct {
	AccountType string `json:"account_type" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// Login authenticates an account and starts a session.
// POST /api/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "account_type, email and password are required")
		return
	}

	accountType := entities.AccountType(req.AccountType)
	account, err := ac.service.Authenticate(accountType, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			respondError(c, http.StatusForbidden, "account is temporarily locked")
		case errors.Is(err, auth.ErrUnknownAccountType):
			respondBadRequest(c, "unknown account type")
		default:
			// Credential failures are deliberately indistinguishable.
			respondError(c, http.StatusUnauthorized, "invalid credentials")
		}
		return
	}

	if err := ac.sessions.CreateSession(c.Request, account); err != nil {
		respondInternalError(c, err, "create session")
		return
	}

	if ac.audit != nil {
		_ = ac.audit.LogEvent(&entities.AuditEvent{
			EventType: entities.AuditEventLogin,
			ActorType: account.Type,
			ActorID:   account.ID,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"account_type": account.Type,
		"id":           account.ID,
		"name":         account.Name,
		"email":        account.Email,
	})
}

// Logout destroys the current session.
// POST /api/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.sessions.DestroySession(c.Request); err != nil {
		respondInternalError(c, err, "destroy session")
		return
	}
	respondSuccess(c, "logged out")
}

// Me returns the authenticated account.
// GET /api/me
func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"account_type": auth.GetAccountType(c),
		"id":           auth.GetAccountID(c),
		"name":         auth.GetAccountName(c),
	})
}

type setupRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Setup creates the first admin account. Available only while no admin
// exists; afterwards admins are created through the admin API.
// POST /api/setup
func (ac *AuthController) Setup(c *gin.Context) {
	exists, err := ac.service.HasAdmins()
	if err != nil {
		respondInternalError(c, err, "check existing admins")
		return
	}
	if exists {
		respondError(c, http.StatusForbidden, "setup already completed")
		return
	}

	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and password are required")
		return
	}

	admin, err := ac.service.RegisterAdmin(req.Name, req.Phone, req.Email, req.Password)
	if err != nil {
		respondRegistrationError(c, err, "register first admin")
		return
	}

	if ac.audit != nil {
		_ = ac.audit.LogEvent(&entities.AuditEvent{
			EventType: entities.AuditEventRegister,
			ActorType: entities.AccountTypeAdmin,
			ActorID:   admin.ID,
			Detail:    "initial setup",
		})
	}

	respondCreated(c, admin)
}

// CSRFToken hands out the token required for state-changing requests.
// GET /api/csrf
func (ac *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": auth.GetCSRFToken(c)})
}

// respondRegistrationError maps auth registration errors to HTTP statuses.
func respondRegistrationError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, auth.ErrAlreadyRegistered):
		respondConflict(c, "email already registered")
	case errors.Is(err, auth.ErrNameRequired),
		errors.Is(err, auth.ErrEmailRequired),
		errors.Is(err, auth.ErrPasswordRequired),
		errors.Is(err, auth.ErrEmailInvalid),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}
