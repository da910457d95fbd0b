package http

import (
	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement.
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	staff := []entities.AccountType{entities.AccountTypeAdmin, entities.AccountTypeLibrarian}
	adminOnly := []entities.AccountType{entities.AccountTypeAdmin}

	requireStaff := cfg.AuthMiddleware.RequireType(staff...)
	requireAdmin := cfg.AuthMiddleware.RequireType(adminOnly...)
	requireStudent := cfg.AuthMiddleware.RequireType(entities.AccountTypeStudent)

	// Controllers
	health := NewHealthController(cfg.Database, cfg.Version)
	authController := NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.Audit)
	categoriesController := NewCategoriesController(cfg.Categories)
	booksController := NewBooksController(cfg.Books)
	studentsController := NewStudentsController(cfg.Accounts, cfg.AuthService, cfg.LoanService, cfg.Audit)
	librariansController := NewLibrariansController(cfg.Accounts, cfg.AuthService, cfg.Audit)
	adminsController := NewAdminsController(cfg.Accounts, cfg.AuthService, cfg.Audit)
	loansController := NewLoansController(cfg.LoanService)
	settingsController := NewSettingsController(cfg.Settings, cfg.LoanService)
	notificationsController := NewNotificationsController(cfg.Notifications)
	auditController := NewAuditController(cfg.Audit)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Auth endpoints
	router.GET("/api/csrf", authController.CSRFToken)
	router.POST("/api/login", authController.Login)
	router.POST("/api/logout", authController.Logout)
	router.GET("/api/me", authController.Me)
	router.POST("/api/setup", authController.Setup)

	// Category endpoints
	router.GET("/api/categories", categoriesController.GetAll)
	router.GET("/api/categories/:id", categoriesController.Get)
	router.POST("/api/categories", requireStaff, categoriesController.Create)
	router.PUT("/api/categories/:id", requireStaff, categoriesController.Rename)
	router.DELETE("/api/categories/:id", requireStaff, categoriesController.Delete)

	// Book catalog endpoints
	router.GET("/api/books", booksController.GetAll)
	router.GET("/api/books/search", booksController.Search)
	router.GET("/api/books/:id", booksController.Get)
	router.POST("/api/books", requireStaff, booksController.Create)
	router.PUT("/api/books/:id", requireStaff, booksController.Update)
	router.DELETE("/api/books/:id", requireStaff, booksController.Delete)

	// Student account endpoints
	router.GET("/api/students", requireStaff, studentsController.GetAll)
	router.GET("/api/students/:id", requireStaff, studentsController.Get)
	router.POST("/api/students", requireStaff, studentsController.Register)
	router.PUT("/api/students/:id", requireStaff, studentsController.Update)
	router.DELETE("/api/students/:id", requireStaff, studentsController.Delete)
	router.GET("/api/students/:id/loans", requireStaff, studentsController.GetLoans)
	router.GET("/api/students/:id/notifications", requireStaff, notificationsController.ListForStudent)

	// Librarian account endpoints
	router.GET("/api/librarians", requireAdmin, librariansController.GetAll)
	router.GET("/api/librarians/:id", requireAdmin, librariansController.Get)
	router.POST("/api/librarians", requireAdmin, librariansController.Register)
	router.PUT("/api/librarians/:id", requireAdmin, librariansController.Update)
	router.DELETE("/api/librarians/:id", requireAdmin, librariansController.Delete)

	// Admin account endpoints
	router.GET("/api/admins", requireAdmin, adminsController.GetAll)
	router.GET("/api/admins/:id", requireAdmin, adminsController.Get)
	router.POST("/api/admins", requireAdmin, adminsController.Register)
	router.PUT("/api/admins/:id", requireAdmin, adminsController.Update)
	router.DELETE("/api/admins/:id", requireAdmin, adminsController.Delete)

	// Circulation endpoints
	router.GET("/api/loans", requireStaff, loansController.GetAll)
	router.GET("/api/loans/overdue", requireStaff, loansController.GetOverdue)
	router.GET("/api/loans/:id", requireStaff, loansController.Get)
	router.POST("/api/loans", requireStaff, loansController.Issue)
	router.POST("/api/loans/:id/return", requireStaff, loansController.Return)
	router.POST("/api/loans/:id/renew", requireStaff, loansController.Renew)
	router.DELETE("/api/loans/:id", requireAdmin, loansController.Delete)
	router.GET("/api/loans/:id/audit", requireStaff, auditController.GetEventsForLoan)
	router.GET("/api/my/loans", requireStudent, loansController.GetMine)

	// Loan policy endpoints
	router.GET("/api/settings/loan-policy", requireStaff, settingsController.GetLoanPolicy)
	router.PUT("/api/settings/loan-policy", requireAdmin, settingsController.UpdateLoanPolicy)

	// Notification endpoints
	router.GET("/api/notifications", notificationsController.List)
	router.POST("/api/notifications/:id/read", notificationsController.MarkRead)

	// Audit trail endpoints
	router.GET("/api/audit", requireAdmin, auditController.GetEvents)

	// Manual overdue sweep trigger
	if cfg.Sweep != nil {
		router.POST("/api/admin/sweep/run", requireAdmin, func(c *gin.Context) {
			cfg.Sweep.RunNow()
			respondSuccess(c, "overdue sweep triggered")
		})
	}

	return router
}
