package http

import (
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/accounts"
	"github.com/openshelf/openshelf/internal/database/audit"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/categories"
	"github.com/openshelf/openshelf/internal/database/notifications"
	"github.com/openshelf/openshelf/internal/database/settings"
	"github.com/openshelf/openshelf/internal/loans"
	"github.com/openshelf/openshelf/internal/scheduler"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database

	// Repositories
	Categories    *categories.Repository
	Books         *books.Repository
	Accounts      *accounts.Repository
	Settings      *settings.Repository
	Notifications *notifications.Repository
	Audit         *audit.Repository

	// Circulation
	LoanService *loans.Service

	// Overdue sweep (optional, enables the manual trigger endpoint)
	Sweep *scheduler.OverdueSweepScheduler

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware

	// CSRF protection is enabled when the secret is non-empty.
	CSRFSecret    []byte
	SecureCookies bool

	// Application info
	Version string
}
