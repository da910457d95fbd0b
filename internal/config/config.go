package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Loans
		Sweep
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		MaxLoginAttempts int           // Failed attempts before lockout
		LockoutDuration  time.Duration // How long a locked account stays locked
	}

	// Loans holds the default loan policy. Each value can be overridden at
	// runtime through the settings table (see database/settings).
	Loans struct {
		FinePerDay        int64 // Fine per day overdue, in currency units
		FineCap           int64 // Maximum fine per loan; <= 0 means uncapped
		LoanPeriodDays    int   // Default loan duration when no due date is given
		RenewalPeriodDays int   // Extension granted by a renewal
		MaxRenewals       int   // Renewals allowed per loan
		MaxOpenLoans      int   // Open loans allowed per student
	}

	Sweep struct {
		Enabled  bool
		Schedule string // Cron format: "0 8 * * *" = daily at 08:00

		MaintenanceSchedule       string // Cron for enqueueing retention cleanup; empty disables it
		NotificationRetentionDays int    // Notifications older than this are pruned
		AuditRetentionDays        int    // Audit events older than this are pruned
	}

	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)         // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)    // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)   // Max failed attempts
	v.SetDefault("auth_lockout_duration", "30m") // Lockout duration

	// Loan policy defaults
	v.SetDefault("loan_fine_per_day", 200)
	v.SetDefault("loan_fine_cap", 0)
	v.SetDefault("loan_period_days", 14)
	v.SetDefault("loan_renewal_period_days", 7)
	v.SetDefault("loan_max_renewals", 2)
	v.SetDefault("loan_max_open_loans", 3)

	// Overdue sweep defaults
	v.SetDefault("sweep_enabled", true)
	v.SetDefault("sweep_schedule", "0 8 * * *")              // Daily at 08:00
	v.SetDefault("sweep_maintenance_schedule", "30 3 * * *") // Nightly retention cleanup
	v.SetDefault("sweep_notification_retention_days", 90)
	v.SetDefault("sweep_audit_retention_days", 365)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Loans: Loans{
			FinePerDay:        v.GetInt64("LOAN_FINE_PER_DAY"),
			FineCap:           v.GetInt64("LOAN_FINE_CAP"),
			LoanPeriodDays:    v.GetInt("LOAN_PERIOD_DAYS"),
			RenewalPeriodDays: v.GetInt("LOAN_RENEWAL_PERIOD_DAYS"),
			MaxRenewals:       v.GetInt("LOAN_MAX_RENEWALS"),
			MaxOpenLoans:      v.GetInt("LOAN_MAX_OPEN_LOANS"),
		},
		Sweep: Sweep{
			Enabled:                   v.GetBool("SWEEP_ENABLED"),
			Schedule:                  v.GetString("SWEEP_SCHEDULE"),
			MaintenanceSchedule:       v.GetString("SWEEP_MAINTENANCE_SCHEDULE"),
			NotificationRetentionDays: v.GetInt("SWEEP_NOTIFICATION_RETENTION_DAYS"),
			AuditRetentionDays:        v.GetInt("SWEEP_AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
