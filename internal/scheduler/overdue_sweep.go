package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/loans"
	"github.com/openshelf/openshelf/internal/tasks"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule reports whether a schedule expression parses with the
// standard five-field cron format.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// OverdueSweepScheduler periodically scans for loans past their due date and
// enqueues an overdue notice task for each one.
type OverdueSweepScheduler struct {
	loanService *loans.Service
	taskClient  *tasks.Client
	audit       loans.AuditLogger
	config      config.Sweep

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSweeping bool
	cancelFunc context.CancelFunc
}

// NewOverdueSweepScheduler creates a new scheduler instance.
func NewOverdueSweepScheduler(loanService *loans.Service, taskClient *tasks.Client, audit loans.AuditLogger, cfg config.Sweep) *OverdueSweepScheduler {
	return &OverdueSweepScheduler{
		loanService: loanService,
		taskClient:  taskClient,
		audit:       audit,
		config:      cfg,
		cron:        cron.New(cron.WithParser(cronParser)),
	}
}

// Start begins the scheduler if the sweep is enabled.
func (s *OverdueSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Overdue sweep scheduler: disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule overdue sweep: %w", err)
	}
	s.entryID = entryID

	if s.config.MaintenanceSchedule != "" {
		if err := ValidateCronSchedule(s.config.MaintenanceSchedule); err != nil {
			return fmt.Errorf("invalid maintenance schedule '%s': %w", s.config.MaintenanceSchedule, err)
		}
		if _, err := s.cron.AddFunc(s.config.MaintenanceSchedule, func() {
			s.runMaintenance()
		}); err != nil {
			return fmt.Errorf("failed to schedule maintenance: %w", err)
		}
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Overdue sweep scheduler: started with schedule '%s'", s.config.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep.
func (s *OverdueSweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Overdue sweep scheduler: stopped")
}

// RunNow triggers an immediate sweep.
func (s *OverdueSweepScheduler) RunNow() {
	go s.runSweep()
}

// IsRunning returns whether the scheduler is active.
func (s *OverdueSweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next sweep will occur.
func (s *OverdueSweepScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSweep queries overdue loans and enqueues a notice task per loan.
func (s *OverdueSweepScheduler) runSweep() {
	s.mu.Lock()
	if s.isSweeping {
		s.mu.Unlock()
		log.Printf("Overdue sweep: skipped (already running)")
		return
	}
	s.isSweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSweeping = false
		s.mu.Unlock()
	}()

	now := time.Now()
	log.Printf("Overdue sweep: scanning for overdue loans")

	overdue, err := s.loanService.OverdueLoans(now)
	if err != nil {
		log.Printf("Overdue sweep: failed to query overdue loans: %v", err)
		return
	}

	if len(overdue) == 0 {
		log.Printf("Overdue sweep: no overdue loans found")
		return
	}

	var enqueued int
	for _, loan := range overdue {
		task := tasks.OverdueNoticeTask{
			LoanID:    loan.ID,
			StudentID: loan.StudentID,
			BookTitle: loan.Book.Title,
			DueDate:   loan.DueDate,
			DaysLate:  loans.DaysLate(loan.DueDate, now),
		}
		if _, err := s.taskClient.Add(task).Ctx(context.Background()).Save(); err != nil {
			log.Printf("Overdue sweep: failed to enqueue notice for loan %d: %v", loan.ID, err)
			continue
		}
		enqueued++
	}

	log.Printf("Overdue sweep: enqueued %d notice(s) for %d overdue loan(s)", enqueued, len(overdue))

	if s.audit != nil {
		s.audit.LogEvent(&entities.AuditEvent{
			EventType: entities.AuditEventSweep,
			ActorType: "system",
			Detail:    fmt.Sprintf("swept %d overdue loan(s), enqueued %d notice(s)", len(overdue), enqueued),
		})
	}
}

// runMaintenance enqueues the retention cleanup tasks for notifications
// and audit events.
func (s *OverdueSweepScheduler) runMaintenance() {
	notificationsTask := tasks.CleanupNotificationsTask{RetentionDays: s.config.NotificationRetentionDays}
	if _, err := s.taskClient.Add(notificationsTask).Ctx(context.Background()).Save(); err != nil {
		log.Printf("Maintenance: failed to enqueue notification cleanup: %v", err)
	}

	auditTask := tasks.CleanupAuditEventsTask{RetentionDays: s.config.AuditRetentionDays}
	if _, err := s.taskClient.Add(auditTask).Ctx(context.Background()).Save(); err != nil {
		log.Printf("Maintenance: failed to enqueue audit event cleanup: %v", err)
	}
}
