package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/openshelf/openshelf/internal/entities"
)

// NotificationWriter provides the ability to record overdue notices for
// students.
type NotificationWriter interface {
	Create(studentID, loanID uint, message string) (*entities.Notification, error)
	HasNoticeForLoanSince(loanID uint, since time.Time) (bool, error)
}

// OverdueNoticeTask notifies a student that one of their loans is past due.
// The sweep enqueues one task per overdue loan.
type OverdueNoticeTask struct {
	LoanID    uint      `json:"loan_id"`
	StudentID uint      `json:"student_id"`
	BookTitle string    `json:"book_title"`
	DueDate   time.Time `json:"due_date"`
	DaysLate  int       `json:"days_late"`
}

// Config returns the queue configuration for overdue notice tasks.
func (t OverdueNoticeTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_notice",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueNoticeProcessor creates a processor function for OverdueNoticeTask.
// A loan gets at most one notice per calendar day, so re-enqueued or retried
// tasks do not spam the student.
func OverdueNoticeProcessor(notifications NotificationWriter) backlite.QueueProcessor[OverdueNoticeTask] {
	return func(ctx context.Context, task OverdueNoticeTask) error {
		if notifications == nil {
			return fmt.Errorf("notification writer not configured")
		}

		// Start of the local calendar day, so the dedup window matches
		// what a student perceives as "today".
		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		already, err := notifications.HasNoticeForLoanSince(task.LoanID, startOfDay)
		if err != nil {
			return fmt.Errorf("check existing notice for loan %d: %w", task.LoanID, err)
		}
		if already {
			return nil
		}

		message := fmt.Sprintf(
			"Your loan of %q was due on %s and is now %d day(s) overdue. Please return it to avoid further fines.",
			task.BookTitle, task.DueDate.Format("2006-01-02"), task.DaysLate,
		)

		if _, err := notifications.Create(task.StudentID, task.LoanID, message); err != nil {
			return fmt.Errorf("create overdue notice for loan %d: %w", task.LoanID, err)
		}

		log.Printf("[TASK] Overdue notice recorded for loan %d (student %d)", task.LoanID, task.StudentID)
		return nil
	}
}

// NewOverdueNoticeQueue creates a backlite queue for overdue notice tasks.
func NewOverdueNoticeQueue(notifications NotificationWriter) backlite.Queue {
	return backlite.NewQueue(OverdueNoticeProcessor(notifications))
}
