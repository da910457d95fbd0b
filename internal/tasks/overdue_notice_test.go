package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/entities"
)

type fakeNotificationWriter struct {
	created   []entities.Notification
	hasNotice bool
	since     time.Time
}

func (f *fakeNotificationWriter) Create(studentID, loanID uint, message string) (*entities.Notification, error) {
	n := entities.Notification{StudentID: studentID, LoanID: loanID, Message: message}
	f.created = append(f.created, n)
	return &n, nil
}

func (f *fakeNotificationWriter) HasNoticeForLoanSince(loanID uint, since time.Time) (bool, error) {
	f.since = since
	return f.hasNotice, nil
}

func TestOverdueNoticeProcessor(t *testing.T) {
	task := OverdueNoticeTask{
		LoanID:    42,
		StudentID: 7,
		BookTitle: "Dune",
		DueDate:   time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC),
		DaysLate:  5,
	}

	t.Run("records a notice", func(t *testing.T) {
		writer := &fakeNotificationWriter{}
		processor := OverdueNoticeProcessor(writer)

		require.NoError(t, processor(context.Background(), task))

		require.Len(t, writer.created, 1)
		notice := writer.created[0]
		assert.Equal(t, uint(7), notice.StudentID)
		assert.Equal(t, uint(42), notice.LoanID)
		assert.Contains(t, notice.Message, "Dune")
		assert.Contains(t, notice.Message, "2024-08-15")
		assert.Contains(t, notice.Message, "5 day(s) overdue")
	})

	t.Run("skips when a notice already exists today", func(t *testing.T) {
		writer := &fakeNotificationWriter{hasNotice: true}
		processor := OverdueNoticeProcessor(writer)

		require.NoError(t, processor(context.Background(), task))
		assert.Empty(t, writer.created)
	})

	t.Run("dedup window starts at local midnight", func(t *testing.T) {
		writer := &fakeNotificationWriter{}
		processor := OverdueNoticeProcessor(writer)

		require.NoError(t, processor(context.Background(), task))

		now := time.Now()
		wantStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		assert.True(t, writer.since.Equal(wantStart), "dedup since %v, want %v", writer.since, wantStart)
	})

	t.Run("fails without a writer", func(t *testing.T) {
		processor := OverdueNoticeProcessor(nil)
		assert.Error(t, processor(context.Background(), task))
	})
}
