package audit

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestRepo(t *testing.T) (*database.Database, *Repository, func()) {
	t.Helper()

	dbPath := "./test_audit_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, NewRepository(db.DB), cleanup
}

func TestRepository_LogEvent(t *testing.T) {
	_, repo, cleanup := setupTestRepo(t)
	defer cleanup()

	event := &entities.AuditEvent{
		EventType: entities.AuditEventIssue,
		ActorType: entities.AccountTypeLibrarian,
		ActorID:   1,
		LoanID:    42,
		Detail:    "book 7 issued to student 3",
	}
	require.NoError(t, repo.LogEvent(event))

	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	_, repo, cleanup := setupTestRepo(t)
	defer cleanup()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{
			EventType: entities.AuditEventIssue,
			LoanID:    uint(i + 1),
		}))
	}
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{
		EventType: entities.AuditEventReturn,
		LoanID:    1,
	}))

	t.Run("paginates", func(t *testing.T) {
		events, total, err := repo.GetEvents(4, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		assert.Len(t, events, 4)

		events, _, err = repo.GetEvents(4, 4)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("filters by type", func(t *testing.T) {
		events, total, err := repo.GetEventsByType(entities.AuditEventReturn, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, events, 1)
		assert.Equal(t, entities.AuditEventReturn, events[0].EventType)
	})
}

func TestRepository_GetEventsForLoan(t *testing.T) {
	_, repo, cleanup := setupTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventIssue, LoanID: 1}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventRenew, LoanID: 1}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventIssue, LoanID: 2}))

	events, err := repo.GetEventsForLoan(1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entities.AuditEventIssue, events[0].EventType)
	assert.Equal(t, entities.AuditEventRenew, events[1].EventType)
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	db, repo, cleanup := setupTestRepo(t)
	defer cleanup()

	old := entities.AuditEvent{EventType: entities.AuditEventIssue, EventID: "old-event", CreatedAt: time.Now().AddDate(-2, 0, 0)}
	require.NoError(t, db.DB.Create(&old).Error)
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventIssue}))

	deleted, err := repo.DeleteOldEvents(time.Now().AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := repo.GetEvents(50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
