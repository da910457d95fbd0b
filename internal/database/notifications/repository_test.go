package notifications

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

	dbPath := "./test_notifications_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, NewRepository(db.DB), cleanup
}

func TestRepository_CreateAndList(t *testing.T) {
	_, repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.Create(1, 10, "Your loan is overdue")
	require.NoError(t, err)
	_, err = repo.Create(1, 11, "Your other loan is overdue")
	require.NoError(t, err)
	_, err = repo.Create(2, 12, "Unrelated student")
	require.NoError(t, err)

	list, err := repo.ListForStudent(1)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	for _, n := range list {
		assert.Equal(t, uint(1), n.StudentID)
		assert.Nil(t, n.ReadAt)
	}
}

func TestRepository_MarkRead(t *testing.T) {
	_, repo, cleanup := setupTestRepo(t)
	defer cleanup()

	created, err := repo.Create(1, 10, "Your loan is overdue")
	require.NoError(t, err)

	require.NoError(t, repo.MarkRead(created.ID))

	list, err := repo.ListForStudent(1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].ReadAt)

	assert.ErrorIs(t, repo.MarkRead(9999), ErrNotificationNotFound)
}

func TestRepository_HasNoticeForLoanSince(t *testing.T) {
	_, repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.Create(1, 10, "Your loan is overdue")
	require.NoError(t, err)

	has, err := repo.HasNoticeForLoanSince(10, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasNoticeForLoanSince(10, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, has)

	has, err = repo.HasNoticeForLoanSince(11, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	db, repo, cleanup := setupTestRepo(t)
	defer cleanup()

	old := entities.Notification{StudentID: 1, LoanID: 10, Message: "old", CreatedAt: time.Now().AddDate(0, -6, 0)}
	require.NoError(t, db.DB.Create(&old).Error)
	_, err := repo.Create(1, 11, "recent")
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan(time.Now().AddDate(0, -3, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	list, err := repo.ListForStudent(1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "recent", list[0].Message)
}
