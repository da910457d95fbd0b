package accounts

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

	dbPath := "./test_accounts_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, NewRepository(db.DB), cleanup
}

func seedStudent(t *testing.T, db *database.Database, email string, librarianID uint) entities.Student {
	t.Helper()
	student := entities.Student{Name: "Sam", Email: email, PasswordHash: "x", LibrarianID: librarianID}
	require.NoError(t, db.DB.Create(&student).Error)
	return student
}

func TestRepository_Students(t *testing.T) {
	t.Run("scoped to the owning librarian", func(t *testing.T) {
		db, repo, cleanup := setupTestRepo(t)
		defer cleanup()

		seedStudent(t, db, "a@example.org", 1)
		seedStudent(t, db, "b@example.org", 1)
		seedStudent(t, db, "c@example.org", 2)

		mine, err := repo.GetStudentsForLibrarian(1)
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		all, err := repo.GetAllStudents()
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("update changes only provided fields", func(t *testing.T) {
		db, repo, cleanup := setupTestRepo(t)
		defer cleanup()

		student := seedStudent(t, db, "a@example.org", 1)

		updated, err := repo.UpdateStudent(student.ID, "Samuel", "", "99 Side St")
		require.NoError(t, err)
		assert.Equal(t, "Samuel", updated.Name)
		assert.Equal(t, "99 Side St", updated.Address)
		assert.Equal(t, "a@example.org", updated.Email)
	})

	t.Run("delete refused while open loans exist", func(t *testing.T) {
		db, repo, cleanup := setupTestRepo(t)
		defer cleanup()

		student := seedStudent(t, db, "a@example.org", 1)
		loan := entities.Loan{BookID: 1, StudentID: student.ID, LibrarianID: 1}
		require.NoError(t, db.DB.Create(&loan).Error)

		err := repo.DeleteStudent(student.ID)
		assert.ErrorIs(t, err, ErrStudentHasOpenLoans)

		// Returning the loan unblocks the delete.
		require.NoError(t, db.DB.Model(&entities.Loan{}).
			Where("id = ?", loan.ID).Update("returned_at", time.Now()).Error)

		require.NoError(t, repo.DeleteStudent(student.ID))
		_, err = repo.GetStudentByID(student.ID)
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})

	t.Run("unknown student is not found", func(t *testing.T) {
		_, repo, cleanup := setupTestRepo(t)
		defer cleanup()

		_, err := repo.GetStudentByID(999)
		assert.ErrorIs(t, err, ErrStudentNotFound)
		assert.ErrorIs(t, repo.DeleteStudent(999), ErrStudentNotFound)
	})
}

func TestRepository_Librarians(t *testing.T) {
	db, repo, cleanup := setupTestRepo(t)
	defer cleanup()

	librarian := entities.Librarian{Name: "Ada", Email: "ada@example.org", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(&librarian).Error)

	found, err := repo.GetLibrarianByEmail("ada@example.org")
	require.NoError(t, err)
	assert.Equal(t, librarian.ID, found.ID)

	updated, err := repo.UpdateLibrarian(librarian.ID, "Ada L.", "555-0001")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, "555-0001", updated.Phone)

	require.NoError(t, repo.DeleteLibrarian(librarian.ID))
	_, err = repo.GetLibrarianByID(librarian.ID)
	assert.ErrorIs(t, err, ErrLibrarianNotFound)
}

func TestRepository_Admins(t *testing.T) {
	db, repo, cleanup := setupTestRepo(t)
	defer cleanup()

	admin := entities.Admin{Name: "Root", Email: "root@example.org", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(&admin).Error)

	all, err := repo.GetAllAdmins()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteAdmin(admin.ID))
	_, err = repo.GetAdminByID(admin.ID)
	assert.ErrorIs(t, err, ErrAdminNotFound)
}
