package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richmenu-studio/richmenu-backend/internal/publish/domain"
)

func setupVersionRepo(t *testing.T) (*VersionRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewVersionRepository(db)
	return repo, mock, db
}

func TestVersionRepository_Insert(t *testing.T) {
	repo, mock, db := setupVersionRepo(t)
	defer db.Close()

	v := &domain.Version{
		UserID:     "user-1",
		JobID:      "job-1",
		AliasID:    "mainalias",
		RichMenuID: "richmenu-1",
		MenuName:   "Main",
		IsMain:     true,
		IsActive:   true,
	}

	mock.ExpectExec(`INSERT INTO richmenu_versions`).
		WithArgs(
			sqlmock.AnyArg(), "user-1", "", "job-1", "mainalias",
			"richmenu-1", "Main", true, true, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), v)
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepository_DeactivateByAlias(t *testing.T) {
	repo, mock, db := setupVersionRepo(t)
	defer db.Close()

	t.Run("deactivates prior versions", func(t *testing.T) {
		mock.ExpectExec(`UPDATE richmenu_versions`).
			WithArgs("user-1", "mainalias").
			WillReturnResult(sqlmock.NewResult(0, 3))

		err := repo.DeactivateByAlias(context.Background(), "user-1", "mainalias")
		require.NoError(t, err)
	})

	t.Run("no rows is fine for a first publish", func(t *testing.T) {
		mock.ExpectExec(`UPDATE richmenu_versions`).
			WithArgs("user-1", "freshalias").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeactivateByAlias(context.Background(), "user-1", "freshalias")
		require.NoError(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepository_ListByUser(t *testing.T) {
	repo, mock, db := setupVersionRepo(t)
	defer db.Close()

	cols := []string{
		"id", "user_id", "draft_id", "job_id", "alias_id", "rich_menu_id",
		"menu_name", "is_main", "is_active", "created_at",
	}
	now := time.Now()

	t.Run("all versions for user", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, user_id`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("v2", "user-1", "", "job-2", "mainalias", "richmenu-2", "Main", true, true, now).
				AddRow("v1", "user-1", "", "job-1", "mainalias", "richmenu-1", "Main", true, false, now.Add(-time.Hour)))

		versions, err := repo.ListByUser(context.Background(), "user-1", "")
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.True(t, versions[0].IsActive)
		assert.False(t, versions[1].IsActive)
	})

	t.Run("filtered by alias", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, user_id`).
			WithArgs("user-1", "subalias").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("v3", "user-1", "", "job-2", "subalias", "richmenu-3", "Sub", false, true, now))

		versions, err := repo.ListByUser(context.Background(), "user-1", "subalias")
		require.NoError(t, err)
		require.Len(t, versions, 1)
		assert.Equal(t, "subalias", versions[0].AliasID)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
