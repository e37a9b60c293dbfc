package repository_test

import (
	"context"
	"testing"
	"time"

	"file-sharing-server/internal/model"
	"file-sharing-server/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserShareRepository_DeleteByOwner_FiltersOnOwnerOnly(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewUserShareRepository(db)

	// каскад удаления аккаунта сносит только записи, где пользователь —
	// владелец; доступы, выданные ему как получателю, остаются
	sqlMock.ExpectExec(`^DELETE FROM user_shares WHERE owner_uuid = \$1$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.DeleteByOwner(context.Background(), db, "u1")

	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestUserShareRepository_DeactivatePrior_TouchesOnlyActivePairRecord(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewUserShareRepository(db)

	sqlMock.ExpectExec(`(?s)UPDATE user_shares.*WHERE file_uuid = \$1 AND recipient_uuid = \$2 AND is_active = TRUE`).
		WithArgs("f1", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.DeactivatePrior(context.Background(), db, "f1", "r1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestUserShareRepository_TryConsume_GuardsInQuery(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewUserShareRepository(db)

	now := time.Now()
	sqlMock.ExpectQuery(`(?s)UPDATE user_shares.*is_active = TRUE.*expires_at IS NULL OR expires_at > \$2.*used_count < max_count.*RETURNING used_count`).
		WithArgs("share-1", now).
		WillReturnRows(sqlmock.NewRows([]string{"used_count"}).AddRow(2))

	usedCount, err := repo.TryConsume(context.Background(), db, "share-1", now)

	require.NoError(t, err)
	assert.Equal(t, 2, usedCount)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestUserShareRepository_TryConsume_NoRowMeansExhausted(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewUserShareRepository(db)

	now := time.Now()
	sqlMock.ExpectQuery(`UPDATE user_shares`).
		WithArgs("share-1", now).
		WillReturnRows(sqlmock.NewRows([]string{"used_count"}))

	_, err := repo.TryConsume(context.Background(), db, "share-1", now)

	assert.ErrorIs(t, err, model.ErrShareExpired)
}

func TestUserShareRepository_GetActive_NoRowMeansNotFound(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewUserShareRepository(db)

	sqlMock.ExpectQuery(`SELECT .* FROM user_shares`).
		WithArgs("f1", "r1").
		WillReturnRows(sqlmock.NewRows([]string{"uuid"}))

	share, err := repo.GetActive(context.Background(), db, "f1", "r1")

	assert.Nil(t, share)
	assert.ErrorIs(t, err, model.ErrShareNotFound)
}
