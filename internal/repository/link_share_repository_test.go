package repository_test

import (
	"context"
	"testing"
	"time"

	"file-sharing-server/config"
	"file-sharing-server/internal/model"
	"file-sharing-server/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDatabase(t *testing.T) (*config.Database, sqlmock.Sqlmock) {
	t.Helper()

	rawDB, sqlMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })

	return &config.Database{DB: sqlx.NewDb(rawDB, "sqlmock")}, sqlMock
}

func TestLinkShareRepository_TryConsume_IncrementsAndReturnsCount(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewLinkShareRepository(db)

	now := time.Now()
	sqlMock.ExpectQuery(`UPDATE link_shares`).
		WithArgs("share-1", now).
		WillReturnRows(sqlmock.NewRows([]string{"used_count"}).AddRow(3))

	usedCount, err := repo.TryConsume(context.Background(), db, "share-1", now)

	require.NoError(t, err)
	assert.Equal(t, 3, usedCount)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLinkShareRepository_TryConsume_NoRowMeansExhausted(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewLinkShareRepository(db)

	now := time.Now()
	// условный UPDATE не зацепил ни одной строки: ссылка либо просрочена,
	// либо лимит выбран, либо отозвана
	sqlMock.ExpectQuery(`UPDATE link_shares`).
		WithArgs("share-1", now).
		WillReturnRows(sqlmock.NewRows([]string{"used_count"}))

	_, err := repo.TryConsume(context.Background(), db, "share-1", now)

	assert.ErrorIs(t, err, model.ErrShareExpired)
}

func TestLinkShareRepository_TryConsume_GuardsInQuery(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewLinkShareRepository(db)

	now := time.Now()
	// проверка остатка обязана сидеть в самом UPDATE, а не в коде сервиса
	sqlMock.ExpectQuery(`(?s)UPDATE link_shares.*is_active = TRUE.*expires_at IS NULL OR expires_at > \$2.*used_count < max_count.*RETURNING used_count`).
		WithArgs("share-1", now).
		WillReturnRows(sqlmock.NewRows([]string{"used_count"}).AddRow(1))

	_, err := repo.TryConsume(context.Background(), db, "share-1", now)

	require.NoError(t, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLinkShareRepository_GetByToken_UnknownToken(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewLinkShareRepository(db)

	sqlMock.ExpectQuery(`SELECT .* FROM link_shares`).
		WithArgs("no-such-token").
		WillReturnRows(sqlmock.NewRows([]string{"uuid"}))

	share, err := repo.GetByToken(context.Background(), db, "no-such-token")

	assert.Nil(t, share)
	assert.ErrorIs(t, err, model.ErrShareNotFound)
}

func TestLinkShareRepository_Revoke_ZeroRowsMeansNotFound(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewLinkShareRepository(db)

	sqlMock.ExpectExec(`UPDATE link_shares`).
		WithArgs("share-1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Revoke(context.Background(), db, "share-1", "intruder")

	assert.ErrorIs(t, err, model.ErrShareNotFound)
}

func TestLinkShareRepository_RevokeAllByFile_ReturnsAffected(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewLinkShareRepository(db)

	sqlMock.ExpectExec(`UPDATE link_shares`).
		WithArgs("f1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.RevokeAllByFile(context.Background(), db, "f1", "u1")

	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
}
