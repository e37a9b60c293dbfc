package repository_test

import (
	"context"
	"testing"
	"time"

	"file-sharing-server/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fileColumns = []string{
	"uuid", "owner_uuid", "name", "category", "size_bytes", "mime_type",
	"storage_key", "download_count", "created_at", "updated_at",
}

func fileRow(rows *sqlmock.Rows, uuid string, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(uuid, "u1", uuid+".txt", "documents", int64(1), "text/plain",
		"files/u1/"+uuid, int64(0), createdAt, createdAt)
}

func TestFileRepository_ListByOwner_CursorIsTimestampUUIDTuple(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewFileRepository(db)

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// фильтр курсора обязан сравнивать ту же пару, что и ORDER BY, иначе
	// файлы с одинаковым created_at на границе страницы теряются
	rows := sqlmock.NewRows(fileColumns)
	fileRow(rows, "f1", created)
	fileRow(rows, "f2", created)
	fileRow(rows, "f3", created)
	sqlMock.ExpectQuery(`(?s)SELECT .* FROM files.*\(created_at, uuid\) > \(\$2, \$3\).*ORDER BY created_at ASC, uuid ASC`).
		WithArgs("u1", time.Time{}, "", 3).
		WillReturnRows(rows)

	files, nextCursor, err := repo.ListByOwner(context.Background(), db, "u1", "", 2)

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, created.Format(time.RFC3339Nano)+",f2", nextCursor)
}

func TestFileRepository_ListByOwner_ResumesAfterCursorUUID(t *testing.T) {
	db, sqlMock := newMockDatabase(t)
	repo := repository.NewFileRepository(db)

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(fileColumns)
	fileRow(rows, "f3", created)
	sqlMock.ExpectQuery(`SELECT .* FROM files`).
		WithArgs("u1", created, "f2", 3).
		WillReturnRows(rows)

	cursor := created.Format(time.RFC3339Nano) + ",f2"
	files, nextCursor, err := repo.ListByOwner(context.Background(), db, "u1", cursor, 2)

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "f3", files[0].UUID)
	assert.Empty(t, nextCursor)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestFileRepository_ListByOwner_MalformedCursorRejected(t *testing.T) {
	db, _ := newMockDatabase(t)
	repo := repository.NewFileRepository(db)

	_, _, err := repo.ListByOwner(context.Background(), db, "u1", "not-a-cursor", 2)

	assert.Error(t, err)
}
