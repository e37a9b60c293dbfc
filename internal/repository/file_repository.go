package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"file-sharing-server/config"
	"file-sharing-server/internal/model"
	"file-sharing-server/internal/util"
	"github.com/jmoiron/sqlx"
)

type FileRepository struct {
	*config.Database
}

func NewFileRepository(database *config.Database) *FileRepository {
	return &FileRepository{database}
}

// Create : сохраняем новый файл
func (r *FileRepository) Create(ctx context.Context, exec sqlx.ExtContext, file *model.File) error {
	query := `
		INSERT INTO files (uuid, owner_uuid, name, category, size_bytes, mime_type, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := exec.ExecContext(
		ctx,
		query,
		file.UUID,
		file.OwnerUUID,
		file.Name,
		file.Category,
		file.SizeBytes,
		file.MimeType,
		file.StorageKey)

	if err != nil {
		return util.LogError("[FileRepo] не удалось сохранить файл", err)
	}
	return nil
}

// GetByUUIDForOwner : возвращает файл только его владельцу.
// "Нет такого файла" и "файл чужой" снаружи выглядят одинаково (ErrFileNotFound),
// какой случай сработал — видно только по тексту в логе
func (r *FileRepository) GetByUUIDForOwner(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) (*model.File, error) {
	query := `
		SELECT uuid, owner_uuid, name, category, size_bytes, mime_type,
		       storage_key, download_count, created_at, updated_at
		FROM files
		WHERE uuid = $1 AND owner_uuid = $2
	`

	var file model.File
	err := sqlx.GetContext(ctx, exec, &file, query, fileUUID, ownerUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrFileNotFound
	}
	if err != nil {
		return nil, util.LogError("[FileRepo] не удалось получить файл", err)
	}

	return &file, nil
}

// GetByUUID : возвращает файл без проверки владельца — для погашения доступа,
// когда запрос делает не владелец
func (r *FileRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, fileUUID string) (*model.File, error) {
	query := `
		SELECT uuid, owner_uuid, name, category, size_bytes, mime_type,
		       storage_key, download_count, created_at, updated_at
		FROM files
		WHERE uuid = $1
	`

	var file model.File
	err := sqlx.GetContext(ctx, exec, &file, query, fileUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrFileNotFound
	}
	if err != nil {
		return nil, util.LogError("[FileRepo] не удалось получить файл", err)
	}

	return &file, nil
}

// ListByOwner : список файлов владельца. Курсор — пара (created_at, uuid),
// как и ORDER BY: сравнение по одному created_at теряло бы файлы с одинаковой
// меткой времени на границе страницы
func (r *FileRepository) ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, cursor string, limit int) ([]model.File, string, error) {
	query := `
		SELECT uuid, owner_uuid, name, category, size_bytes, mime_type,
		       storage_key, download_count, created_at, updated_at
		FROM files
		WHERE owner_uuid = $1 AND (created_at, uuid) > ($2, $3)
		ORDER BY created_at ASC, uuid ASC
		LIMIT $4
	`

	var cursorTime time.Time
	var cursorUUID string
	var err error

	if cursor != "" {
		timePart, uuidPart, found := strings.Cut(cursor, ",")
		if !found {
			return nil, "", util.LogError("[FileRepo] некорректный формат курсора", errors.New(cursor))
		}
		cursorTime, err = time.Parse(time.RFC3339Nano, timePart)
		if err != nil {
			return nil, "", util.LogError("[FileRepo] некорректный формат курсора", err)
		}
		cursorUUID = uuidPart
	}

	files := []model.File{}
	err = sqlx.SelectContext(ctx, exec, &files, query, ownerUUID, cursorTime, cursorUUID, limit+1) // +1 для проверки наличия следующей страницы
	if err != nil {
		return nil, "", util.LogError("[FileRepo] не удалось получить список файлов", err)
	}

	var nextCursor string
	if len(files) > limit {
		files = files[:limit]
		last := files[len(files)-1]
		nextCursor = last.CreatedAt.Format(time.RFC3339Nano) + "," + last.UUID
	}

	return files, nextCursor, nil
}

// Rename : переименовать может только владелец
func (r *FileRepository) Rename(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID, name string) error {
	query := `
		UPDATE files
		SET name = $3, updated_at = NOW()
		WHERE uuid = $1 AND owner_uuid = $2
	`
	result, err := exec.ExecContext(ctx, query, fileUUID, ownerUUID, name)
	if err != nil {
		return util.LogError("[FileRepo] не удалось переименовать файл", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return model.ErrFileNotFound
	}
	return nil
}

// ChangeCategory : перенос файла в другой раздел
func (r *FileRepository) ChangeCategory(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string, category model.FileCategory) error {
	query := `
		UPDATE files
		SET category = $3, updated_at = NOW()
		WHERE uuid = $1 AND owner_uuid = $2
	`
	result, err := exec.ExecContext(ctx, query, fileUUID, ownerUUID, category)
	if err != nil {
		return util.LogError("[FileRepo] не удалось сменить категорию", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return model.ErrFileNotFound
	}
	return nil
}

// IncrementDownloadCount : счётчик скачиваний файла (не путать с used_count
// доступа — у того своя атомарная операция)
func (r *FileRepository) IncrementDownloadCount(ctx context.Context, exec sqlx.ExtContext, fileUUID string) error {
	query := `UPDATE files SET download_count = download_count + 1, updated_at = NOW() WHERE uuid = $1`
	_, err := exec.ExecContext(ctx, query, fileUUID)
	if err != nil {
		return util.LogError("[FileRepo] не удалось обновить счётчик скачиваний", err)
	}
	return nil
}

// ListUUIDsByOwner : все UUID файлов пользователя — нужно каскаду
// удаления аккаунта для фильтрации журнала аудита
func (r *FileRepository) ListUUIDsByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]string, error) {
	var uuids []string
	err := sqlx.SelectContext(ctx, exec, &uuids, `SELECT uuid FROM files WHERE owner_uuid = $1`, ownerUUID)
	if err != nil {
		return nil, util.LogError("[FileRepo] не удалось получить список UUID файлов", err)
	}
	return uuids, nil
}

// DeleteByUUID : удаляет файл владельца, возвращает storage_key для
// последующего advisory-удаления объекта из S3
func (r *FileRepository) DeleteByUUID(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) (string, error) {
	query := `
		DELETE FROM files
		WHERE uuid = $1 AND owner_uuid = $2
		RETURNING storage_key
	`

	var storageKey string
	err := sqlx.GetContext(ctx, exec, &storageKey, query, fileUUID, ownerUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrFileNotFound
	}
	if err != nil {
		return "", util.LogError("[FileRepo] не удалось удалить файл", err)
	}

	return storageKey, nil
}

// DeleteByOwner : удаляет все файлы пользователя, возвращает число удалённых
func (r *FileRepository) DeleteByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) (int64, error) {
	result, err := exec.ExecContext(ctx, `DELETE FROM files WHERE owner_uuid = $1`, ownerUUID)
	if err != nil {
		return 0, util.LogError("[FileRepo] не удалось удалить файлы пользователя", err)
	}
	return result.RowsAffected()
}

func (r *FileRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, func() error { return tx.Rollback() }, func() error { return tx.Commit() }, nil
}
