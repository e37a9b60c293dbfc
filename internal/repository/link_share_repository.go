package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"file-sharing-server/config"
	"file-sharing-server/internal/model"
	"file-sharing-server/internal/util"
	"github.com/jmoiron/sqlx"
)

type LinkShareRepository struct {
	*config.Database
}

func NewLinkShareRepository(database *config.Database) *LinkShareRepository {
	return &LinkShareRepository{database}
}

// Create : сохраняет новую публичную ссылку
func (r *LinkShareRepository) Create(ctx context.Context, exec sqlx.ExtContext, share *model.LinkShare) error {
	query := `
		INSERT INTO link_shares (uuid, token, file_uuid, owner_uuid, expires_at, max_count, used_count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, 0, TRUE)
	`
	_, err := exec.ExecContext(
		ctx,
		query,
		share.UUID,
		share.Token,
		share.FileUUID,
		share.OwnerUUID,
		share.ExpiresAt,
		share.MaxCount)

	if err != nil {
		return util.LogError("[LinkShareRepo] не удалось сохранить ссылку", err)
	}
	return nil
}

// GetByToken : ищет ссылку по токену
func (r *LinkShareRepository) GetByToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.LinkShare, error) {
	query := `
		SELECT uuid, token, file_uuid, owner_uuid, expires_at, max_count,
		       used_count, is_active, created_at, updated_at
		FROM link_shares
		WHERE token = $1
	`

	var share model.LinkShare
	err := sqlx.GetContext(ctx, exec, &share, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrShareNotFound
	}
	if err != nil {
		return nil, util.LogError("[LinkShareRepo] не удалось найти ссылку по токену", err)
	}

	return &share, nil
}

// ListByFile : все ссылки файла для его владельца
func (r *LinkShareRepository) ListByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) ([]model.LinkShare, error) {
	query := `
		SELECT uuid, token, file_uuid, owner_uuid, expires_at, max_count,
		       used_count, is_active, created_at, updated_at
		FROM link_shares
		WHERE file_uuid = $1 AND owner_uuid = $2
		ORDER BY created_at DESC
	`

	shares := []model.LinkShare{}
	if err := sqlx.SelectContext(ctx, exec, &shares, query, fileUUID, ownerUUID); err != nil {
		return nil, util.LogError("[LinkShareRepo] не удалось получить список ссылок", err)
	}
	return shares, nil
}

// TryConsume : проверка остатка и инкремент счётчика одним условным UPDATE.
// Два конкурентных читателя, оба увидевшие used_count = max_count - 1,
// не могут пройти одновременно: БД выполняет условие и инкремент атомарно.
// Ноль затронутых строк означает, что ссылка погашена — по какому из двух
// измерений, наружу не сообщается
func (r *LinkShareRepository) TryConsume(ctx context.Context, exec sqlx.ExtContext, shareUUID string, now time.Time) (int, error) {
	query := `
		UPDATE link_shares
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE uuid = $1
		  AND is_active = TRUE
		  AND (expires_at IS NULL OR expires_at > $2)
		  AND (max_count IS NULL OR used_count < max_count)
		RETURNING used_count
	`

	var usedCount int
	err := sqlx.GetContext(ctx, exec, &usedCount, query, shareUUID, now)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrShareExpired
	}
	if err != nil {
		return 0, util.LogError("[LinkShareRepo] не удалось погасить ссылку", err)
	}

	return usedCount, nil
}

// Revoke : владелец деактивирует ссылку; запись остаётся до каскада
func (r *LinkShareRepository) Revoke(ctx context.Context, exec sqlx.ExtContext, shareUUID, ownerUUID string) error {
	query := `
		UPDATE link_shares
		SET is_active = FALSE, updated_at = NOW()
		WHERE uuid = $1 AND owner_uuid = $2 AND is_active = TRUE
	`
	result, err := exec.ExecContext(ctx, query, shareUUID, ownerUUID)
	if err != nil {
		return util.LogError("[LinkShareRepo] не удалось отозвать ссылку", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return model.ErrShareNotFound
	}
	return nil
}

// RevokeAllByFile : деактивирует все активные ссылки файла
func (r *LinkShareRepository) RevokeAllByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) (int64, error) {
	query := `
		UPDATE link_shares
		SET is_active = FALSE, updated_at = NOW()
		WHERE file_uuid = $1 AND owner_uuid = $2 AND is_active = TRUE
	`
	result, err := exec.ExecContext(ctx, query, fileUUID, ownerUUID)
	if err != nil {
		return 0, util.LogError("[LinkShareRepo] не удалось отозвать ссылки файла", err)
	}
	return result.RowsAffected()
}

// DeleteByFile : каскад удаления файла, сносит ссылки независимо от is_active
func (r *LinkShareRepository) DeleteByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID string) (int64, error) {
	result, err := exec.ExecContext(ctx, `DELETE FROM link_shares WHERE file_uuid = $1`, fileUUID)
	if err != nil {
		return 0, util.LogError("[LinkShareRepo] не удалось удалить ссылки файла", err)
	}
	return result.RowsAffected()
}

// DeleteByOwner : каскад удаления аккаунта
func (r *LinkShareRepository) DeleteByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) (int64, error) {
	result, err := exec.ExecContext(ctx, `DELETE FROM link_shares WHERE owner_uuid = $1`, ownerUUID)
	if err != nil {
		return 0, util.LogError("[LinkShareRepo] не удалось удалить ссылки пользователя", err)
	}
	return result.RowsAffected()
}
