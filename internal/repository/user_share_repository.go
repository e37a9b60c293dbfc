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

type UserShareRepository struct {
	*config.Database
}

func NewUserShareRepository(database *config.Database) *UserShareRepository {
	return &UserShareRepository{database}
}

// DeactivatePrior : гасит предыдущую активную запись на пару (файл, получатель).
// Вызывается строго ПЕРЕД вставкой новой записи, чтобы в хранилище
// никогда не оказалось двух активных доступов на одну пару
func (r *UserShareRepository) DeactivatePrior(ctx context.Context, exec sqlx.ExtContext, fileUUID, recipientUUID string) (int64, error) {
	query := `
		UPDATE user_shares
		SET is_active = FALSE, updated_at = NOW()
		WHERE file_uuid = $1 AND recipient_uuid = $2 AND is_active = TRUE
	`
	result, err := exec.ExecContext(ctx, query, fileUUID, recipientUUID)
	if err != nil {
		return 0, util.LogError("[UserShareRepo] не удалось деактивировать прежний доступ", err)
	}
	return result.RowsAffected()
}

// Create : сохраняет новый доступ
func (r *UserShareRepository) Create(ctx context.Context, exec sqlx.ExtContext, share *model.UserShare) error {
	query := `
		INSERT INTO user_shares (uuid, file_uuid, owner_uuid, recipient_uuid, expires_at, max_count, used_count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, 0, TRUE)
	`
	_, err := exec.ExecContext(
		ctx,
		query,
		share.UUID,
		share.FileUUID,
		share.OwnerUUID,
		share.RecipientUUID,
		share.ExpiresAt,
		share.MaxCount)

	if err != nil {
		return util.LogError("[UserShareRepo] не удалось сохранить доступ", err)
	}
	return nil
}

// GetActive : активная запись на пару (файл, получатель); больше одной
// быть не может — см. DeactivatePrior
func (r *UserShareRepository) GetActive(ctx context.Context, exec sqlx.ExtContext, fileUUID, recipientUUID string) (*model.UserShare, error) {
	query := `
		SELECT uuid, file_uuid, owner_uuid, recipient_uuid, expires_at, max_count,
		       used_count, is_active, created_at, updated_at
		FROM user_shares
		WHERE file_uuid = $1 AND recipient_uuid = $2 AND is_active = TRUE
	`

	var share model.UserShare
	err := sqlx.GetContext(ctx, exec, &share, query, fileUUID, recipientUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrShareNotFound
	}
	if err != nil {
		return nil, util.LogError("[UserShareRepo] не удалось найти доступ", err)
	}

	return &share, nil
}

// ListByFile : все персональные доступы файла для его владельца
func (r *UserShareRepository) ListByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) ([]model.UserShare, error) {
	query := `
		SELECT uuid, file_uuid, owner_uuid, recipient_uuid, expires_at, max_count,
		       used_count, is_active, created_at, updated_at
		FROM user_shares
		WHERE file_uuid = $1 AND owner_uuid = $2
		ORDER BY created_at DESC
	`

	shares := []model.UserShare{}
	if err := sqlx.SelectContext(ctx, exec, &shares, query, fileUUID, ownerUUID); err != nil {
		return nil, util.LogError("[UserShareRepo] не удалось получить список доступов", err)
	}
	return shares, nil
}

// ListForRecipient : файлы, доступные текущему пользователю. Логин владельца
// подставляется на чтении; для удалённых аккаунтов владелец резолвится
// в "Unknown User" вместо мутации исторических записей
func (r *UserShareRepository) ListForRecipient(ctx context.Context, exec sqlx.ExtContext, recipientUUID string) ([]model.SharedFile, error) {
	query := `
		SELECT s.uuid AS share_uuid, s.file_uuid, f.name AS file_name,
		       COALESCE(u.login, '` + model.UnknownUserName + `') AS owner_login,
		       s.expires_at, s.max_count, s.used_count, s.is_active, s.created_at
		FROM user_shares AS s
		INNER JOIN files AS f ON f.uuid = s.file_uuid
		LEFT JOIN users AS u ON u.uuid = s.owner_uuid
		WHERE s.recipient_uuid = $1
		ORDER BY s.created_at DESC
	`

	shares := []model.SharedFile{}
	if err := sqlx.SelectContext(ctx, exec, &shares, query, recipientUUID); err != nil {
		return nil, util.LogError("[UserShareRepo] не удалось получить доступные файлы", err)
	}
	return shares, nil
}

// TryConsume : тот же атомарный compare-and-increment, что и у публичных ссылок
func (r *UserShareRepository) TryConsume(ctx context.Context, exec sqlx.ExtContext, shareUUID string, now time.Time) (int, error) {
	query := `
		UPDATE user_shares
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
		return 0, util.LogError("[UserShareRepo] не удалось погасить доступ", err)
	}

	return usedCount, nil
}

// Revoke : владелец отзывает доступ
func (r *UserShareRepository) Revoke(ctx context.Context, exec sqlx.ExtContext, shareUUID, ownerUUID string) error {
	query := `
		UPDATE user_shares
		SET is_active = FALSE, updated_at = NOW()
		WHERE uuid = $1 AND owner_uuid = $2 AND is_active = TRUE
	`
	result, err := exec.ExecContext(ctx, query, shareUUID, ownerUUID)
	if err != nil {
		return util.LogError("[UserShareRepo] не удалось отозвать доступ", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return model.ErrShareNotFound
	}
	return nil
}

// RevokeAllByFile : деактивирует все активные персональные доступы файла
func (r *UserShareRepository) RevokeAllByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) (int64, error) {
	query := `
		UPDATE user_shares
		SET is_active = FALSE, updated_at = NOW()
		WHERE file_uuid = $1 AND owner_uuid = $2 AND is_active = TRUE
	`
	result, err := exec.ExecContext(ctx, query, fileUUID, ownerUUID)
	if err != nil {
		return 0, util.LogError("[UserShareRepo] не удалось отозвать доступы файла", err)
	}
	return result.RowsAffected()
}

// DeleteByFile : каскад удаления файла
func (r *UserShareRepository) DeleteByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID string) (int64, error) {
	result, err := exec.ExecContext(ctx, `DELETE FROM user_shares WHERE file_uuid = $1`, fileUUID)
	if err != nil {
		return 0, util.LogError("[UserShareRepo] не удалось удалить доступы файла", err)
	}
	return result.RowsAffected()
}

// DeleteByOwner : каскад удаления аккаунта. Удаляются только записи, где
// пользователь — владелец; записи, где он лишь получатель, сохраняются
// как история для чужих владельцев
func (r *UserShareRepository) DeleteByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) (int64, error) {
	result, err := exec.ExecContext(ctx, `DELETE FROM user_shares WHERE owner_uuid = $1`, ownerUUID)
	if err != nil {
		return 0, util.LogError("[UserShareRepo] не удалось удалить доступы пользователя", err)
	}
	return result.RowsAffected()
}
