package repository

import (
	"context"

	"file-sharing-server/config"
	"file-sharing-server/internal/model"
	"file-sharing-server/internal/util"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type AuditRepository struct {
	*config.Database
}

func NewAuditRepository(database *config.Database) *AuditRepository {
	return &AuditRepository{database}
}

// Append : чистая вставка, бизнес-логика запись никогда не отклоняет.
// file_uuid допускает NULL — так журналируются попытки доступа по
// несуществующему токену
func (r *AuditRepository) Append(ctx context.Context, exec sqlx.ExtContext, entry *model.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (uuid, file_uuid, action, actor_uuid, actor_name, ip_address, user_agent, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := exec.ExecContext(
		ctx,
		query,
		entry.UUID,
		entry.FileUUID,
		entry.Action,
		entry.ActorUUID,
		entry.ActorName,
		entry.IPAddress,
		entry.UserAgent,
		entry.Details)

	if err != nil {
		return util.LogError("[AuditRepo] не удалось записать событие в журнал", err)
	}
	return nil
}

// ListByFile : история файла, новые записи первыми
func (r *AuditRepository) ListByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID string, limit int) ([]model.AuditLogEntry, error) {
	query := `
		SELECT uuid, file_uuid, action, actor_uuid, actor_name, ip_address, user_agent, details, created_at
		FROM audit_log
		WHERE file_uuid = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	entries := []model.AuditLogEntry{}
	if err := sqlx.SelectContext(ctx, exec, &entries, query, fileUUID, limit); err != nil {
		return nil, util.LogError("[AuditRepo] не удалось получить историю файла", err)
	}
	return entries, nil
}

// AnonymizeActor : затирает актора в записях, где пользователь был гостем
// на чужом файле. Записи на его собственных файлах не трогаются — их
// целиком снесёт каскад удаления файлов. Записи без файла (пробы токенов)
// тоже анонимизируются
func (r *AuditRepository) AnonymizeActor(ctx context.Context, exec sqlx.ExtContext, userUUID string) (int64, error) {
	query := `
		UPDATE audit_log
		SET actor_uuid = NULL, actor_name = $2
		WHERE actor_uuid = $1
		  AND (file_uuid IS NULL OR file_uuid NOT IN (SELECT uuid FROM files WHERE owner_uuid = $1))
	`
	result, err := exec.ExecContext(ctx, query, userUUID, model.AnonymizedActorName)
	if err != nil {
		return 0, util.LogError("[AuditRepo] не удалось анонимизировать записи", err)
	}
	return result.RowsAffected()
}

// RenameActor : при смене логина историческое поле "кто" переписывается
// массово, чтобы чтение журнала не требовало join на users
func (r *AuditRepository) RenameActor(ctx context.Context, exec sqlx.ExtContext, userUUID, newName string) (int64, error) {
	query := `UPDATE audit_log SET actor_name = $2 WHERE actor_uuid = $1`
	result, err := exec.ExecContext(ctx, query, userUUID, newName)
	if err != nil {
		return 0, util.LogError("[AuditRepo] не удалось переименовать актора в журнале", err)
	}
	return result.RowsAffected()
}

// DeleteByFile : каскад удаления файла — единственный путь, которым
// записи журнала исчезают
func (r *AuditRepository) DeleteByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID string) (int64, error) {
	result, err := exec.ExecContext(ctx, `DELETE FROM audit_log WHERE file_uuid = $1`, fileUUID)
	if err != nil {
		return 0, util.LogError("[AuditRepo] не удалось удалить журнал файла", err)
	}
	return result.RowsAffected()
}

// DeleteByFileUUIDs : каскад удаления аккаунта, журнал всех файлов разом
func (r *AuditRepository) DeleteByFileUUIDs(ctx context.Context, exec sqlx.ExtContext, fileUUIDs []string) (int64, error) {
	if len(fileUUIDs) == 0 {
		return 0, nil
	}

	result, err := exec.ExecContext(ctx, `DELETE FROM audit_log WHERE file_uuid = ANY($1)`, pq.Array(fileUUIDs))
	if err != nil {
		return 0, util.LogError("[AuditRepo] не удалось удалить журнал файлов пользователя", err)
	}
	return result.RowsAffected()
}
