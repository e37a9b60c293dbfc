package ports

import (
	"context"

	"file-sharing-server/internal/model"
	"github.com/jmoiron/sqlx"
)

// AuditRepository : журнал только пополняется; единственные изменения —
// анонимизация актора и массовое переименование. Удаление строк возможно
// только каскадом вместе с файлом
type AuditRepository interface {
	Append(ctx context.Context, exec sqlx.ExtContext, entry *model.AuditLogEntry) error
	ListByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID string, limit int) ([]model.AuditLogEntry, error)
	AnonymizeActor(ctx context.Context, exec sqlx.ExtContext, userUUID string) (int64, error)
	RenameActor(ctx context.Context, exec sqlx.ExtContext, userUUID, newName string) (int64, error)
	DeleteByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID string) (int64, error)
	DeleteByFileUUIDs(ctx context.Context, exec sqlx.ExtContext, fileUUIDs []string) (int64, error)
}

// AuditRecorder : сервисная обёртка. Record работает по принципу
// fire-and-forget: ошибка вставки логируется и попадает в метрики,
// но не валит операцию, которую сопровождает
type AuditRecorder interface {
	Record(ctx context.Context, exec sqlx.ExtContext, entry *model.AuditLogEntry)
	AnonymizeActor(ctx context.Context, exec sqlx.ExtContext, userUUID string) (int64, error)
	RenameActor(ctx context.Context, exec sqlx.ExtContext, userUUID, newName string) (int64, error)
	FileHistory(ctx context.Context, exec sqlx.ExtContext, fileUUID string, limit int) ([]model.AuditLogEntry, error)
}
