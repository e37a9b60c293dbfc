package ports

import (
	"context"

	"file-sharing-server/internal/model"
)

// DeletionService : каскадные удаления. Каждая операция — одна транзакция:
// любая внутренняя ошибка откатывает всё, частичных счётчиков наружу не уходит
type DeletionService interface {
	DeleteFile(ctx context.Context, fileUUID, ownerUUID string, access model.AccessInfo) (*model.FileDeletionResult, error)
	DeleteAccount(ctx context.Context, userUUID string) (*model.AccountDeletionResult, error)
}
