package ports

import (
	"context"

	"file-sharing-server/internal/model"
	"github.com/jmoiron/sqlx"
)

// FileRepository : SQL слой
type FileRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, file *model.File) error
	GetByUUIDForOwner(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) (*model.File, error)
	GetByUUID(ctx context.Context, exec sqlx.ExtContext, fileUUID string) (*model.File, error)
	ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, cursor string, limit int) ([]model.File, string, error)
	Rename(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID, name string) error
	ChangeCategory(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string, category model.FileCategory) error
	IncrementDownloadCount(ctx context.Context, exec sqlx.ExtContext, fileUUID string) error
	ListUUIDsByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]string, error)
	DeleteByUUID(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) (string, error)
	DeleteByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) (int64, error)
	BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error)
}

type FileService interface {
	CreateFile(ctx context.Context, file *model.File, access model.AccessInfo) (string, error)
	GetFile(ctx context.Context, fileUUID, ownerUUID string) (*model.GetFileResult, error)
	ListFiles(ctx context.Context, ownerUUID string, cursor string, limit int) ([]model.File, string, error)
	RenameFile(ctx context.Context, fileUUID, ownerUUID, newName string, access model.AccessInfo) error
	MoveFile(ctx context.Context, fileUUID, ownerUUID string, category model.FileCategory, access model.AccessInfo) error
	FileHistory(ctx context.Context, fileUUID, ownerUUID string, limit int) ([]model.AuditLogEntry, error)
}
