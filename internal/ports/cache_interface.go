package ports

import (
	"context"

	"file-sharing-server/internal/model"
)

// CacheRepository : Redis слой
type CacheRepository interface {
	SetFile(ctx context.Context, file *model.File) error
	GetFile(ctx context.Context, uuid string) (*model.File, error)
	DeleteFile(ctx context.Context, uuid string) error
}
