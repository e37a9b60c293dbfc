package ports

import (
	"context"
	"time"

	"file-sharing-server/internal/model"
	"github.com/jmoiron/sqlx"
)

// LinkShareRepository : публичные ссылки. TryConsume обязан выполнять проверку
// остатка и инкремент счётчика одним атомарным UPDATE на стороне БД —
// read-then-write здесь недопустим из-за гонок между конкурентными читателями
type LinkShareRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, share *model.LinkShare) error
	GetByToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.LinkShare, error)
	ListByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) ([]model.LinkShare, error)
	TryConsume(ctx context.Context, exec sqlx.ExtContext, shareUUID string, now time.Time) (int, error)
	Revoke(ctx context.Context, exec sqlx.ExtContext, shareUUID, ownerUUID string) error
	RevokeAllByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) (int64, error)
	DeleteByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID string) (int64, error)
	DeleteByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) (int64, error)
}

// UserShareRepository : доступы, выданные конкретным получателям
type UserShareRepository interface {
	DeactivatePrior(ctx context.Context, exec sqlx.ExtContext, fileUUID, recipientUUID string) (int64, error)
	Create(ctx context.Context, exec sqlx.ExtContext, share *model.UserShare) error
	GetActive(ctx context.Context, exec sqlx.ExtContext, fileUUID, recipientUUID string) (*model.UserShare, error)
	ListByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) ([]model.UserShare, error)
	ListForRecipient(ctx context.Context, exec sqlx.ExtContext, recipientUUID string) ([]model.SharedFile, error)
	TryConsume(ctx context.Context, exec sqlx.ExtContext, shareUUID string, now time.Time) (int, error)
	Revoke(ctx context.Context, exec sqlx.ExtContext, shareUUID, ownerUUID string) error
	RevokeAllByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID, ownerUUID string) (int64, error)
	DeleteByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID string) (int64, error)
	DeleteByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) (int64, error)
}

type ShareService interface {
	CreateLinkShare(ctx context.Context, fileUUID, ownerUUID string, expiresAt *time.Time, maxCount *int, access model.AccessInfo) (*model.LinkShare, error)
	CreateUserShare(ctx context.Context, fileUUID, ownerUUID, recipientUUID string, expiresAt *time.Time, maxCount *int, access model.AccessInfo) (*model.UserShare, error)
	ConsumeLinkShare(ctx context.Context, token string, access model.AccessInfo) (*model.GetFileResult, error)
	ConsumeUserShare(ctx context.Context, fileUUID, recipientUUID string, access model.AccessInfo) (*model.GetFileResult, error)
	ListFileShares(ctx context.Context, fileUUID, ownerUUID string) ([]model.LinkShare, []model.UserShare, error)
	ListSharedWithMe(ctx context.Context, recipientUUID string) ([]model.SharedFile, error)
	RevokeLinkShare(ctx context.Context, shareUUID, ownerUUID string, access model.AccessInfo) error
	RevokeUserShare(ctx context.Context, shareUUID, ownerUUID string, access model.AccessInfo) error
	RevokeAllShares(ctx context.Context, fileUUID, ownerUUID string, access model.AccessInfo) (int64, int64, error)
}
