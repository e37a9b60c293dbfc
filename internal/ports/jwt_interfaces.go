package ports

import (
	"context"

	"file-sharing-server/internal/model"
	"file-sharing-server/internal/security"
	"github.com/jmoiron/sqlx"
)

type JWTRepositoryInterface interface {
	FindByUUID(ctx context.Context, uuid string) (*model.RefreshToken, error)
	MarkRefreshTokenUsedByUUID(ctx context.Context, uuid string) error
	SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error
	DeleteByUser(ctx context.Context, exec sqlx.ExtContext, userUUID string) (int64, error)
}

type JWTServiceInterface interface {
	GenerateAccessRefreshTokens(userUUID string) (*model.TokensPair, *model.RefreshToken, error)
	ValidateJWT(tokenString string, secret []byte) (*security.Claims, error)
}
