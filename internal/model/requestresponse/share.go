package requestresponse

import (
	"time"

	"file-sharing-server/internal/model"
)

// CreateLinkShareRequest : параметры публичной ссылки.
// Хотя бы одно из полей expires_at / max_count обязательно
type CreateLinkShareRequest struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty" example:"2025-09-01T00:00:00Z"`
	MaxCount  *int       `json:"max_count,omitempty" example:"5"`
}

// CreateLinkShareResponse : ответ с токеном созданной ссылки
type CreateLinkShareResponse struct {
	Response struct {
		ShareUUID string     `json:"share_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
		Token     string     `json:"token" example:"9f2c4a0e7b13d856f1a2c3e4b5d6a7f8"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
		MaxCount  *int       `json:"max_count,omitempty"`
	} `json:"response"`
}

// CreateUserShareRequest : выдача доступа конкретному пользователю
type CreateUserShareRequest struct {
	RecipientUUID string     `json:"recipient_uuid" example:"user-uuid-1234"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" example:"2025-09-01T00:00:00Z"`
	MaxCount      *int       `json:"max_count,omitempty" example:"5"`
}

// CreateUserShareResponse : ответ при выдаче доступа
type CreateUserShareResponse struct {
	Response struct {
		ShareUUID     string `json:"share_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
		RecipientUUID string `json:"recipient_uuid" example:"user-uuid-1234"`
	} `json:"response"`
}

// ShareResponse : состояние одного доступа; Active вычисляется лениво
// на момент чтения, а не берётся из заранее посчитанного флага
type ShareResponse struct {
	UUID      string     `json:"uuid"`
	Token     string     `json:"token,omitempty"`
	Recipient string     `json:"recipient_uuid,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxCount  *int       `json:"max_count,omitempty"`
	UsedCount int        `json:"used_count"`
	Active    bool       `json:"active"`
	CreatedAt string     `json:"created_at"`
}

// LinkShareResponseFromModel : конвертирует model.LinkShare, вердикт активности
// вычисляется на переданный момент времени
func LinkShareResponseFromModel(share *model.LinkShare, now time.Time) ShareResponse {
	return ShareResponse{
		UUID:      share.UUID,
		Token:     share.Token,
		ExpiresAt: share.ExpiresAt,
		MaxCount:  share.MaxCount,
		UsedCount: share.UsedCount,
		Active:    share.IsActiveAt(now),
		CreatedAt: share.CreatedAt.Format(time.RFC3339),
	}
}

// UserShareResponseFromModel : конвертирует model.UserShare
func UserShareResponseFromModel(share *model.UserShare, now time.Time) ShareResponse {
	return ShareResponse{
		UUID:      share.UUID,
		Recipient: share.RecipientUUID,
		ExpiresAt: share.ExpiresAt,
		MaxCount:  share.MaxCount,
		UsedCount: share.UsedCount,
		Active:    share.IsActiveAt(now),
		CreatedAt: share.CreatedAt.Format(time.RFC3339),
	}
}

// ListSharesResponse : все доступы файла (ссылки и персональные)
type ListSharesResponse struct {
	Data struct {
		LinkShares []ShareResponse `json:"link_shares"`
		UserShares []ShareResponse `json:"user_shares"`
	} `json:"data"`
}

// SharedWithMeResponse : файлы, доступ к которым выдан текущему пользователю
type SharedWithMeResponse struct {
	Data struct {
		Shares []model.SharedFile `json:"shares"`
	} `json:"data"`
}

// RevokeAllResponse : сколько доступов отозвано
type RevokeAllResponse struct {
	Response struct {
		LinkShares int64 `json:"link_shares"`
		UserShares int64 `json:"user_shares"`
	} `json:"response"`
}

// ConsumeShareResponse : успешное погашение, содержит ссылку на скачивание
type ConsumeShareResponse struct {
	Data struct {
		File   FileResponse `json:"file"`
		GetURL string       `json:"get_url"`
	} `json:"data"`
}
