package model

import "time"

// ShareLimits : общие поля обоих видов доступа.
// Срок действия и лимит скачиваний независимы: достаточно, чтобы сработал
// один из них, и доступ считается погашенным. Хотя бы одно из двух полей
// обязано присутствовать — это проверяется слоем валидации до создания записи.
type ShareLimits struct {
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	MaxCount  *int       `db:"max_count" json:"max_count,omitempty"`
	UsedCount int        `db:"used_count" json:"used_count"`
	IsActive  bool       `db:"is_active" json:"is_active"`
}

// IsActiveAt : чистый предикат без побочных эффектов, можно вызывать
// сколько угодно раз с одним и тем же now
func (l ShareLimits) IsActiveAt(now time.Time) bool {
	if !l.IsActive {
		return false
	}
	if l.ExpiresAt != nil && !now.Before(*l.ExpiresAt) {
		return false
	}
	if l.MaxCount != nil && l.UsedCount >= *l.MaxCount {
		return false
	}
	return true
}

// ExpiredByTime : true, если погашение вызвано именно временем (нужно,
// чтобы не трогать счётчик при уже истёкшем сроке)
func (l ShareLimits) ExpiredByTime(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// LinkShare : публичная ссылка с неугадываемым токеном, не привязана к получателю
type LinkShare struct {
	UUID      string `db:"uuid" json:"uuid"`
	Token     string `db:"token" json:"token"`
	FileUUID  string `db:"file_uuid" json:"file_uuid"`
	OwnerUUID string `db:"owner_uuid" json:"owner_uuid"`
	ShareLimits
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserShare : доступ, выданный конкретному получателю.
// Владелец и получатель не могут совпадать; на пару (файл, получатель)
// активной может быть максимум одна запись
type UserShare struct {
	UUID          string `db:"uuid" json:"uuid"`
	FileUUID      string `db:"file_uuid" json:"file_uuid"`
	OwnerUUID     string `db:"owner_uuid" json:"owner_uuid"`
	RecipientUUID string `db:"recipient_uuid" json:"recipient_uuid"`
	ShareLimits
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SharedFile : строка списка "доступные мне файлы"; логин владельца
// подставляется на чтении, для удалённых владельцев — "Unknown User"
type SharedFile struct {
	ShareUUID  string     `db:"share_uuid" json:"share_uuid"`
	FileUUID   string     `db:"file_uuid" json:"file_uuid"`
	FileName   string     `db:"file_name" json:"file_name"`
	OwnerLogin string     `db:"owner_login" json:"owner_login"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	MaxCount   *int       `db:"max_count" json:"max_count,omitempty"`
	UsedCount  int        `db:"used_count" json:"used_count"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
