package model

import "time"

// AuditAction : закрытый набор действий, попадающих в журнал
type AuditAction string

const (
	ActionUpload             AuditAction = "UPLOAD"
	ActionDownload           AuditAction = "DOWNLOAD"
	ActionNameChange         AuditAction = "NAME_CHANGE"
	ActionCategoryChange     AuditAction = "CATEGORY_CHANGE"
	ActionDelete             AuditAction = "DELETE"
	ActionShareCreated       AuditAction = "SHARE_CREATED"
	ActionShareAccessed      AuditAction = "SHARE_ACCESSED"
	ActionExpiredLinkAttempt AuditAction = "EXPIRED_LINK_ATTEMPT"
	ActionShareRevoked       AuditAction = "SHARE_REVOKED"
	ActionSharesRevokedAll   AuditAction = "SHARES_REVOKED_ALL"
)

// AnonymizedActorName подставляется вместо логина при анонимизации
// записей удалённого пользователя
const AnonymizedActorName = "[Deleted User]"

// UnknownUserName показывается получателю доступа, когда владелец
// файла уже удалил аккаунт
const UnknownUserName = "Unknown User"

// AuditLogEntry : неизменяемый факт. Записи не редактируются после вставки,
// единственные исключения — анонимизация актора и массовое переименование
// при смене логина. FileUUID может быть NULL: так журналируются попытки
// доступа по несуществующему токену
// AccessInfo : кто и откуда выполняет операцию; для анонимного доступа
// по публичной ссылке ActorUUID равен nil
type AccessInfo struct {
	ActorUUID *string
	ActorName string
	IPAddress string
	UserAgent string
}

type AuditLogEntry struct {
	UUID      string      `db:"uuid" json:"uuid"`
	FileUUID  *string     `db:"file_uuid" json:"file_uuid,omitempty"`
	Action    AuditAction `db:"action" json:"action"`
	ActorUUID *string     `db:"actor_uuid" json:"actor_uuid,omitempty"`
	ActorName string      `db:"actor_name" json:"actor_name"`
	IPAddress string      `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent string      `db:"user_agent" json:"user_agent,omitempty"`
	Details   *string     `db:"details" json:"details,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
