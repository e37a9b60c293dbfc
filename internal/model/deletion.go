package model

// FileDeletionResult : сколько зависимых записей удалено каскадом вместе с файлом
type FileDeletionResult struct {
	LinkShares   int64 `json:"link_shares"`
	UserShares   int64 `json:"user_shares"`
	AuditEntries int64 `json:"audit_entries"`
}

// AccountDeletionResult : результат каскадного удаления аккаунта.
// Все счётчики относятся к одной транзакции: либо видны целиком, либо не видны вовсе
type AccountDeletionResult struct {
	Files                  int64 `json:"files"`
	LinkShares             int64 `json:"link_shares"`
	UserShares             int64 `json:"user_shares"`
	AuditEntriesDeleted    int64 `json:"audit_entries_deleted"`
	AuditEntriesAnonymized int64 `json:"audit_entries_anonymized"`
	RefreshTokens          int64 `json:"refresh_tokens"`
}
