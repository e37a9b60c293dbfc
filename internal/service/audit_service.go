package service

import (
	"context"
	"log"
	"sync"

	"file-sharing-server/internal/metrics"
	"file-sharing-server/internal/model"
	"file-sharing-server/internal/ports"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ua-parser/uap-go/uaparser"
)

// AuditService : сервисная обёртка над журналом. Запись события никогда
// не валит основную операцию: ошибка вставки уходит в лог и в счётчик
// метрик, а вызывающий код продолжает работу
type AuditService struct {
	auditRepository ports.AuditRepository
	parser          *uaparser.Parser
	parserOnce      sync.Once
}

func NewAuditService(auditRepository ports.AuditRepository) *AuditService {
	return &AuditService{auditRepository: auditRepository}
}

// Record : fire-and-forget вставка события. User-Agent нормализуется
// до читаемого вида ("Chrome 126 / Mac OS X"), сырое значение не хранится
func (s *AuditService) Record(ctx context.Context, exec sqlx.ExtContext, entry *model.AuditLogEntry) {
	if entry.UUID == "" {
		entry.UUID = uuid.New().String()
	}
	entry.UserAgent = s.normalizeUserAgent(entry.UserAgent)

	if err := s.auditRepository.Append(ctx, exec, entry); err != nil {
		metrics.AuditAppendFailures.Inc()
		log.Printf("[AuditService] событие %s потеряно: %v", entry.Action, err)
	}
}

// AnonymizeActor : затирает имя пользователя в записях на чужих файлах
func (s *AuditService) AnonymizeActor(ctx context.Context, exec sqlx.ExtContext, userUUID string) (int64, error) {
	return s.auditRepository.AnonymizeActor(ctx, exec, userUUID)
}

// RenameActor : массовое переименование при смене логина
func (s *AuditService) RenameActor(ctx context.Context, exec sqlx.ExtContext, userUUID, newName string) (int64, error) {
	return s.auditRepository.RenameActor(ctx, exec, userUUID, newName)
}

// FileHistory : история файла, новые записи первыми
func (s *AuditService) FileHistory(ctx context.Context, exec sqlx.ExtContext, fileUUID string, limit int) ([]model.AuditLogEntry, error) {
	return s.auditRepository.ListByFile(ctx, exec, fileUUID, limit)
}

func (s *AuditService) normalizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}

	s.parserOnce.Do(func() {
		s.parser = uaparser.NewFromSaved()
	})

	client := s.parser.Parse(raw)
	if client.UserAgent.Family == "Other" {
		return raw
	}

	name := client.UserAgent.Family
	if client.UserAgent.Major != "" {
		name += " " + client.UserAgent.Major
	}
	if client.Os.Family != "Other" && client.Os.Family != "" {
		name += " / " + client.Os.Family
	}
	return name
}
