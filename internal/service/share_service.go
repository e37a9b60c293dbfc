package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"file-sharing-server/config"
	"file-sharing-server/internal/metrics"
	"file-sharing-server/internal/model"
	"file-sharing-server/internal/ports"
	"file-sharing-server/internal/util"
	"github.com/google/uuid"
)

// ShareService : жизненный цикл доступов. Решение "пускать или нет"
// принимается лениво в момент обращения, фонового чистильщика нет:
// просроченная, но так и не запрошенная ссылка может лежать в хранилище
// сколько угодно
type ShareService struct {
	fileRepository      ports.FileRepository
	linkShareRepository ports.LinkShareRepository
	userShareRepository ports.UserShareRepository
	userRepository      ports.UserRepository
	auditService        ports.AuditRecorder
	cacheRepository     ports.CacheRepository
	s3Storage           ports.S3Storage
	ttl                 *config.TTL
}

func NewShareService(
	fileRepository ports.FileRepository,
	linkShareRepository ports.LinkShareRepository,
	userShareRepository ports.UserShareRepository,
	userRepository ports.UserRepository,
	auditService ports.AuditRecorder,
	cacheRepository ports.CacheRepository,
	s3Storage ports.S3Storage,
	ttl *config.TTL,
) *ShareService {
	return &ShareService{
		fileRepository:      fileRepository,
		linkShareRepository: linkShareRepository,
		userShareRepository: userShareRepository,
		userRepository:      userRepository,
		auditService:        auditService,
		cacheRepository:     cacheRepository,
		s3Storage:           s3Storage,
		ttl:                 ttl,
	}
}

// CreateLinkShare : публичная ссылка на файл. Хотя бы одно из двух
// ограничений (срок или лимит) обязательно
func (s *ShareService) CreateLinkShare(ctx context.Context, fileUUID, ownerUUID string, expiresAt *time.Time, maxCount *int, access model.AccessInfo) (*model.LinkShare, error) {
	if err := validateLimits(expiresAt, maxCount); err != nil {
		return nil, err
	}

	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[ShareService] database connection не найден в context")
	}

	if _, err := s.fileRepository.GetByUUIDForOwner(ctx, db, fileUUID, ownerUUID); err != nil {
		return nil, fmt.Errorf("[ShareService] %w", err)
	}

	token, err := util.GenerateUniqueShareToken(ctx, db, util.ShareTokenLength)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] не удалось сгенерировать токен: %w", err)
	}

	share := &model.LinkShare{
		UUID:      uuid.New().String(),
		Token:     token,
		FileUUID:  fileUUID,
		OwnerUUID: ownerUUID,
		ShareLimits: model.ShareLimits{
			ExpiresAt: expiresAt,
			MaxCount:  maxCount,
			IsActive:  true,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.linkShareRepository.Create(ctx, db, share); err != nil {
		return nil, fmt.Errorf("[ShareService] не удалось создать ссылку: %w", err)
	}

	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		FileUUID:  &fileUUID,
		Action:    model.ActionShareCreated,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
		Details:   detailsString("link"),
	})

	return share, nil
}

// CreateUserShare : доступ конкретному пользователю. Повторная выдача
// на ту же пару (файл, получатель) сначала гасит прежнюю активную запись,
// затем вставляет новую — строго в этом порядке
func (s *ShareService) CreateUserShare(ctx context.Context, fileUUID, ownerUUID, recipientUUID string, expiresAt *time.Time, maxCount *int, access model.AccessInfo) (*model.UserShare, error) {
	if err := validateLimits(expiresAt, maxCount); err != nil {
		return nil, err
	}
	if ownerUUID == recipientUUID {
		return nil, model.ErrSelfShare
	}

	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[ShareService] database connection не найден в context")
	}

	if _, err := s.fileRepository.GetByUUIDForOwner(ctx, db, fileUUID, ownerUUID); err != nil {
		return nil, fmt.Errorf("[ShareService] %w", err)
	}

	exists, err := s.userRepository.Exists(ctx, db, recipientUUID)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] %w", err)
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	exec, rollback, commit, err := s.fileRepository.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[ShareService] не удалось открыть транзакцию", err)
	}
	defer rollback()

	if _, err := s.userShareRepository.DeactivatePrior(ctx, exec, fileUUID, recipientUUID); err != nil {
		return nil, fmt.Errorf("[ShareService] %w", err)
	}

	share := &model.UserShare{
		UUID:          uuid.New().String(),
		FileUUID:      fileUUID,
		OwnerUUID:     ownerUUID,
		RecipientUUID: recipientUUID,
		ShareLimits: model.ShareLimits{
			ExpiresAt: expiresAt,
			MaxCount:  maxCount,
			IsActive:  true,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.userShareRepository.Create(ctx, exec, share); err != nil {
		return nil, fmt.Errorf("[ShareService] не удалось создать доступ: %w", err)
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[ShareService] не удалось закоммитить транзакцию", err)
	}

	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		FileUUID:  &fileUUID,
		Action:    model.ActionShareCreated,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
		Details:   detailsString("user:" + recipientUUID),
	})

	return share, nil
}

// ConsumeLinkShare : анонимное скачивание по токену. Просрочка по времени
// проверяется до атомарного инкремента, чтобы не трогать счётчик у заведомо
// мёртвой ссылки. Проба несуществующего токена журналируется с NULL вместо
// файла
func (s *ShareService) ConsumeLinkShare(ctx context.Context, token string, access model.AccessInfo) (*model.GetFileResult, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[ShareService] database connection не найден в context")
	}

	share, err := s.linkShareRepository.GetByToken(ctx, db, token)
	if errors.Is(err, model.ErrShareNotFound) {
		metrics.ShareConsumeRejected.Inc()
		s.auditService.Record(ctx, db, &model.AuditLogEntry{
			FileUUID:  nil,
			Action:    model.ActionExpiredLinkAttempt,
			ActorUUID: access.ActorUUID,
			ActorName: access.ActorName,
			IPAddress: access.IPAddress,
			UserAgent: access.UserAgent,
			Details:   detailsString("unknown token"),
		})
		return nil, model.ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[ShareService] %w", err)
	}

	now := time.Now().UTC()
	if !share.IsActiveAt(now) {
		return nil, s.rejectConsume(ctx, db, &share.FileUUID, access)
	}

	if _, err := s.linkShareRepository.TryConsume(ctx, db, share.UUID, now); err != nil {
		if errors.Is(err, model.ErrShareExpired) {
			return nil, s.rejectConsume(ctx, db, &share.FileUUID, access)
		}
		return nil, fmt.Errorf("[ShareService] %w", err)
	}

	return s.grantAccess(ctx, db, share.FileUUID, access)
}

// ConsumeUserShare : скачивание получателем персонального доступа
func (s *ShareService) ConsumeUserShare(ctx context.Context, fileUUID, recipientUUID string, access model.AccessInfo) (*model.GetFileResult, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[ShareService] database connection не найден в context")
	}

	share, err := s.userShareRepository.GetActive(ctx, db, fileUUID, recipientUUID)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] %w", err)
	}

	now := time.Now().UTC()
	if !share.IsActiveAt(now) {
		return nil, s.rejectConsume(ctx, db, &share.FileUUID, access)
	}

	if _, err := s.userShareRepository.TryConsume(ctx, db, share.UUID, now); err != nil {
		if errors.Is(err, model.ErrShareExpired) {
			return nil, s.rejectConsume(ctx, db, &share.FileUUID, access)
		}
		return nil, fmt.Errorf("[ShareService] %w", err)
	}

	return s.grantAccess(ctx, db, share.FileUUID, access)
}

// rejectConsume : общий путь отказа. Наружу всегда уходит одно и то же
// сообщение, по какому измерению погашен доступ — не сообщается
func (s *ShareService) rejectConsume(ctx context.Context, db *config.Database, fileUUID *string, access model.AccessInfo) error {
	metrics.ShareConsumeRejected.Inc()
	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		FileUUID:  fileUUID,
		Action:    model.ActionExpiredLinkAttempt,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
	})
	return model.ErrShareExpired
}

// grantAccess : успешное погашение. Счётчик скачиваний файла и журнал
// пишутся после инкремента доступа; pre-signed URL живёт столько же,
// сколько запись в кэше
func (s *ShareService) grantAccess(ctx context.Context, db *config.Database, fileUUID string, access model.AccessInfo) (*model.GetFileResult, error) {
	file, err := s.cacheRepository.GetFile(ctx, fileUUID)
	if err != nil {
		log.Printf("[ShareService] кэш недоступен, читаем из БД: %v", err)
	}
	if file == nil {
		file, err = s.fileRepository.GetByUUID(ctx, db, fileUUID)
		if err != nil {
			return nil, fmt.Errorf("[ShareService] %w", err)
		}
		if err := s.cacheRepository.SetFile(ctx, file); err != nil {
			log.Printf("[ShareService] не удалось положить файл в кэш: %v", err)
		}
	}

	if err := s.fileRepository.IncrementDownloadCount(ctx, db, fileUUID); err != nil {
		return nil, fmt.Errorf("[ShareService] %w", err)
	}

	ttl := time.Duration(s.ttl.S3AndRedis) * time.Second
	getURL, err := s.s3Storage.GeneratePresignedGetURL(ctx, file.StorageKey, ttl)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] %w", err)
	}

	metrics.ShareConsumeGranted.Inc()
	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		FileUUID:  &fileUUID,
		Action:    model.ActionShareAccessed,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
	})
	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		FileUUID:  &fileUUID,
		Action:    model.ActionDownload,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
	})

	return &model.GetFileResult{File: file, GetURL: getURL}, nil
}

// ListFileShares : обе разновидности доступов файла, только для владельца
func (s *ShareService) ListFileShares(ctx context.Context, fileUUID, ownerUUID string) ([]model.LinkShare, []model.UserShare, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, nil, fmt.Errorf("[ShareService] database connection не найден в context")
	}

	if _, err := s.fileRepository.GetByUUIDForOwner(ctx, db, fileUUID, ownerUUID); err != nil {
		return nil, nil, fmt.Errorf("[ShareService] %w", err)
	}

	linkShares, err := s.linkShareRepository.ListByFile(ctx, db, fileUUID, ownerUUID)
	if err != nil {
		return nil, nil, fmt.Errorf("[ShareService] %w", err)
	}

	userShares, err := s.userShareRepository.ListByFile(ctx, db, fileUUID, ownerUUID)
	if err != nil {
		return nil, nil, fmt.Errorf("[ShareService] %w", err)
	}

	return linkShares, userShares, nil
}

// ListSharedWithMe : файлы, доступные текущему пользователю как получателю
func (s *ShareService) ListSharedWithMe(ctx context.Context, recipientUUID string) ([]model.SharedFile, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[ShareService] database connection не найден в context")
	}

	return s.userShareRepository.ListForRecipient(ctx, db, recipientUUID)
}

// RevokeLinkShare : владелец деактивирует ссылку
func (s *ShareService) RevokeLinkShare(ctx context.Context, shareUUID, ownerUUID string, access model.AccessInfo) error {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return fmt.Errorf("[ShareService] database connection не найден в context")
	}

	if err := s.linkShareRepository.Revoke(ctx, db, shareUUID, ownerUUID); err != nil {
		return fmt.Errorf("[ShareService] %w", err)
	}

	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		Action:    model.ActionShareRevoked,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
		Details:   detailsString("link:" + shareUUID),
	})
	return nil
}

// RevokeUserShare : владелец отзывает персональный доступ
func (s *ShareService) RevokeUserShare(ctx context.Context, shareUUID, ownerUUID string, access model.AccessInfo) error {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return fmt.Errorf("[ShareService] database connection не найден в context")
	}

	if err := s.userShareRepository.Revoke(ctx, db, shareUUID, ownerUUID); err != nil {
		return fmt.Errorf("[ShareService] %w", err)
	}

	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		Action:    model.ActionShareRevoked,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
		Details:   detailsString("user:" + shareUUID),
	})
	return nil
}

// RevokeAllShares : массовый отзыв всех доступов файла, обе разновидности
// в одной транзакции
func (s *ShareService) RevokeAllShares(ctx context.Context, fileUUID, ownerUUID string, access model.AccessInfo) (int64, int64, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return 0, 0, fmt.Errorf("[ShareService] database connection не найден в context")
	}

	if _, err := s.fileRepository.GetByUUIDForOwner(ctx, db, fileUUID, ownerUUID); err != nil {
		return 0, 0, fmt.Errorf("[ShareService] %w", err)
	}

	exec, rollback, commit, err := s.fileRepository.BeginTX(ctx)
	if err != nil {
		return 0, 0, util.LogError("[ShareService] не удалось открыть транзакцию", err)
	}
	defer rollback()

	linkCount, err := s.linkShareRepository.RevokeAllByFile(ctx, exec, fileUUID, ownerUUID)
	if err != nil {
		return 0, 0, fmt.Errorf("[ShareService] %w", err)
	}

	userCount, err := s.userShareRepository.RevokeAllByFile(ctx, exec, fileUUID, ownerUUID)
	if err != nil {
		return 0, 0, fmt.Errorf("[ShareService] %w", err)
	}

	if err := commit(); err != nil {
		return 0, 0, util.LogError("[ShareService] не удалось закоммитить транзакцию", err)
	}

	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		FileUUID:  &fileUUID,
		Action:    model.ActionSharesRevokedAll,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
	})

	return linkCount, userCount, nil
}

func validateLimits(expiresAt *time.Time, maxCount *int) error {
	if expiresAt == nil && maxCount == nil {
		return model.ErrShareLimitsMissing
	}
	if maxCount != nil && *maxCount < 1 {
		return model.ErrShareLimitsMissing
	}
	return nil
}

func detailsString(s string) *string {
	return &s
}
