package service

import (
	"context"
	"fmt"
	"log"

	"file-sharing-server/config"
	"file-sharing-server/internal/metrics"
	"file-sharing-server/internal/model"
	"file-sharing-server/internal/ports"
	"file-sharing-server/internal/util"
)

// DeletionService : каскадные удаления. Вся согласованность между таблицами
// держится здесь, движка внешних ключей нет. Каждая операция выполняется
// в одной транзакции: любая внутренняя ошибка откатывает всё целиком,
// частично удалённого состояния снаружи не видно
type DeletionService struct {
	fileRepository      ports.FileRepository
	linkShareRepository ports.LinkShareRepository
	userShareRepository ports.UserShareRepository
	auditRepository     ports.AuditRepository
	userRepository      ports.UserRepository
	jwtRepository       ports.JWTRepositoryInterface
	auditService        ports.AuditRecorder
	cacheRepository     ports.CacheRepository
	s3Storage           ports.S3Storage
}

func NewDeletionService(
	fileRepository ports.FileRepository,
	linkShareRepository ports.LinkShareRepository,
	userShareRepository ports.UserShareRepository,
	auditRepository ports.AuditRepository,
	userRepository ports.UserRepository,
	jwtRepository ports.JWTRepositoryInterface,
	auditService ports.AuditRecorder,
	cacheRepository ports.CacheRepository,
	s3Storage ports.S3Storage,
) *DeletionService {
	return &DeletionService{
		fileRepository:      fileRepository,
		linkShareRepository: linkShareRepository,
		userShareRepository: userShareRepository,
		auditRepository:     auditRepository,
		userRepository:      userRepository,
		jwtRepository:       jwtRepository,
		auditService:        auditService,
		cacheRepository:     cacheRepository,
		s3Storage:           s3Storage,
	}
}

// DeleteFile : файл и всё, что на него ссылается. Порядок: сначала зависимые
// записи (ссылки, доступы, журнал), последним сам файл. Объект в S3 удаляется
// после коммита; его отказ логируется и попадает в метрики, но транзакцию
// не откатывает
func (s *DeletionService) DeleteFile(ctx context.Context, fileUUID, ownerUUID string, access model.AccessInfo) (*model.FileDeletionResult, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[DeletionService] database connection не найден в context")
	}

	exec, rollback, commit, err := s.fileRepository.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[DeletionService] не удалось открыть транзакцию", err)
	}
	defer rollback()

	result := &model.FileDeletionResult{}

	result.LinkShares, err = s.linkShareRepository.DeleteByFile(ctx, exec, fileUUID)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	result.UserShares, err = s.userShareRepository.DeleteByFile(ctx, exec, fileUUID)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	result.AuditEntries, err = s.auditRepository.DeleteByFile(ctx, exec, fileUUID)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	storageKey, err := s.fileRepository.DeleteByUUID(ctx, exec, fileUUID, ownerUUID)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[DeletionService] не удалось закоммитить транзакцию", err)
	}

	if err := s.s3Storage.DeleteObject(ctx, storageKey); err != nil {
		metrics.StorageDeleteFailures.Inc()
		log.Printf("[DeletionService] объект %s остался в S3: %v", storageKey, err)
	}
	if err := s.cacheRepository.DeleteFile(ctx, fileUUID); err != nil {
		log.Printf("[DeletionService] не удалось очистить кэш файла %s: %v", fileUUID, err)
	}

	// Запись о самом удалении не ссылается на файл: его журнал только что
	// снесён каскадом, и строка с file_uuid пережила бы собственную историю.
	// Идентификатор остаётся в details
	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		FileUUID:  nil,
		Action:    model.ActionDelete,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
		Details:   detailsString("file:" + fileUUID),
	})

	return result, nil
}

// DeleteAccount : каскад удаления аккаунта. Журнал чужих файлов, где
// пользователь был гостем, не удаляется, а анонимизируется; журнал его
// собственных файлов сносится целиком. Удаление объектов из S3 запускается
// до коммита, но его отказ не фатален: согласованность БД не зависит
// от слоя хранилища
func (s *DeletionService) DeleteAccount(ctx context.Context, userUUID string) (*model.AccountDeletionResult, error) {
	exec, rollback, commit, err := s.fileRepository.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[DeletionService] не удалось открыть транзакцию", err)
	}
	defer rollback()

	result := &model.AccountDeletionResult{}

	fileUUIDs, err := s.fileRepository.ListUUIDsByOwner(ctx, exec, userUUID)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	result.AuditEntriesDeleted, err = s.auditRepository.DeleteByFileUUIDs(ctx, exec, fileUUIDs)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	result.LinkShares, err = s.linkShareRepository.DeleteByOwner(ctx, exec, userUUID)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	result.UserShares, err = s.userShareRepository.DeleteByOwner(ctx, exec, userUUID)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	// Анонимизация идёт до удаления файлов: её WHERE исключает собственные
	// файлы через подзапрос к files, и он должен видеть ещё живые строки
	result.AuditEntriesAnonymized, err = s.auditService.AnonymizeActor(ctx, exec, userUUID)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	result.Files, err = s.fileRepository.DeleteByOwner(ctx, exec, userUUID)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	result.RefreshTokens, err = s.jwtRepository.DeleteByUser(ctx, exec, userUUID)
	if err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	if err := s.userRepository.DeleteUser(ctx, exec, userUUID); err != nil {
		return nil, fmt.Errorf("[DeletionService] %w", err)
	}

	if err := s.s3Storage.DeleteAllUnderPrefix(ctx, "files/"+userUUID+"/"); err != nil {
		metrics.StorageDeleteFailures.Inc()
		log.Printf("[DeletionService] объекты пользователя %s остались в S3: %v", userUUID, err)
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[DeletionService] не удалось закоммитить транзакцию", err)
	}

	for _, fileUUID := range fileUUIDs {
		if err := s.cacheRepository.DeleteFile(ctx, fileUUID); err != nil {
			log.Printf("[DeletionService] не удалось очистить кэш файла %s: %v", fileUUID, err)
		}
	}

	return result, nil
}
