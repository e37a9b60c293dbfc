package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"file-sharing-server/config"
	"file-sharing-server/internal/model"
	"file-sharing-server/internal/ports"
	"file-sharing-server/internal/util"
	"github.com/google/uuid"
)

type FileService struct {
	fileRepository  ports.FileRepository
	cacheRepository ports.CacheRepository
	s3Storage       ports.S3Storage
	auditService    ports.AuditRecorder
	ttl             *config.TTL
}

func NewFileService(
	fileRepository ports.FileRepository,
	cacheRepository ports.CacheRepository,
	s3Storage ports.S3Storage,
	auditService ports.AuditRecorder,
	ttl *config.TTL,
) *FileService {
	return &FileService{
		fileRepository:  fileRepository,
		cacheRepository: cacheRepository,
		s3Storage:       s3Storage,
		auditService:    auditService,
		ttl:             ttl,
	}
}

// CreateFile : регистрирует файл и возвращает pre-signed PUT URL,
// по которому клиент загружает содержимое напрямую в S3
func (s *FileService) CreateFile(ctx context.Context, file *model.File, access model.AccessInfo) (string, error) {
	if !file.Category.Valid() {
		file.Category = model.CategoryOther
	}

	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return "", fmt.Errorf("[FileService] database connection не найден в context")
	}

	file.UUID = uuid.New().String()
	file.StorageKey = fmt.Sprintf("files/%s/%s", file.OwnerUUID, file.UUID)

	if err := s.fileRepository.Create(ctx, db, file); err != nil {
		return "", fmt.Errorf("[FileService] %w", err)
	}

	ttl := time.Duration(s.ttl.S3AndRedis) * time.Second
	putURL, err := s.s3Storage.GeneratePresignedPutURL(ctx, file.StorageKey, ttl)
	if err != nil {
		return "", fmt.Errorf("[FileService] %w", err)
	}

	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		FileUUID:  &file.UUID,
		Action:    model.ActionUpload,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
	})

	return putURL, nil
}

// GetFile : файл владельцу. Сначала кэш, затем БД; pre-signed URL живёт
// столько же, сколько запись в Redis
func (s *FileService) GetFile(ctx context.Context, fileUUID, ownerUUID string) (*model.GetFileResult, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[FileService] database connection не найден в context")
	}

	file, err := s.cacheRepository.GetFile(ctx, fileUUID)
	if err != nil {
		log.Printf("[FileService] кэш недоступен, читаем из БД: %v", err)
	}

	if file != nil && file.OwnerUUID != ownerUUID {
		// кэш общий, проверка владельца обязательна и для попадания
		return nil, model.ErrFileNotFound
	}

	if file == nil {
		file, err = s.fileRepository.GetByUUIDForOwner(ctx, db, fileUUID, ownerUUID)
		if err != nil {
			return nil, fmt.Errorf("[FileService] %w", err)
		}
		if err := s.cacheRepository.SetFile(ctx, file); err != nil {
			log.Printf("[FileService] не удалось положить файл в кэш: %v", err)
		}
	}

	ttl := time.Duration(s.ttl.S3AndRedis) * time.Second
	getURL, err := s.s3Storage.GeneratePresignedGetURL(ctx, file.StorageKey, ttl)
	if err != nil {
		return nil, fmt.Errorf("[FileService] %w", err)
	}

	return &model.GetFileResult{File: file, GetURL: getURL}, nil
}

// ListFiles : файлы владельца, cursor-based пагинация
func (s *FileService) ListFiles(ctx context.Context, ownerUUID string, cursor string, limit int) ([]model.File, string, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, "", fmt.Errorf("[FileService] database connection не найден в context")
	}

	return s.fileRepository.ListByOwner(ctx, db, ownerUUID, cursor, limit)
}

// RenameFile : смена имени с инвалидацией кэша и записью в журнал
func (s *FileService) RenameFile(ctx context.Context, fileUUID, ownerUUID, newName string, access model.AccessInfo) error {
	if newName == "" {
		return util.LogError("[FileService] пустое имя файла", model.ErrEmptyFileName)
	}

	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return fmt.Errorf("[FileService] database connection не найден в context")
	}

	if err := s.fileRepository.Rename(ctx, db, fileUUID, ownerUUID, newName); err != nil {
		return fmt.Errorf("[FileService] %w", err)
	}

	if err := s.cacheRepository.DeleteFile(ctx, fileUUID); err != nil {
		log.Printf("[FileService] не удалось инвалидировать кэш файла %s: %v", fileUUID, err)
	}

	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		FileUUID:  &fileUUID,
		Action:    model.ActionNameChange,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
		Details:   detailsString(newName),
	})
	return nil
}

// MoveFile : перенос файла в другой раздел
func (s *FileService) MoveFile(ctx context.Context, fileUUID, ownerUUID string, category model.FileCategory, access model.AccessInfo) error {
	if !category.Valid() {
		return fmt.Errorf("[FileService] неизвестная категория: %s", category)
	}

	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return fmt.Errorf("[FileService] database connection не найден в context")
	}

	if err := s.fileRepository.ChangeCategory(ctx, db, fileUUID, ownerUUID, category); err != nil {
		return fmt.Errorf("[FileService] %w", err)
	}

	if err := s.cacheRepository.DeleteFile(ctx, fileUUID); err != nil {
		log.Printf("[FileService] не удалось инвалидировать кэш файла %s: %v", fileUUID, err)
	}

	s.auditService.Record(ctx, db, &model.AuditLogEntry{
		FileUUID:  &fileUUID,
		Action:    model.ActionCategoryChange,
		ActorUUID: access.ActorUUID,
		ActorName: access.ActorName,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
		Details:   detailsString(string(category)),
	})
	return nil
}

// FileHistory : журнал файла, доступен только владельцу
func (s *FileService) FileHistory(ctx context.Context, fileUUID, ownerUUID string, limit int) ([]model.AuditLogEntry, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[FileService] database connection не найден в context")
	}

	if _, err := s.fileRepository.GetByUUIDForOwner(ctx, db, fileUUID, ownerUUID); err != nil {
		return nil, fmt.Errorf("[FileService] %w", err)
	}

	return s.auditService.FileHistory(ctx, db, fileUUID, limit)
}
