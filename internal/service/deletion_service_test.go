package service_test

import (
	"context"
	"errors"
	"testing"

	"file-sharing-server/internal/model"
	"file-sharing-server/internal/service"
	"github.com/jmoiron/sqlx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuditRepository : чистый SQL-слой журнала (без fire-and-forget обёртки)
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, exec sqlx.ExtContext, entry *model.AuditLogEntry) error {
	args := m.Called(ctx, exec, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID string, limit int) ([]model.AuditLogEntry, error) {
	args := m.Called(ctx, exec, fileUUID, limit)
	if e, ok := args.Get(0).([]model.AuditLogEntry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) AnonymizeActor(ctx context.Context, exec sqlx.ExtContext, userUUID string) (int64, error) {
	args := m.Called(ctx, exec, userUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditRepository) RenameActor(ctx context.Context, exec sqlx.ExtContext, userUUID, newName string) (int64, error) {
	args := m.Called(ctx, exec, userUUID, newName)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditRepository) DeleteByFile(ctx context.Context, exec sqlx.ExtContext, fileUUID string) (int64, error) {
	args := m.Called(ctx, exec, fileUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditRepository) DeleteByFileUUIDs(ctx context.Context, exec sqlx.ExtContext, fileUUIDs []string) (int64, error) {
	args := m.Called(ctx, exec, fileUUIDs)
	return args.Get(0).(int64), args.Error(1)
}

type deletionServiceMocks struct {
	fileRepo  *MockFileRepository
	linkRepo  *MockLinkShareRepository
	userRepo  *MockUserShareRepository
	auditRepo *MockAuditRepository
	users     *MockUserRepository
	jwtRepo   *MockJWTRepo
	audit     *MockAuditRecorder
	cache     *MockCacheRepository
	s3        *MockS3Storage
}

func newTestDeletionService() (*service.DeletionService, *deletionServiceMocks) {
	m := &deletionServiceMocks{
		fileRepo:  new(MockFileRepository),
		linkRepo:  new(MockLinkShareRepository),
		userRepo:  new(MockUserShareRepository),
		auditRepo: new(MockAuditRepository),
		users:     new(MockUserRepository),
		jwtRepo:   new(MockJWTRepo),
		audit:     new(MockAuditRecorder),
		cache:     new(MockCacheRepository),
		s3:        new(MockS3Storage),
	}

	svc := service.NewDeletionService(
		m.fileRepo,
		m.linkRepo,
		m.userRepo,
		m.auditRepo,
		m.users,
		m.jwtRepo,
		m.audit,
		m.cache,
		m.s3,
	)

	return svc, m
}

func (m *deletionServiceMocks) expectTX() (*bool, *bool) {
	committed := new(bool)
	rolledBack := new(bool)
	m.fileRepo.On("BeginTX", mock.Anything).Return(
		sqlx.ExtContext(nil),
		func() error { *rolledBack = true; return nil },
		func() error { *committed = true; return nil },
		nil,
	)
	return committed, rolledBack
}

func TestDeleteFile_CascadeCounts(t *testing.T) {
	svc, m := newTestDeletionService()
	ctx, _ := newSQLMockContext(t)

	committed, _ := m.expectTX()

	m.linkRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(3), nil)
	m.userRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(2), nil)
	m.auditRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(15), nil)
	m.fileRepo.On("DeleteByUUID", mock.Anything, mock.Anything, "f1", "u1").Return("files/u1/f1", nil)
	m.s3.On("DeleteObject", mock.Anything, "files/u1/f1").Return(nil)
	m.cache.On("DeleteFile", mock.Anything, "f1").Return(nil)
	m.audit.On("Record", mock.Anything, mock.Anything, mock.MatchedBy(func(e *model.AuditLogEntry) bool {
		return e.Action == model.ActionDelete && e.FileUUID == nil &&
			e.Details != nil && *e.Details == "file:f1"
	})).Return()

	result, err := svc.DeleteFile(ctx, "f1", "u1", model.AccessInfo{ActorName: "owner"})

	require.NoError(t, err)
	assert.True(t, *committed)
	assert.Equal(t, int64(3), result.LinkShares)
	assert.Equal(t, int64(2), result.UserShares)
	assert.Equal(t, int64(15), result.AuditEntries)
	m.s3.AssertExpectations(t)
	m.audit.AssertExpectations(t)
}

func TestDeleteFile_NotOwnedRollsBack(t *testing.T) {
	svc, m := newTestDeletionService()
	ctx, _ := newSQLMockContext(t)

	committed, rolledBack := m.expectTX()

	m.linkRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(0), nil)
	m.userRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(0), nil)
	m.auditRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(0), nil)
	m.fileRepo.On("DeleteByUUID", mock.Anything, mock.Anything, "f1", "intruder").
		Return("", model.ErrFileNotFound)

	result, err := svc.DeleteFile(ctx, "f1", "intruder", model.AccessInfo{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, model.ErrFileNotFound)
	assert.False(t, *committed)
	assert.True(t, *rolledBack)
	m.s3.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestDeleteFile_StorageFailureIsAdvisory(t *testing.T) {
	svc, m := newTestDeletionService()
	ctx, _ := newSQLMockContext(t)

	committed, _ := m.expectTX()

	m.linkRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(1), nil)
	m.userRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(0), nil)
	m.auditRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(4), nil)
	m.fileRepo.On("DeleteByUUID", mock.Anything, mock.Anything, "f1", "u1").Return("files/u1/f1", nil)
	m.s3.On("DeleteObject", mock.Anything, "files/u1/f1").Return(errors.New("s3 unavailable"))
	m.cache.On("DeleteFile", mock.Anything, "f1").Return(nil)
	m.audit.On("Record", mock.Anything, mock.Anything, mock.Anything).Return()

	result, err := svc.DeleteFile(ctx, "f1", "u1", model.AccessInfo{})

	// отказ хранилища не откатывает уже закоммиченную транзакцию
	require.NoError(t, err)
	assert.True(t, *committed)
	assert.Equal(t, int64(1), result.LinkShares)
}

func TestDeleteFile_AuditRecordDoesNotReferencePurgedFile(t *testing.T) {
	svc, m := newTestDeletionService()
	ctx, _ := newSQLMockContext(t)

	m.expectTX()

	m.linkRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(0), nil)
	m.userRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(0), nil)
	m.auditRepo.On("DeleteByFile", mock.Anything, mock.Anything, "f1").Return(int64(15), nil)
	m.fileRepo.On("DeleteByUUID", mock.Anything, mock.Anything, "f1", "u1").Return("files/u1/f1", nil)
	m.s3.On("DeleteObject", mock.Anything, "files/u1/f1").Return(nil)
	m.cache.On("DeleteFile", mock.Anything, "f1").Return(nil)

	var recorded []*model.AuditLogEntry
	m.audit.On("Record", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			recorded = append(recorded, args.Get(2).(*model.AuditLogEntry))
		}).Return()

	_, err := svc.DeleteFile(ctx, "f1", "u1", model.AccessInfo{ActorName: "owner"})

	require.NoError(t, err)
	// журнал файла только что снесён целиком; новая запись не должна снова
	// ссылаться на f1, иначе она осиротеет навсегда
	require.Len(t, recorded, 1)
	assert.Nil(t, recorded[0].FileUUID)
	require.NotNil(t, recorded[0].Details)
	assert.Contains(t, *recorded[0].Details, "f1")
}

func TestDeleteAccount_FullCascade(t *testing.T) {
	svc, m := newTestDeletionService()
	ctx := context.Background()

	committed, _ := m.expectTX()

	fileUUIDs := []string{"f1", "f2"}
	m.fileRepo.On("ListUUIDsByOwner", mock.Anything, mock.Anything, "u1").Return(fileUUIDs, nil)
	m.auditRepo.On("DeleteByFileUUIDs", mock.Anything, mock.Anything, fileUUIDs).Return(int64(15), nil)
	m.linkRepo.On("DeleteByOwner", mock.Anything, mock.Anything, "u1").Return(int64(3), nil)
	m.userRepo.On("DeleteByOwner", mock.Anything, mock.Anything, "u1").Return(int64(2), nil)
	m.fileRepo.On("DeleteByOwner", mock.Anything, mock.Anything, "u1").Return(int64(2), nil)
	m.audit.On("AnonymizeActor", mock.Anything, mock.Anything, "u1").Return(int64(4), nil)
	m.jwtRepo.On("DeleteByUser", mock.Anything, mock.Anything, "u1").Return(int64(2), nil)
	m.users.On("DeleteUser", mock.Anything, mock.Anything, "u1").Return(nil)
	m.s3.On("DeleteAllUnderPrefix", mock.Anything, "files/u1/").Return(nil)
	m.cache.On("DeleteFile", mock.Anything, "f1").Return(nil)
	m.cache.On("DeleteFile", mock.Anything, "f2").Return(nil)

	result, err := svc.DeleteAccount(ctx, "u1")

	require.NoError(t, err)
	assert.True(t, *committed)
	assert.Equal(t, int64(2), result.Files)
	assert.Equal(t, int64(3), result.LinkShares)
	assert.Equal(t, int64(2), result.UserShares)
	assert.Equal(t, int64(15), result.AuditEntriesDeleted)
	assert.Equal(t, int64(4), result.AuditEntriesAnonymized)
	assert.Equal(t, int64(2), result.RefreshTokens)
	m.audit.AssertExpectations(t)
	m.s3.AssertExpectations(t)
}

func TestDeleteAccount_AnonymizesBeforeFileDeletion(t *testing.T) {
	svc, m := newTestDeletionService()
	ctx := context.Background()

	m.expectTX()

	var order []string
	m.fileRepo.On("ListUUIDsByOwner", mock.Anything, mock.Anything, "u1").Return([]string{"f1"}, nil)
	m.auditRepo.On("DeleteByFileUUIDs", mock.Anything, mock.Anything, []string{"f1"}).Return(int64(5), nil)
	m.linkRepo.On("DeleteByOwner", mock.Anything, mock.Anything, "u1").Return(int64(1), nil)
	m.userRepo.On("DeleteByOwner", mock.Anything, mock.Anything, "u1").Return(int64(1), nil)
	m.audit.On("AnonymizeActor", mock.Anything, mock.Anything, "u1").
		Run(func(mock.Arguments) { order = append(order, "anonymize") }).
		Return(int64(2), nil)
	m.fileRepo.On("DeleteByOwner", mock.Anything, mock.Anything, "u1").
		Run(func(mock.Arguments) { order = append(order, "delete files") }).
		Return(int64(1), nil)
	m.jwtRepo.On("DeleteByUser", mock.Anything, mock.Anything, "u1").Return(int64(1), nil)
	m.users.On("DeleteUser", mock.Anything, mock.Anything, "u1").Return(nil)
	m.s3.On("DeleteAllUnderPrefix", mock.Anything, "files/u1/").Return(nil)
	m.cache.On("DeleteFile", mock.Anything, "f1").Return(nil)

	_, err := svc.DeleteAccount(ctx, "u1")

	require.NoError(t, err)
	// подзапрос анонимизации смотрит в files и обязан видеть ещё живые строки
	assert.Equal(t, []string{"anonymize", "delete files"}, order)
}

func TestDeleteAccount_MidCascadeErrorRollsBackEverything(t *testing.T) {
	svc, m := newTestDeletionService()
	ctx := context.Background()

	committed, rolledBack := m.expectTX()

	m.fileRepo.On("ListUUIDsByOwner", mock.Anything, mock.Anything, "u1").Return([]string{"f1"}, nil)
	m.auditRepo.On("DeleteByFileUUIDs", mock.Anything, mock.Anything, []string{"f1"}).Return(int64(5), nil)
	m.linkRepo.On("DeleteByOwner", mock.Anything, mock.Anything, "u1").Return(int64(0), errors.New("db down"))

	result, err := svc.DeleteAccount(ctx, "u1")

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.False(t, *committed)
	assert.True(t, *rolledBack)
	// до хранилища дело не дошло
	m.s3.AssertNotCalled(t, "DeleteAllUnderPrefix", mock.Anything, mock.Anything)
	m.users.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteAccount_StoragePrefixFailureDoesNotAbortCommit(t *testing.T) {
	svc, m := newTestDeletionService()
	ctx := context.Background()

	committed, _ := m.expectTX()

	m.fileRepo.On("ListUUIDsByOwner", mock.Anything, mock.Anything, "u1").Return([]string{}, nil)
	m.auditRepo.On("DeleteByFileUUIDs", mock.Anything, mock.Anything, []string{}).Return(int64(0), nil)
	m.linkRepo.On("DeleteByOwner", mock.Anything, mock.Anything, "u1").Return(int64(0), nil)
	m.userRepo.On("DeleteByOwner", mock.Anything, mock.Anything, "u1").Return(int64(0), nil)
	m.fileRepo.On("DeleteByOwner", mock.Anything, mock.Anything, "u1").Return(int64(0), nil)
	m.audit.On("AnonymizeActor", mock.Anything, mock.Anything, "u1").Return(int64(1), nil)
	m.jwtRepo.On("DeleteByUser", mock.Anything, mock.Anything, "u1").Return(int64(1), nil)
	m.users.On("DeleteUser", mock.Anything, mock.Anything, "u1").Return(nil)
	m.s3.On("DeleteAllUnderPrefix", mock.Anything, "files/u1/").Return(errors.New("s3 unavailable"))

	result, err := svc.DeleteAccount(ctx, "u1")

	require.NoError(t, err)
	assert.True(t, *committed)
	assert.Equal(t, int64(1), result.AuditEntriesAnonymized)
}
