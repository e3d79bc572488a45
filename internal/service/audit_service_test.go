package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
)

type auditStoreStub struct {
	created    []*models.AuditLogEntry
	createErr  error
	listed     []models.AuditLogEntry
	lastFilter models.AuditLogFilter
	listErr    error
}

func (s *auditStoreStub) CreateWithTx(ctx context.Context, exec sqlx.ExtContext, entry *models.AuditLogEntry) error {
	if s.createErr != nil {
		return s.createErr
	}
	entry.ID = int64(len(s.created) + 1)
	s.created = append(s.created, entry)
	return nil
}

func (s *auditStoreStub) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	s.lastFilter = filter
	return s.listed, s.listErr
}

func TestAuditServiceRecord(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	tx, err := provider.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	store := &auditStoreStub{}
	svc := NewAuditService(store, nil, nil)

	entry := models.NewAuditLogEntry(financeActor(), models.AuditBankVerifyApproved, "Bank ID 3 changed by Finance #7. Action: approve")
	require.NoError(t, svc.Record(context.Background(), tx, entry))
	require.Len(t, store.created, 1)
	assert.Equal(t, "10.0.0.7", store.created[0].Origin)
	assert.Equal(t, models.RoleFinance, store.created[0].ActorRole)
}

func TestAuditServiceRecordRequiresTransaction(t *testing.T) {
	store := &auditStoreStub{}
	svc := NewAuditService(store, nil, nil)

	err := svc.Record(context.Background(), nil, models.NewAuditLogEntry(financeActor(), models.AuditBankVerifyApproved, "detail"))
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Empty(t, store.created)
}

func TestAuditServiceRecordRejectsInvalidEntry(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	tx, err := provider.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	svc := NewAuditService(&auditStoreStub{}, nil, nil)

	err = svc.Record(context.Background(), tx, models.NewAuditLogEntry(models.Actor{}, models.AuditBankVerifyApproved, "detail"))
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	err = svc.Record(context.Background(), tx, models.NewAuditLogEntry(financeActor(), models.AuditAction("SOMETHING"), "detail"))
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestAuditServiceRecordStoreFailure(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	tx, err := provider.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	svc := NewAuditService(&auditStoreStub{createErr: errors.New("disk full")}, nil, nil)

	err = svc.Record(context.Background(), tx, models.NewAuditLogEntry(financeActor(), models.AuditPaymentRunCommitted, "detail"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestAuditServiceList(t *testing.T) {
	store := &auditStoreStub{listed: []models.AuditLogEntry{{ID: 1, Action: models.AuditPaymentRunCommitted}}}
	svc := NewAuditService(store, nil, []models.UserRole{models.RoleSuperAdmin})

	_, err := svc.List(context.Background(), financeActor(), models.AuditLogFilter{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	admin := models.Actor{ID: 1, Role: models.RoleSuperAdmin}
	_, err = svc.List(context.Background(), admin, models.AuditLogFilter{Action: "NOPE"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	items, err := svc.List(context.Background(), admin, models.AuditLogFilter{Action: models.AuditPaymentRunCommitted, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 10, store.lastFilter.Limit)
}

func TestAuthorizeRequiresIdentity(t *testing.T) {
	err := authorize(models.Actor{Role: models.RoleFinance}, []models.UserRole{models.RoleFinance})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
