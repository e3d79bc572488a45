package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
	"github.com/noah-isme/anab-disbursement-api/internal/repository"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
	"github.com/noah-isme/anab-disbursement-api/pkg/lock"
)

type paymentRunStoreStub struct {
	eligible  []models.EligiblePayment
	listErr   error
	affected  *int64
	markErr   error
	scheduled []repository.ScheduleBatch
}

func (s *paymentRunStoreStub) ListEligibleForUpdate(ctx context.Context, exec sqlx.ExtContext) ([]models.EligiblePayment, error) {
	return s.eligible, s.listErr
}

func (s *paymentRunStoreStub) MarkScheduled(ctx context.Context, exec sqlx.ExtContext, batch repository.ScheduleBatch) (int64, error) {
	if s.markErr != nil {
		return 0, s.markErr
	}
	s.scheduled = append(s.scheduled, batch)
	if s.affected != nil {
		return *s.affected, nil
	}
	return int64(len(batch.PaymentIDs)), nil
}

type lockerStub struct {
	err      error
	acquired int
	released int
}

func (l *lockerStub) Acquire(ctx context.Context, key string, ttl time.Duration) (lock.Release, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

func twoEligible() []models.EligiblePayment {
	return []models.EligiblePayment{
		{PaymentID: 11, StudentID: 1, StudentCode: "ANAB-0001", FirstName: "Awa", LastName: "Diop", Amount: 500000, BankName: "CBAO", AccountNumber: "0011"},
		{PaymentID: 12, StudentID: 2, StudentCode: "ANAB-0002", FirstName: "Moussa", LastName: "Kane", Amount: 750000, BankName: "Ecobank", AccountNumber: "0022"},
	}
}

func newTestPaymentRunService(provider txProvider, store paymentRunStore, audit auditRecorder, locker lock.Locker, metrics *MetricsService) *PaymentRunService {
	svc := NewPaymentRunService(provider, store, audit, locker, metrics, nil, PaymentRunConfig{
		AllowedRoles: []models.UserRole{models.RoleSuperAdmin, models.RoleFinance},
	})
	svc.now = func() time.Time { return fixedNow }
	svc.newRunID = func() string { return "run-1" }
	return svc
}

func TestPaymentRunServiceCommit(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	store := &paymentRunStoreStub{eligible: twoEligible()}
	audit := &auditRecorderStub{}
	locker := &lockerStub{}
	metrics := NewMetricsService()
	svc := newTestPaymentRunService(provider, store, audit, locker, metrics)

	result, err := svc.Commit(context.Background(), financeActor())
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, int64(1250000), result.Total)
	assert.Equal(t, []string{"TRX2403150000", "TRX2403150001"}, result.References)
	assert.Equal(t, "ANAB_DISB_20240315_093000.csv", result.FileName)
	assert.Equal(t, fixedNow, result.CommittedAt)

	expected := strings.Join([]string{
		"TransactionRef,StudentID,BeneficiaryName,Amount,BankName,AccountNumber",
		"TRX2403150000,ANAB-0001,Awa Diop,500000,CBAO,0011",
		"TRX2403150001,ANAB-0002,Moussa Kane,750000,Ecobank,0022",
	}, "\n") + "\n"
	assert.Equal(t, expected, string(result.Content))

	require.Len(t, store.scheduled, 1)
	assert.Equal(t, []int64{11, 12}, store.scheduled[0].PaymentIDs)
	assert.Equal(t, result.References, store.scheduled[0].References)
	assert.Equal(t, int64(7), store.scheduled[0].AdminUserID)
	assert.Equal(t, fixedNow, store.scheduled[0].ScheduledAt)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditPaymentRunCommitted, audit.entries[0].Action)
	assert.Equal(t, "Payment run run-1 scheduled 2 payments totalling 1250000 XOF. File: ANAB_DISB_20240315_093000.csv", audit.entries[0].Detail)

	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.paymentRuns.WithLabelValues(runOutcomeCommitted)))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.scheduledPayments))
	assert.Equal(t, float64(1250000), testutil.ToFloat64(metrics.scheduledAmount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRunServiceNothingToCommit(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	store := &paymentRunStoreStub{}
	audit := &auditRecorderStub{}
	locker := &lockerStub{}
	svc := newTestPaymentRunService(provider, store, audit, locker, nil)

	result, err := svc.Commit(context.Background(), financeActor())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, appErrors.ErrNothingToCommit)
	assert.Empty(t, store.scheduled)
	assert.Empty(t, audit.entries)
	assert.Equal(t, 1, locker.released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRunServiceMismatchRollsBack(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	affected := int64(1)
	store := &paymentRunStoreStub{eligible: twoEligible(), affected: &affected}
	audit := &auditRecorderStub{}
	metrics := NewMetricsService()
	svc := newTestPaymentRunService(provider, store, audit, nil, metrics)

	result, err := svc.Commit(context.Background(), financeActor())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, appErrors.ErrRunMismatch)
	assert.Empty(t, audit.entries)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.paymentRuns.WithLabelValues(runOutcomeMismatch)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.scheduledPayments))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRunServiceAuditFailureProducesNoFile(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	store := &paymentRunStoreStub{eligible: twoEligible()}
	audit := &auditRecorderStub{err: appErrors.Clone(appErrors.ErrInternal, "failed to record audit entry")}
	svc := newTestPaymentRunService(provider, store, audit, nil, nil)

	result, err := svc.Commit(context.Background(), financeActor())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRunServiceStoreFailureRollsBack(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	store := &paymentRunStoreStub{eligible: twoEligible(), markErr: errors.New("deadlock detected")}
	svc := newTestPaymentRunService(provider, store, &auditRecorderStub{}, nil, nil)

	_, err := svc.Commit(context.Background(), financeActor())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRunServiceRejectsNonPositiveAmount(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	eligible := twoEligible()
	eligible[1].Amount = 0
	store := &paymentRunStoreStub{eligible: eligible}
	svc := newTestPaymentRunService(provider, store, &auditRecorderStub{}, nil, nil)

	_, err := svc.Commit(context.Background(), financeActor())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Empty(t, store.scheduled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRunServiceLockHeld(t *testing.T) {
	store := &paymentRunStoreStub{eligible: twoEligible()}
	svc := newTestPaymentRunService(noopTxProvider{}, store, &auditRecorderStub{}, &lockerStub{err: lock.ErrNotAcquired}, nil)

	_, err := svc.Commit(context.Background(), financeActor())
	assert.ErrorIs(t, err, appErrors.ErrRunInProgress)
	assert.Empty(t, store.scheduled)
}

func TestPaymentRunServiceRequiresPaymentRole(t *testing.T) {
	locker := &lockerStub{}
	svc := newTestPaymentRunService(noopTxProvider{}, &paymentRunStoreStub{}, &auditRecorderStub{}, locker, nil)

	_, err := svc.Commit(context.Background(), models.Actor{ID: 3, Role: models.RoleReviewer})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Zero(t, locker.acquired)
}

func TestPaymentRunServiceWithRepositories(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	db := provider.(*txProviderMock).db

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE OF p, bd`).
		WillReturnRows(sqlmock.NewRows([]string{"payment_id", "student_id", "student_code", "first_name", "last_name", "amount", "bank_name", "account_number"}).
			AddRow(int64(11), int64(1), "ANAB-0001", "Awa", "Diop", int64(500000), "CBAO", "0011").
			AddRow(int64(12), int64(2), "ANAB-0002", "Moussa", "Kane", int64(750000), "Ecobank", "0022"))
	mock.ExpectExec(`UPDATE payments AS p`).
		WithArgs(int64(7), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(int64(7), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "10.0.0.7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), fixedNow))
	mock.ExpectCommit()

	audit := NewAuditService(repository.NewAuditRepository(db), nil, nil)
	svc := newTestPaymentRunService(provider, repository.NewPaymentRepository(db), audit, nil, nil)

	result, err := svc.Commit(context.Background(), financeActor())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, int64(1250000), result.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRunServiceLockTimeoutIsInternal(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	db := provider.(*txProviderMock).db

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE OF p, bd`).
		WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	metrics := NewMetricsService()
	audit := &auditRecorderStub{}
	svc := newTestPaymentRunService(provider, repository.NewPaymentRepository(db), audit, nil, metrics)

	result, err := svc.Commit(context.Background(), financeActor())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Equal(t, appErrors.ErrInternal.Status, appErrors.FromError(err).Status)
	assert.Empty(t, audit.entries)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.paymentRuns.WithLabelValues(runOutcomeError)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionReferencesAreUniqueWithinRun(t *testing.T) {
	refs := transactionReferences("TRX", fixedNow, 3)
	assert.Equal(t, []string{"TRX2403150000", "TRX2403150001", "TRX2403150002"}, refs)
}
