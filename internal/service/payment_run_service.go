package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/anab-disbursement-api/internal/dto"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	"github.com/noah-isme/anab-disbursement-api/internal/repository"
	"github.com/noah-isme/anab-disbursement-api/pkg/database"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
	"github.com/noah-isme/anab-disbursement-api/pkg/export"
	"github.com/noah-isme/anab-disbursement-api/pkg/lock"
)

const (
	runOutcomeCommitted  = "committed"
	runOutcomeEmpty      = "nothing_to_commit"
	runOutcomeInProgress = "in_progress"
	runOutcomeMismatch   = "mismatch"
	runOutcomeError      = "error"
)

// BatchFileHeaders is the fixed column layout expected by the bank.
var BatchFileHeaders = []string{"TransactionRef", "StudentID", "BeneficiaryName", "Amount", "BankName", "AccountNumber"}

type paymentRunStore interface {
	ListEligibleForUpdate(ctx context.Context, exec sqlx.ExtContext) ([]models.EligiblePayment, error)
	MarkScheduled(ctx context.Context, exec sqlx.ExtContext, batch repository.ScheduleBatch) (int64, error)
}

type batchRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// PaymentRunConfig tunes reference and file naming and the run lock.
type PaymentRunConfig struct {
	AllowedRoles    []models.UserRole
	ReferencePrefix string
	FilePrefix      string
	LockKey         string
	LockTTL         time.Duration
}

// RunResult is the outcome of a committed run. Content is the complete bank file.
type RunResult struct {
	RunID       string
	FileName    string
	Content     []byte
	Count       int
	Total       int64
	References  []string
	CommittedAt time.Time
}

// PaymentRunService commits disbursement batches: it schedules every eligible
// payment and produces the matching bank file, or changes nothing.
type PaymentRunService struct {
	tx       txProvider
	store    paymentRunStore
	audit    auditRecorder
	renderer batchRenderer
	locker   lock.Locker
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      PaymentRunConfig
	now      func() time.Time
	newRunID func() string
}

// NewPaymentRunService constructs a PaymentRunService.
func NewPaymentRunService(tx txProvider, store paymentRunStore, audit auditRecorder, locker lock.Locker, metrics *MetricsService, logger *zap.Logger, cfg PaymentRunConfig) *PaymentRunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	if cfg.ReferencePrefix == "" {
		cfg.ReferencePrefix = "TRX"
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = "ANAB_DISB"
	}
	if cfg.LockKey == "" {
		cfg.LockKey = "payment-run"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &PaymentRunService{
		tx:       tx,
		store:    store,
		audit:    audit,
		renderer: export.NewCSVExporter(false),
		locker:   locker,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Commit schedules the current eligible set and returns the bank file. The file
// is only returned after the database transaction has committed.
func (s *PaymentRunService) Commit(ctx context.Context, actor models.Actor) (*RunResult, error) {
	if err := authorize(actor, s.cfg.AllowedRoles); err != nil {
		return nil, err
	}

	started := time.Now()
	release, err := s.locker.Acquire(ctx, s.cfg.LockKey, s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.metrics.RecordPaymentRun(runOutcomeInProgress, 0, 0, time.Since(started))
			return nil, appErrors.Clone(appErrors.ErrRunInProgress, "")
		}
		s.metrics.RecordPaymentRun(runOutcomeError, 0, 0, time.Since(started))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire payment run lock")
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			s.logger.Warn("failed to release payment run lock", zap.Error(rerr))
		}
	}()

	runID := s.newRunID()
	result, err := s.commit(ctx, actor, runID, s.now().UTC())
	if err != nil {
		s.metrics.RecordPaymentRun(runOutcome(err), 0, 0, time.Since(started))
		return nil, err
	}

	s.metrics.RecordPaymentRun(runOutcomeCommitted, result.Count, result.Total, time.Since(started))
	s.logger.Info("payment run committed",
		zap.String("run_id", result.RunID),
		zap.Int("count", result.Count),
		zap.Int64("total", result.Total),
		zap.String("file", result.FileName),
		zap.Int64("actor_id", actor.ID),
	)
	return result, nil
}

func (s *PaymentRunService) commit(ctx context.Context, actor models.Actor, runID string, at time.Time) (result *RunResult, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start payment run")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	eligible, err := s.store.ListEligibleForUpdate(ctx, tx)
	if err != nil {
		if database.IsTimeout(err) {
			s.logger.Warn("payment run gave up waiting for locked payments", zap.String("run_id", runID), zap.Error(err))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select eligible payments")
	}
	if len(eligible) == 0 {
		err = appErrors.Clone(appErrors.ErrNothingToCommit, "")
		return nil, err
	}

	refs := transactionReferences(s.cfg.ReferencePrefix, at, len(eligible))
	content, total, err := s.renderBatch(eligible, refs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build batch file")
	}

	ids := make([]int64, len(eligible))
	for i, item := range eligible {
		ids[i] = item.PaymentID
	}
	affected, err := s.store.MarkScheduled(ctx, tx, repository.ScheduleBatch{
		PaymentIDs:  ids,
		References:  refs,
		AdminUserID: actor.ID,
		ScheduledAt: at,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule payments")
	}
	if affected != int64(len(ids)) {
		s.logger.Error("payment run aborted: scheduled row count differs from selection",
			zap.String("run_id", runID),
			zap.Int("selected", len(ids)),
			zap.Int64("affected", affected),
			zap.Int64s("payment_ids", ids),
			zap.Int64("actor_id", actor.ID),
		)
		err = appErrors.Clone(appErrors.ErrRunMismatch, "")
		return nil, err
	}

	fileName := batchFileName(s.cfg.FilePrefix, at)
	detail := fmt.Sprintf("Payment run %s scheduled %d payments totalling %d %s. File: %s", runID, len(ids), total, dto.Currency, fileName)
	if err = s.audit.Record(ctx, tx, models.NewAuditLogEntry(actor, models.AuditPaymentRunCommitted, detail)); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit payment run")
	}

	return &RunResult{
		RunID:       runID,
		FileName:    fileName,
		Content:     content,
		Count:       len(ids),
		Total:       total,
		References:  refs,
		CommittedAt: at,
	}, nil
}

func (s *PaymentRunService) renderBatch(eligible []models.EligiblePayment, refs []string) ([]byte, int64, error) {
	var total int64
	rows := make([][]string, len(eligible))
	for i, item := range eligible {
		if item.Amount <= 0 {
			return nil, 0, fmt.Errorf("payment %d: %w", item.PaymentID, models.ErrAmountNotPositive)
		}
		total += item.Amount
		rows[i] = []string{
			refs[i],
			item.StudentCode,
			item.BeneficiaryName(),
			strconv.FormatInt(item.Amount, 10),
			item.BankName,
			item.AccountNumber,
		}
	}
	content, err := s.renderer.Render(export.Dataset{Headers: BatchFileHeaders, Rows: rows})
	if err != nil {
		return nil, 0, err
	}
	return content, total, nil
}

// transactionReferences numbers the batch from 0000 in selection order under a yymmdd prefix.
func transactionReferences(prefix string, at time.Time, n int) []string {
	day := at.Format("060102")
	refs := make([]string, n)
	for i := range refs {
		refs[i] = fmt.Sprintf("%s%s%04d", prefix, day, i)
	}
	return refs
}

func batchFileName(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, at.Format("20060102_150405"))
}

func runOutcome(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrNothingToCommit):
		return runOutcomeEmpty
	case errors.Is(err, appErrors.ErrRunMismatch):
		return runOutcomeMismatch
	default:
		return runOutcomeError
	}
}
