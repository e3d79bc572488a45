package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
	"github.com/noah-isme/anab-disbursement-api/pkg/database"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
)

// Verification decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type bankDetailVerifier interface {
	ListUnverified(ctx context.Context) ([]models.PendingVerification, error)
	Approve(ctx context.Context, exec sqlx.ExtContext, id int64) (int64, error)
	Reject(ctx context.Context, exec sqlx.ExtContext, id int64) (int64, error)
}

// VerificationService approves or rejects submitted bank details. Each decision
// is a conditional write on the unverified state plus one audit entry, in one transaction.
type VerificationService struct {
	tx      txProvider
	repo    bankDetailVerifier
	audit   auditRecorder
	metrics *MetricsService
	logger  *zap.Logger
	allowed []models.UserRole
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(tx txProvider, repo bankDetailVerifier, audit auditRecorder, metrics *MetricsService, logger *zap.Logger, allowed []models.UserRole) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{tx: tx, repo: repo, audit: audit, metrics: metrics, logger: logger, allowed: allowed}
}

// Queue lists bank details awaiting a decision, oldest first.
func (s *VerificationService) Queue(ctx context.Context, actor models.Actor) ([]models.PendingVerification, error) {
	if err := authorize(actor, s.allowed); err != nil {
		return nil, err
	}
	items, err := s.repo.ListUnverified(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification queue")
	}
	return items, nil
}

// Approve marks an unverified record as verified. A record that is already
// verified or missing yields ErrAlreadyProcessed.
func (s *VerificationService) Approve(ctx context.Context, actor models.Actor, bankDetailID int64) error {
	return s.decide(ctx, actor, bankDetailID, DecisionApprove, s.repo.Approve, models.AuditBankVerifyApproved)
}

// Reject deletes an unverified record so the student must resubmit. Verified
// records are never deleted; they yield ErrAlreadyProcessed.
func (s *VerificationService) Reject(ctx context.Context, actor models.Actor, bankDetailID int64) error {
	return s.decide(ctx, actor, bankDetailID, DecisionReject, s.repo.Reject, models.AuditBankVerifyRejected)
}

type verificationWrite func(ctx context.Context, exec sqlx.ExtContext, id int64) (int64, error)

func (s *VerificationService) decide(ctx context.Context, actor models.Actor, id int64, decision string, apply verificationWrite, action models.AuditAction) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "bank detail id must be a positive integer")
	}
	if err := authorize(actor, s.allowed); err != nil {
		return err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start verification")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := apply(ctx, tx, id)
	if err != nil {
		outcome := "error"
		if database.IsTimeout(err) {
			outcome = "timeout"
		}
		s.logger.Warn("verification write failed", zap.String("decision", decision), zap.String("outcome", outcome), zap.Int64("bank_detail_id", id), zap.Error(err))
		s.metrics.RecordVerification(decision, outcome)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+decision+" bank details")
	}

	processed := rows > 0
	entry := models.NewAuditLogEntry(actor, action, verificationDetail(id, actor, decision, processed))
	if !processed {
		entry.Action = models.AuditBankVerifyAttemptFailed
	}
	if err = s.audit.Record(ctx, tx, entry); err != nil {
		s.metrics.RecordVerification(decision, "error")
		return err
	}
	if err = tx.Commit(); err != nil {
		s.metrics.RecordVerification(decision, "error")
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit verification")
	}

	if !processed {
		s.metrics.RecordVerification(decision, "already_processed")
		return appErrors.Clone(appErrors.ErrAlreadyProcessed, "")
	}
	s.metrics.RecordVerification(decision, "ok")
	s.logger.Info("verification decision applied", zap.String("decision", decision), zap.Int64("bank_detail_id", id), zap.Int64("actor_id", actor.ID), zap.String("actor_role", string(actor.Role)))
	return nil
}

func verificationDetail(id int64, actor models.Actor, decision string, processed bool) string {
	if !processed {
		return fmt.Sprintf("Bank ID %d: %s by %s #%d found no unverified record", id, decision, actor.Role, actor.ID)
	}
	return fmt.Sprintf("Bank ID %d changed by %s #%d. Action: %s", id, actor.Role, actor.ID, decision)
}
