package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
)

type auditStore interface {
	CreateWithTx(ctx context.Context, exec sqlx.ExtContext, entry *models.AuditLogEntry) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error)
}

// AuditService writes audit entries inside the caller's transaction and lists them for reviewers.
// Recording is fail-closed: any error must abort the caller's unit of work.
type AuditService struct {
	repo      auditStore
	logger    *zap.Logger
	viewRoles []models.UserRole
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditStore, logger *zap.Logger, viewRoles []models.UserRole) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger, viewRoles: viewRoles}
}

// Record inserts entry with tx.
func (s *AuditService) Record(ctx context.Context, tx *sqlx.Tx, entry models.AuditLogEntry) error {
	if tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "audit entry requires a transaction")
	}
	if err := entry.Validate(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid audit entry")
	}
	if err := s.repo.CreateWithTx(ctx, tx, &entry); err != nil {
		s.logger.Warn("audit entry rejected", zap.String("action", string(entry.Action)), zap.Int64("actor_id", entry.ActorID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audit entry")
	}
	return nil
}

// List returns recent entries for actors allowed to read the trail.
func (s *AuditService) List(ctx context.Context, actor models.Actor, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	if err := authorize(actor, s.viewRoles); err != nil {
		return nil, err
	}
	if filter.Action != "" && !filter.Action.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown audit action")
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries")
	}
	return items, nil
}

func authorize(actor models.Actor, allowed []models.UserRole) error {
	if err := actor.Validate(); err != nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing actor identity")
	}
	if !actor.HasRole(allowed) {
		return appErrors.Clone(appErrors.ErrForbidden, "role is not allowed to perform this action")
	}
	return nil
}
