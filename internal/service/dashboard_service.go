package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/anab-disbursement-api/internal/dto"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
)

type summaryReader interface {
	Summary(ctx context.Context, from, to time.Time) (*models.DisbursementSummary, error)
}

// DashboardService composes the admin dashboard from live figures.
type DashboardService struct {
	repo    summaryReader
	logger  *zap.Logger
	allowed []models.UserRole
	now     func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo summaryReader, logger *zap.Logger, allowed []models.UserRole) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, logger: logger, allowed: allowed, now: time.Now}
}

// Summary reports paid totals for the current UTC calendar year together with
// the pending payment and bank verification backlogs.
func (s *DashboardService) Summary(ctx context.Context, actor models.Actor) (*dto.DashboardSummaryResponse, error) {
	if err := authorize(actor, s.allowed); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	summary, err := s.repo.Summary(ctx, from, from.AddDate(1, 0, 0))
	if err != nil {
		s.logger.Error("failed to load dashboard summary", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard")
	}

	return &dto.DashboardSummaryResponse{
		Year:                  now.Year(),
		Currency:              dto.Currency,
		PaidThisYear:          summary.PaidThisYear,
		PendingTotal:          summary.PendingTotal,
		PendingCount:          summary.PendingCount,
		UnverifiedBankDetails: summary.UnverifiedBankDetails,
		GeneratedAt:           now,
	}, nil
}
