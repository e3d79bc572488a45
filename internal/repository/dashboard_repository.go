package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
)

const disbursementSummaryQuery = `SELECT
COALESCE((SELECT SUM(amount) FROM payments WHERE status = 'Paid' AND disbursement_date >= $1 AND disbursement_date < $2), 0) AS paid_total,
COALESCE((SELECT SUM(amount) FROM payments WHERE status = 'Pending'), 0) AS pending_total,
(SELECT COUNT(*) FROM payments WHERE status = 'Pending') AS pending_count,
(SELECT COUNT(*) FROM bank_details WHERE is_verified = FALSE) AS unverified_bank_details`

// DashboardRepository reads aggregate figures for back-office dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Summary returns paid totals within [from, to) alongside the current backlogs.
func (r *DashboardRepository) Summary(ctx context.Context, from, to time.Time) (*models.DisbursementSummary, error) {
	var summary models.DisbursementSummary
	if err := r.db.GetContext(ctx, &summary, disbursementSummaryQuery, from, to); err != nil {
		return nil, fmt.Errorf("disbursement summary: %w", err)
	}
	return &summary, nil
}
