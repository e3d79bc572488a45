package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
)

const maxAuditPage = 500

// AuditRepository appends to and reads the audit trail. Entries are never updated.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateWithTx inserts entry using the caller's transaction.
func (r *AuditRepository) CreateWithTx(ctx context.Context, exec sqlx.ExtContext, entry *models.AuditLogEntry) error {
	if exec == nil {
		return fmt.Errorf("audit entries must be written inside a transaction")
	}
	if entry == nil {
		return fmt.Errorf("audit entry payload is nil")
	}
	const query = `INSERT INTO audit_logs (user_id, user_role, action_type, details, ip_address)
VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	row := exec.QueryRowxContext(ctx, query, entry.ActorID, entry.ActorRole, entry.Action, entry.Detail, entry.Origin)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List returns entries newest first, optionally narrowed to one action.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxAuditPage {
		limit = 100
	}

	query := `SELECT id, user_id, user_role, action_type, details, ip_address, created_at FROM audit_logs`
	args := []interface{}{}
	if filter.Action != "" {
		query += ` WHERE action_type = $1`
		args = append(args, filter.Action)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d`, limit)

	items := make([]models.AuditLogEntry, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return items, nil
}
