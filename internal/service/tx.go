package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type auditRecorder interface {
	Record(ctx context.Context, tx *sqlx.Tx, entry models.AuditLogEntry) error
}
