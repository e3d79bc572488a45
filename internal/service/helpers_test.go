package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func financeActor() models.Actor {
	return models.Actor{ID: 7, Role: models.RoleFinance, Origin: "10.0.0.7"}
}

func studentActor(id int64) models.Actor {
	return models.Actor{ID: id, Role: models.RoleStudent, Origin: "10.0.0.20"}
}

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// pooledTxProvider hands each BeginTxx call its own mocked connection so
// concurrent callers never share expectations.
type pooledTxProvider struct {
	dbs   chan *sqlx.DB
	mocks []sqlmock.Sqlmock
}

func newPooledTxProvider(t *testing.T, n int) *pooledTxProvider {
	p := &pooledTxProvider{dbs: make(chan *sqlx.DB, n)}
	for i := 0; i < n; i++ {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		p.dbs <- sqlx.NewDb(db, "sqlmock")
		p.mocks = append(p.mocks, mock)
	}
	return p
}

func (p *pooledTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	select {
	case db := <-p.dbs:
		return db.BeginTxx(ctx, opts)
	default:
		return nil, appErrors.Clone(appErrors.ErrInternal, "no connection available")
	}
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

type auditRecorderStub struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
	err     error
}

func (a *auditRecorderStub) Record(ctx context.Context, tx *sqlx.Tx, entry models.AuditLogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "audit entry requires a transaction")
	}
	a.entries = append(a.entries, entry)
	return nil
}

func (a *auditRecorderStub) actions() []models.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AuditAction, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}
