package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/anab-disbursement-api/pkg/config"
)

const (
	codeLockNotAvailable = "55P03"
	codeQueryCanceled    = "57014"
)

// NewPostgres opens the pool and waits at most cfg.ConnectTimeout for the
// server to answer. Every session carries lock_timeout and statement_timeout so
// row locks taken by verification decisions and payment runs are never awaited
// indefinitely.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout(cfg))
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return db, nil
}

// DSN renders cfg as a libpq key/value connection string. Timeouts are sent as
// startup parameters in milliseconds; zero leaves the server default.
func DSN(cfg config.DatabaseConfig) string {
	params := [][2]string{
		{"host", cfg.Host},
		{"port", strconv.Itoa(cfg.Port)},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"dbname", cfg.Name},
		{"sslmode", cfg.SSLMode},
		{"connect_timeout", strconv.Itoa(int(connectTimeout(cfg).Seconds()))},
	}
	if cfg.LockTimeout > 0 {
		params = append(params, [2]string{"lock_timeout", strconv.FormatInt(cfg.LockTimeout.Milliseconds(), 10)})
	}
	if cfg.StatementTimeout > 0 {
		params = append(params, [2]string{"statement_timeout", strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)})
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p[1] == "" {
			continue
		}
		parts = append(parts, p[0]+"="+quoteValue(p[1]))
	}
	return strings.Join(parts, " ")
}

// IsTimeout reports whether err is a lock or statement timeout raised by the server.
func IsTimeout(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == codeLockNotAvailable || pqErr.Code == codeQueryCanceled
}

func connectTimeout(cfg config.DatabaseConfig) time.Duration {
	if cfg.ConnectTimeout < time.Second {
		return 5 * time.Second
	}
	return cfg.ConnectTimeout
}

func quoteValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
