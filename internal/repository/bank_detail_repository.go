package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
)

// BankDetailRepository persists student payout accounts.
type BankDetailRepository struct {
	db *sqlx.DB
}

// NewBankDetailRepository constructs the repository.
func NewBankDetailRepository(db *sqlx.DB) *BankDetailRepository {
	return &BankDetailRepository{db: db}
}

func (r *BankDetailRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByStudent returns the student's bank details or sql.ErrNoRows.
func (r *BankDetailRepository) FindByStudent(ctx context.Context, studentID int64) (*models.BankDetail, error) {
	const query = `SELECT id, student_id, bank_name, account_number, iban, is_verified, last_updated FROM bank_details WHERE student_id = $1`
	var detail models.BankDetail
	if err := r.db.GetContext(ctx, &detail, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find bank details by student: %w", err)
	}
	return &detail, nil
}

// ListUnverified returns the verification queue, oldest submission first.
func (r *BankDetailRepository) ListUnverified(ctx context.Context) ([]models.PendingVerification, error) {
	const query = `SELECT bd.id AS bank_detail_id, s.id AS student_id, s.student_code, s.first_name, s.last_name, s.email, s.phone,
bd.bank_name, bd.account_number, bd.iban, bd.last_updated
FROM bank_details bd
JOIN students s ON s.id = bd.student_id
WHERE bd.is_verified = FALSE
ORDER BY bd.last_updated ASC, bd.id ASC`
	items := make([]models.PendingVerification, 0)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list unverified bank details: %w", err)
	}
	return items, nil
}

// Approve flips an unverified record to verified and returns the affected row count.
// Zero means the record was already verified or does not exist.
func (r *BankDetailRepository) Approve(ctx context.Context, exec sqlx.ExtContext, id int64) (int64, error) {
	const query = `UPDATE bank_details SET is_verified = TRUE WHERE id = $1 AND is_verified = FALSE`
	res, err := r.exec(exec).ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("approve bank details: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("approve bank details rows: %w", err)
	}
	return rows, nil
}

// Reject deletes an unverified record and returns the affected row count.
// Verified records are never deleted.
func (r *BankDetailRepository) Reject(ctx context.Context, exec sqlx.ExtContext, id int64) (int64, error) {
	const query = `DELETE FROM bank_details WHERE id = $1 AND is_verified = FALSE`
	res, err := r.exec(exec).ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("reject bank details: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reject bank details rows: %w", err)
	}
	return rows, nil
}

// UpsertForStudent inserts or replaces the student's record. The stored row is
// always unverified afterwards, whatever its previous state.
func (r *BankDetailRepository) UpsertForStudent(ctx context.Context, exec sqlx.ExtContext, detail *models.BankDetail) error {
	if detail == nil {
		return fmt.Errorf("bank detail payload is nil")
	}
	const query = `INSERT INTO bank_details (student_id, bank_name, account_number, iban, is_verified, last_updated)
VALUES ($1, $2, $3, $4, FALSE, $5)
ON CONFLICT (student_id) DO UPDATE SET
bank_name = EXCLUDED.bank_name,
account_number = EXCLUDED.account_number,
iban = EXCLUDED.iban,
is_verified = FALSE,
last_updated = EXCLUDED.last_updated
RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &detail.ID, query,
		detail.StudentID, detail.BankName, detail.AccountNumber, detail.IBAN, detail.LastUpdated); err != nil {
		return fmt.Errorf("upsert bank details: %w", err)
	}
	detail.Verified = false
	return nil
}
