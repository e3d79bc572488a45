package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
)

const eligiblePaymentsQuery = `SELECT p.id AS payment_id, s.id AS student_id, s.student_code, s.first_name, s.last_name,
p.amount, bd.bank_name, bd.account_number
FROM payments p
JOIN students s ON s.id = p.student_id
JOIN bank_details bd ON bd.student_id = p.student_id
WHERE p.status = 'Pending' AND bd.is_verified = TRUE
ORDER BY s.student_code ASC, p.id ASC`

// ScheduleBatch describes one committed payment run.
type ScheduleBatch struct {
	PaymentIDs  []int64
	References  []string
	AdminUserID int64
	ScheduledAt time.Time
}

// PaymentRepository persists scholarship payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListEligible returns Pending payments whose student holds a verified account.
func (r *PaymentRepository) ListEligible(ctx context.Context) ([]models.EligiblePayment, error) {
	items := make([]models.EligiblePayment, 0)
	if err := r.db.SelectContext(ctx, &items, eligiblePaymentsQuery); err != nil {
		return nil, fmt.Errorf("list eligible payments: %w", err)
	}
	return items, nil
}

// ListEligibleForUpdate re-selects the eligible set inside exec's transaction and
// locks the payment and bank-detail rows until it ends.
func (r *PaymentRepository) ListEligibleForUpdate(ctx context.Context, exec sqlx.ExtContext) ([]models.EligiblePayment, error) {
	items := make([]models.EligiblePayment, 0)
	if err := sqlx.SelectContext(ctx, r.exec(exec), &items, eligiblePaymentsQuery+"\nFOR UPDATE OF p, bd"); err != nil {
		return nil, fmt.Errorf("lock eligible payments: %w", err)
	}
	return items, nil
}

// MarkScheduled moves the batch from Pending to Scheduled in one statement and
// returns how many rows changed. Rows no longer Pending are left untouched.
func (r *PaymentRepository) MarkScheduled(ctx context.Context, exec sqlx.ExtContext, batch ScheduleBatch) (int64, error) {
	if len(batch.PaymentIDs) != len(batch.References) {
		return 0, fmt.Errorf("schedule batch has %d ids and %d references", len(batch.PaymentIDs), len(batch.References))
	}
	if len(batch.PaymentIDs) == 0 {
		return 0, nil
	}
	const query = `UPDATE payments AS p
SET status = 'Scheduled', admin_user_id = $1, disbursement_date = $2, transaction_ref = v.ref
FROM unnest($3::bigint[], $4::text[]) AS v(id, ref)
WHERE p.id = v.id AND p.status = 'Pending'`
	res, err := r.exec(exec).ExecContext(ctx, query,
		batch.AdminUserID, batch.ScheduledAt, pq.Array(batch.PaymentIDs), pq.Array(batch.References))
	if err != nil {
		return 0, fmt.Errorf("mark payments scheduled: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark payments scheduled rows: %w", err)
	}
	return rows, nil
}

// ListByStudent returns a student's payments, most recent month first.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Payment, error) {
	const query = `SELECT id, student_id, amount, payment_month, status, disbursement_date, transaction_ref, admin_user_id
FROM payments WHERE student_id = $1 ORDER BY payment_month DESC, id DESC`
	items := make([]models.Payment, 0)
	if err := r.db.SelectContext(ctx, &items, query, studentID); err != nil {
		return nil, fmt.Errorf("list payments by student: %w", err)
	}
	return items, nil
}
