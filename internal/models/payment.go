package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// PaymentStatus is the disbursement state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentScheduled PaymentStatus = "Scheduled"
	PaymentPaid      PaymentStatus = "Paid"
	PaymentFailed    PaymentStatus = "Failed"
)

var ErrAmountNotPositive = errors.New("payment amount must be positive")

// ParsePaymentStatus rejects unknown statuses.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch s := PaymentStatus(raw); s {
	case PaymentPending, PaymentScheduled, PaymentPaid, PaymentFailed:
		return s, nil
	}
	return "", fmt.Errorf("unknown payment status %q", raw)
}

// CanTransition reports whether moving from s to next is a forward step.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentScheduled
	case PaymentScheduled:
		return next == PaymentPaid || next == PaymentFailed
	}
	return false
}

// Scan implements sql.Scanner.
func (s *PaymentStatus) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan payment status from %T", src)
	}
	parsed, err := ParsePaymentStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer.
func (s PaymentStatus) Value() (driver.Value, error) {
	if _, err := ParsePaymentStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

// Payment is one monthly scholarship installment. Amounts are whole XOF.
type Payment struct {
	ID               int64         `db:"id" json:"id"`
	StudentID        int64         `db:"student_id" json:"student_id"`
	Amount           int64         `db:"amount" json:"amount"`
	PaymentMonth     time.Time     `db:"payment_month" json:"payment_month"`
	Status           PaymentStatus `db:"status" json:"status"`
	DisbursementDate *time.Time    `db:"disbursement_date" json:"disbursement_date,omitempty"`
	TransactionRef   *string       `db:"transaction_ref" json:"transaction_ref,omitempty"`
	AdminUserID      *int64        `db:"admin_user_id" json:"-"`
}

// Validate checks the amount and status.
func (p Payment) Validate() error {
	if p.Amount <= 0 {
		return ErrAmountNotPositive
	}
	_, err := ParsePaymentStatus(string(p.Status))
	return err
}

// EligiblePayment joins a Pending payment with its student's verified account.
type EligiblePayment struct {
	PaymentID     int64  `db:"payment_id"`
	StudentID     int64  `db:"student_id"`
	StudentCode   string `db:"student_code"`
	FirstName     string `db:"first_name"`
	LastName      string `db:"last_name"`
	Amount        int64  `db:"amount"`
	BankName      string `db:"bank_name"`
	AccountNumber string `db:"account_number"`
}

// BeneficiaryName is the account holder name written to the bank file.
func (e EligiblePayment) BeneficiaryName() string {
	return joinName(e.FirstName, e.LastName)
}
