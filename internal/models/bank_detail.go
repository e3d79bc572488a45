package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrBankNameRequired      = errors.New("bank name is required")
	ErrAccountNumberRequired = errors.New("account number is required")
	ErrStudentRequired       = errors.New("student is required")
)

// BankDetail is the single payout account of a student. Any edit resets Verified.
type BankDetail struct {
	ID            int64     `db:"id" json:"id"`
	StudentID     int64     `db:"student_id" json:"student_id"`
	BankName      string    `db:"bank_name" json:"bank_name"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	IBAN          *string   `db:"iban" json:"iban,omitempty"`
	Verified      bool      `db:"is_verified" json:"is_verified"`
	LastUpdated   time.Time `db:"last_updated" json:"last_updated"`
}

// NewBankDetail builds an unverified record. Blank IBANs are stored as NULL.
func NewBankDetail(studentID int64, bankName, accountNumber string, iban *string, now time.Time) (*BankDetail, error) {
	if studentID <= 0 {
		return nil, ErrStudentRequired
	}
	bankName = strings.TrimSpace(bankName)
	if bankName == "" {
		return nil, ErrBankNameRequired
	}
	accountNumber = strings.TrimSpace(accountNumber)
	if accountNumber == "" {
		return nil, ErrAccountNumberRequired
	}

	var normalizedIBAN *string
	if iban != nil {
		if v := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(*iban), " ", "")); v != "" {
			normalizedIBAN = &v
		}
	}

	return &BankDetail{
		StudentID:     studentID,
		BankName:      bankName,
		AccountNumber: accountNumber,
		IBAN:          normalizedIBAN,
		Verified:      false,
		LastUpdated:   now.UTC(),
	}, nil
}

// MaskedAccountNumber keeps the last four characters.
func (b BankDetail) MaskedAccountNumber() string {
	n := len(b.AccountNumber)
	if n <= 4 {
		return b.AccountNumber
	}
	return strings.Repeat("*", n-4) + b.AccountNumber[n-4:]
}

// PendingVerification is a verification queue row.
type PendingVerification struct {
	BankDetailID  int64     `db:"bank_detail_id" json:"bank_detail_id"`
	StudentID     int64     `db:"student_id" json:"student_id"`
	StudentCode   string    `db:"student_code" json:"student_code"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Email         *string   `db:"email" json:"email,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	BankName      string    `db:"bank_name" json:"bank_name"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	IBAN          *string   `db:"iban" json:"iban,omitempty"`
	LastUpdated   time.Time `db:"last_updated" json:"last_updated"`
}
