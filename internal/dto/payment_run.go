package dto

import "time"

// Currency of every amount handled by the portal.
const Currency = "XOF"

// EligiblePaymentItem is one row of the run preview.
type EligiblePaymentItem struct {
	PaymentID       int64  `json:"paymentId"`
	StudentCode     string `json:"studentId"`
	BeneficiaryName string `json:"beneficiaryName"`
	Amount          int64  `json:"amount"`
	BankName        string `json:"bankName"`
	AccountNumber   string `json:"accountNumber"`
}

// PaymentRunPreview summarises what a commit would schedule right now.
type PaymentRunPreview struct {
	Count       int                   `json:"count"`
	Total       int64                 `json:"total"`
	Currency    string                `json:"currency"`
	Payments    []EligiblePaymentItem `json:"payments"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

// StudentPaymentItem is one entry of a student's payment history.
type StudentPaymentItem struct {
	Amount           int64      `json:"amount"`
	Currency         string     `json:"currency"`
	PaymentMonth     string     `json:"paymentMonth"`
	Status           string     `json:"status"`
	DisbursementDate *time.Time `json:"disbursementDate,omitempty"`
	TransactionRef   *string    `json:"transactionRef,omitempty"`
}

// DashboardSummaryResponse is the admin landing view.
type DashboardSummaryResponse struct {
	Year                  int       `json:"year"`
	Currency              string    `json:"currency"`
	PaidThisYear          int64     `json:"paidThisYear"`
	PendingTotal          int64     `json:"pendingTotal"`
	PendingCount          int       `json:"pendingCount"`
	UnverifiedBankDetails int       `json:"unverifiedBankDetails"`
	GeneratedAt           time.Time `json:"generatedAt"`
}
