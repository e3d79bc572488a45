package dto

import "time"

// SubmitBankDetailsRequest is a student's bank account submission.
type SubmitBankDetailsRequest struct {
	BankName      string  `json:"bankName" validate:"required,max=100"`
	AccountNumber string  `json:"accountNumber" validate:"required,max=64"`
	IBAN          *string `json:"iban,omitempty" validate:"omitempty,max=64"`
}

// BankDetailsResponse shows a student their own account with the number masked.
type BankDetailsResponse struct {
	ID            int64     `json:"id"`
	BankName      string    `json:"bankName"`
	AccountNumber string    `json:"accountNumber"`
	IBAN          *string   `json:"iban,omitempty"`
	Verified      bool      `json:"verified"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// VerificationDecisionResponse acknowledges an approve or reject call.
type VerificationDecisionResponse struct {
	BankDetailID int64  `json:"bankDetailId"`
	Decision     string `json:"decision"`
}
