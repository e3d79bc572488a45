package models

// DisbursementSummary aggregates payment and verification backlogs for the admin dashboard.
type DisbursementSummary struct {
	PaidThisYear          int64 `db:"paid_total"`
	PendingTotal          int64 `db:"pending_total"`
	PendingCount          int   `db:"pending_count"`
	UnverifiedBankDetails int   `db:"unverified_bank_details"`
}
