package models

import (
	"errors"
	"time"
)

// AuditAction names a recorded privileged action.
type AuditAction string

const (
	AuditBankVerifyApproved      AuditAction = "BANK_VERIFY_APPROVED"
	AuditBankVerifyRejected      AuditAction = "BANK_VERIFY_REJECTED"
	AuditBankVerifyAttemptFailed AuditAction = "BANK_VERIFY_ATTEMPT_FAILED"
	AuditPaymentRunCommitted     AuditAction = "PAYMENT_RUN_COMMITTED"
	AuditBankDetailsSubmitted    AuditAction = "BANK_DETAILS_SUBMITTED"
)

// Valid reports whether a is a known action.
func (a AuditAction) Valid() bool {
	switch a {
	case AuditBankVerifyApproved, AuditBankVerifyRejected, AuditBankVerifyAttemptFailed,
		AuditPaymentRunCommitted, AuditBankDetailsSubmitted:
		return true
	}
	return false
}

var (
	ErrAuditActionUnknown = errors.New("unknown audit action")
	ErrAuditDetailEmpty   = errors.New("audit detail is required")
)

// AuditLogEntry is an immutable audit trail record.
type AuditLogEntry struct {
	ID        int64       `db:"id" json:"id"`
	ActorID   int64       `db:"user_id" json:"actor_id"`
	ActorRole UserRole    `db:"user_role" json:"actor_role"`
	Action    AuditAction `db:"action_type" json:"action"`
	Detail    string      `db:"details" json:"detail"`
	Origin    string      `db:"ip_address" json:"origin"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// NewAuditLogEntry attributes an action to actor.
func NewAuditLogEntry(actor Actor, action AuditAction, detail string) AuditLogEntry {
	return AuditLogEntry{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Action:    action,
		Detail:    detail,
		Origin:    actor.Origin,
	}
}

// Validate checks attribution, action and detail.
func (e AuditLogEntry) Validate() error {
	if e.ActorID <= 0 || e.ActorRole == "" {
		return ErrInvalidActor
	}
	if !e.Action.Valid() {
		return ErrAuditActionUnknown
	}
	if e.Detail == "" {
		return ErrAuditDetailEmpty
	}
	return nil
}

// AuditLogFilter narrows audit listings.
type AuditLogFilter struct {
	Action AuditAction
	Limit  int
}
