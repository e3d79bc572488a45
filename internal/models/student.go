package models

import (
	"strings"
	"time"
)

// Student is a scholarship holder. StudentCode is the stable public identifier.
type Student struct {
	ID           int64     `db:"id" json:"id"`
	StudentCode  string    `db:"student_code" json:"student_code"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        *string   `db:"email" json:"email,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FullName joins first and last name the way beneficiaries are named on bank files.
func (s Student) FullName() string {
	return joinName(s.FirstName, s.LastName)
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
