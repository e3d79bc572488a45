package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
)

// ErrDuplicate is returned when a unique constraint rejects an insert.
var ErrDuplicate = errors.New("duplicate record")

// UserRepository provides credential lookups for administrators and students.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindAdminByUsername returns an administrator or sql.ErrNoRows.
func (r *UserRepository) FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	const query = `SELECT id, username, password_hash, role, created_at FROM admin_users WHERE username = $1 LIMIT 1`
	var admin models.AdminUser
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by username: %w", err)
	}
	return &admin, nil
}

// FindStudentByLogin matches a student by code or email (case-insensitive) or returns sql.ErrNoRows.
func (r *UserRepository) FindStudentByLogin(ctx context.Context, identifier string) (*models.Student, error) {
	const query = `SELECT id, student_code, first_name, last_name, email, phone, password_hash, is_active, created_at
FROM students WHERE student_code = $1 OR LOWER(email) = LOWER($1) LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, identifier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by login: %w", err)
	}
	return &student, nil
}

// CreateAdmin inserts an administrator. A taken username yields ErrDuplicate.
func (r *UserRepository) CreateAdmin(ctx context.Context, admin *models.AdminUser) error {
	const query = `INSERT INTO admin_users (username, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, admin.Username, admin.PasswordHash, admin.Role).Scan(&admin.ID, &admin.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// StudentActivation carries the details a student supplies when activating.
type StudentActivation struct {
	StudentCode  string
	Email        string
	Phone        string
	PasswordHash string
}

// ActivateStudent completes an inactive account. It returns sql.ErrNoRows when
// the code is unknown or the account is already active, and ErrDuplicate when
// the email belongs to another student.
func (r *UserRepository) ActivateStudent(ctx context.Context, activation StudentActivation) (*models.Student, error) {
	const query = `UPDATE students SET email = $2, phone = $3, password_hash = $4, is_active = TRUE
WHERE student_code = $1 AND is_active = FALSE
RETURNING id, student_code, first_name, last_name, email, phone, password_hash, is_active, created_at`
	var student models.Student
	err := r.db.QueryRowxContext(ctx, query, activation.StudentCode, activation.Email, activation.Phone, activation.PasswordHash).StructScan(&student)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("activate student: %w", err)
	}
	return &student, nil
}
