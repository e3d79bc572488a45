package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
)

func TestBankDetailApprove(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBankDetailRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bank_details SET is_verified = TRUE WHERE id = $1 AND is_verified = FALSE")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	rows, err := repo.Approve(context.Background(), tx, 5)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankDetailApproveAlreadyVerified(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBankDetailRepository(db)

	mock.ExpectExec("UPDATE bank_details SET is_verified = TRUE").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.Approve(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankDetailRejectOnlyDeletesUnverified(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBankDetailRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bank_details WHERE id = $1 AND is_verified = FALSE")).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.Reject(context.Background(), nil, 8)
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankDetailUpsertResetsVerification(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBankDetailRepository(db)

	now := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	detail, err := models.NewBankDetail(3, "Ecobank", "998877", nil, now)
	require.NoError(t, err)
	detail.Verified = true

	mock.ExpectQuery(`(?s)INSERT INTO bank_details .* ON CONFLICT \(student_id\) DO UPDATE SET .*is_verified = FALSE`).
		WithArgs(int64(3), "Ecobank", "998877", nil, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))

	require.NoError(t, repo.UpsertForStudent(context.Background(), nil, detail))
	assert.Equal(t, int64(21), detail.ID)
	assert.False(t, detail.Verified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankDetailListUnverified(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBankDetailRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"bank_detail_id", "student_id", "student_code", "first_name", "last_name", "email", "phone", "bank_name", "account_number", "iban", "last_updated"}).
		AddRow(int64(1), int64(3), "ANAB-0003", "Awa", "Diop", "awa@example.com", nil, "CBAO", "123", nil, now)
	mock.ExpectQuery(`(?s)FROM bank_details bd.*WHERE bd.is_verified = FALSE.*ORDER BY bd.last_updated ASC`).
		WillReturnRows(rows)

	items, err := repo.ListUnverified(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ANAB-0003", items[0].StudentCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankDetailFindByStudentNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBankDetailRepository(db)

	mock.ExpectQuery("FROM bank_details WHERE student_id = \\$1").WithArgs(int64(3)).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByStudent(context.Background(), 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
