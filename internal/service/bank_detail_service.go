package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/anab-disbursement-api/internal/dto"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
)

type bankDetailStore interface {
	FindByStudent(ctx context.Context, studentID int64) (*models.BankDetail, error)
	UpsertForStudent(ctx context.Context, exec sqlx.ExtContext, detail *models.BankDetail) error
}

// BankDetailService lets students submit and view their payout account.
type BankDetailService struct {
	tx        txProvider
	repo      bankDetailStore
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBankDetailService constructs a BankDetailService.
func NewBankDetailService(tx txProvider, repo bankDetailStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *BankDetailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BankDetailService{tx: tx, repo: repo, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// Get returns the acting student's bank details.
func (s *BankDetailService) Get(ctx context.Context, actor models.Actor) (*dto.BankDetailsResponse, error) {
	if err := authorize(actor, []models.UserRole{models.RoleStudent}); err != nil {
		return nil, err
	}
	detail, err := s.repo.FindByStudent(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no bank details submitted yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bank details")
	}
	return toBankDetailsResponse(detail), nil
}

// Submit creates or replaces the acting student's bank details. The stored
// record is unverified afterwards, whatever its previous state.
func (s *BankDetailService) Submit(ctx context.Context, actor models.Actor, req dto.SubmitBankDetailsRequest) (*dto.BankDetailsResponse, error) {
	if err := authorize(actor, []models.UserRole{models.RoleStudent}); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bank details payload")
	}
	detail, err := models.NewBankDetail(actor.ID, req.BankName, req.AccountNumber, req.IBAN, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save bank details")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repo.UpsertForStudent(ctx, tx, detail); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save bank details")
	}
	entry := models.NewAuditLogEntry(actor, models.AuditBankDetailsSubmitted,
		fmt.Sprintf("Bank ID %d submitted by student #%d; verification reset", detail.ID, actor.ID))
	if err = s.audit.Record(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save bank details")
	}

	return toBankDetailsResponse(detail), nil
}

func toBankDetailsResponse(detail *models.BankDetail) *dto.BankDetailsResponse {
	return &dto.BankDetailsResponse{
		ID:            detail.ID,
		BankName:      detail.BankName,
		AccountNumber: detail.MaskedAccountNumber(),
		IBAN:          detail.IBAN,
		Verified:      detail.Verified,
		LastUpdated:   detail.LastUpdated,
	}
}
