package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/anab-disbursement-api/internal/dto"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
)

type studentPaymentReader interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.Payment, error)
}

// StudentService serves the student's own payment history.
type StudentService struct {
	payments studentPaymentReader
	logger   *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(payments studentPaymentReader, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{payments: payments, logger: logger}
}

// Payments lists the acting student's payments, most recent month first.
func (s *StudentService) Payments(ctx context.Context, actor models.Actor) ([]dto.StudentPaymentItem, error) {
	if err := authorize(actor, []models.UserRole{models.RoleStudent}); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	items := make([]dto.StudentPaymentItem, 0, len(payments))
	for _, p := range payments {
		items = append(items, dto.StudentPaymentItem{
			Amount:           p.Amount,
			Currency:         dto.Currency,
			PaymentMonth:     p.PaymentMonth.Format("2006-01"),
			Status:           string(p.Status),
			DisbursementDate: p.DisbursementDate,
			TransactionRef:   p.TransactionRef,
		})
	}
	return items, nil
}
