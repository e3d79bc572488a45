package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/anab-disbursement-api/internal/dto"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
)

type eligiblePaymentReader interface {
	ListEligible(ctx context.Context) ([]models.EligiblePayment, error)
}

// EligibilityService reports which payments a run would schedule right now.
// Every call reads the store; results are never cached.
type EligibilityService struct {
	repo    eligiblePaymentReader
	logger  *zap.Logger
	allowed []models.UserRole
	now     func() time.Time
}

// NewEligibilityService constructs an EligibilityService.
func NewEligibilityService(repo eligiblePaymentReader, logger *zap.Logger, allowed []models.UserRole) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{repo: repo, logger: logger, allowed: allowed, now: time.Now}
}

// Select returns Pending payments backed by a verified account, ordered by student code.
func (s *EligibilityService) Select(ctx context.Context) ([]models.EligiblePayment, error) {
	items, err := s.repo.ListEligible(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select eligible payments")
	}
	return items, nil
}

// Preview is the confirmation view shown before a commit. It is advisory: the
// commit re-selects inside its own transaction.
func (s *EligibilityService) Preview(ctx context.Context, actor models.Actor) (*dto.PaymentRunPreview, error) {
	if err := authorize(actor, s.allowed); err != nil {
		return nil, err
	}
	items, err := s.Select(ctx)
	if err != nil {
		return nil, err
	}

	preview := &dto.PaymentRunPreview{
		Currency:    dto.Currency,
		Payments:    make([]dto.EligiblePaymentItem, 0, len(items)),
		GeneratedAt: s.now().UTC(),
	}
	for _, item := range items {
		preview.Count++
		preview.Total += item.Amount
		preview.Payments = append(preview.Payments, dto.EligiblePaymentItem{
			PaymentID:       item.PaymentID,
			StudentCode:     item.StudentCode,
			BeneficiaryName: item.BeneficiaryName(),
			Amount:          item.Amount,
			BankName:        item.BankName,
			AccountNumber:   item.AccountNumber,
		})
	}
	return preview, nil
}
