package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/anab-disbursement-api/internal/dto"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	"github.com/noah-isme/anab-disbursement-api/internal/service"
	"github.com/noah-isme/anab-disbursement-api/pkg/response"
)

type eligibilityService interface {
	Preview(ctx context.Context, actor models.Actor) (*dto.PaymentRunPreview, error)
}

type paymentRunService interface {
	Commit(ctx context.Context, actor models.Actor) (*service.RunResult, error)
}

type batchFileDelivery interface {
	Deliver(result *service.RunResult, w io.Writer) error
}

// PaymentRunHandler exposes the payment run preview and commit endpoints.
type PaymentRunHandler struct {
	eligibility eligibilityService
	runs        paymentRunService
	files       batchFileDelivery
	logger      *zap.Logger
}

// NewPaymentRunHandler builds a new handler.
func NewPaymentRunHandler(eligibility eligibilityService, runs paymentRunService, files batchFileDelivery, logger *zap.Logger) *PaymentRunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentRunHandler{eligibility: eligibility, runs: runs, files: files, logger: logger}
}

// Preview godoc
// @Summary Preview the next payment run
// @Description Lists Pending payments with a verified bank account. Advisory only; the commit selects again.
// @Tags Payment Runs
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /payment-runs/preview [get]
func (h *PaymentRunHandler) Preview(c *gin.Context) {
	preview, err := h.eligibility.Preview(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview)
}

// Commit godoc
// @Summary Commit a payment run
// @Description Schedules every eligible payment and returns the bank batch file
// @Tags Payment Runs
// @Produce text/csv
// @Success 200 {file} file
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /payment-runs [post]
func (h *PaymentRunHandler) Commit(c *gin.Context) {
	result, err := h.runs.Commit(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("X-Run-ID", result.RunID)
	c.Header("X-Payment-Count", strconv.Itoa(result.Count))
	c.Header("X-Payment-Total", strconv.FormatInt(result.Total, 10))
	response.AttachmentHeaders(c, result.FileName, "text/csv; charset=utf-8", len(result.Content))
	if err := h.files.Deliver(result, c.Writer); err != nil {
		// Headers are already sent; the run itself is committed.
		h.logger.Error("batch file delivery interrupted", zap.String("run_id", result.RunID), zap.String("file", result.FileName), zap.Error(err))
	}
}
