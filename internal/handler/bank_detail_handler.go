package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/anab-disbursement-api/internal/dto"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
	"github.com/noah-isme/anab-disbursement-api/pkg/response"
)

type bankDetailService interface {
	Get(ctx context.Context, actor models.Actor) (*dto.BankDetailsResponse, error)
	Submit(ctx context.Context, actor models.Actor, req dto.SubmitBankDetailsRequest) (*dto.BankDetailsResponse, error)
}

// BankDetailHandler lets students manage their payout account.
type BankDetailHandler struct {
	service bankDetailService
}

// NewBankDetailHandler builds a new handler.
func NewBankDetailHandler(service bankDetailService) *BankDetailHandler {
	return &BankDetailHandler{service: service}
}

// Get godoc
// @Summary Get my bank details
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me/bank-details [get]
func (h *BankDetailHandler) Get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Submit godoc
// @Summary Submit or replace my bank details
// @Description Any submission resets the verification state
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.SubmitBankDetailsRequest true "Bank details"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/bank-details [put]
func (h *BankDetailHandler) Submit(c *gin.Context) {
	var req dto.SubmitBankDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bank details payload"))
		return
	}
	res, err := h.service.Submit(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}
