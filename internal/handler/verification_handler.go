package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/anab-disbursement-api/internal/dto"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	"github.com/noah-isme/anab-disbursement-api/internal/service"
	"github.com/noah-isme/anab-disbursement-api/pkg/response"
)

type verificationService interface {
	Queue(ctx context.Context, actor models.Actor) ([]models.PendingVerification, error)
	Approve(ctx context.Context, actor models.Actor, bankDetailID int64) error
	Reject(ctx context.Context, actor models.Actor, bankDetailID int64) error
}

// VerificationHandler exposes the bank verification queue.
type VerificationHandler struct {
	service verificationService
}

// NewVerificationHandler builds a new handler.
func NewVerificationHandler(service verificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// List godoc
// @Summary List bank details awaiting verification
// @Tags Bank Verification
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /bank-verifications [get]
func (h *VerificationHandler) List(c *gin.Context) {
	items, err := h.service.Queue(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Approve godoc
// @Summary Approve submitted bank details
// @Tags Bank Verification
// @Produce json
// @Param id path int true "Bank detail ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bank-verifications/{id}/approve [post]
func (h *VerificationHandler) Approve(c *gin.Context) {
	h.decide(c, service.DecisionApprove, h.service.Approve)
}

// Reject godoc
// @Summary Reject submitted bank details
// @Description Deletes the unverified record so the student must submit again
// @Tags Bank Verification
// @Produce json
// @Param id path int true "Bank detail ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bank-verifications/{id}/reject [post]
func (h *VerificationHandler) Reject(c *gin.Context) {
	h.decide(c, service.DecisionReject, h.service.Reject)
}

func (h *VerificationHandler) decide(c *gin.Context, decision string, apply func(context.Context, models.Actor, int64) error) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := apply(c.Request.Context(), actorFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.VerificationDecisionResponse{BankDetailID: id, Decision: decision})
}
