package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/anab-disbursement-api/internal/dto"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	"github.com/noah-isme/anab-disbursement-api/pkg/response"
)

type studentService interface {
	Payments(ctx context.Context, actor models.Actor) ([]dto.StudentPaymentItem, error)
}

// StudentHandler serves the student's own records.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler builds a new handler.
func NewStudentHandler(service studentService) *StudentHandler {
	return &StudentHandler{service: service}
}

// Payments godoc
// @Summary List my scholarship payments
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/payments [get]
func (h *StudentHandler) Payments(c *gin.Context) {
	items, err := h.service.Payments(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}
