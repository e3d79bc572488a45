package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/anab-disbursement-api/internal/models"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
	"github.com/noah-isme/anab-disbursement-api/pkg/response"
)

type auditService interface {
	List(ctx context.Context, actor models.Actor, filter models.AuditLogFilter) ([]models.AuditLogEntry, error)
}

// AuditHandler exposes the read side of the audit trail.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler builds a new handler.
func NewAuditHandler(service auditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List godoc
// @Summary List audit entries
// @Tags Audit
// @Produce json
// @Param action query string false "Action type filter"
// @Param limit query int false "Maximum entries (default 100)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	filter := models.AuditLogFilter{Action: models.AuditAction(strings.ToUpper(strings.TrimSpace(c.Query("action"))))}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}

	items, err := h.service.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}
