package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/anab-disbursement-api/internal/middleware"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
)

// actorFromContext builds the request identity from the JWT claims and the client address.
// Without claims the actor is empty and services reject it.
func actorFromContext(c *gin.Context) models.Actor {
	claims, _ := middleware.ClaimsFromContext(c)
	return claims.Actor(c.ClientIP())
}

func int64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}
