package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/anab-disbursement-api/pkg/errors"
	"github.com/noah-isme/anab-disbursement-api/pkg/response"
)

// RateLimit throttles requests per client IP using the provided limiter.
func RateLimit(limiterInstance *limiter.Limiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()

		limitCtx, err := limiterInstance.Get(c.Request.Context(), ip)
		if err != nil {
			logger.Error("rate limit lookup failed", zap.String("ip", ip), zap.Error(err))
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message))
			c.Abort()
			return
		}

		if limitCtx.Reached {
			logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("route", c.FullPath()), zap.Int64("limit", limitCtx.Limit))
			response.Error(c, appErrors.ErrTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}
