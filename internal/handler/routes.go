package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/anab-disbursement-api/internal/middleware"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Auth         *AuthHandler
	Verification *VerificationHandler
	PaymentRuns  *PaymentRunHandler
	BankDetails  *BankDetailHandler
	Students     *StudentHandler
	Audit        *AuditHandler
	Dashboard    *DashboardHandler
	Metrics      *MetricsHandler
}

// RouteAccess holds the role allowlists applied at the route level.
type RouteAccess struct {
	VerifyRoles     []models.UserRole
	PaymentRunRoles []models.UserRole
	AuditViewRoles  []models.UserRole
	DashboardRoles  []models.UserRole
}

// Register mounts the API under prefix. authMW authenticates bearer tokens and
// loginLimit throttles the public auth endpoints.
func Register(r *gin.Engine, prefix string, h Handlers, access RouteAccess, authMW, loginLimit gin.HandlerFunc) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.POST("/auth/login", loginLimit, h.Auth.Login)
	api.POST("/auth/activate", loginLimit, h.Auth.Activate)

	secured := api.Group("")
	secured.Use(authMW)

	verifications := secured.Group("/bank-verifications", middleware.RequireRoles(access.VerifyRoles...))
	verifications.GET("", h.Verification.List)
	verifications.POST("/:id/approve", h.Verification.Approve)
	verifications.POST("/:id/reject", h.Verification.Reject)

	runs := secured.Group("/payment-runs", middleware.RequireRoles(access.PaymentRunRoles...))
	runs.GET("/preview", h.PaymentRuns.Preview)
	runs.POST("", h.PaymentRuns.Commit)

	secured.GET("/audit-logs", middleware.RequireRoles(access.AuditViewRoles...), h.Audit.List)
	secured.GET("/dashboard", middleware.RequireRoles(access.DashboardRoles...), h.Dashboard.Summary)

	me := secured.Group("/me", middleware.RequireRoles(models.RoleStudent))
	me.GET("/bank-details", h.BankDetails.Get)
	me.PUT("/bank-details", h.BankDetails.Submit)
	me.GET("/payments", h.Students.Payments)
}
