package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	_ "github.com/noah-isme/anab-disbursement-api/api/swagger"
	"github.com/noah-isme/anab-disbursement-api/internal/handler"
	"github.com/noah-isme/anab-disbursement-api/internal/middleware"
	"github.com/noah-isme/anab-disbursement-api/internal/models"
	"github.com/noah-isme/anab-disbursement-api/internal/repository"
	"github.com/noah-isme/anab-disbursement-api/internal/service"
	"github.com/noah-isme/anab-disbursement-api/pkg/cache"
	"github.com/noah-isme/anab-disbursement-api/pkg/config"
	"github.com/noah-isme/anab-disbursement-api/pkg/database"
	"github.com/noah-isme/anab-disbursement-api/pkg/lock"
	"github.com/noah-isme/anab-disbursement-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/anab-disbursement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/anab-disbursement-api/pkg/middleware/requestid"
	"github.com/noah-isme/anab-disbursement-api/pkg/storage"
)

// @title ANAB Disbursement API
// @version 1.0.0
// @description Bank verification and scholarship payment runs
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, db, logr); err != nil {
			return err
		}
	}

	var locker lock.Locker = lock.NoopLocker{}
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		locker = lock.NewRedisLocker(redisClient, "anab:lock:")
		logr.Info("payment run lock backed by redis")
	}

	spool, err := storage.NewLocalStorage(cfg.Exports.SpoolDir)
	if err != nil {
		return err
	}

	verifyRoles := models.ParseRoles(cfg.Access.VerifyRoles)
	runRoles := models.ParseRoles(cfg.Access.PaymentRunRoles)
	auditRoles := models.ParseRoles(cfg.Access.AuditViewRoles)
	dashboardRoles := models.ParseRoles(cfg.Access.DashboardRoles)

	userRepo := repository.NewUserRepository(db)
	bankRepo := repository.NewBankDetailRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	metrics := service.NewMetricsService()
	auditSvc := service.NewAuditService(auditRepo, logr, auditRoles)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	verificationSvc := service.NewVerificationService(db, bankRepo, auditSvc, metrics, logr, verifyRoles)
	eligibilitySvc := service.NewEligibilityService(paymentRepo, logr, runRoles)
	runSvc := service.NewPaymentRunService(db, paymentRepo, auditSvc, locker, metrics, logr, service.PaymentRunConfig{
		AllowedRoles:    runRoles,
		ReferencePrefix: cfg.PaymentRuns.ReferencePrefix,
		FilePrefix:      cfg.PaymentRuns.FilePrefix,
		LockTTL:         cfg.PaymentRuns.LockTTL,
	})
	batchFiles := service.NewBatchFileService(spool, metrics, logr, cfg.Exports.SpoolTTL)
	bankDetailSvc := service.NewBankDetailService(db, bankRepo, auditSvc, nil, logr)
	studentSvc := service.NewStudentService(paymentRepo, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, logr, dashboardRoles)

	loginRate, err := limiter.NewRateFromFormatted(cfg.RateLimit.Login)
	if err != nil {
		return fmt.Errorf("parse LOGIN_RATE_LIMIT: %w", err)
	}
	loginLimiter := limiter.New(memory.NewStore(), loginRate)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Exports.CleanupSchedule, func() {
		if _, err := batchFiles.Sweep(); err != nil {
			logr.Warn("batch spool sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule spool sweeper: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Verification: handler.NewVerificationHandler(verificationSvc),
		PaymentRuns:  handler.NewPaymentRunHandler(eligibilitySvc, runSvc, batchFiles, logr),
		BankDetails:  handler.NewBankDetailHandler(bankDetailSvc),
		Students:     handler.NewStudentHandler(studentSvc),
		Audit:        handler.NewAuditHandler(auditSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Metrics:      handler.NewMetricsHandler(metrics, db),
	}, handler.RouteAccess{
		VerifyRoles:     verifyRoles,
		PaymentRunRoles: runRoles,
		AuditViewRoles:  auditRoles,
		DashboardRoles:  dashboardRoles,
	}, middleware.JWT(authSvc), middleware.RateLimit(loginLimiter, logr))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
