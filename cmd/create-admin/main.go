package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/anab-disbursement-api/internal/dto"
	"github.com/noah-isme/anab-disbursement-api/internal/repository"
	"github.com/noah-isme/anab-disbursement-api/internal/service"
	"github.com/noah-isme/anab-disbursement-api/pkg/config"
	"github.com/noah-isme/anab-disbursement-api/pkg/database"
	"github.com/noah-isme/anab-disbursement-api/pkg/logger"
)

// create-admin provisions a back-office account. The password is read from
// ADMIN_PASSWORD so it never appears in shell history.
func main() {
	username := flag.String("username", "", "admin username")
	role := flag.String("role", "Finance", "SuperAdmin, Finance, Reviewer, StudentSupport or IT")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, db, logr); err != nil {
			logr.Fatal("failed to migrate", zap.Error(err))
		}
	}

	authSvc := service.NewAuthService(repository.NewUserRepository(db), nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	admin, err := authSvc.CreateAdmin(ctx, dto.CreateAdminRequest{
		Username: *username,
		Password: os.Getenv("ADMIN_PASSWORD"),
		Role:     *role,
	})
	if err != nil {
		logr.Fatal("failed to create admin", zap.Error(err))
	}
	logr.Info("admin ready", zap.Int64("id", admin.ID), zap.String("username", admin.Username))
}
