package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"waste_tracker/internal/config"
	"waste_tracker/internal/controllers"
	"waste_tracker/internal/logger"
	"waste_tracker/internal/middleware"
	"waste_tracker/internal/routes"
	"waste_tracker/internal/services"
	"waste_tracker/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	// Initialize structured logging to file
	out, err := logger.Setup(logger.Options{
		File:       cfg.Logging.File,
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up logging")
	}
	gin.SetMode(cfg.Server.GinMode)

	// Connect to the database
	db, err := config.OpenDB(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("database unavailable")
	}
	st := store.NewGorm(db)

	jwt := middleware.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	refs := services.NewReferenceService(st, cfg.Tracking.TokenGrace)
	missions := services.NewMissionService(st)
	ctl := controllers.New(
		services.NewAccountService(st, jwt, services.AdminBootstrap{
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
			FullName: cfg.Admin.FullName,
			Key:      cfg.Admin.BootstrapKey,
		}),
		refs,
		missions,
		services.NewRequestService(st, refs, missions),
	)

	r := routes.SetupRouter(ctl, jwt, out)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           middleware.CORS(cfg.CORS.AllowedOrigins)(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
