package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ledgerdesk/internal/apitest"
	"ledgerdesk/internal/config"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	if strings.TrimSpace(cfg.Fake.JWTSecret) == "" {
		logger.Fatalf("fake jwt secret is required (LEDGERDESK_FAKE_JWTSECRET)")
	}
	if strings.TrimSpace(cfg.Fake.AdminPassword) == "" {
		logger.Fatalf("fake admin password is required (LEDGERDESK_FAKE_ADMINPASSWORD)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	backend := apitest.New(apitest.Options{
		JWTSecret: cfg.Fake.JWTSecret,
		Logger:    logger,
	})
	admin := backend.SeedUser(cfg.Fake.AdminUser, cfg.Fake.AdminPassword, true)
	logger.WithField("username", admin.Username).Info("seeded superuser")

	srv := &http.Server{
		Addr:    cfg.Fake.Addr,
		Handler: backend.Handler(),
	}

	go func() {
		logger.Infof("fake ledger listening on http://%s%s", cfg.Fake.Addr, apitest.BasePath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
