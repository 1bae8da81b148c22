package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "go_gone/api/v1"
	"go_gone/internal/auth"
	"go_gone/internal/bootstrap"
	"go_gone/internal/logging"
	"go_gone/internal/site"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("GONE_CONFIG"), "path to INI config file (optional)")
	flag.Parse()

	// 1. Load configuration
	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	log := logging.Component(logger, "server")
	log.Info("Configuration loaded")

	// 2. MySQL, cache, store and engine
	app, err := bootstrap.Open(cfg, logger)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize")
	}
	defer app.Close()

	issuer, err := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpireMinutes)*time.Minute)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize JWT")
	}

	// 3. Site handler guarded by the match engine
	siteHandler, err := site.NewHandler(cfg.Site, logging.Component(logger, "site"))
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize site handler")
	}
	page := site.DefaultPage
	if cfg.Site.GonePage != "" {
		if page, err = site.LoadPage(cfg.Site.GonePage); err != nil {
			log.WithError(err).Fatal("Failed to load gone page")
		}
	}

	// 4. Router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), site.AccessLog(logger))

	v1.SetupRouter(r, v1.Deps{
		Users:  app.Users,
		Tokens: issuer,
		Store:  app.Store,
		Engine: app.Engine,
	})

	r.NoRoute(site.GoneGuard(site.GuardOptions{
		Checker:  app.Engine,
		Settings: app.Store,
		Page:     page,
		Logger:   logging.Component(logger, "gone-guard"),
	}), siteHandler)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("Server error")
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
		return
	}
	log.Info("Server stopped gracefully")
}
