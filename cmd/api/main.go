package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/credit-analytics/internal/config"
	"github.com/Dan9191/credit-analytics/internal/handler"
	"github.com/Dan9191/credit-analytics/internal/integrations/cbr"
	"github.com/Dan9191/credit-analytics/internal/repository"
	"github.com/Dan9191/credit-analytics/internal/scheduler"
	"github.com/Dan9191/credit-analytics/internal/service"
	"github.com/Dan9191/credit-analytics/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize layers
	repo := repository.NewRepository()
	cbrClient := cbr.NewCBRClient(cfg, logger)
	var digest service.DigestSender
	if cfg.ReportsEnabled() {
		digest = email.NewSender(cfg, logger)
	}
	svc := service.NewService(repo, logger, cfg, cbrClient, digest)
	h := handler.NewHandler(svc, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial synthetic batch
	if cfg.InitialRecords > 0 {
		if _, err := svc.GenerateDataset(ctx, cfg.InitialRecords, cfg.GeneratorSeed); err != nil {
			logger.Fatalf("Failed to generate initial dataset: %v", err)
		}
	}

	// Scheduled refresh
	if cfg.RefreshSchedule != "" {
		sched, err := scheduler.New(cfg.RefreshSchedule, svc, logger)
		if err != nil {
			logger.Fatalf("Failed to start scheduler: %v", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}
