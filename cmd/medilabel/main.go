package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hmansour/medilabel/internal/config"
	"github.com/hmansour/medilabel/internal/database"
	"github.com/hmansour/medilabel/internal/gateway"
	"github.com/hmansour/medilabel/internal/logging"
	"github.com/hmansour/medilabel/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gw := gateway.New(cfg.APIBaseURL)

	srv, err := server.New(db, gw, cfg, logger)
	if err != nil {
		logger.Error("init server", "error", err)
		os.Exit(1)
	}

	if cfg.BackupPassphrase != "" {
		if err := srv.BackupManager().Start(); err != nil {
			logger.Error("start backups", "error", err)
			os.Exit(1)
		}
		defer srv.BackupManager().Stop()
	} else {
		logger.Warn("backups disabled, no passphrase configured")
	}

	// Hourly housekeeping for expired sessions and idle rate-limit buckets.
	housekeeping := time.NewTicker(time.Hour)
	defer housekeeping.Stop()
	go func() {
		for range housekeeping.C {
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup", "error", err)
			} else if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
			srv.LoginLimiter().Cleanup(time.Hour)
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("medilabel listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
}
