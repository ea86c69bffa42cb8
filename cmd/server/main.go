package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/apiclient"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/config"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/logger"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/server"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := storage.NewFactory(cfg, log).Create(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to open state store")
	}
	defer backend.Close()

	api := apiclient.New(apiclient.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		RateLimit:  cfg.API.RateLimit,
		Burst:      cfg.API.Burst,
		MaxRetries: cfg.API.MaxRetries,
	}, log)

	log.WithFields(logrus.Fields{
		"env":    cfg.Server.Env,
		"api":    cfg.API.BaseURL,
		"driver": cfg.Store.Driver,
	}).Info("starting BFF")

	if err := server.New(cfg, log, backend, api).Run(ctx); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}
