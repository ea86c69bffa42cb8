package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/config"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/fakeapi"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/logger"
)

// Serves the in-memory event API with the demo catalog, for local development
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.IsProduction())

	api := fakeapi.New(fakeapi.Options{
		JWTSecret:             cfg.MockAPI.JWTSecret,
		ServiceFeeBasisPoints: cfg.MockAPI.ServiceFeeBasisPoints,
		Seed:                  true,
	}, log)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.MockAPI.Port),
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", srv.Addr).Info("mock API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("mock API failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("mock API shutdown failed")
	}
}
