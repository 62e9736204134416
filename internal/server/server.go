// Package server holds the HTTP bootstrap shared by every service: the gin
// engine with its middleware, the health endpoint, and a run loop that
// registers with Consul and shuts down gracefully.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"socialgraph/internal/config"
	"socialgraph/internal/consul"
)

const shutdownTimeout = 5 * time.Second

// New configures an HTTP server for handler.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Run serves until SIGINT or SIGTERM, then deregisters and drains
// in-flight requests. A nil registrar skips Consul entirely.
func Run(srv *http.Server, registrar consul.ServiceRegistrar, reg *consul.ServiceConfig, log *slog.Logger) error {
	if registrar != nil && reg != nil {
		if err := registrar.Register(reg); err != nil {
			return err
		}
		log.Info("Registered with Consul", "service_id", reg.ID)
	}

	done := make(chan struct{})
	go gracefulShutdown(srv, registrar, reg, log, done)

	log.Info("Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	log.Info("Graceful shutdown complete")
	return nil
}

func gracefulShutdown(srv *http.Server, registrar consul.ServiceRegistrar, reg *consul.ServiceConfig, log *slog.Logger, done chan<- struct{}) {
	defer close(done)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	if registrar != nil && reg != nil {
		if err := registrar.Deregister(reg.ID); err != nil {
			log.Warn("Failed to deregister from Consul", "error", err)
		} else {
			log.Info("Deregistered from Consul", "service_id", reg.ID)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
}
