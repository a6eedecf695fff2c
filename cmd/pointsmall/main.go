package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"points-mall/internal/config"
	"points-mall/internal/handlers"
	"points-mall/internal/logging"
	"points-mall/internal/store"
)

func main() {
	var cfg config.Config
	if err := cfg.ParseFlags(); err != nil {
		logging.New("error", os.Stderr).Error("server configuration error", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, os.Stdout)

	db, err := store.New(cfg.DBDsn, log)
	if err != nil {
		log.Error("storage initialization error", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureAdmin(ctx, "admin", "admin123"); err != nil {
		log.Error("failed to ensure admin account", "error", err)
		os.Exit(1)
	}

	server, err := handlers.NewServer(db, cfg, log)
	if err != nil {
		log.Error("server creation error", "error", err)
		os.Exit(1)
	}

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "address", cfg.Address)
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := serv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
