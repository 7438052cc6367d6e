package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/locthdzev/fmcs-fe-sub005/internal/platform/config"
	"github.com/locthdzev/fmcs-fe-sub005/internal/platform/logger"
	"github.com/locthdzev/fmcs-fe-sub005/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Sin config válida no hay nada que loguear estructurado todavía.
		panic(err)
	}

	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	r := router.NewRouter(router.Options{
		Log:          log,
		DSN:          cfg.DBDSN,
		APIBaseURL:   cfg.APIBaseURL,
		APIKey:       cfg.APIKey,
		APIKeyHeader: cfg.APIKeyHeader,
		APITimeout:   cfg.APITimeout,
		APIRetries:   cfg.APIRetries,
		WindowSize:   cfg.WindowSize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", map[string]any{"err": err.Error()})
	}
	log.Info("server stopped", nil)
}
