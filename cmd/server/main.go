package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"axiapac.com/timeclock/app"
	"axiapac.com/timeclock/config"
	"axiapac.com/timeclock/security"
	"axiapac.com/timeclock/web"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx, os.Getenv("TIMECLOCK_CONFIG"))
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	jwtSecret, err := security.DecodeSecret(cfg.HTTP.JWTSecret)
	if err != nil {
		return err
	}
	if len(jwtSecret) == 0 {
		return errors.New("http.jwtSecret is required")
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Scheduler.Start(ctx)

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: web.NewRouter(web.Services{
			Attendance:   a.Engine,
			Sync:         a.Sync,
			Jobs:         a.Scheduler,
			MinimumHours: cfg.Attendance.MinimumHours,
		}, jwtSecret, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	if err := a.Scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop incomplete", "error", err)
	}
	return nil
}
