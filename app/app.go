// Package app wires configuration into the running components shared by the
// server, the CLI and the scheduled lambda.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"axiapac.com/timeclock/attendance"
	"axiapac.com/timeclock/config"
	"axiapac.com/timeclock/core"
	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/device/bridge"
	"axiapac.com/timeclock/devicesync"
	"axiapac.com/timeclock/infrastructure/communication"
	"axiapac.com/timeclock/infrastructure/filesystem"
	"axiapac.com/timeclock/scheduler"
	"axiapac.com/timeclock/security"
	"axiapac.com/timeclock/store"
)

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *core.DatabaseManager
	Store     *store.Store
	Engine    *attendance.Engine
	Pool      *device.Pool
	Sync      *devicesync.Orchestrator
	Scheduler *scheduler.Scheduler
	// Slack and Archive are nil when not configured.
	Slack   *communication.Slack
	Archive *filesystem.S3Archive
}

// New connects to the database, migrates it and builds every component.
// Callers must Close the result.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	deviceSecret, err := security.DecodeSecret(cfg.Devices.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode device secret: %w", err)
	}
	if len(deviceSecret) == 0 {
		return nil, errors.New("devices.secret is required")
	}

	db, err := core.New(cfg.Database.GetDSN(), cfg.Database.MaxConnections, core.ParseLogLevel(cfg.Database.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, DB: db, Store: store.New(db.DB)}

	a.Engine = attendance.NewEngine(a.Store.Punches, a.Store.Records, a.Store.Policies, a.Store.Staff, logger)
	a.Engine.SetMinimumHours(cfg.Attendance.MinimumHours)

	gateway := bridge.NewGateway(bridge.Options{
		Secret:  deviceSecret,
		Timeout: cfg.Devices.Timeout,
		Scheme:  cfg.Devices.Scheme,
	})
	a.Pool = device.NewPool(gateway, cfg.Devices.MaxIdle, logger)

	syncCfg := devicesync.Config{
		Concurrency:    cfg.Devices.Concurrency,
		DeadlineFactor: cfg.Devices.DeadlineFactor,
	}
	if cfg.Slack.Token != "" {
		a.Slack = communication.NewSlack(cfg.Slack.Token, communication.SlackOption{
			InfoChannelID:  cfg.Slack.InfoChannel,
			ErrorChannelID: cfg.Slack.ErrorChannel,
		})
		syncCfg.Notifier = a.Slack
	}
	if cfg.Archive.Bucket != "" {
		a.Archive, err = filesystem.ConnectS3Archive(ctx, cfg.Archive.Bucket, cfg.Archive.Prefix)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect archive: %w", err)
		}
		syncCfg.Archive = a.Archive
	}

	a.Sync = devicesync.New(devicesync.Stores{
		Devices:     a.Store.Devices,
		Staff:       a.Store.Staff,
		Enrollments: a.Store.Enrollments,
		Punches:     a.Store.Punches,
		Runs:        a.Store.SyncRuns,
	}, a.Pool, syncCfg, logger)

	a.Scheduler = scheduler.New(logger)
	if err := a.Scheduler.Register(scheduler.Jobs(a.Engine, a.Sync, cfg.Schedules, time.Now)...); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}
	if a.Slack != nil {
		a.Scheduler.OnFailure(func(ctx context.Context, job string, err error) {
			if aerr := a.Slack.Alert(ctx, fmt.Sprintf("Job %s failed: %v", job, err)); aerr != nil {
				logger.Warn("job failure alert not sent", "job", job, "error", aerr)
			}
		})
	}

	return a, nil
}

// Close releases device sessions and the database pool.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
