// Package devicesync pulls attendance from time clock terminals, pushes staff
// to them and removes staff who have left. Every attempt against a device is
// audited as a SyncRun and a failing device never stops the others.
package devicesync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/model"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency    = 4
	DefaultDeadlineFactor = 4
	finalizeTimeout       = 10 * time.Second
)

type Config struct {
	// Concurrency bounds the devices handled at once.
	Concurrency int
	// DeadlineFactor scales the gateway timeout into the budget of one
	// device attempt.
	DeadlineFactor int
	// Notifier and Archive are optional.
	Notifier Notifier
	Archive  Archive
}

type Orchestrator struct {
	stores Stores
	pool   *device.Pool
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func New(stores Stores, pool *device.Pool, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.DeadlineFactor <= 0 {
		cfg.DeadlineFactor = DefaultDeadlineFactor
	}
	return &Orchestrator{
		stores: stores,
		pool:   pool,
		cfg:    cfg,
		logger: logger.With("component", "devicesync"),
		now:    time.Now,
	}
}

// attemptContext bounds one device attempt.
func (o *Orchestrator) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	budget := o.pool.Gateway().Timeout() * time.Duration(o.cfg.DeadlineFactor)
	return context.WithTimeout(ctx, budget)
}

// begin inserts the IN_PROGRESS run of an attempt.
func (o *Orchestrator) begin(ctx context.Context, deviceID int32, kind model.SyncType) (*model.SyncRun, error) {
	run := &model.SyncRun{
		DeviceID:  deviceID,
		SyncType:  kind,
		Status:    model.SyncInProgress,
		StartedAt: o.now().UTC(),
	}
	if err := o.stores.Runs.Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// finish finalizes run with status. It writes through a context detached
// from the attempt so a cancelled attempt is still recorded.
func (o *Orchestrator) finish(ctx context.Context, run *model.SyncRun, status model.SyncStatus, cause error) {
	done := o.now().UTC()
	run.Status = status
	run.CompletedAt = &done
	if cause != nil {
		message, detail := describe(cause)
		run.ErrorMessage = &message
		run.ErrorDetail = &detail
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := o.stores.Runs.Finalize(wctx, run); err != nil {
		o.logger.Error("failed to finalize sync run",
			"runId", run.ID,
			"deviceId", run.DeviceID,
			"syncType", run.SyncType,
			"error", err,
		)
	}
}

// skip finalizes run as SKIPPED for an offline device.
func (o *Orchestrator) skip(ctx context.Context, run *model.SyncRun, d *model.Device) string {
	reason := "device offline, no heartbeat recorded"
	if d.LastHeartbeatAt != nil {
		reason = fmt.Sprintf("device offline since last heartbeat at %s", d.LastHeartbeatAt.UTC().Format(time.RFC3339))
	}
	msg := reason
	run.ErrorMessage = &msg
	o.finish(ctx, run, model.SyncSkipped, nil)
	o.logger.Info("device sync skipped", "deviceId", d.ID, "syncType", run.SyncType, "reason", reason)
	return reason
}

// loadDevice returns ErrDeviceNotFound for an unknown id.
func (o *Orchestrator) loadDevice(ctx context.Context, deviceID int32) (*model.Device, error) {
	d, err := o.stores.Devices.Get(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device %d: %w", deviceID, err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, deviceID)
	}
	return d, nil
}

// withConn runs fn on a pooled session. The session goes back to the pool
// when fn succeeds and is evicted otherwise.
func (o *Orchestrator) withConn(ctx context.Context, d model.Device, fn func(device.Conn) error) error {
	conn, err := o.pool.Acquire(ctx, d)
	if err != nil {
		return err
	}
	if err := guard(func() error { return fn(conn) }); err != nil {
		o.pool.Evict(d.ID, conn)
		return err
	}
	o.pool.Release(d.ID, conn)

	if err := o.stores.Devices.RecordHeartbeat(ctx, d.ID, o.now().UTC()); err != nil {
		o.logger.Warn("failed to record heartbeat", "deviceId", d.ID, "error", err)
	}
	return nil
}

// forEachDevice runs fn for every device on the bounded worker pool. Once ctx
// is done no further device is started; the count of those is returned.
func forEachDevice[R any](ctx context.Context, limit int, devices []model.Device, fn func(context.Context, model.Device) R) ([]R, int) {
	slots := make([]*R, len(devices))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, d := range devices {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			r := fn(ctx, d)
			slots[i] = &r
			return nil
		})
	}
	_ = g.Wait()

	results := make([]R, 0, len(devices))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, len(devices) - len(results)
}

func (o *Orchestrator) notify(ctx context.Context, text string) {
	if o.cfg.Notifier == nil {
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := o.cfg.Notifier.Notify(wctx, text); err != nil {
		o.logger.Warn("failed to send notification", "error", err)
	}
}

// History returns the latest runs recorded for a device.
func (o *Orchestrator) History(ctx context.Context, deviceID int32, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return o.stores.Runs.ListByDevice(ctx, deviceID, limit)
}
