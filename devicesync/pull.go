package devicesync

import (
	"context"
	"fmt"

	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/model"
)

// SyncAllDevices pulls attendance from every active device. Device failures
// are reported in the result; the batch itself only fails when the device
// list cannot be loaded.
func (o *Orchestrator) SyncAllDevices(ctx context.Context) (BatchSyncResult, error) {
	devices, err := o.stores.Devices.ListActive(ctx)
	if err != nil {
		return BatchSyncResult{}, fmt.Errorf("failed to list devices: %w", err)
	}

	o.logger.Info("attendance sync started", "devices", len(devices))
	results, notAttempted := forEachDevice(ctx, o.cfg.Concurrency, devices, o.syncDevice)

	batch := BatchSyncResult{Devices: results, NotAttempted: notAttempted}
	for _, r := range results {
		tally(r.Status, &batch.Succeeded, &batch.Failed, &batch.Skipped)
	}
	o.logger.Info("attendance sync completed",
		"devices", len(devices),
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
		"skipped", batch.Skipped,
		"notAttempted", batch.NotAttempted,
	)
	if batch.Failed > 0 {
		o.notify(ctx, fmt.Sprintf("Attendance sync: %d of %d devices failed", batch.Failed, len(devices)))
	}
	return batch, nil
}

// SyncDevice pulls the attendance log of one device.
func (o *Orchestrator) SyncDevice(ctx context.Context, deviceID int32) SyncResult {
	d, err := o.loadDevice(ctx, deviceID)
	if err != nil {
		return o.failedPull(ctx, deviceID, err)
	}
	return o.syncDevice(ctx, *d)
}

// failedPull records a run for a device that could not even be loaded.
func (o *Orchestrator) failedPull(ctx context.Context, deviceID int32, cause error) SyncResult {
	result := SyncResult{DeviceID: deviceID, Status: model.SyncFailed, Errors: []string{cause.Error()}}
	run, err := o.begin(ctx, deviceID, model.SyncTypeAttendance)
	if err != nil {
		o.logger.Error("failed to create sync run", "deviceId", deviceID, "error", err)
		return result
	}
	result.RunID = run.ID
	o.finish(ctx, run, model.SyncFailed, cause)
	return result
}

func (o *Orchestrator) syncDevice(ctx context.Context, d model.Device) (result SyncResult) {
	var run *model.SyncRun
	defer func() {
		if err := o.contain(ctx, recover(), d.ID, run); err != nil {
			result = SyncResult{DeviceID: d.ID, Status: model.SyncFailed, Errors: []string{err.Error()}}
			if run != nil {
				result.RunID = run.ID
			}
		}
	}()

	result = SyncResult{DeviceID: d.ID}
	logger := o.logger.With("deviceId", d.ID, "syncType", model.SyncTypeAttendance)

	var err error
	run, err = o.begin(ctx, d.ID, model.SyncTypeAttendance)
	if err != nil {
		logger.Error("failed to create sync run", "error", err)
		result.Status = model.SyncFailed
		result.Errors = []string{err.Error()}
		return result
	}
	result.RunID = run.ID

	if !d.Online {
		result.Status = model.SyncSkipped
		result.Errors = []string{o.skip(ctx, run, &d)}
		return result
	}

	actx, cancel := o.attemptContext(ctx)
	defer cancel()

	err = guard(func() error {
		return o.withConn(actx, d, func(conn device.Conn) error {
			return o.pull(actx, d, conn, run)
		})
	})
	if err != nil {
		logger.Warn("attendance sync failed", "error", err)
		o.finish(ctx, run, model.SyncFailed, err)
		result.Status = model.SyncFailed
		result.Errors = []string{err.Error()}
		return result
	}

	o.finish(ctx, run, model.SyncSuccess, nil)
	logger.Info("attendance sync completed",
		"fetched", run.RecordsProcessed,
		"synced", run.RecordsSynced,
		"unmatched", run.RecordsFailed,
	)
	result.Status = model.SyncSuccess
	result.Success = true
	result.RecordsFetched = run.RecordsProcessed
	result.RecordsSynced = run.RecordsSynced
	result.RecordsFailed = run.RecordsFailed
	return result
}

// pull fetches the terminal log, maps device users to staff and stores the
// punches not seen before. Counts are written onto run.
func (o *Orchestrator) pull(ctx context.Context, d model.Device, conn device.Conn, run *model.SyncRun) error {
	fetchedAt := o.now().UTC()
	raw, err := conn.FetchAttendance(ctx)
	if err != nil {
		return err
	}
	run.RecordsProcessed = len(raw)
	if len(raw) == 0 {
		return nil
	}

	if o.cfg.Archive != nil {
		if err := o.cfg.Archive.ArchivePunches(ctx, d, fetchedAt, raw); err != nil {
			o.logger.Warn("failed to archive raw punches", "deviceId", d.ID, "error", err)
		}
	}

	enrollments, err := o.stores.Enrollments.ListForDevice(ctx, d.ID)
	if err != nil {
		return err
	}
	staffByUser := make(map[string]int32, len(enrollments))
	for _, e := range enrollments {
		staffByUser[e.DeviceUserID] = e.StaffID
	}

	deviceID := d.ID
	punches := make([]model.PunchEvent, 0, len(raw))
	unknown := make(map[string]int)
	for _, p := range raw {
		staffID, ok := staffByUser[p.DeviceUserID]
		if !ok {
			unknown[p.DeviceUserID]++
			run.RecordsFailed++
			continue
		}
		punches = append(punches, model.PunchEvent{
			StaffID:          staffID,
			DeviceID:         &deviceID,
			DeviceUserID:     p.DeviceUserID,
			Timestamp:        p.Timestamp.UTC(),
			PunchType:        p.PunchType,
			VerificationMode: p.VerificationMode,
		})
	}
	if len(unknown) > 0 {
		o.logger.Warn("punches from unknown device users", "deviceId", d.ID, "users", unknown)
	}

	inserted, err := o.stores.Punches.InsertNew(ctx, punches)
	if err != nil {
		return err
	}
	run.RecordsSynced = inserted
	return nil
}
