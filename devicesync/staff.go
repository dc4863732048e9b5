package devicesync

import (
	"context"
	"fmt"
	"strconv"

	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/model"
)

// SyncStaffToAllDevices pushes staff to every active device.
func (o *Orchestrator) SyncStaffToAllDevices(ctx context.Context) (StaffBatchResult, error) {
	devices, err := o.stores.Devices.ListActive(ctx)
	if err != nil {
		return StaffBatchResult{}, fmt.Errorf("failed to list devices: %w", err)
	}

	o.logger.Info("staff sync started", "devices", len(devices))
	results, notAttempted := forEachDevice(ctx, o.cfg.Concurrency, devices, o.syncStaff)

	batch := StaffBatchResult{Devices: results, NotAttempted: notAttempted}
	for _, r := range results {
		tally(r.Status, &batch.Succeeded, &batch.Failed, &batch.Skipped)
	}
	o.logger.Info("staff sync completed",
		"devices", len(devices),
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
		"skipped", batch.Skipped,
	)
	if batch.Failed > 0 {
		o.notify(ctx, fmt.Sprintf("Staff sync: %d of %d devices failed", batch.Failed, len(devices)))
	}
	return batch, nil
}

// SyncStaffToDevice pushes every active staff member of the device's
// location to the device.
func (o *Orchestrator) SyncStaffToDevice(ctx context.Context, deviceID int32) StaffSyncResult {
	d, err := o.loadDevice(ctx, deviceID)
	if err != nil {
		result := StaffSyncResult{DeviceID: deviceID, Status: model.SyncFailed, Errors: []string{err.Error()}}
		if run, rerr := o.begin(ctx, deviceID, model.SyncTypeStaff); rerr == nil {
			result.RunID = run.ID
			o.finish(ctx, run, model.SyncFailed, err)
		}
		return result
	}
	return o.syncStaff(ctx, *d)
}

func (o *Orchestrator) syncStaff(ctx context.Context, d model.Device) (result StaffSyncResult) {
	var run *model.SyncRun
	defer func() {
		if err := o.contain(ctx, recover(), d.ID, run); err != nil {
			result = StaffSyncResult{DeviceID: d.ID, Status: model.SyncFailed, Errors: []string{err.Error()}}
			if run != nil {
				result.RunID = run.ID
			}
		}
	}()

	result = StaffSyncResult{DeviceID: d.ID}
	logger := o.logger.With("deviceId", d.ID, "syncType", model.SyncTypeStaff)

	var err error
	run, err = o.begin(ctx, d.ID, model.SyncTypeStaff)
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
		staff, err := o.stores.Staff.ListActiveByLocation(actx, d.LocationID)
		if err != nil {
			return err
		}
		run.RecordsProcessed = len(staff)
		if len(staff) == 0 {
			return nil
		}
		return o.withConn(actx, d, func(conn device.Conn) error {
			for _, s := range staff {
				if actx.Err() != nil {
					return actx.Err()
				}
				created, err := o.pushStaff(actx, d, conn, s)
				switch {
				case err != nil:
					result.Failed++
					result.Errors = append(result.Errors, fmt.Sprintf("staff %d: %v", s.ID, err))
					logger.Warn("staff push failed", "staffId", s.ID, "error", err)
				case created:
					result.Created++
				default:
					result.Updated++
				}
			}
			return nil
		})
	})

	result.StaffSynced = result.Created + result.Updated
	run.RecordsSynced = result.StaffSynced
	run.RecordsFailed = result.Failed

	switch {
	case err != nil:
		result.Status = model.SyncFailed
		result.Errors = append(result.Errors, err.Error())
	case result.Failed > 0 && result.StaffSynced == 0:
		err = fmt.Errorf("all %d staff pushes failed", result.Failed)
		result.Status = model.SyncFailed
	default:
		result.Status = model.SyncSuccess
		result.Success = true
	}

	o.finish(ctx, run, result.Status, err)
	logger.Info("staff sync finished",
		"status", result.Status,
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed,
	)
	return result
}

// pushStaff writes one staff member to the device and records the
// enrollment. It reports whether the enrollment is new.
func (o *Orchestrator) pushStaff(ctx context.Context, d model.Device, conn device.Conn, s model.Staff) (bool, error) {
	var created bool
	err := guard(func() error {
		existing, err := o.stores.Enrollments.Find(ctx, d.ID, s.ID)
		if err != nil {
			return err
		}

		userID := strconv.Itoa(int(s.ID))
		if existing != nil {
			userID = existing.DeviceUserID
		}
		res, err := conn.PushUser(ctx, device.DeviceUser{
			DeviceUserID: userID,
			Name:         s.FullName(),
			CardNumber:   s.CardNumber,
		})
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("device rejected user %s: %s", userID, res.Message)
		}

		now := o.now().UTC()
		if existing == nil {
			created = true
			existing = &model.Enrollment{DeviceID: d.ID, StaffID: s.ID, DeviceUserID: userID, EnrolledAt: now}
		}
		existing.UpdatedAt = now
		return o.stores.Enrollments.Save(ctx, existing)
	})
	return created, err
}
