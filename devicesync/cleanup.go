package devicesync

import (
	"context"
	"fmt"

	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/model"
	"axiapac.com/timeclock/utils"
)

// RemoveInactiveStaffFromAllDevices removes inactive and terminated staff
// from every online active device and reports the totals.
func (o *Orchestrator) RemoveInactiveStaffFromAllDevices(ctx context.Context) (CleanupSummary, error) {
	o.logger.Info("inactive staff cleanup started")

	all, err := o.stores.Devices.ListActive(ctx)
	if err != nil {
		o.logger.Error("inactive staff cleanup aborted", "error", err)
		return CleanupSummary{}, fmt.Errorf("failed to list devices: %w", err)
	}
	devices := utils.Filter(all, func(d model.Device) bool { return d.Online })

	results, notAttempted := forEachDevice(ctx, o.cfg.Concurrency, devices, o.removeInactive)

	summary := CleanupSummary{Devices: results, NotAttempted: notAttempted}
	for _, r := range results {
		summary.TotalRemoved += r.Removed
		if !r.Success {
			summary.DevicesFailed++
		}
	}

	o.logger.Info("inactive staff cleanup completed",
		"devices", len(devices),
		"totalRemoved", summary.TotalRemoved,
		"devicesFailed", summary.DevicesFailed,
		"notAttempted", summary.NotAttempted,
	)
	o.notify(ctx, fmt.Sprintf("Inactive staff cleanup: %d removed across %d devices, %d devices failed",
		summary.TotalRemoved, len(devices), summary.DevicesFailed))
	return summary, nil
}

// RemoveInactiveStaffFromDevice deletes the device users of inactive or
// terminated staff and their enrollments.
func (o *Orchestrator) RemoveInactiveStaffFromDevice(ctx context.Context, deviceID int32) CleanupResult {
	d, err := o.loadDevice(ctx, deviceID)
	if err != nil {
		result := CleanupResult{DeviceID: deviceID, Status: model.SyncFailed, Errors: []string{err.Error()}}
		if run, rerr := o.begin(ctx, deviceID, model.SyncTypeCleanup); rerr == nil {
			result.RunID = run.ID
			o.finish(ctx, run, model.SyncFailed, err)
		}
		return result
	}
	return o.removeInactive(ctx, *d)
}

func (o *Orchestrator) removeInactive(ctx context.Context, d model.Device) (result CleanupResult) {
	var run *model.SyncRun
	defer func() {
		if err := o.contain(ctx, recover(), d.ID, run); err != nil {
			result = CleanupResult{DeviceID: d.ID, Status: model.SyncFailed, Errors: []string{err.Error()}}
			if run != nil {
				result.RunID = run.ID
			}
		}
	}()

	result = CleanupResult{DeviceID: d.ID}
	logger := o.logger.With("deviceId", d.ID, "syncType", model.SyncTypeCleanup)

	var err error
	run, err = o.begin(ctx, d.ID, model.SyncTypeCleanup)
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
		stale, err := o.stores.Enrollments.ListInactive(actx, d.ID)
		if err != nil {
			return err
		}
		run.RecordsProcessed = len(stale)
		if len(stale) == 0 {
			return nil
		}
		return o.withConn(actx, d, func(conn device.Conn) error {
			for _, e := range stale {
				if actx.Err() != nil {
					return actx.Err()
				}
				if err := o.removeEnrollment(actx, conn, e); err != nil {
					result.Failed++
					result.Errors = append(result.Errors, fmt.Sprintf("staff %d: %v", e.StaffID, err))
					logger.Warn("inactive staff not removed", "staffId", e.StaffID, "deviceUserId", e.DeviceUserID, "error", err)
					continue
				}
				result.Removed++
			}
			return nil
		})
	})

	run.RecordsDeleted = result.Removed
	run.RecordsFailed = result.Failed
	if err != nil {
		result.Status = model.SyncFailed
		result.Errors = append(result.Errors, err.Error())
		logger.Warn("inactive staff cleanup failed", "error", err)
	} else {
		result.Status = model.SyncSuccess
		result.Success = true
	}

	o.finish(ctx, run, result.Status, err)
	logger.Info("inactive staff cleanup finished", "status", result.Status, "removed", result.Removed, "failed", result.Failed)
	return result
}

func (o *Orchestrator) removeEnrollment(ctx context.Context, conn device.Conn, e model.Enrollment) error {
	return guard(func() error {
		res, err := conn.DeleteUser(ctx, e.DeviceUserID)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("device refused to delete user %s: %s", e.DeviceUserID, res.Message)
		}
		return o.stores.Enrollments.Delete(ctx, e.ID)
	})
}
