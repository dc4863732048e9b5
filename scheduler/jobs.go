package scheduler

import (
	"context"
	"time"

	"axiapac.com/timeclock/attendance"
	"axiapac.com/timeclock/devicesync"
)

const (
	JobAttendancePull   = "attendance-pull"
	JobComputeYesterday = "compute-yesterday"
	JobPendingPunches   = "pending-punches"
	JobStaffPush        = "staff-push"
	JobInactiveCleanup  = "inactive-cleanup"
)

// Specs holds the cron expression of each job. An empty value disables the
// cadence; the job stays available for manual runs.
type Specs struct {
	AttendancePull   string `yaml:"attendancePull"`
	ComputeYesterday string `yaml:"computeYesterday"`
	PendingPunches   string `yaml:"pendingPunches"`
	StaffPush        string `yaml:"staffPush"`
	InactiveCleanup  string `yaml:"inactiveCleanup"`
}

func DefaultSpecs() Specs {
	return Specs{
		AttendancePull:   "0 * * * *",
		ComputeYesterday: "0 1 * * *",
		PendingPunches:   "*/30 * * * *",
		StaffPush:        "0 */6 * * *",
		InactiveCleanup:  "0 2 * * *",
	}
}

type AttendanceRunner interface {
	ComputeYesterday(ctx context.Context, now time.Time) (attendance.BatchResult, error)
	ProcessPendingPunches(ctx context.Context) (attendance.BatchResult, error)
}

type DeviceRunner interface {
	SyncAllDevices(ctx context.Context) (devicesync.BatchSyncResult, error)
	SyncStaffToAllDevices(ctx context.Context) (devicesync.StaffBatchResult, error)
	RemoveInactiveStaffFromAllDevices(ctx context.Context) (devicesync.CleanupSummary, error)
}

// Jobs binds the two cores to their cadences.
func Jobs(engine AttendanceRunner, devices DeviceRunner, specs Specs, now func() time.Time) []Job {
	return []Job{
		{
			Name:    JobAttendancePull,
			Spec:    specs.AttendancePull,
			Timeout: 50 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := devices.SyncAllDevices(ctx)
				return err
			},
		},
		{
			Name:    JobComputeYesterday,
			Spec:    specs.ComputeYesterday,
			Timeout: 2 * time.Hour,
			Run: func(ctx context.Context) error {
				_, err := engine.ComputeYesterday(ctx, now())
				return err
			},
		},
		{
			Name:    JobPendingPunches,
			Spec:    specs.PendingPunches,
			Timeout: 25 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := engine.ProcessPendingPunches(ctx)
				return err
			},
		},
		{
			Name: JobStaffPush,
			Spec: specs.StaffPush,
			Run: func(ctx context.Context) error {
				_, err := devices.SyncStaffToAllDevices(ctx)
				return err
			},
		},
		{
			Name: JobInactiveCleanup,
			Spec: specs.InactiveCleanup,
			Run: func(ctx context.Context) error {
				_, err := devices.RemoveInactiveStaffFromAllDevices(ctx)
				return err
			},
		},
	}
}
