package devicesync

import (
	"context"
	"time"

	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/model"
)

type DeviceStore interface {
	// Get returns nil, nil when the device does not exist.
	Get(ctx context.Context, deviceID int32) (*model.Device, error)
	ListActive(ctx context.Context) ([]model.Device, error)
	RecordHeartbeat(ctx context.Context, deviceID int32, at time.Time) error
}

type StaffStore interface {
	ListActiveByLocation(ctx context.Context, locationID int32) ([]model.Staff, error)
}

type EnrollmentStore interface {
	// Find returns nil, nil when the staff member is not enrolled.
	Find(ctx context.Context, deviceID, staffID int32) (*model.Enrollment, error)
	ListForDevice(ctx context.Context, deviceID int32) ([]model.Enrollment, error)
	ListInactive(ctx context.Context, deviceID int32) ([]model.Enrollment, error)
	Save(ctx context.Context, e *model.Enrollment) error
	Delete(ctx context.Context, id int32) error
}

// PunchWriter returns the number of punches actually inserted.
type PunchWriter interface {
	InsertNew(ctx context.Context, punches []model.PunchEvent) (int, error)
}

type SyncRunStore interface {
	Create(ctx context.Context, run *model.SyncRun) error
	Finalize(ctx context.Context, run *model.SyncRun) error
	ListByDevice(ctx context.Context, deviceID int32, limit int) ([]model.SyncRun, error)
}

// Notifier receives batch summaries.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Archive keeps a copy of each raw batch fetched from a terminal.
type Archive interface {
	ArchivePunches(ctx context.Context, d model.Device, fetchedAt time.Time, punches []device.DevicePunch) error
}

type Stores struct {
	Devices     DeviceStore
	Staff       StaffStore
	Enrollments EnrollmentStore
	Punches     PunchWriter
	Runs        SyncRunStore
}
