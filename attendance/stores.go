package attendance

import (
	"context"
	"time"

	"axiapac.com/timeclock/model"
)

// PunchEventStore reads raw punches. Dates are UTC midnights.
type PunchEventStore interface {
	ListForStaffAndDate(ctx context.Context, staffID int32, date time.Time) ([]model.PunchEvent, error)
	ListUnprocessed(ctx context.Context, after *model.PunchCursor, limit int) ([]model.PunchEvent, error)
	MarkProcessed(ctx context.Context, ids []string) error
}

type AttendanceRecordStore interface {
	// Upsert inserts or updates by (StaffID, AttendanceDate), filling ID and
	// CreatedAt on the record.
	Upsert(ctx context.Context, rec *model.AttendanceRecord) error
	// FindByStaffAndDate returns nil, nil when no record exists.
	FindByStaffAndDate(ctx context.Context, staffID int32, date time.Time) (*model.AttendanceRecord, error)
	QueryByAnomalyFlag(ctx context.Context, flag model.AnomalyFlag, from *time.Time) ([]model.AttendanceRecord, error)
	QueryFlagged(ctx context.Context, from *time.Time) ([]model.AttendanceRecord, error)
	QueryByDateRange(ctx context.Context, staffID *int32, from, to time.Time) ([]model.AttendanceRecord, error)
}

// ShiftPolicyResolver returns nil, nil when the staff member has no policy.
type ShiftPolicyResolver interface {
	Resolve(ctx context.Context, staffID int32) (*model.ShiftPolicy, error)
}

type StaffDirectory interface {
	// Get returns nil, nil when the staff member does not exist.
	Get(ctx context.Context, staffID int32) (*model.Staff, error)
	ListActive(ctx context.Context) ([]model.Staff, error)
}
