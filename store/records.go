package store

import (
	"context"
	"fmt"
	"time"

	"axiapac.com/timeclock/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceRecords struct {
	db *gorm.DB
}

var computedColumns = []string{
	"clock_in", "clock_out",
	"total_hours", "regular_hours", "overtime_hours",
	"break_duration", "late_minutes", "early_leave_minutes",
	"status", "has_anomalies", "anomaly_flags", "minimum_hours",
	"expected_start", "expected_end",
}

// Upsert writes rec keyed by (staff_id, attendance_date). A concurrent insert
// of the same key turns into an update of the computed columns.
func (s *AttendanceRecords) Upsert(ctx context.Context, rec *model.AttendanceRecord) error {
	db := s.db.WithContext(ctx)
	if rec.ID != 0 {
		if err := db.Select(computedColumns).Updates(rec).Error; err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		return nil
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "staff_id"}, {Name: "attendance_date"}},
		DoUpdates: clause.AssignmentColumns(computedColumns),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to insert attendance record: %w", err)
	}

	// the id reported after an upsert is not reliable on every dialect
	var stored model.AttendanceRecord
	if _, err := first(db.Select("id", "created_at").
		Where("staff_id = ? AND attendance_date = ?", rec.StaffID, rec.AttendanceDate), &stored); err != nil {
		return fmt.Errorf("failed to reload attendance record: %w", err)
	}
	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	return nil
}

func (s *AttendanceRecords) FindByStaffAndDate(ctx context.Context, staffID int32, date time.Time) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	found, err := first(s.db.WithContext(ctx).Where("staff_id = ? AND attendance_date = ?", staffID, date), &rec)
	if err != nil || !found {
		return nil, err
	}
	return &rec, nil
}

func (s *AttendanceRecords) QueryByAnomalyFlag(ctx context.Context, flag model.AnomalyFlag, from *time.Time) ([]model.AttendanceRecord, error) {
	q := s.db.WithContext(ctx).Where(datatypes.JSONArrayQuery("anomaly_flags").Contains(string(flag)))
	return s.find(since(q, from))
}

func (s *AttendanceRecords) QueryFlagged(ctx context.Context, from *time.Time) ([]model.AttendanceRecord, error) {
	q := s.db.WithContext(ctx).Where("has_anomalies = ?", true)
	return s.find(since(q, from))
}

func (s *AttendanceRecords) QueryByDateRange(ctx context.Context, staffID *int32, from, to time.Time) ([]model.AttendanceRecord, error) {
	q := s.db.WithContext(ctx).Where("attendance_date >= ? AND attendance_date <= ?", from, to)
	if staffID != nil {
		q = q.Where("staff_id = ?", *staffID)
	}
	return s.find(q)
}

func (s *AttendanceRecords) find(q *gorm.DB) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	if err := q.Order("attendance_date, staff_id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	return recs, nil
}

func since(q *gorm.DB, from *time.Time) *gorm.DB {
	if from == nil {
		return q
	}
	return q.Where("attendance_date >= ?", *from)
}
