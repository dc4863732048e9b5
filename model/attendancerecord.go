package model

import (
	"time"

	"gorm.io/datatypes"
)

type AttendanceStatus string

const (
	StatusPresent    AttendanceStatus = "PRESENT"
	StatusAbsent     AttendanceStatus = "ABSENT"
	StatusIncomplete AttendanceStatus = "INCOMPLETE"
)

type AnomalyFlag string

const (
	AnomalyMissingCheckin        AnomalyFlag = "missing_checkin"
	AnomalyMissingCheckout       AnomalyFlag = "missing_checkout"
	AnomalyCheckoutBeforeCheckin AnomalyFlag = "checkout_before_checkin"
	AnomalyOddPunchCount         AnomalyFlag = "odd_punch_count"
	AnomalyShortShift            AnomalyFlag = "short_shift"
	AnomalyLateArrival           AnomalyFlag = "late_arrival"
	AnomalyEarlyDeparture        AnomalyFlag = "early_departure"
)

// AnomalyOrder is the canonical order flags are stored in.
var AnomalyOrder = []AnomalyFlag{
	AnomalyMissingCheckin,
	AnomalyMissingCheckout,
	AnomalyCheckoutBeforeCheckin,
	AnomalyOddPunchCount,
	AnomalyShortShift,
	AnomalyLateArrival,
	AnomalyEarlyDeparture,
}

type AttendanceRecord struct {
	ID                int32                            `gorm:"primaryKey;column:id" json:"id"`
	StaffID           int32                            `gorm:"column:staff_id;not null;uniqueIndex:idx_attendance_staff_date,priority:1" json:"staffId"`
	AttendanceDate    time.Time                        `gorm:"column:attendance_date;type:date;not null;uniqueIndex:idx_attendance_staff_date,priority:2" json:"attendanceDate"`
	ClockIn           *time.Time                       `gorm:"column:clock_in" json:"clockIn,omitempty"`
	ClockOut          *time.Time                       `gorm:"column:clock_out" json:"clockOut,omitempty"`
	TotalHours        float64                          `gorm:"column:total_hours;type:decimal(10,2)" json:"totalHours"`
	RegularHours      float64                          `gorm:"column:regular_hours;type:decimal(10,2)" json:"regularHours"`
	OvertimeHours     float64                          `gorm:"column:overtime_hours;type:decimal(10,2)" json:"overtimeHours"`
	BreakDuration     int32                            `gorm:"column:break_duration" json:"breakDuration"`
	LateMinutes       int32                            `gorm:"column:late_minutes" json:"lateMinutes"`
	EarlyLeaveMinutes int32                            `gorm:"column:early_leave_minutes" json:"earlyLeaveMinutes"`
	Status            AttendanceStatus                 `gorm:"column:status;type:varchar(16);not null" json:"status"`
	HasAnomalies      bool                             `gorm:"column:has_anomalies;not null;index" json:"hasAnomalies"`
	AnomalyFlags      datatypes.JSONSlice[AnomalyFlag] `gorm:"column:anomaly_flags" json:"anomalyFlags"`
	MinimumHours      float64                          `gorm:"column:minimum_hours;type:decimal(10,2)" json:"minimumHours"`
	// ExpectedStart and ExpectedEnd hold the "15:04" overrides the record was
	// computed with; empty means the shift policy applied.
	ExpectedStart string    `gorm:"column:expected_start;type:varchar(5)" json:"expectedStart,omitempty"`
	ExpectedEnd   string    `gorm:"column:expected_end;type:varchar(5)" json:"expectedEnd,omitempty"`
	CreatedAt     time.Time `gorm:"<-:create" json:"createdAt"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

func (r *AttendanceRecord) HasFlag(flag AnomalyFlag) bool {
	for _, f := range r.AnomalyFlags {
		if f == flag {
			return true
		}
	}
	return false
}
