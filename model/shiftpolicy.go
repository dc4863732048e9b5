package model

const (
	DefaultRequiredHours              = 8.0
	DefaultGracePeriodMinutes         = 15
	DefaultEarlyLeaveThresholdMinutes = 15
	DefaultBreakMinutes               = 30
	// Gross hours above which the default (or non-automatic) break applies.
	BreakThresholdHours = 6.0
)

// ShiftPolicy is the working-hours configuration resolved for one staff member.
// StartTime and EndTime are "15:04" strings; an EndTime before StartTime means
// the shift finishes on the following day.
type ShiftPolicy struct {
	ID                         int32   `gorm:"primaryKey;column:id" json:"id"`
	StaffID                    int32   `gorm:"column:staff_id;uniqueIndex;not null" json:"staffId"`
	StartTime                  string  `gorm:"column:start_time;type:varchar(8)" json:"startTime"`
	EndTime                    string  `gorm:"column:end_time;type:varchar(8)" json:"endTime"`
	RequiredHours              float64 `gorm:"column:required_hours;type:decimal(10,2)" json:"requiredHours"`
	BreakDuration              *int32  `gorm:"column:break_duration" json:"breakDuration,omitempty"`
	AutoDeductBreak            bool    `gorm:"column:auto_deduct_break;not null" json:"autoDeductBreak"`
	GracePeriodMinutes         *int32  `gorm:"column:grace_period_minutes" json:"gracePeriodMinutes,omitempty"`
	EarlyLeaveThresholdMinutes *int32  `gorm:"column:early_leave_threshold_minutes" json:"earlyLeaveThresholdMinutes,omitempty"`
}

func (ShiftPolicy) TableName() string {
	return "shift_policies"
}

func (p *ShiftPolicy) Grace() int32 {
	if p == nil || p.GracePeriodMinutes == nil {
		return DefaultGracePeriodMinutes
	}
	return *p.GracePeriodMinutes
}

func (p *ShiftPolicy) EarlyLeaveThreshold() int32 {
	if p == nil || p.EarlyLeaveThresholdMinutes == nil {
		return DefaultEarlyLeaveThresholdMinutes
	}
	return *p.EarlyLeaveThresholdMinutes
}

func (p *ShiftPolicy) Required() float64 {
	if p == nil || p.RequiredHours <= 0 {
		return DefaultRequiredHours
	}
	return p.RequiredHours
}
