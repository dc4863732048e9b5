package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PunchType string

const (
	PunchIn       PunchType = "IN"
	PunchOut      PunchType = "OUT"
	PunchBreakOut PunchType = "BREAK_OUT"
	PunchBreakIn  PunchType = "BREAK_IN"
)

// PunchEvent is one raw reading captured by a terminal. Rows are never edited
// after insert apart from the Processed flag.
type PunchEvent struct {
	ID               string    `gorm:"primaryKey;type:char(36)" json:"id"`
	StaffID          int32     `gorm:"column:staff_id;not null;index:idx_punch_staff_time,priority:1" json:"staffId"`
	DeviceID         *int32    `gorm:"column:device_id;uniqueIndex:idx_punch_device_reading,priority:1" json:"deviceId,omitempty"`
	DeviceUserID     string    `gorm:"column:device_user_id;type:varchar(32);uniqueIndex:idx_punch_device_reading,priority:2" json:"deviceUserId"`
	Timestamp        time.Time `gorm:"column:timestamp;not null;index:idx_punch_staff_time,priority:2;uniqueIndex:idx_punch_device_reading,priority:3" json:"timestamp"`
	PunchType        PunchType `gorm:"column:punch_type;type:varchar(16);not null;uniqueIndex:idx_punch_device_reading,priority:4" json:"punchType"`
	VerificationMode string    `gorm:"column:verification_mode;type:varchar(32)" json:"verificationMode"`
	Processed        bool      `gorm:"column:processed;not null;default:false;index" json:"processed"`
	CreatedAt        time.Time `gorm:"<-:create" json:"createdAt"`
}

func (PunchEvent) TableName() string {
	return "punch_events"
}

func (p *PunchEvent) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsIn reports whether the punch opens a working period.
func (p PunchEvent) IsIn() bool {
	return p.PunchType == PunchIn
}

// IsOut reports whether the punch closes a working period.
func (p PunchEvent) IsOut() bool {
	return p.PunchType == PunchOut
}

// PunchCursor is a position in the (timestamp, id) order of punches.
type PunchCursor struct {
	Timestamp time.Time
	ID        string
}

// After reports whether p sorts after c.
func (c PunchCursor) After(p PunchEvent) bool {
	return p.Timestamp.After(c.Timestamp) || (p.Timestamp.Equal(c.Timestamp) && p.ID > c.ID)
}

func (p PunchEvent) Cursor() PunchCursor {
	return PunchCursor{Timestamp: p.Timestamp, ID: p.ID}
}
