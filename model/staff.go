package model

import "time"

type Staff struct {
	ID              int32      `gorm:"primaryKey;column:id" json:"id"`
	Code            string     `gorm:"column:code;type:varchar(32);uniqueIndex" json:"code"`
	FirstName       string     `gorm:"column:first_name" json:"firstName"`
	Surname         string     `gorm:"column:surname" json:"surname"`
	CardNumber      string     `gorm:"column:card_number" json:"cardNumber"`
	LocationID      int32      `gorm:"column:location_id;index" json:"locationId"`
	Active          bool       `gorm:"column:active;not null" json:"active"`
	TerminationDate *time.Time `gorm:"column:termination_date;type:date" json:"terminationDate,omitempty"`
}

func (Staff) TableName() string {
	return "staff"
}

func (s Staff) FullName() string {
	if s.Surname == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.Surname
}

// Enrollment links a staff member to the user slot they occupy on a device.
type Enrollment struct {
	ID           int32     `gorm:"primaryKey;column:id" json:"id"`
	DeviceID     int32     `gorm:"column:device_id;not null;uniqueIndex:idx_enrollment_device_staff,priority:1;index:idx_enrollment_device_user,priority:1" json:"deviceId"`
	StaffID      int32     `gorm:"column:staff_id;not null;uniqueIndex:idx_enrollment_device_staff,priority:2" json:"staffId"`
	DeviceUserID string    `gorm:"column:device_user_id;type:varchar(32);not null;index:idx_enrollment_device_user,priority:2" json:"deviceUserId"`
	EnrolledAt   time.Time `gorm:"column:enrolled_at;autoCreateTime;<-:create" json:"enrolledAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Enrollment) TableName() string {
	return "device_enrollments"
}
