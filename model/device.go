package model

import "time"

type Device struct {
	ID              int32      `gorm:"primaryKey;column:id" json:"id"`
	Name            string     `gorm:"column:name" json:"name"`
	SerialNumber    string     `gorm:"column:serial_number;type:varchar(64);uniqueIndex" json:"serialNumber"`
	Host            string     `gorm:"column:host" json:"host"`
	Port            int        `gorm:"column:port" json:"port"`
	LocationID      int32      `gorm:"column:location_id;index" json:"locationId"`
	Active          bool       `gorm:"column:active;not null" json:"active"`
	Online          bool       `gorm:"column:online;not null" json:"online"`
	LastHeartbeatAt *time.Time `gorm:"column:last_heartbeat_at" json:"lastHeartbeatAt,omitempty"`
}

func (Device) TableName() string {
	return "devices"
}
