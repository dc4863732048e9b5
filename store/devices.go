package store

import (
	"context"
	"fmt"
	"time"

	"axiapac.com/timeclock/model"
	"gorm.io/gorm"
)

type Devices struct {
	db *gorm.DB
}

func (s *Devices) Get(ctx context.Context, deviceID int32) (*model.Device, error) {
	var d model.Device
	found, err := first(s.db.WithContext(ctx).Where("id = ?", deviceID), &d)
	if err != nil || !found {
		return nil, err
	}
	return &d, nil
}

func (s *Devices) ListActive(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}
	return devices, nil
}

// RecordHeartbeat marks the device online as of at.
func (s *Devices) RecordHeartbeat(ctx context.Context, deviceID int32, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", deviceID).
		Updates(map[string]any{"online": true, "last_heartbeat_at": at}).Error
}
