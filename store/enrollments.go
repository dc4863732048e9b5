package store

import (
	"context"
	"fmt"

	"axiapac.com/timeclock/model"
	"gorm.io/gorm"
)

type Enrollments struct {
	db *gorm.DB
}

func (s *Enrollments) Find(ctx context.Context, deviceID, staffID int32) (*model.Enrollment, error) {
	var e model.Enrollment
	found, err := first(s.db.WithContext(ctx).Where("device_id = ? AND staff_id = ?", deviceID, staffID), &e)
	if err != nil || !found {
		return nil, err
	}
	return &e, nil
}

func (s *Enrollments) ListForDevice(ctx context.Context, deviceID int32) ([]model.Enrollment, error) {
	var list []model.Enrollment
	if err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch enrollments: %w", err)
	}
	return list, nil
}

// ListInactive returns the device's enrollments whose staff member is inactive
// or has a termination date.
func (s *Enrollments) ListInactive(ctx context.Context, deviceID int32) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := s.db.WithContext(ctx).
		Joins("JOIN staff ON staff.id = device_enrollments.staff_id").
		Where("device_enrollments.device_id = ?", deviceID).
		Where("staff.active = ? OR staff.termination_date IS NOT NULL", false).
		Order("device_enrollments.id").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inactive enrollments: %w", err)
	}
	return list, nil
}

func (s *Enrollments) Save(ctx context.Context, e *model.Enrollment) error {
	return s.db.WithContext(ctx).Save(e).Error
}

func (s *Enrollments) Delete(ctx context.Context, id int32) error {
	return s.db.WithContext(ctx).Delete(&model.Enrollment{}, id).Error
}
