package store

import (
	"context"
	"fmt"

	"axiapac.com/timeclock/model"
	"gorm.io/gorm"
)

type StaffMembers struct {
	db *gorm.DB
}

func (s *StaffMembers) Get(ctx context.Context, staffID int32) (*model.Staff, error) {
	var staff model.Staff
	found, err := first(s.db.WithContext(ctx).Where("id = ?", staffID), &staff)
	if err != nil || !found {
		return nil, err
	}
	return &staff, nil
}

func (s *StaffMembers) ListActive(ctx context.Context) ([]model.Staff, error) {
	var staff []model.Staff
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&staff).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch staff: %w", err)
	}
	return staff, nil
}

// ListActiveByLocation returns active, non-terminated staff at a location.
func (s *StaffMembers) ListActiveByLocation(ctx context.Context, locationID int32) ([]model.Staff, error) {
	var staff []model.Staff
	err := s.db.WithContext(ctx).
		Where("active = ? AND termination_date IS NULL AND location_id = ?", true, locationID).
		Order("id").
		Find(&staff).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff for location %d: %w", locationID, err)
	}
	return staff, nil
}
