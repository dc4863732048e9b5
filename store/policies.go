package store

import (
	"context"
	"fmt"

	"axiapac.com/timeclock/model"
	"gorm.io/gorm"
)

type ShiftPolicies struct {
	db *gorm.DB
}

// Resolve returns the staff member's policy, or nil when none is configured.
func (s *ShiftPolicies) Resolve(ctx context.Context, staffID int32) (*model.ShiftPolicy, error) {
	var p model.ShiftPolicy
	found, err := first(s.db.WithContext(ctx).Where("staff_id = ?", staffID), &p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift policy: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}
