package store

import (
	"context"
	"fmt"
	"time"

	"axiapac.com/timeclock/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PunchEvents struct {
	db *gorm.DB
}

func (s *PunchEvents) ListForStaffAndDate(ctx context.Context, staffID int32, date time.Time) ([]model.PunchEvent, error) {
	var punches []model.PunchEvent
	err := s.db.WithContext(ctx).
		Where("staff_id = ? AND timestamp >= ? AND timestamp < ?", staffID, date, date.AddDate(0, 0, 1)).
		Order("timestamp").
		Find(&punches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch punches: %w", err)
	}
	return punches, nil
}

// ListUnprocessed returns up to limit unprocessed punches in (timestamp, id)
// order, starting after the cursor when one is given.
func (s *PunchEvents) ListUnprocessed(ctx context.Context, after *model.PunchCursor, limit int) ([]model.PunchEvent, error) {
	q := s.db.WithContext(ctx).Where("processed = ?", false)
	if after != nil {
		q = q.Where("timestamp > ? OR (timestamp = ? AND id > ?)", after.Timestamp, after.Timestamp, after.ID)
	}

	var punches []model.PunchEvent
	err := q.Order("timestamp").Order("id").
		Limit(limit).
		Find(&punches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unprocessed punches: %w", err)
	}
	return punches, nil
}

func (s *PunchEvents) MarkProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&model.PunchEvent{}).
		Where("id IN ?", ids).
		Update("processed", true).Error
}

// InsertNew stores the punches that are not already recorded and returns how
// many rows were inserted. Readings already present are left untouched.
func (s *PunchEvents) InsertNew(ctx context.Context, punches []model.PunchEvent) (int, error) {
	if len(punches) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&punches, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to insert punches: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
