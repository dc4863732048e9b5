package store

import (
	"context"
	"errors"
	"fmt"

	"axiapac.com/timeclock/model"
	"gorm.io/gorm"
)

var ErrRunFinalized = errors.New("sync run already finalized")

type SyncRuns struct {
	db *gorm.DB
}

func (s *SyncRuns) Create(ctx context.Context, run *model.SyncRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

// Finalize writes the outcome of an in-progress run. A run is finalized once;
// a second call returns ErrRunFinalized and leaves the row untouched.
func (s *SyncRuns) Finalize(ctx context.Context, run *model.SyncRun) error {
	res := s.db.WithContext(ctx).
		Model(&model.SyncRun{}).
		Where("id = ? AND status = ?", run.ID, model.SyncInProgress).
		Updates(map[string]any{
			"status":            run.Status,
			"completed_at":      run.CompletedAt,
			"records_processed": run.RecordsProcessed,
			"records_synced":    run.RecordsSynced,
			"records_deleted":   run.RecordsDeleted,
			"records_failed":    run.RecordsFailed,
			"error_message":     run.ErrorMessage,
			"error_detail":      run.ErrorDetail,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to finalize sync run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRunFinalized
	}
	return nil
}

// ListByDevice returns the latest runs of a device, newest first.
func (s *SyncRuns) ListByDevice(ctx context.Context, deviceID int32, limit int) ([]model.SyncRun, error) {
	var runs []model.SyncRun
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync runs: %w", err)
	}
	return runs, nil
}
