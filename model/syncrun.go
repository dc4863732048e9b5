package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncType string

const (
	SyncTypeAttendance SyncType = "ATTENDANCE"
	SyncTypeStaff      SyncType = "STAFF"
	SyncTypeCleanup    SyncType = "CLEANUP"
)

type SyncStatus string

const (
	SyncInProgress SyncStatus = "IN_PROGRESS"
	SyncSuccess    SyncStatus = "SUCCESS"
	SyncFailed     SyncStatus = "FAILED"
	SyncSkipped    SyncStatus = "SKIPPED"
)

// SyncRun is the audit row of one attempt against one device. A run is
// inserted as IN_PROGRESS and finalized once; later attempts get new rows.
type SyncRun struct {
	ID               string     `gorm:"primaryKey;type:char(36)" json:"id"`
	DeviceID         int32      `gorm:"column:device_id;not null;index" json:"deviceId"`
	SyncType         SyncType   `gorm:"column:sync_type;type:varchar(16);not null" json:"syncType"`
	Status           SyncStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	StartedAt        time.Time  `gorm:"column:started_at;not null" json:"startedAt"`
	CompletedAt      *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
	RecordsProcessed int        `gorm:"column:records_processed" json:"recordsProcessed"`
	RecordsSynced    int        `gorm:"column:records_synced" json:"recordsSynced"`
	RecordsDeleted   int        `gorm:"column:records_deleted" json:"recordsDeleted"`
	RecordsFailed    int        `gorm:"column:records_failed" json:"recordsFailed"`
	ErrorMessage     *string    `gorm:"column:error_message;type:text" json:"errorMessage,omitempty"`
	ErrorDetail      *string    `gorm:"column:error_detail;type:text" json:"errorDetail,omitempty"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}

func (r *SyncRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *SyncRun) IsFinal() bool {
	return r.Status != SyncInProgress
}
