package devicesync

import "axiapac.com/timeclock/model"

// SyncResult is the outcome of one attendance pull.
type SyncResult struct {
	DeviceID       int32            `json:"deviceId"`
	RunID          string           `json:"runId"`
	Status         model.SyncStatus `json:"status"`
	Success        bool             `json:"success"`
	RecordsFetched int              `json:"recordsFetched"`
	RecordsSynced  int              `json:"recordsSynced"`
	RecordsFailed  int              `json:"recordsFailed"`
	Errors         []string         `json:"errors,omitempty"`
}

type BatchSyncResult struct {
	Devices      []SyncResult `json:"devices"`
	Succeeded    int          `json:"succeeded"`
	Failed       int          `json:"failed"`
	Skipped      int          `json:"skipped"`
	NotAttempted int          `json:"notAttempted"`
}

// StaffSyncResult is the outcome of pushing a location's staff to a device.
type StaffSyncResult struct {
	DeviceID    int32            `json:"deviceId"`
	RunID       string           `json:"runId"`
	Status      model.SyncStatus `json:"status"`
	Success     bool             `json:"success"`
	StaffSynced int              `json:"staffSynced"`
	Created     int              `json:"created"`
	Updated     int              `json:"updated"`
	Failed      int              `json:"failed"`
	Errors      []string         `json:"errors,omitempty"`
}

type StaffBatchResult struct {
	Devices      []StaffSyncResult `json:"devices"`
	Succeeded    int               `json:"succeeded"`
	Failed       int               `json:"failed"`
	Skipped      int               `json:"skipped"`
	NotAttempted int               `json:"notAttempted"`
}

// CleanupResult is the outcome of removing inactive staff from one device.
type CleanupResult struct {
	DeviceID int32            `json:"deviceId"`
	RunID    string           `json:"runId"`
	Status   model.SyncStatus `json:"status"`
	Success  bool             `json:"success"`
	Removed  int              `json:"removed"`
	Failed   int              `json:"failed"`
	Errors   []string         `json:"errors,omitempty"`
}

type CleanupSummary struct {
	Devices       []CleanupResult `json:"devices"`
	TotalRemoved  int             `json:"totalRemoved"`
	DevicesFailed int             `json:"devicesFailed"`
	NotAttempted  int             `json:"notAttempted"`
}

func tally(status model.SyncStatus, succeeded, failed, skipped *int) {
	switch status {
	case model.SyncSuccess:
		*succeeded++
	case model.SyncSkipped:
		*skipped++
	default:
		*failed++
	}
}
