package devicesync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"axiapac.com/timeclock/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveInactiveStaffFromAllDevicesAggregates(t *testing.T) {
	f := newFixture(onlineDevice(1), onlineDevice(2), onlineDevice(3))

	staffID := int32(0)
	enrollInactive := func(deviceID int32, n int) {
		for i := 0; i < n; i++ {
			staffID++
			f.enrollments.add(deviceID, staffID, fmt.Sprintf("%d", staffID))
			f.enrollments.inactive[staffID] = true
		}
	}
	enrollInactive(1, 3)
	enrollInactive(2, 5)
	enrollInactive(3, 2)
	f.enrollments.add(1, 500, "500")
	f.script(3).dialErr = errors.New("connection refused")

	summary, err := f.orch.RemoveInactiveStaffFromAllDevices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, summary.TotalRemoved)
	assert.Equal(t, 1, summary.DevicesFailed)

	assert.Equal(t, 1, f.enrollments.count(1), "active staff stay enrolled")
	assert.Zero(t, f.enrollments.count(2))
	assert.Equal(t, 2, f.enrollments.count(3))

	failed := f.runs.byDevice(3)
	require.Len(t, failed, 1)
	assert.Equal(t, model.SyncTypeCleanup, failed[0].SyncType)
	assert.Equal(t, model.SyncFailed, failed[0].Status)
	assert.Contains(t, *failed[0].ErrorDetail, "connectivity")

	ok := f.runs.byDevice(2)
	require.Len(t, ok, 1)
	assert.Equal(t, 5, ok[0].RecordsDeleted)

	logs := f.logs.String()
	assert.Contains(t, logs, "inactive staff cleanup started")
	assert.Contains(t, logs, "totalRemoved=8")
	assert.Contains(t, logs, "devicesFailed=1")
	require.Len(t, f.notifier.messages, 1)
	assert.Contains(t, f.notifier.messages[0], "8 removed across 3 devices, 1 devices failed")
}

func TestRemoveInactiveStaffSkipsFailedDeletes(t *testing.T) {
	f := newFixture(onlineDevice(1))
	for _, id := range []int32{1, 2} {
		f.enrollments.add(1, id, fmt.Sprintf("%d", id))
		f.enrollments.inactive[id] = true
	}
	f.script(1).deleteErr = map[string]error{"1": errors.New("user locked")}

	res := f.orch.RemoveInactiveStaffFromDevice(context.Background(), 1)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, f.enrollments.count(1))
	assert.Contains(t, f.logs.String(), "inactive staff not removed")
}

func TestRemoveInactiveStaffFromAllDevicesContainsStorePanics(t *testing.T) {
	f := newFixture(onlineDevice(1), onlineDevice(2))
	for _, id := range []int32{1, 2} {
		f.enrollments.add(id, id, fmt.Sprintf("%d", id))
		f.enrollments.inactive[id] = true
	}
	f.runs.finalizePanics = map[int32]string{1: "driver bug"}

	summary, err := f.orch.RemoveInactiveStaffFromAllDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Devices, 2)
	assert.Equal(t, 1, summary.DevicesFailed)
	assert.Equal(t, 1, summary.TotalRemoved)
	assert.Equal(t, model.SyncFailed, summary.Devices[0].Status)
	assert.Equal(t, []string{"panic: driver bug"}, summary.Devices[0].Errors)
	assert.Equal(t, model.SyncSuccess, f.runs.byDevice(2)[0].Status)
}

func TestRemoveInactiveStaffFromAllDevicesWithNoDevices(t *testing.T) {
	offline := onlineDevice(1)
	offline.Online = false
	f := newFixture(offline)

	summary, err := f.orch.RemoveInactiveStaffFromAllDevices(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalRemoved)
	assert.Empty(t, summary.Devices)
	assert.Empty(t, f.runs.byDevice(1))

	logs := f.logs.String()
	assert.Contains(t, logs, "inactive staff cleanup started")
	assert.Contains(t, logs, "inactive staff cleanup completed")
	assert.Len(t, f.notifier.messages, 1)
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newFixture(onlineDevice(1))
	f.orch.SyncDevice(context.Background(), 1)
	f.orch.RemoveInactiveStaffFromDevice(context.Background(), 1)

	runs, err := f.orch.History(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, model.SyncTypeCleanup, runs[0].SyncType)
}
