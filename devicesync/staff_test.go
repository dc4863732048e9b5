package devicesync

import (
	"context"
	"errors"
	"testing"

	"axiapac.com/timeclock/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncStaffToDevice(t *testing.T) {
	f := newFixture(onlineDevice(1))
	f.staff.staff = []model.Staff{
		{ID: 1, FirstName: "Ann", Surname: "Lee", LocationID: 10, Active: true},
		{ID: 2, FirstName: "Ben", LocationID: 10, Active: true},
		{ID: 3, FirstName: "Cat", LocationID: 10, Active: true},
		{ID: 4, FirstName: "Dan", LocationID: 20, Active: true},
		{ID: 5, FirstName: "Eve", LocationID: 10, Active: false},
	}
	f.enrollments.add(1, 1, "A1")
	f.script(1).pushErr = map[string]error{"3": errors.New("user table full")}

	res := f.orch.SyncStaffToDevice(context.Background(), 1)
	assert.Equal(t, model.SyncSuccess, res.Status)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.StaffSynced)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "user table full")

	existing, err := f.enrollments.Find(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "A1", existing.DeviceUserID, "existing slot is reused")

	created, err := f.enrollments.Find(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "2", created.DeviceUserID)

	missing, err := f.enrollments.Find(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Nil(t, missing)

	runs := f.runs.byDevice(1)
	require.Len(t, runs, 1)
	assert.Equal(t, model.SyncTypeStaff, runs[0].SyncType)
	assert.Equal(t, 3, runs[0].RecordsProcessed)
	assert.Equal(t, 2, runs[0].RecordsSynced)
	assert.Equal(t, 1, runs[0].RecordsFailed)
	assert.Equal(t, "Ann Lee", f.gateway.pushed[0].Name)
}

func TestSyncStaffToDeviceAllFailed(t *testing.T) {
	f := newFixture(onlineDevice(1))
	f.staff.staff = []model.Staff{{ID: 1, FirstName: "Ann", LocationID: 10, Active: true}}
	f.script(1).pushErr = map[string]error{"1": errors.New("busy")}

	res := f.orch.SyncStaffToDevice(context.Background(), 1)
	assert.Equal(t, model.SyncFailed, res.Status)
	assert.Equal(t, 1, res.Failed)
}

func TestSyncStaffToAllDevicesSkipsOffline(t *testing.T) {
	offline := onlineDevice(2)
	offline.Online = false
	f := newFixture(onlineDevice(1), offline)
	f.staff.staff = []model.Staff{{ID: 1, FirstName: "Ann", LocationID: 10, Active: true}}

	batch, err := f.orch.SyncStaffToAllDevices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Skipped)
	assert.Zero(t, f.gateway.dialCount(2))
	assert.Equal(t, model.SyncSkipped, f.runs.byDevice(2)[0].Status)
}

func TestSyncStaffToAllDevicesContainsStorePanics(t *testing.T) {
	f := newFixture(onlineDevice(1), onlineDevice(2))
	f.staff.staff = []model.Staff{{ID: 1, FirstName: "Ann", LocationID: 10, Active: true}}
	f.runs.createPanics = map[int32]string{1: "driver bug"}

	batch, err := f.orch.SyncStaffToAllDevices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, model.SyncSuccess, f.runs.byDevice(2)[0].Status)
}
