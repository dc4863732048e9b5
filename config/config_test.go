package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

type fakeSSM struct {
	value string
	err   error
	asked string
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.asked = aws.ToString(in.Name)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(f.value)}}, nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timeclock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithDSN(t *testing.T) {
	l := &Loader{LookupEnv: env(map[string]string{"DSN": "root:pw@tcp(db:3306)/timeclock?parseTime=true"})}
	cfg, err := l.Load(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "root:pw@tcp(db:3306)/timeclock?parseTime=true", cfg.Database.GetDSN())
	assert.Equal(t, 4, cfg.Devices.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Devices.Timeout)
	assert.Equal(t, "0 * * * *", cfg.Schedules.AttendancePull)
	assert.Equal(t, "0 2 * * *", cfg.Schedules.InactiveCleanup)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
database:
  host: db.internal
  username: svc
  password: secret
  name: timeclock
  maxConnections: 20
devices:
  timeout: 3s
  concurrency: 8
attendance:
  minimumHours: 4
schedules:
  attendancePull: "*/15 * * * *"
log:
  format: json
`)
	l := &Loader{LookupEnv: env(map[string]string{
		"TIMECLOCK_SYNC_CONCURRENCY": "2",
		"TIMECLOCK_LOG_LEVEL":        "debug",
	})}
	cfg, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "svc:secret@tcp(db.internal:3306)/timeclock?parseTime=true", cfg.Database.GetDSN())
	assert.Equal(t, 20, cfg.Database.MaxConnections)
	assert.Equal(t, 3*time.Second, cfg.Devices.Timeout)
	assert.Equal(t, 2, cfg.Devices.Concurrency)
	assert.Equal(t, 4.0, cfg.Attendance.MinimumHours)
	assert.Equal(t, "*/15 * * * *", cfg.Schedules.AttendancePull)
	assert.Equal(t, "0 1 * * *", cfg.Schedules.ComputeYesterday)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMergesSSM(t *testing.T) {
	ssmClient := &fakeSSM{value: "database:\n  dsn: from-ssm\nslack:\n  token: xoxb\n  infoChannel: C1\n"}
	l := &Loader{
		LookupEnv: env(map[string]string{"TIMECLOCK_SSM_PARAMETER": "/timeclock/prod"}),
		SSM:       ssmClient,
	}
	cfg, err := l.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/timeclock/prod", ssmClient.asked)
	assert.Equal(t, "from-ssm", cfg.Database.DSN)
	assert.Equal(t, "C1", cfg.Slack.InfoChannel)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		ssm  *fakeSSM
		file string
		want string
	}{
		{name: "missing database", vars: map[string]string{}, want: "DSN"},
		{name: "bad concurrency", vars: map[string]string{"DSN": "x", "TIMECLOCK_SYNC_CONCURRENCY": "many"}, want: "TIMECLOCK_SYNC_CONCURRENCY"},
		{name: "concurrency out of range", vars: map[string]string{"DSN": "x", "TIMECLOCK_SYNC_CONCURRENCY": "0"}, want: "Concurrency"},
		{name: "bad log format", vars: map[string]string{"DSN": "x", "TIMECLOCK_LOG_FORMAT": "xml"}, want: "Format"},
		{name: "slack token without channel", vars: map[string]string{"DSN": "x", "SLACK_BOT_TOKEN": "xoxb"}, want: "InfoChannel"},
		{name: "bad secret", vars: map[string]string{"DSN": "x", "TIMECLOCK_DEVICE_SECRET": "not base64!"}, want: "Secret"},
		{name: "ssm failure", vars: map[string]string{"DSN": "x", "TIMECLOCK_SSM_PARAMETER": "/p"}, ssm: &fakeSSM{err: errors.New("access denied")}, want: "access denied"},
		{name: "bad yaml", vars: map[string]string{"DSN": "x"}, file: "database: [", want: "failed to parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Loader{LookupEnv: env(tt.vars)}
			if tt.ssm != nil {
				l.SSM = tt.ssm
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			_, err := l.Load(context.Background(), path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "deviceId", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"deviceId":3`)
}
