package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	ran []string
	err error
}

func (r *recordingRunner) RunNow(_ context.Context, name string) error {
	r.ran = append(r.ran, name)
	return r.err
}

func newHandler(r JobRunner) *Handler {
	return &Handler{runner: r, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: `{"job":"attendance-pull"}`, want: "attendance-pull"},
		{name: "eventbridge", raw: `{"source":"aws.events","detail-type":"Scheduled Event","detail":{"job":"compute-yesterday"}}`, want: "compute-yesterday"},
		{name: "empty detail", raw: `{"source":"aws.events","detail":{}}`, wantErr: true},
		{name: "no job", raw: `{}`, wantErr: true},
		{name: "not json", raw: `nope`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parseEvent(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.Job)
		})
	}
}

func TestHandleRequest(t *testing.T) {
	runner := &recordingRunner{}
	res, err := newHandler(runner).HandleRequest(context.Background(), json.RawMessage(`{"job":"staff-push"}`))
	require.NoError(t, err)
	assert.Equal(t, "completed", res.Status)
	assert.Equal(t, []string{"staff-push"}, runner.ran)

	runner = &recordingRunner{err: errors.New("device store unavailable")}
	res, err = newHandler(runner).HandleRequest(context.Background(), json.RawMessage(`{"job":"staff-push"}`))
	assert.Error(t, err)
	assert.Equal(t, "failed", res.Status)
	assert.Equal(t, "device store unavailable", res.Error)
}
