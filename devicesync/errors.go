package devicesync

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/model"
)

var ErrDeviceNotFound = errors.New("device not found")

// PanicError carries a panic recovered inside a sync unit.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// guard runs fn and converts a panic into a *PanicError.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// contain turns a panic recovered from a whole per-device unit into an
// error. A run still open is finalized as FAILED. It returns nil when
// recovered is nil.
func (o *Orchestrator) contain(ctx context.Context, recovered any, deviceID int32, run *model.SyncRun) error {
	if recovered == nil {
		return nil
	}
	err := &PanicError{Value: recovered, Stack: debug.Stack()}
	o.logger.Error("device sync panicked", "deviceId", deviceID, "error", err)
	if run != nil && !run.IsFinal() {
		ferr := guard(func() error {
			o.finish(ctx, run, model.SyncFailed, err)
			return nil
		})
		if ferr != nil {
			o.logger.Error("failed to finalize sync run", "runId", run.ID, "deviceId", deviceID, "error", ferr)
		}
	}
	return err
}

// describe returns the message and detail stored on a failed run.
func describe(err error) (string, string) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe.Error(), string(pe.Stack)
	}
	kind := "error"
	switch {
	case device.IsConnectivityError(err):
		kind = "connectivity"
	case errors.Is(err, ErrDeviceNotFound):
		kind = "not_found"
	}
	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	return err.Error(), kind + ": " + strings.Join(chain, " > ")
}
