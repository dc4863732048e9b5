// Package device defines the contract of a time clock terminal gateway and
// the connection registry the sync orchestrator draws from.
package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"axiapac.com/timeclock/model"
)

// DevicePunch is one attendance log entry as read from a terminal.
type DevicePunch struct {
	DeviceUserID     string          `json:"userId"`
	Timestamp        time.Time       `json:"timestamp"`
	PunchType        model.PunchType `json:"punchType"`
	VerificationMode string          `json:"verificationMode"`
}

// DeviceUser is a user slot on a terminal.
type DeviceUser struct {
	DeviceUserID string `json:"userId"`
	Name         string `json:"name"`
	CardNumber   string `json:"cardNumber,omitempty"`
	Privilege    int    `json:"privilege"`
}

type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Gateway dials terminals. Timeout is the per-call budget of one terminal
// operation; callers scale it to bound a whole sync attempt.
type Gateway interface {
	Connect(ctx context.Context, d model.Device) (Conn, error)
	Timeout() time.Duration
}

// Conn is an open session with one terminal.
type Conn interface {
	Disconnect() error
	TestConnection(ctx context.Context) bool
	FetchAttendance(ctx context.Context) ([]DevicePunch, error)
	FetchUsers(ctx context.Context) ([]DeviceUser, error)
	PushUser(ctx context.Context, u DeviceUser) (OperationResult, error)
	DeleteUser(ctx context.Context, deviceUserID string) (OperationResult, error)
}

// ConnectivityError reports that a terminal could not be reached in time.
type ConnectivityError struct {
	DeviceID int32
	Address  string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("device %d (%s) unreachable: %v", e.DeviceID, e.Address, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

func IsConnectivityError(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// Address is the host:port a terminal listens on.
func Address(d model.Device) string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}
