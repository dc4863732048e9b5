// Package bridge talks to terminals through the HTTP bridge service that runs
// beside each time clock and exposes its attendance log and user table.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/model"
	"axiapac.com/timeclock/security"
)

const (
	DefaultTimeout = 10 * time.Second
	tokenTTL       = time.Hour
)

type Options struct {
	// Secret signs the bearer token presented to each bridge.
	Secret  []byte
	Timeout time.Duration
	// Scheme defaults to http.
	Scheme string
}

// Gateway implements device.Gateway over the bridge HTTP API.
type Gateway struct {
	opts Options
}

func NewGateway(opts Options) *Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Scheme == "" {
		opts.Scheme = "http"
	}
	return &Gateway{opts: opts}
}

// newClient gives each session its own connection pool so closing one
// session leaves the keep-alive connections of other devices alone.
func (g *Gateway) newClient() *http.Client {
	return &http.Client{
		Timeout:   g.opts.Timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
}

func (g *Gateway) Timeout() time.Duration {
	return g.opts.Timeout
}

// Connect mints a token for the terminal and checks the bridge answers.
func (g *Gateway) Connect(ctx context.Context, d model.Device) (device.Conn, error) {
	token, err := security.CreateServiceToken("timeclock-sync", security.ServiceClaims{
		DeviceID: d.ID,
		Role:     "sync",
	}, g.opts.Secret, tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create bridge token: %w", err)
	}

	base := url.URL{Scheme: g.opts.Scheme, Host: device.Address(d)}
	c := &conn{
		device: d,
		t:      newTransport(base.String(), token, g.newClient()),
	}
	if err := c.ping(ctx); err != nil {
		return nil, c.wrap(err)
	}
	return c, nil
}

type conn struct {
	device model.Device
	t      *transport
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// Disconnect drops the idle connections of this session only.
func (c *conn) Disconnect() error {
	c.t.httpClient.CloseIdleConnections()
	return nil
}

func (c *conn) ping(ctx context.Context) error {
	return c.t.do(ctx, http.MethodGet, "/api/v1/ping", nil, nil)
}

func (c *conn) TestConnection(ctx context.Context) bool {
	return c.ping(ctx) == nil
}

func (c *conn) FetchAttendance(ctx context.Context) ([]device.DevicePunch, error) {
	var res envelope[[]logEntry]
	if err := c.t.do(ctx, http.MethodGet, "/api/v1/attendance", nil, &res); err != nil {
		return nil, c.wrap(err)
	}

	punches := make([]device.DevicePunch, 0, len(res.Data))
	for _, e := range res.Data {
		p, err := e.toPunch()
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", c.device.ID, err)
		}
		punches = append(punches, p)
	}
	return punches, nil
}

func (c *conn) FetchUsers(ctx context.Context) ([]device.DeviceUser, error) {
	var res envelope[[]device.DeviceUser]
	if err := c.t.do(ctx, http.MethodGet, "/api/v1/users", nil, &res); err != nil {
		return nil, c.wrap(err)
	}
	return res.Data, nil
}

func (c *conn) PushUser(ctx context.Context, u device.DeviceUser) (device.OperationResult, error) {
	var res device.OperationResult
	if err := c.t.do(ctx, http.MethodPost, "/api/v1/users", u, &res); err != nil {
		return device.OperationResult{}, c.wrap(err)
	}
	return res, nil
}

func (c *conn) DeleteUser(ctx context.Context, deviceUserID string) (device.OperationResult, error) {
	var res device.OperationResult
	path := "/api/v1/users/" + url.PathEscape(deviceUserID)
	if err := c.t.do(ctx, http.MethodDelete, path, nil, &res); err != nil {
		return device.OperationResult{}, c.wrap(err)
	}
	return res, nil
}

// wrap turns transport failures and 503/504 replies into connectivity
// errors. Other replies from the bridge are passed through.
func (c *conn) wrap(err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code != http.StatusServiceUnavailable && se.Code != http.StatusGatewayTimeout {
			return err
		}
	} else {
		var ue *url.Error
		if !errors.As(err, &ue) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}
	return &device.ConnectivityError{DeviceID: c.device.ID, Address: device.Address(c.device), Err: err}
}
