package device

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"axiapac.com/timeclock/model"
)

const DefaultMaxIdle = 5 * time.Minute

type pooled struct {
	conn     Conn
	lastUsed time.Time
}

// Pool keeps at most one idle session per terminal. Acquire hands the
// session out exclusively; the caller returns it with Release or drops it
// with Evict.
type Pool struct {
	gateway Gateway
	maxIdle time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	idle   map[int32]*pooled
	closed bool
}

func NewPool(gateway Gateway, maxIdle time.Duration, logger *slog.Logger) *Pool {
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	return &Pool{
		gateway: gateway,
		maxIdle: maxIdle,
		logger:  logger.With("component", "pool"),
		now:     time.Now,
		idle:    make(map[int32]*pooled),
	}
}

func (p *Pool) Gateway() Gateway {
	return p.gateway
}

// Acquire reuses the idle session of d when it is recent and still answers,
// otherwise it dials a new one.
func (p *Pool) Acquire(ctx context.Context, d model.Device) (Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	entry := p.idle[d.ID]
	delete(p.idle, d.ID)
	p.mu.Unlock()

	if entry != nil {
		if p.now().Sub(entry.lastUsed) <= p.maxIdle && entry.conn.TestConnection(ctx) {
			return entry.conn, nil
		}
		p.logger.Debug("dropping stale device session", "deviceId", d.ID)
		p.disconnect(d.ID, entry.conn)
	}

	conn, err := p.gateway.Connect(ctx, d)
	if err != nil {
		if IsConnectivityError(err) {
			return nil, err
		}
		return nil, &ConnectivityError{DeviceID: d.ID, Address: Address(d), Err: err}
	}
	return conn, nil
}

// Release parks conn as the idle session of the device.
func (p *Pool) Release(deviceID int32, conn Conn) {
	p.mu.Lock()
	if p.closed || p.idle[deviceID] != nil {
		p.mu.Unlock()
		p.disconnect(deviceID, conn)
		return
	}
	p.idle[deviceID] = &pooled{conn: conn, lastUsed: p.now()}
	p.mu.Unlock()
}

// Evict disconnects conn after a failed operation.
func (p *Pool) Evict(deviceID int32, conn Conn) {
	p.disconnect(deviceID, conn)
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Close disconnects every idle session. Acquire fails afterwards.
func (p *Pool) Close() {
	p.mu.Lock()
	idle := p.idle
	p.idle = make(map[int32]*pooled)
	p.closed = true
	p.mu.Unlock()

	for id, entry := range idle {
		p.disconnect(id, entry.conn)
	}
}

func (p *Pool) disconnect(deviceID int32, conn Conn) {
	if conn == nil {
		return
	}
	if err := conn.Disconnect(); err != nil {
		p.logger.Warn("device disconnect failed", "deviceId", deviceID, "error", err)
	}
}
