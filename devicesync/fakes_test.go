package devicesync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/model"
)

type memDevices struct {
	mu         sync.Mutex
	devices    []model.Device
	heartbeats map[int32]time.Time
}

func (m *memDevices) Get(_ context.Context, id int32) (*model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, nil
}

func (m *memDevices) ListActive(context.Context) ([]model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Device
	for _, d := range m.devices {
		if d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDevices) RecordHeartbeat(_ context.Context, id int32, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.heartbeats == nil {
		m.heartbeats = make(map[int32]time.Time)
	}
	m.heartbeats[id] = at
	return nil
}

type memStaff struct {
	staff []model.Staff
}

func (m *memStaff) ListActiveByLocation(_ context.Context, locationID int32) ([]model.Staff, error) {
	var out []model.Staff
	for _, s := range m.staff {
		if s.Active && s.TerminationDate == nil && s.LocationID == locationID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memEnrollments struct {
	mu       sync.Mutex
	seq      int32
	rows     map[int32]model.Enrollment
	inactive map[int32]bool // staff ids
}

func newMemEnrollments() *memEnrollments {
	return &memEnrollments{rows: make(map[int32]model.Enrollment), inactive: make(map[int32]bool)}
}

func (m *memEnrollments) add(deviceID, staffID int32, userID string) {
	_ = m.Save(context.Background(), &model.Enrollment{DeviceID: deviceID, StaffID: staffID, DeviceUserID: userID})
}

func (m *memEnrollments) Find(_ context.Context, deviceID, staffID int32) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows {
		if e.DeviceID == deviceID && e.StaffID == staffID {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (m *memEnrollments) ListForDevice(_ context.Context, deviceID int32) ([]model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Enrollment
	for id := int32(1); id <= m.seq; id++ {
		if e, ok := m.rows[id]; ok && e.DeviceID == deviceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEnrollments) ListInactive(ctx context.Context, deviceID int32) ([]model.Enrollment, error) {
	all, _ := m.ListForDevice(ctx, deviceID)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Enrollment
	for _, e := range all {
		if m.inactive[e.StaffID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEnrollments) Save(_ context.Context, e *model.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == 0 {
		m.seq++
		e.ID = m.seq
	}
	m.rows[e.ID] = *e
	return nil
}

func (m *memEnrollments) Delete(_ context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memEnrollments) count(deviceID int32) int {
	list, _ := m.ListForDevice(context.Background(), deviceID)
	return len(list)
}

type memPunches struct {
	mu   sync.Mutex
	rows map[string]model.PunchEvent
}

func (m *memPunches) InsertNew(_ context.Context, punches []model.PunchEvent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = make(map[string]model.PunchEvent)
	}
	n := 0
	for _, p := range punches {
		key := fmt.Sprintf("%d|%s|%s|%s", *p.DeviceID, p.DeviceUserID, p.Timestamp.Format(time.RFC3339), p.PunchType)
		if _, ok := m.rows[key]; ok {
			continue
		}
		m.rows[key] = p
		n++
	}
	return n, nil
}

type memRuns struct {
	mu   sync.Mutex
	runs []*model.SyncRun
	seq  int

	// createPanics and finalizePanics make the store panic for a device.
	createPanics   map[int32]string
	finalizePanics map[int32]string
}

func (m *memRuns) Create(_ context.Context, run *model.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.createPanics[run.DeviceID]; ok {
		panic(msg)
	}
	m.seq++
	run.ID = fmt.Sprintf("run-%d", m.seq)
	stored := *run
	m.runs = append(m.runs, &stored)
	return nil
}

func (m *memRuns) Finalize(ctx context.Context, run *model.SyncRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.finalizePanics[run.DeviceID]; ok {
		panic(msg)
	}
	for _, r := range m.runs {
		if r.ID == run.ID {
			if r.IsFinal() {
				return errors.New("already finalized")
			}
			*r = *run
			return nil
		}
	}
	return errors.New("unknown run")
}

func (m *memRuns) ListByDevice(_ context.Context, deviceID int32, limit int) ([]model.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SyncRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.runs[i].DeviceID == deviceID {
			out = append(out, *m.runs[i])
		}
	}
	return out, nil
}

// byDevice returns every run of a device in creation order.
func (m *memRuns) byDevice(deviceID int32) []model.SyncRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SyncRun
	for _, r := range m.runs {
		if r.DeviceID == deviceID {
			out = append(out, *r)
		}
	}
	return out
}

// scriptedDevice describes how a fake terminal behaves.
type scriptedDevice struct {
	dialErr   error
	fetchErr  error
	panicMsg  string
	punches   []device.DevicePunch
	pushErr   map[string]error
	deleteErr map[string]error
	block     bool
}

type fakeGateway struct {
	mu      sync.Mutex
	timeout time.Duration
	script  map[int32]*scriptedDevice
	dials   map[int32]int
	pushed  []device.DeviceUser
	deleted []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		timeout: time.Second,
		script:  make(map[int32]*scriptedDevice),
		dials:   make(map[int32]int),
	}
}

func (g *fakeGateway) Timeout() time.Duration { return g.timeout }

func (g *fakeGateway) Connect(_ context.Context, d model.Device) (device.Conn, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dials[d.ID]++
	s := g.script[d.ID]
	if s == nil {
		s = &scriptedDevice{}
	}
	if s.dialErr != nil {
		return nil, s.dialErr
	}
	return &fakeConn{g: g, s: s}, nil
}

func (g *fakeGateway) dialCount(id int32) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dials[id]
}

type fakeConn struct {
	g *fakeGateway
	s *scriptedDevice
}

func (c *fakeConn) Disconnect() error                   { return nil }
func (c *fakeConn) TestConnection(context.Context) bool { return true }

func (c *fakeConn) FetchAttendance(ctx context.Context) ([]device.DevicePunch, error) {
	n := c.g.inFlight.Add(1)
	defer c.g.inFlight.Add(-1)
	for {
		peak := c.g.maxInFlight.Load()
		if n <= peak || c.g.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	if c.g.delay > 0 {
		time.Sleep(c.g.delay)
	}
	if c.s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.s.panicMsg != "" {
		panic(c.s.panicMsg)
	}
	if c.s.fetchErr != nil {
		return nil, c.s.fetchErr
	}
	return c.s.punches, nil
}

func (c *fakeConn) FetchUsers(context.Context) ([]device.DeviceUser, error) { return nil, nil }

func (c *fakeConn) PushUser(_ context.Context, u device.DeviceUser) (device.OperationResult, error) {
	if err := c.s.pushErr[u.DeviceUserID]; err != nil {
		return device.OperationResult{}, err
	}
	c.g.mu.Lock()
	c.g.pushed = append(c.g.pushed, u)
	c.g.mu.Unlock()
	return device.OperationResult{Success: true}, nil
}

func (c *fakeConn) DeleteUser(_ context.Context, userID string) (device.OperationResult, error) {
	if err := c.s.deleteErr[userID]; err != nil {
		return device.OperationResult{}, err
	}
	c.g.mu.Lock()
	c.g.deleted = append(c.g.deleted, userID)
	c.g.mu.Unlock()
	return device.OperationResult{Success: true}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	devices     *memDevices
	staff       *memStaff
	enrollments *memEnrollments
	punches     *memPunches
	runs        *memRuns
	gateway     *fakeGateway
	notifier    *recordingNotifier
	logs        *syncBuffer
	orch        *Orchestrator
}

func newFixture(devices ...model.Device) *fixture {
	f := &fixture{
		devices:     &memDevices{devices: devices},
		staff:       &memStaff{},
		enrollments: newMemEnrollments(),
		punches:     &memPunches{},
		runs:        &memRuns{},
		gateway:     newFakeGateway(),
		notifier:    &recordingNotifier{},
		logs:        &syncBuffer{},
	}
	logger := slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	pool := device.NewPool(f.gateway, time.Minute, logger)
	f.orch = New(Stores{
		Devices:     f.devices,
		Staff:       f.staff,
		Enrollments: f.enrollments,
		Punches:     f.punches,
		Runs:        f.runs,
	}, pool, Config{Concurrency: 2, Notifier: f.notifier}, logger)
	return f
}

func (f *fixture) script(id int32) *scriptedDevice {
	s := f.gateway.script[id]
	if s == nil {
		s = &scriptedDevice{}
		f.gateway.script[id] = s
	}
	return s
}

func onlineDevice(id int32) model.Device {
	return model.Device{ID: id, Name: fmt.Sprintf("dev-%d", id), Host: "10.0.0.1", Port: 4370, LocationID: 10, Active: true, Online: true}
}

func punch(userID, clock string, kind model.PunchType) device.DevicePunch {
	ts, err := time.Parse(time.RFC3339, "2024-01-15T"+clock+":00Z")
	if err != nil {
		panic(err)
	}
	return device.DevicePunch{DeviceUserID: userID, Timestamp: ts, PunchType: kind, VerificationMode: "fingerprint"}
}
