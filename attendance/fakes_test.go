package attendance

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"axiapac.com/timeclock/model"
	"axiapac.com/timeclock/utils"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memPunches struct {
	mu      sync.Mutex
	punches []model.PunchEvent
}

func (m *memPunches) add(staffID int32, ts time.Time, kind model.PunchType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.punches = append(m.punches, model.PunchEvent{
		ID:        ts.Format(time.RFC3339) + string(kind) + string(rune('a'+staffID)),
		StaffID:   staffID,
		Timestamp: ts,
		PunchType: kind,
	})
}

func (m *memPunches) ListForStaffAndDate(_ context.Context, staffID int32, date time.Time) ([]model.PunchEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PunchEvent
	for _, p := range m.punches {
		if p.StaffID == staffID && utils.DateOf(p.Timestamp).Equal(date) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPunches) ListUnprocessed(_ context.Context, after *model.PunchCursor, limit int) ([]model.PunchEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PunchEvent
	for _, p := range m.punches {
		if !p.Processed && (after == nil || after.After(p)) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPunches) MarkProcessed(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for i := range m.punches {
		if set[m.punches[i].ID] {
			m.punches[i].Processed = true
		}
	}
	return nil
}

func (m *memPunches) unprocessed() int {
	n, _ := m.ListUnprocessed(context.Background(), nil, 1<<20)
	return len(n)
}

type recordKey struct {
	staffID int32
	date    time.Time
}

type memRecords struct {
	mu      sync.Mutex
	nextID  int32
	records map[recordKey]model.AttendanceRecord
	upserts int
}

func newMemRecords() *memRecords {
	return &memRecords{records: make(map[recordKey]model.AttendanceRecord)}
}

func (m *memRecords) Upsert(_ context.Context, rec *model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey{rec.StaffID, rec.AttendanceDate}
	if existing, ok := m.records[key]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		m.nextID++
		rec.ID = m.nextID
		rec.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	m.records[key] = *rec
	m.upserts++
	return nil
}

func (m *memRecords) FindByStaffAndDate(_ context.Context, staffID int32, date time.Time) (*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey{staffID, date}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memRecords) query(pred func(model.AttendanceRecord) bool) []model.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AttendanceRecord
	for _, r := range m.records {
		if pred(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func onOrAfter(from *time.Time, d time.Time) bool {
	return from == nil || !d.Before(*from)
}

func (m *memRecords) QueryByAnomalyFlag(_ context.Context, flag model.AnomalyFlag, from *time.Time) ([]model.AttendanceRecord, error) {
	return m.query(func(r model.AttendanceRecord) bool { return r.HasFlag(flag) && onOrAfter(from, r.AttendanceDate) }), nil
}

func (m *memRecords) QueryFlagged(_ context.Context, from *time.Time) ([]model.AttendanceRecord, error) {
	return m.query(func(r model.AttendanceRecord) bool { return r.HasAnomalies && onOrAfter(from, r.AttendanceDate) }), nil
}

func (m *memRecords) QueryByDateRange(_ context.Context, staffID *int32, from, to time.Time) ([]model.AttendanceRecord, error) {
	return m.query(func(r model.AttendanceRecord) bool {
		return (staffID == nil || r.StaffID == *staffID) && !r.AttendanceDate.Before(from) && !r.AttendanceDate.After(to)
	}), nil
}

type memPolicies map[int32]*model.ShiftPolicy

func (m memPolicies) Resolve(_ context.Context, staffID int32) (*model.ShiftPolicy, error) {
	return m[staffID], nil
}

type memStaff []model.Staff

func (m memStaff) Get(_ context.Context, staffID int32) (*model.Staff, error) {
	for _, s := range m {
		if s.ID == staffID {
			return &s, nil
		}
	}
	return nil, nil
}

func (m memStaff) ListActive(_ context.Context) ([]model.Staff, error) {
	return utils.Filter(m, func(s model.Staff) bool { return s.Active }), nil
}

type fixture struct {
	punches  *memPunches
	records  *memRecords
	policies memPolicies
	engine   *Engine
}

func newFixture(staff ...model.Staff) *fixture {
	if len(staff) == 0 {
		staff = []model.Staff{{ID: 1, Code: "E001", Active: true}}
	}
	f := &fixture{
		punches:  &memPunches{},
		records:  newMemRecords(),
		policies: memPolicies{},
	}
	f.engine = NewEngine(f.punches, f.records, f.policies, memStaff(staff), discardLogger())
	return f
}

func at(date string, clock string) time.Time {
	t, err := utils.ParseTimeOnDate(utils.MustParseDate(date), clock)
	if err != nil {
		panic(err)
	}
	return t
}
