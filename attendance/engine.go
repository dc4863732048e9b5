package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"axiapac.com/timeclock/model"
	"axiapac.com/timeclock/utils"
	"gorm.io/datatypes"
)

// Engine turns the punches of a staff member into one attendance record per
// day under the staff member's shift policy.
type Engine struct {
	punches  PunchEventStore
	records  AttendanceRecordStore
	policies ShiftPolicyResolver
	staff    StaffDirectory
	logger   *slog.Logger

	// minimumHours applies to the scheduled computations.
	minimumHours float64
}

func NewEngine(punches PunchEventStore, records AttendanceRecordStore, policies ShiftPolicyResolver, staff StaffDirectory, logger *slog.Logger) *Engine {
	return &Engine{
		punches:  punches,
		records:  records,
		policies: policies,
		staff:    staff,
		logger:   logger.With("component", "attendance"),
	}
}

// SetMinimumHours sets the short-shift threshold used by ComputeYesterday and
// ProcessPendingPunches. 0 disables the check.
func (e *Engine) SetMinimumHours(h float64) {
	e.minimumHours = h
}

// ComputeDailyAttendance computes and stores the record of staffID on the UTC
// day containing date. Repeated calls with unchanged punches and policy yield
// identical records.
func (e *Engine) ComputeDailyAttendance(ctx context.Context, staffID int32, date time.Time, opts ComputeOptions) (*model.AttendanceRecord, error) {
	staff, err := e.staff.Get(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff %d: %w", staffID, err)
	}
	if staff == nil {
		return nil, &ValidationError{StaffID: staffID, Err: ErrStaffNotFound}
	}

	day := utils.DateOf(date)
	punches, err := e.punches.ListForStaffAndDate(ctx, staffID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch punches: %w", err)
	}

	policy, err := e.policies.Resolve(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve shift policy: %w", err)
	}

	group := NewPunchGroup(staffID, day, punches)
	rec, err := Evaluate(group, policy, opts)
	if err != nil {
		return nil, &ValidationError{StaffID: staffID, Err: err}
	}

	existing, err := e.records.FindByStaffAndDate(ctx, staffID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing record: %w", err)
	}
	if existing != nil {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	}

	if err := e.records.Upsert(ctx, &rec); err != nil {
		return nil, fmt.Errorf("failed to save attendance record: %w", err)
	}

	if pending := unprocessedIDs(group.Punches); len(pending) > 0 {
		if err := e.punches.MarkProcessed(ctx, pending); err != nil {
			return nil, fmt.Errorf("failed to mark punches processed: %w", err)
		}
	}

	e.logger.Debug("attendance computed",
		"staffId", staffID,
		"date", day.Format(utils.DateLayout),
		"status", rec.Status,
		"totalHours", rec.TotalHours,
		"flags", []model.AnomalyFlag(rec.AnomalyFlags),
	)
	return &rec, nil
}

// Evaluate applies the attendance rules to one day of punches. It performs no
// I/O; a nil policy means engine defaults.
func Evaluate(group *PunchGroup, policy *model.ShiftPolicy, opts ComputeOptions) (model.AttendanceRecord, error) {
	rec := model.AttendanceRecord{
		StaffID:        group.StaffID,
		AttendanceDate: group.Date,
		MinimumHours:   opts.MinimumHours,
		ExpectedStart:  opts.ExpectedStart,
		ExpectedEnd:    opts.ExpectedEnd,
	}
	flags := make(map[model.AnomalyFlag]bool)

	if len(group.Punches) == 0 {
		rec.Status = model.StatusAbsent
		rec.AnomalyFlags = datatypes.JSONSlice[model.AnomalyFlag]{}
		return rec, nil
	}

	window, err := ResolveShiftWindow(group.Date, policy, opts)
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	in, out := group.ClockIn(), group.ClockOut()
	if in != nil {
		rec.ClockIn = utils.Ptr(in.Timestamp.UTC())
	}
	if out != nil {
		rec.ClockOut = utils.Ptr(out.Timestamp.UTC())
	}

	switch {
	case in == nil || out == nil:
		rec.Status = model.StatusIncomplete
		if in == nil {
			flags[model.AnomalyMissingCheckin] = true
		}
		if out == nil {
			flags[model.AnomalyMissingCheckout] = true
		}
	case !out.Timestamp.After(in.Timestamp):
		rec.Status = model.StatusIncomplete
		flags[model.AnomalyCheckoutBeforeCheckin] = true
	default:
		rec.Status = model.StatusPresent
		gross := out.Timestamp.Sub(in.Timestamp)
		brk := BreakDeduction(gross, policy)
		worked := max(0, gross-brk)

		rec.BreakDuration = wholeMinutes(brk)
		rec.TotalHours = roundHours(worked.Hours())
		regular, overtime := SplitOvertime(rec.TotalHours, policy.Required())
		rec.RegularHours = roundHours(regular)
		rec.OvertimeHours = roundHours(overtime)
	}

	if in != nil && window.Start != nil {
		rec.LateMinutes = LateMinutes(in.Timestamp, *window.Start, policy.Grace())
	}
	if out != nil && window.Finish != nil {
		rec.EarlyLeaveMinutes = EarlyLeaveMinutes(out.Timestamp, *window.Finish, policy.EarlyLeaveThreshold())
	}

	if len(group.Punches)%2 != 0 {
		flags[model.AnomalyOddPunchCount] = true
	}
	if opts.MinimumHours > 0 && rec.TotalHours < opts.MinimumHours {
		flags[model.AnomalyShortShift] = true
	}
	if rec.LateMinutes > 0 {
		flags[model.AnomalyLateArrival] = true
	}
	if rec.EarlyLeaveMinutes > 0 {
		flags[model.AnomalyEarlyDeparture] = true
	}

	rec.AnomalyFlags = orderedFlags(flags)
	rec.HasAnomalies = len(rec.AnomalyFlags) > 0
	return rec, nil
}

func orderedFlags(set map[model.AnomalyFlag]bool) datatypes.JSONSlice[model.AnomalyFlag] {
	flags := datatypes.JSONSlice[model.AnomalyFlag]{}
	for _, f := range model.AnomalyOrder {
		if set[f] {
			flags = append(flags, f)
		}
	}
	return flags
}

func unprocessedIDs(punches []model.PunchEvent) []string {
	var ids []string
	for _, p := range punches {
		if !p.Processed {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
