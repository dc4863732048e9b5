package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"axiapac.com/timeclock/model"
	"axiapac.com/timeclock/utils"
)

const pendingBatchSize = 5000

// Failure describes one staff/date unit that could not be computed.
type Failure struct {
	StaffID int32     `json:"staffId"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

type BatchResult struct {
	Computed int       `json:"computed"`
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures,omitempty"`
}

func (r *BatchResult) add(staffID int32, date time.Time, err error) {
	if err == nil {
		r.Computed++
		return
	}
	r.Failed++
	r.Failures = append(r.Failures, Failure{StaffID: staffID, Date: date, Message: err.Error()})
}

// computeUnit runs one computation; its error is recorded by the caller and
// never stops the batch.
func (e *Engine) computeUnit(ctx context.Context, result *BatchResult, staffID int32, date time.Time, opts ComputeOptions) {
	_, err := e.ComputeDailyAttendance(ctx, staffID, date, opts)
	if err != nil {
		kind := "error"
		if IsValidationError(err) {
			kind = "validation"
		}
		e.logger.Warn("attendance unit skipped",
			"staffId", staffID,
			"date", date.Format(utils.DateLayout),
			"kind", kind,
			"error", err,
		)
	}
	result.add(staffID, utils.DateOf(date), err)
}

func (e *Engine) ComputeForDateRange(ctx context.Context, staffID int32, from, to time.Time, opts ComputeOptions) (BatchResult, error) {
	var result BatchResult
	for _, day := range utils.Days(from, to) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.computeUnit(ctx, &result, staffID, day, opts)
	}
	return result, nil
}

func (e *Engine) ComputeForAllStaff(ctx context.Context, date time.Time, opts ComputeOptions) (BatchResult, error) {
	return e.ComputeForAllStaffDateRange(ctx, date, date, opts)
}

// ComputeForAllStaffDateRange computes every day in [from, to] for every
// active staff member.
func (e *Engine) ComputeForAllStaffDateRange(ctx context.Context, from, to time.Time, opts ComputeOptions) (BatchResult, error) {
	staff, err := e.staff.ListActive(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to list active staff: %w", err)
	}

	var result BatchResult
	for _, day := range utils.Days(from, to) {
		for _, s := range staff {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			e.computeUnit(ctx, &result, s.ID, day, opts)
		}
	}
	e.logger.Info("attendance batch computed",
		"from", utils.DateOf(from).Format(utils.DateLayout),
		"to", utils.DateOf(to).Format(utils.DateLayout),
		"staff", len(staff),
		"computed", result.Computed,
		"failed", result.Failed,
	)
	return result, nil
}

// ComputeYesterday computes the UTC day before now for all active staff.
func (e *Engine) ComputeYesterday(ctx context.Context, now time.Time) (BatchResult, error) {
	return e.ComputeForAllStaff(ctx, utils.DateOf(now).AddDate(0, 0, -1), ComputeOptions{MinimumHours: e.minimumHours})
}

// ReprocessAnomalies recomputes every flagged record on or after from, or all
// flagged records when from is nil, and returns how many were recomputed.
// Each record is recomputed with the options it was stored with.
func (e *Engine) ReprocessAnomalies(ctx context.Context, from *time.Time) (int, error) {
	var since *time.Time
	if from != nil {
		since = utils.Ptr(utils.DateOf(*from))
	}

	flagged, err := e.records.QueryFlagged(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to query flagged records: %w", err)
	}

	count := 0
	var errs []error
	for _, rec := range flagged {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		opts := ComputeOptions{
			ExpectedStart: rec.ExpectedStart,
			ExpectedEnd:   rec.ExpectedEnd,
			MinimumHours:  rec.MinimumHours,
		}
		if _, err := e.ComputeDailyAttendance(ctx, rec.StaffID, rec.AttendanceDate, opts); err != nil {
			errs = append(errs, err)
			e.logger.Warn("reprocess failed", "staffId", rec.StaffID, "date", rec.AttendanceDate.Format(utils.DateLayout), "error", err)
			continue
		}
		count++
	}

	e.logger.Info("anomalies reprocessed", "flagged", len(flagged), "reprocessed", count, "failed", len(errs))
	return count, nil
}

// ProcessPendingPunches computes every staff/day that has unprocessed punches.
// It pages through the whole pending queue so days that keep failing
// validation never hide newer punches.
func (e *Engine) ProcessPendingPunches(ctx context.Context) (BatchResult, error) {
	var (
		result    BatchResult
		after     *model.PunchCursor
		attempted = make(map[groupKey]bool)
		seen      int
	)
	opts := ComputeOptions{MinimumHours: e.minimumHours}

	for {
		page, err := e.punches.ListUnprocessed(ctx, after, pendingBatchSize)
		if err != nil {
			return result, fmt.Errorf("failed to list unprocessed punches: %w", err)
		}
		seen += len(page)

		for _, g := range GroupPunches(page) {
			key := groupKey{staffID: g.StaffID, date: g.Date}
			if attempted[key] {
				continue
			}
			attempted[key] = true
			if err := ctx.Err(); err != nil {
				return result, err
			}
			e.computeUnit(ctx, &result, g.StaffID, g.Date, opts)
		}

		if len(page) < pendingBatchSize {
			break
		}
		after = utils.Ptr(page[len(page)-1].Cursor())
	}

	if seen > 0 {
		e.logger.Info("pending punches processed", "punches", seen, "computed", result.Computed, "failed", result.Failed)
	}
	return result, nil
}

// FindRecords returns stored records of one staff member (or everyone, when
// staffID is nil) within [from, to].
func (e *Engine) FindRecords(ctx context.Context, staffID *int32, from, to time.Time) ([]model.AttendanceRecord, error) {
	if to.Before(from) {
		return nil, errors.New("end date is before start date")
	}
	return e.records.QueryByDateRange(ctx, staffID, utils.DateOf(from), utils.DateOf(to))
}

// FindAnomalies returns records carrying flag, or every flagged record when
// flag is nil, on or after from.
func (e *Engine) FindAnomalies(ctx context.Context, flag *model.AnomalyFlag, from *time.Time) ([]model.AttendanceRecord, error) {
	var since *time.Time
	if from != nil {
		since = utils.Ptr(utils.DateOf(*from))
	}
	if flag == nil {
		return e.records.QueryFlagged(ctx, since)
	}
	return e.records.QueryByAnomalyFlag(ctx, *flag, since)
}
