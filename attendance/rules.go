package attendance

import (
	"fmt"
	"math"
	"time"

	"axiapac.com/timeclock/model"
	"axiapac.com/timeclock/utils"
)

const (
	DefaultBreak   = model.DefaultBreakMinutes * time.Minute
	BreakThreshold = time.Duration(model.BreakThresholdHours * float64(time.Hour))
)

// ComputeOptions carries per-call overrides. ExpectedStart and ExpectedEnd are
// "15:04" strings that take precedence over the resolved policy.
type ComputeOptions struct {
	ExpectedStart string
	ExpectedEnd   string
	// MinimumHours enables short shift detection when greater than zero.
	MinimumHours float64
}

// ShiftWindow holds the expected start and finish on a given day, when known.
type ShiftWindow struct {
	Start  *time.Time
	Finish *time.Time
}

// ResolveShiftWindow places the expected start and finish on date. An override
// wins over the policy; a finish before the start is moved to the next day.
func ResolveShiftWindow(date time.Time, policy *model.ShiftPolicy, opts ComputeOptions) (ShiftWindow, error) {
	startStr, finishStr := opts.ExpectedStart, opts.ExpectedEnd
	if policy != nil {
		if startStr == "" {
			startStr = policy.StartTime
		}
		if finishStr == "" {
			finishStr = policy.EndTime
		}
	}

	var window ShiftWindow
	if startStr != "" {
		start, err := utils.ParseTimeOnDate(date, startStr)
		if err != nil {
			return ShiftWindow{}, fmt.Errorf("%w: start time %q: %v", ErrInvalidPolicy, startStr, err)
		}
		window.Start = &start
	}
	if finishStr != "" {
		finish, err := utils.ParseTimeOnDate(date, finishStr)
		if err != nil {
			return ShiftWindow{}, fmt.Errorf("%w: end time %q: %v", ErrInvalidPolicy, finishStr, err)
		}
		if window.Start != nil && finish.Before(*window.Start) {
			finish = finish.Add(24 * time.Hour)
		}
		window.Finish = &finish
	}
	return window, nil
}

// BreakDeduction returns the break to subtract from a gross worked duration.
func BreakDeduction(gross time.Duration, policy *model.ShiftPolicy) time.Duration {
	if policy != nil && policy.BreakDuration != nil {
		configured := time.Duration(*policy.BreakDuration) * time.Minute
		if policy.AutoDeductBreak {
			return configured
		}
		if gross > BreakThreshold {
			return configured
		}
		return 0
	}
	if gross > BreakThreshold {
		return DefaultBreak
	}
	return 0
}

// SplitOvertime divides worked hours into regular and overtime hours.
func SplitOvertime(total, required float64) (regular, overtime float64) {
	regular = math.Min(total, required)
	overtime = math.Max(0, total-required)
	return regular, overtime
}

// LateMinutes counts the minutes after expected start beyond the grace period.
func LateMinutes(clockIn, expectedStart time.Time, grace int32) int32 {
	late := wholeMinutes(clockIn.Sub(expectedStart))
	if late <= 0 {
		return 0
	}
	return max(0, late-grace)
}

// EarlyLeaveMinutes counts the minutes before expected end beyond the threshold.
func EarlyLeaveMinutes(clockOut, expectedEnd time.Time, threshold int32) int32 {
	early := wholeMinutes(expectedEnd.Sub(clockOut))
	if early <= 0 {
		return 0
	}
	return max(0, early-threshold)
}

func wholeMinutes(d time.Duration) int32 {
	return int32(d / time.Minute)
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
