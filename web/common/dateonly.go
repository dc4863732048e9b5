package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"axiapac.com/timeclock/utils"
)

// DateOnly binds a "YYYY-MM-DD" JSON string to UTC midnight. null and ""
// leave it zero.
type DateOnly struct {
	time.Time
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("invalid date format: expected YYYY-MM-DD string")
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	t, err := utils.ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date format: %v", err)
	}
	d.Time = t
	return nil
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(utils.DateLayout))
}

// Ptr returns nil for a missing or zero date.
func (d *DateOnly) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
