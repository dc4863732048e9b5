package bridge

import (
	"fmt"
	"time"

	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/model"
	"axiapac.com/timeclock/utils"
)

// logEntry is an attendance log line as served by the bridge. State is the
// terminal's punch state code.
type logEntry struct {
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
	State     int    `json:"state"`
	Verify    int    `json:"verify"`
}

// terminal punch state codes
var punchStates = map[int]model.PunchType{
	0: model.PunchIn,
	1: model.PunchOut,
	2: model.PunchBreakOut,
	3: model.PunchBreakIn,
	4: model.PunchIn,  // overtime in
	5: model.PunchOut, // overtime out
}

var verifyModes = map[int]string{
	0:  "password",
	1:  "fingerprint",
	2:  "card",
	15: "face",
}

func (e logEntry) toPunch() (device.DevicePunch, error) {
	ts, err := utils.ParseISOTime(e.Timestamp)
	if err != nil {
		return device.DevicePunch{}, fmt.Errorf("bad timestamp %q for user %s: %w", e.Timestamp, e.UserID, err)
	}
	kind, ok := punchStates[e.State]
	if !ok {
		return device.DevicePunch{}, fmt.Errorf("unknown punch state %d for user %s", e.State, e.UserID)
	}
	mode, ok := verifyModes[e.Verify]
	if !ok {
		mode = fmt.Sprintf("other:%d", e.Verify)
	}
	return device.DevicePunch{
		DeviceUserID:     e.UserID,
		Timestamp:        ts.UTC().Truncate(time.Second),
		PunchType:        kind,
		VerificationMode: mode,
	}, nil
}
