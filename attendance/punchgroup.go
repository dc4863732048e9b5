package attendance

import (
	"sort"
	"time"

	"axiapac.com/timeclock/model"
	"axiapac.com/timeclock/utils"
)

// PunchGroup holds the punches of one staff member on one UTC day.
type PunchGroup struct {
	StaffID int32
	Date    time.Time
	Punches []model.PunchEvent
}

// ClockIn is the first IN punch of the day.
func (g *PunchGroup) ClockIn() *model.PunchEvent {
	for i := range g.Punches {
		if g.Punches[i].IsIn() {
			return &g.Punches[i]
		}
	}
	return nil
}

// ClockOut is the last OUT punch of the day.
func (g *PunchGroup) ClockOut() *model.PunchEvent {
	for i := len(g.Punches) - 1; i >= 0; i-- {
		if g.Punches[i].IsOut() {
			return &g.Punches[i]
		}
	}
	return nil
}

func (g *PunchGroup) IDs() []string {
	return utils.Map(g.Punches, func(p model.PunchEvent) string { return p.ID })
}

func NewPunchGroup(staffID int32, date time.Time, punches []model.PunchEvent) *PunchGroup {
	sorted := make([]model.PunchEvent, len(punches))
	copy(sorted, punches)
	sortPunches(sorted)
	return &PunchGroup{StaffID: staffID, Date: utils.DateOf(date), Punches: sorted}
}

type groupKey struct {
	staffID int32
	date    time.Time
}

// GroupPunches buckets punches by staff member and UTC day. Groups are
// returned ordered by date, then staff id.
func GroupPunches(punches []model.PunchEvent) []*PunchGroup {
	buckets := utils.GroupBy(punches, func(p model.PunchEvent) groupKey {
		return groupKey{staffID: p.StaffID, date: utils.DateOf(p.Timestamp)}
	})

	groups := make([]*PunchGroup, 0, len(buckets))
	for key, ps := range buckets {
		groups = append(groups, NewPunchGroup(key.staffID, key.date, ps))
	}
	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].Date.Equal(groups[j].Date) {
			return groups[i].Date.Before(groups[j].Date)
		}
		return groups[i].StaffID < groups[j].StaffID
	})
	return groups
}

func sortPunches(punches []model.PunchEvent) {
	sort.SliceStable(punches, func(i, j int) bool {
		return punches[i].Timestamp.Before(punches[j].Timestamp)
	})
}
