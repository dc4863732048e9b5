// Package store implements the persistence collaborators of the attendance
// engine and the device sync orchestrator on top of gorm.
package store

import (
	"errors"

	"gorm.io/gorm"
)

// Store groups every gorm-backed store sharing one connection pool.
type Store struct {
	Punches     *PunchEvents
	Records     *AttendanceRecords
	Policies    *ShiftPolicies
	Staff       *StaffMembers
	Devices     *Devices
	Enrollments *Enrollments
	SyncRuns    *SyncRuns
}

func New(db *gorm.DB) *Store {
	return &Store{
		Punches:     &PunchEvents{db: db},
		Records:     &AttendanceRecords{db: db},
		Policies:    &ShiftPolicies{db: db},
		Staff:       &StaffMembers{db: db},
		Devices:     &Devices{db: db},
		Enrollments: &Enrollments{db: db},
		SyncRuns:    &SyncRuns{db: db},
	}
}

// first loads one row into dest and reports whether it was found.
func first(tx *gorm.DB, dest any) (bool, error) {
	err := tx.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
