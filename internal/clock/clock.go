package clock

import (
	"time"
)

// minPlausibleYear is the earliest year a synced clock can report. A system
// clock showing an earlier date has never been set (no RTC, no NTP yet).
const minPlausibleYear = 2020

// Snapshot is a display-friendly view of the wall clock, taken once per
// render tick so every field on screen agrees with the others.
type Snapshot struct {
	Now      time.Time
	Hour     int
	Minute   int
	Second   int
	TimeText string // "15:04:05"
	HHMM     string // "15:04"
	DateText string // "Mon 02 Jan 2006"
	Zone     string // abbreviation, e.g. "CEST"
	Synced   bool
}

// Source produces snapshots of the system clock in a configured timezone.
// The synced flag comes from the attached Monitor, or from a plausibility
// check alone when no monitor is running (setup mode).
type Source struct {
	loc     *time.Location
	monitor *Monitor
	nowFn   func() time.Time // test seam
}

// NewSource creates a Source for the given timezone. monitor may be nil.
func NewSource(loc *time.Location, monitor *Monitor) *Source {
	if loc == nil {
		loc = time.UTC
	}
	return &Source{
		loc:     loc,
		monitor: monitor,
		nowFn:   time.Now,
	}
}

// Snapshot reads the clock once and formats every display field from that
// single reading.
func (s *Source) Snapshot() Snapshot {
	now := s.nowFn().In(s.loc)
	zone, _ := now.Zone()

	synced := Plausible(now)
	if s.monitor != nil {
		synced = synced && s.monitor.Synced(now)
	}

	return Snapshot{
		Now:      now,
		Hour:     now.Hour(),
		Minute:   now.Minute(),
		Second:   now.Second(),
		TimeText: now.Format("15:04:05"),
		HHMM:     now.Format("15:04"),
		DateText: now.Format("Mon 02 Jan 2006"),
		Zone:     zone,
		Synced:   synced,
	}
}

// Plausible reports whether t can come from a clock that was ever set.
// Boards without an RTC boot at the epoch until the first NTP response.
func Plausible(t time.Time) bool {
	return t.Year() >= minPlausibleYear
}
