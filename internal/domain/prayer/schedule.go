package prayer

import (
	"sort"
	"time"

	"github.com/minaret-app/minaret/internal/domain/calendar"
	"github.com/minaret-app/minaret/internal/domain/geo"
)

// Schedule is one day's observance times for one location. Labels are
// unique; map iteration order carries no meaning.
type Schedule struct {
	// Day is the calendar date the schedule was computed for.
	Day calendar.Day
	// Location is the coordinate the times were computed for.
	Location geo.Coordinate
	// Times maps each observance label to its absolute event instant.
	Times map[string]time.Time
}

// Clone returns a copy of the schedule to avoid leaking the internal map.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}

	times := make(map[string]time.Time, len(s.Times))
	for label, at := range s.Times {
		times[label] = at
	}

	return &Schedule{
		Day:      s.Day,
		Location: s.Location,
		Times:    times,
	}
}

// AlarmEntry is a derived reminder for one observance. Entries are never
// persisted; they are regenerated from the schedule whenever needed.
type AlarmEntry struct {
	// Label names the observance the entry reminds about.
	Label string
	// EventAt is the observance instant itself.
	EventAt time.Time
	// TriggerAt is when the reminder fires: EventAt minus the lead. A lead
	// longer than the time since midnight simply lands the trigger on the
	// previous calendar day.
	TriggerAt time.Time
	// SilenceUntil is when the post-observance silence window ends.
	SilenceUntil time.Time
}

// ToAlarms derives one reminder per schedule entry, triggering lead before
// the event and carrying a silence window of the given length after it.
// The schedule is not modified. Output is sorted by trigger time so repeated
// derivations compare equal.
func ToAlarms(s *Schedule, lead, silence time.Duration) []AlarmEntry {
	if s == nil || len(s.Times) == 0 {
		return nil
	}

	alarms := make([]AlarmEntry, 0, len(s.Times))
	for label, at := range s.Times {
		alarms = append(alarms, AlarmEntry{
			Label:        label,
			EventAt:      at,
			TriggerAt:    at.Add(-lead),
			SilenceUntil: at.Add(silence),
		})
	}

	sort.Slice(alarms, func(i, j int) bool {
		if !alarms[i].TriggerAt.Equal(alarms[j].TriggerAt) {
			return alarms[i].TriggerAt.Before(alarms[j].TriggerAt)
		}

		return alarms[i].Label < alarms[j].Label
	})

	return alarms
}

// NextEvent returns the schedule entry closest after now. Once every entry
// of the day has passed, the schedule wraps: the earliest entry is returned
// with its instant advanced by 24 hours, so the result is always in the
// future for a non-empty schedule. The second return is false only when the
// schedule has no entries.
func NextEvent(s *Schedule, now time.Time) (string, time.Time, bool) {
	if s == nil || len(s.Times) == 0 {
		return "", time.Time{}, false
	}

	var (
		nextLabel, firstLabel string
		nextAt, firstAt       time.Time
	)

	for label, at := range s.Times {
		if firstAt.IsZero() || at.Before(firstAt) || (at.Equal(firstAt) && label < firstLabel) {
			firstLabel, firstAt = label, at
		}

		if !at.After(now) {
			continue
		}

		if nextAt.IsZero() || at.Before(nextAt) || (at.Equal(nextAt) && label < nextLabel) {
			nextLabel, nextAt = label, at
		}
	}

	if !nextAt.IsZero() {
		return nextLabel, nextAt, true
	}

	// All of today's entries have passed; wrap to tomorrow's earliest.
	return firstLabel, firstAt.Add(24 * time.Hour), true
}
