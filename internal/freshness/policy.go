// Package freshness decides whether the cached places snapshot is still
// usable for the current position and day.
package freshness

import (
	"github.com/minaret-app/minaret/internal/domain/calendar"
	"github.com/minaret-app/minaret/internal/domain/geo"
	"github.com/minaret-app/minaret/internal/repository/cache"
)

// Policy holds the thresholds of the refetch decision. Construct it from
// configuration; the policy itself is pure and performs no I/O.
type Policy struct {
	// UpdateDistanceMeters is how far the device may move from the cached
	// fetch position before a refetch is required.
	UpdateDistanceMeters float64
}

// NewPolicy creates a freshness policy with the given movement threshold.
func NewPolicy(updateDistanceMeters float64) Policy {
	return Policy{UpdateDistanceMeters: updateDistanceMeters}
}

// NeedsRefresh reports whether the cache must be refetched for the current
// position and day. Rules, in order: no record, moved beyond the threshold,
// or the calendar day has advanced past the fetch day.
//
// The day comparison is strictly "today is later than the fetch day", so a
// record dated in the future (clock skew) still reads as fresh.
func (p Policy) NeedsRefresh(current geo.Coordinate, today calendar.Day, record *cache.Record) bool {
	if record == nil {
		return true
	}

	if geo.Distance(current, record.Location) > p.UpdateDistanceMeters {
		return true
	}

	return today.After(record.FetchedOn)
}
