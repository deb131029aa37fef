package fetcher

import (
	"context"
	"errors"

	"github.com/minaret-app/minaret/internal/domain/calendar"
	"github.com/minaret-app/minaret/internal/domain/geo"
	"github.com/minaret-app/minaret/internal/domain/poi"
	"github.com/minaret-app/minaret/internal/domain/prayer"
)

// ErrUnavailable marks a recoverable fetch failure. Callers keep their
// previously fetched data and retry on the next location sample.
var ErrUnavailable = errors.New("fetch service unavailable")

// ScheduleFetcher obtains one day's observance schedule for a coordinate.
type ScheduleFetcher interface {
	FetchSchedule(ctx context.Context, at geo.Coordinate, day calendar.Day) (*prayer.Schedule, error)
}

// PlaceFetcher obtains the places of worship around a coordinate.
type PlaceFetcher interface {
	FetchPlaces(ctx context.Context, around geo.Coordinate, radiusMeters float64) ([]poi.Place, error)
}
