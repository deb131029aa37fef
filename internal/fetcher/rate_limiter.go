package fetcher

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/minaret-app/minaret/internal/domain/calendar"
	"github.com/minaret-app/minaret/internal/domain/geo"
	"github.com/minaret-app/minaret/internal/domain/poi"
	"github.com/minaret-app/minaret/internal/domain/prayer"
)

// RateLimitedScheduleFetcher wraps a ScheduleFetcher with a token bucket.
// Both upstream APIs are shared public services; the limiter keeps refetch
// bursts polite.
type RateLimitedScheduleFetcher struct {
	fetcher ScheduleFetcher
	limiter *rate.Limiter
}

// NewRateLimitedScheduleFetcher caps the wrapped fetcher at rps requests per
// second with the given burst size.
func NewRateLimitedScheduleFetcher(fetcher ScheduleFetcher, rps float64, burst int) *RateLimitedScheduleFetcher {
	return &RateLimitedScheduleFetcher{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchSchedule waits for limiter permission, then delegates.
func (r *RateLimitedScheduleFetcher) FetchSchedule(
	ctx context.Context,
	at geo.Coordinate,
	day calendar.Day,
) (*prayer.Schedule, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	return r.fetcher.FetchSchedule(ctx, at, day)
}

// RateLimitedPlaceFetcher wraps a PlaceFetcher with a token bucket.
type RateLimitedPlaceFetcher struct {
	fetcher PlaceFetcher
	limiter *rate.Limiter
}

// NewRateLimitedPlaceFetcher caps the wrapped fetcher at rps requests per
// second with the given burst size.
func NewRateLimitedPlaceFetcher(fetcher PlaceFetcher, rps float64, burst int) *RateLimitedPlaceFetcher {
	return &RateLimitedPlaceFetcher{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchPlaces waits for limiter permission, then delegates.
func (r *RateLimitedPlaceFetcher) FetchPlaces(
	ctx context.Context,
	around geo.Coordinate,
	radiusMeters float64,
) ([]poi.Place, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	return r.fetcher.FetchPlaces(ctx, around, radiusMeters)
}
