package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minaret-app/minaret/internal/config"
	"github.com/minaret-app/minaret/internal/domain/calendar"
	"github.com/minaret-app/minaret/internal/domain/geo"
	"github.com/minaret-app/minaret/internal/domain/poi"
	"github.com/minaret-app/minaret/internal/domain/prayer"
	"github.com/minaret-app/minaret/internal/repository/cache"
)

var (
	riyadh = geo.Coordinate{Latitude: 24.7136, Longitude: 46.6753}
	// movedAway is ~22 km from riyadh, beyond the 20 km threshold.
	movedAway = geo.Coordinate{Latitude: 24.9, Longitude: 46.9}

	fixedNow = time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC)
)

type fakeScheduleFetcher struct {
	calls int
	err   error
}

func (f *fakeScheduleFetcher) FetchSchedule(
	_ context.Context, at geo.Coordinate, day calendar.Day,
) (*prayer.Schedule, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return &prayer.Schedule{
		Day:      day,
		Location: at,
		Times: map[string]time.Time{
			"Fajr":  time.Date(day.Year, day.Month, day.DayOfMonth, 5, 0, 0, 0, time.UTC),
			"Dhuhr": time.Date(day.Year, day.Month, day.DayOfMonth, 12, 15, 0, 0, time.UTC),
		},
	}, nil
}

type fakePlaceFetcher struct {
	calls  int
	err    error
	places []poi.Place
}

func (f *fakePlaceFetcher) FetchPlaces(
	_ context.Context, _ geo.Coordinate, _ float64,
) ([]poi.Place, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return f.places, nil
}

type capturingSink struct {
	alarms []prayer.AlarmEntry
}

func (c *capturingSink) Register(_ context.Context, alarm prayer.AlarmEntry) {
	c.alarms = append(c.alarms, alarm)
}

type failingRepo struct {
	saveErr error
}

func (r *failingRepo) Load(context.Context) (*cache.Record, error) {
	return nil, cache.ErrNotFound
}

func (r *failingRepo) Save(context.Context, *cache.Record) error {
	return r.saveErr
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.AlarmLead = 5 * time.Minute
	cfg.SilenceDuration = 30 * time.Minute

	return cfg
}

func newTestService(
	t *testing.T,
	repo cache.Repository,
	schedules *fakeScheduleFetcher,
	places *fakePlaceFetcher,
	sink AlarmSink,
) *Service {
	t.Helper()

	s, err := NewService(
		context.Background(), testConfig(), repo, schedules, places, sink,
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)

	return s
}

// TestHandleLocation_FirstSamplePopulatesCache covers the cold-start path:
// no cache, a location sample arrives, the cache is populated with that
// coordinate and today's date, and alarms are registered.
func TestHandleLocation_FirstSamplePopulatesCache(t *testing.T) {
	t.Parallel()

	repo := cache.NewFileRepository(filepath.Join(t.TempDir(), "places.json"))
	schedules := &fakeScheduleFetcher{}
	places := &fakePlaceFetcher{places: []poi.Place{
		{Name: "Unnamed Mosque", Location: geo.Coordinate{Latitude: 24.72, Longitude: 46.68}},
	}}
	sink := &capturingSink{}

	s := newTestService(t, repo, schedules, places, sink)

	status, err := s.HandleLocation(context.Background(), riyadh)
	require.NoError(t, err)
	require.True(t, status.Refreshed)
	require.Equal(t, 1, status.PlaceCount)
	require.Equal(t, "Unnamed Mosque", status.NearestName)

	// The translator applied the 5-minute lead.
	require.Len(t, sink.alarms, 2)
	require.Equal(t, "Fajr", sink.alarms[0].Label)
	require.Equal(t, "04:55", sink.alarms[0].TriggerAt.Format("15:04"))
	require.Equal(t, "12:10", sink.alarms[1].TriggerAt.Format("15:04"))

	// Next prayer after 10:00 is Dhuhr.
	require.Equal(t, "Dhuhr", status.NextLabel)

	// The durable record carries the sample position and today's date.
	saved, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, riyadh, saved.Location)
	require.Equal(t, calendar.DayOf(fixedNow), saved.FetchedOn)
}

// TestHandleLocation_FreshCacheSkipsRefetch keeps the cache when movement and
// day are within bounds; only the in-memory schedule is fetched on cold start.
func TestHandleLocation_FreshCacheSkipsRefetch(t *testing.T) {
	t.Parallel()

	repo := cache.NewFileRepository(filepath.Join(t.TempDir(), "places.json"))
	require.NoError(t, repo.Save(context.Background(), &cache.Record{
		Places:    []poi.Place{{Name: "Cached Mosque", Location: riyadh}},
		Location:  riyadh,
		FetchedOn: calendar.DayOf(fixedNow),
	}))

	schedules := &fakeScheduleFetcher{}
	places := &fakePlaceFetcher{}
	sink := &capturingSink{}

	s := newTestService(t, repo, schedules, places, sink)

	status, err := s.HandleLocation(context.Background(), riyadh)
	require.NoError(t, err)
	require.False(t, status.Refreshed)
	require.Zero(t, places.calls)
	require.Equal(t, 1, schedules.calls)
	require.Equal(t, "Cached Mosque", status.NearestName)
	require.Len(t, sink.alarms, 2)

	// A second sample the same day reuses the in-memory schedule.
	_, err = s.HandleLocation(context.Background(), riyadh)
	require.NoError(t, err)
	require.Equal(t, 1, schedules.calls)
}

// TestHandleLocation_MovementTriggersRefetch refetches once the device moves
// beyond the update distance, same day.
func TestHandleLocation_MovementTriggersRefetch(t *testing.T) {
	t.Parallel()

	repo := cache.NewFileRepository(filepath.Join(t.TempDir(), "places.json"))
	require.NoError(t, repo.Save(context.Background(), &cache.Record{
		Location:  riyadh,
		FetchedOn: calendar.DayOf(fixedNow),
	}))

	schedules := &fakeScheduleFetcher{}
	places := &fakePlaceFetcher{places: []poi.Place{{Name: "New Mosque", Location: movedAway}}}

	s := newTestService(t, repo, schedules, places, &capturingSink{})

	status, err := s.HandleLocation(context.Background(), movedAway)
	require.NoError(t, err)
	require.True(t, status.Refreshed)
	require.Equal(t, 1, places.calls)

	saved, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, movedAway, saved.Location)
}

// TestHandleLocation_DayAdvanceTriggersRefetch refetches with zero movement
// once the calendar day moves past the fetch day.
func TestHandleLocation_DayAdvanceTriggersRefetch(t *testing.T) {
	t.Parallel()

	repo := cache.NewFileRepository(filepath.Join(t.TempDir(), "places.json"))
	require.NoError(t, repo.Save(context.Background(), &cache.Record{
		Location:  riyadh,
		FetchedOn: calendar.Day{Year: 2026, Month: time.August, DayOfMonth: 29},
	}))

	places := &fakePlaceFetcher{}

	s := newTestService(t, repo, &fakeScheduleFetcher{}, places, &capturingSink{})

	status, err := s.HandleLocation(context.Background(), riyadh)
	require.NoError(t, err)
	require.True(t, status.Refreshed)
	require.Equal(t, 1, places.calls)
}

// TestHandleLocation_FetchFailureKeepsState verifies that a failed refetch
// leaves the previous record, schedule and durable snapshot untouched and
// registers no alarms for the failed sample.
func TestHandleLocation_FetchFailureKeepsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	repo := cache.NewFileRepository(filepath.Join(t.TempDir(), "places.json"))
	previous := &cache.Record{
		Places:    []poi.Place{{Name: "Old Mosque", Location: riyadh}},
		Location:  riyadh,
		FetchedOn: calendar.DayOf(fixedNow),
	}
	require.NoError(t, repo.Save(ctx, previous))

	schedules := &fakeScheduleFetcher{}
	places := &fakePlaceFetcher{err: errors.New("overpass down")}
	sink := &capturingSink{}

	s := newTestService(t, repo, schedules, places, sink)

	// Warm up: valid sample, no refetch, schedule loaded.
	_, err := s.HandleLocation(ctx, riyadh)
	require.NoError(t, err)

	warmAlarms := len(sink.alarms)

	// Move beyond the threshold with the place fetch failing.
	_, err = s.HandleLocation(ctx, movedAway)
	require.Error(t, err)

	// No new alarms, previous record still live and on disk.
	require.Len(t, sink.alarms, warmAlarms)
	require.Equal(t, previous, s.Record())

	saved, loadErr := repo.Load(ctx)
	require.NoError(t, loadErr)
	require.Equal(t, previous, saved)

	// Schedule fetch failure on the same path behaves identically.
	places.err = nil
	schedules.err = errors.New("timings down")

	_, err = s.HandleLocation(ctx, movedAway)
	require.Error(t, err)
	require.Equal(t, previous, s.Record())
}

// TestHandleLocation_PersistFailureKeepsFreshState verifies that a cache
// write failure after a successful refetch surfaces ErrPersist while the
// fresh data stays live and alarms are still registered.
func TestHandleLocation_PersistFailureKeepsFreshState(t *testing.T) {
	t.Parallel()

	repo := &failingRepo{saveErr: errors.New("disk full")}
	sink := &capturingSink{}

	s := newTestService(t, repo, &fakeScheduleFetcher{}, &fakePlaceFetcher{
		places: []poi.Place{{Name: "Unnamed Mosque", Location: riyadh}},
	}, sink)

	status, err := s.HandleLocation(context.Background(), riyadh)
	require.ErrorIs(t, err, ErrPersist)
	require.NotNil(t, status)
	require.True(t, status.Refreshed)
	require.Len(t, sink.alarms, 2)

	rec := s.Record()
	require.NotNil(t, rec)
	require.Equal(t, riyadh, rec.Location)
}

// TestHandleLocation_RejectsInvalidSample refuses out-of-range coordinates
// before any computation.
func TestHandleLocation_RejectsInvalidSample(t *testing.T) {
	t.Parallel()

	schedules := &fakeScheduleFetcher{}
	places := &fakePlaceFetcher{}

	s := newTestService(t, nil, schedules, places, &capturingSink{})

	_, err := s.HandleLocation(context.Background(), geo.Coordinate{Latitude: 95, Longitude: 0})
	require.Error(t, err)

	var oor *geo.RangeError
	require.ErrorAs(t, err, &oor)
	require.Zero(t, schedules.calls)
	require.Zero(t, places.calls)
}

// TestHandleLocation_SerializesSamples ensures overlapping samples are queued
// behind the mutex rather than interleaving cache access.
func TestHandleLocation_SerializesSamples(t *testing.T) {
	t.Parallel()

	repo := cache.NewFileRepository(filepath.Join(t.TempDir(), "places.json"))

	s := newTestService(t, repo, &fakeScheduleFetcher{}, &fakePlaceFetcher{}, &capturingSink{})

	done := make(chan error, 2)

	for i := 0; i < 2; i++ {
		go func() {
			_, err := s.HandleLocation(context.Background(), riyadh)
			done <- err
		}()
	}

	require.NoError(t, <-done)
	require.NoError(t, <-done)

	// Exactly one coherent record on disk.
	saved, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, riyadh, saved.Location)
}
