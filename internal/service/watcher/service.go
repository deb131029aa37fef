package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/minaret-app/minaret/internal/config"
	"github.com/minaret-app/minaret/internal/domain/calendar"
	"github.com/minaret-app/minaret/internal/domain/geo"
	"github.com/minaret-app/minaret/internal/domain/poi"
	"github.com/minaret-app/minaret/internal/domain/prayer"
	"github.com/minaret-app/minaret/internal/fetcher"
	"github.com/minaret-app/minaret/internal/freshness"
	"github.com/minaret-app/minaret/internal/logger"
	"github.com/minaret-app/minaret/internal/repository/cache"
)

// AlarmSink receives derived reminders. Registration is fire-and-forget from
// the watcher's perspective; the platform side owns delivery.
type AlarmSink interface {
	Register(ctx context.Context, alarm prayer.AlarmEntry)
}

// LogSink is an AlarmSink that only logs each reminder. It stands in for a
// platform alarm manager in the CLI and in tests.
type LogSink struct{}

// Register logs the reminder.
func (LogSink) Register(ctx context.Context, alarm prayer.AlarmEntry) {
	logger.InfoKV(ctx, "Alarm registered",
		"label", alarm.Label,
		"trigger_at", alarm.TriggerAt,
		"silence_until", alarm.SilenceUntil,
	)
}

// ErrPersist marks a cache write failure after a successful refetch. The
// fresh data stays active in memory and the alarms are still scheduled; only
// the durable snapshot is behind.
var ErrPersist = errors.New("cache persist failed")

// Status summarises the handling of one location sample.
type Status struct {
	// Refreshed reports whether the places cache was refetched.
	Refreshed bool
	// PlaceCount is the number of cached places after handling.
	PlaceCount int
	// NearestName and NearestMeters describe the closest cached place to the
	// sample. NearestName is empty when the cache holds no places.
	NearestName   string
	NearestMeters float64
	// NextLabel and NextAt describe the upcoming observance.
	NextLabel string
	NextAt    time.Time
	// Alarms are the reminders handed to the sink, ordered by trigger time.
	Alarms []prayer.AlarmEntry
}

// Service owns the in-memory cache record and the current schedule, and
// mediates every read and write of the durable store.
type Service struct {
	// cfg carries the radii, lead and silence tunables.
	cfg *config.Config
	// repo handles persistent storage of the places snapshot.
	repo cache.Repository
	// policy decides when the snapshot is stale.
	policy freshness.Policy
	// schedules and places are the outbound fetch collaborators.
	schedules fetcher.ScheduleFetcher
	places    fetcher.PlaceFetcher
	// sink receives the derived reminders.
	sink AlarmSink
	// now is the clock, injectable for tests.
	now func() time.Time

	// mu serialises sample handling and guards record and schedule.
	mu sync.Mutex
	// record is the current in-memory places snapshot.
	record *cache.Record
	// schedule is the current day's observance schedule.
	schedule *prayer.Schedule
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the watcher service and recovers the persisted places
// snapshot. A missing or corrupt snapshot starts the service empty; the
// first sample then triggers a refetch.
func NewService(
	ctx context.Context,
	cfg *config.Config,
	repo cache.Repository,
	schedules fetcher.ScheduleFetcher,
	places fetcher.PlaceFetcher,
	sink AlarmSink,
	options ...Option,
) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	s := &Service{
		cfg:       cfg,
		repo:      repo,
		policy:    freshness.NewPolicy(cfg.UpdateDistanceMeters),
		schedules: schedules,
		places:    places,
		sink:      sink,
		now:       time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if repo == nil {
		return s, nil
	}

	record, err := repo.Load(ctx)
	switch {
	case err == nil:
		s.record = record
	case errors.Is(err, cache.ErrNotFound):
		logger.Info(ctx, "No usable places cache on disk, starting empty")
	default:
		return nil, fmt.Errorf("load places cache: %w", err)
	}

	return s, nil
}

// HandleLocation processes one location sample to completion: freshness
// check, optional refetch and persist, alarm derivation, sink hand-off.
//
// A fetch failure leaves the previous record, schedule and durable snapshot
// untouched and returns a retryable error. A persist failure after a
// successful refetch returns the status together with an error wrapping
// ErrPersist: the fresh data is live, only the durable copy is behind.
func (s *Service) HandleLocation(ctx context.Context, sample geo.Coordinate) (*Status, error) {
	if err := sample.Validate(); err != nil {
		return nil, fmt.Errorf("location sample: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		now   = s.now()
		today = calendar.DayOf(now)
	)

	refreshed := false

	if s.policy.NeedsRefresh(sample, today, s.record) {
		persistErr := s.refetch(ctx, sample, today)
		if persistErr != nil && !errors.Is(persistErr, ErrPersist) {
			return nil, persistErr
		}

		refreshed = true

		if persistErr != nil {
			status := s.finish(ctx, sample, now, refreshed)

			return status, persistErr
		}
	} else if s.schedule == nil || !today.Equal(s.schedule.Day) {
		// The places snapshot is still good, but the schedule is either not
		// loaded yet (fresh process) or belongs to a previous day.
		sched, err := s.schedules.FetchSchedule(ctx, sample, today)
		if err != nil {
			return nil, fmt.Errorf("fetch schedule: %w", err)
		}

		s.schedule = sched
	}

	return s.finish(ctx, sample, now, refreshed), nil
}

// refetch replaces the places snapshot and schedule for the sample position.
// State is only swapped once both fetches succeed; the cache write happens
// last so a failed fetch can never leave a partial snapshot anywhere.
func (s *Service) refetch(ctx context.Context, sample geo.Coordinate, today calendar.Day) error {
	fetched, err := s.places.FetchPlaces(ctx, sample, s.cfg.CacheRadiusMeters)
	if err != nil {
		return fmt.Errorf("fetch places: %w", err)
	}

	sched, err := s.schedules.FetchSchedule(ctx, sample, today)
	if err != nil {
		return fmt.Errorf("fetch schedule: %w", err)
	}

	record := &cache.Record{
		Places:    fetched,
		Location:  sample,
		FetchedOn: today,
	}

	s.record = record
	s.schedule = sched

	logger.InfoKV(ctx, "Places cache refreshed",
		"position", sample.String(),
		"places", len(fetched),
		"fetched_on", today.String(),
	)

	if s.repo == nil {
		return nil
	}

	if err := s.repo.Save(ctx, record); err != nil {
		logger.Errorf(ctx, "Failed to persist places cache: %v", err)

		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	return nil
}

// finish derives the alarms from the current schedule, hands them to the
// sink and assembles the status. Caller holds the mutex.
func (s *Service) finish(ctx context.Context, sample geo.Coordinate, now time.Time, refreshed bool) *Status {
	alarms := prayer.ToAlarms(s.schedule, s.cfg.AlarmLead, s.cfg.SilenceDuration)

	if s.sink != nil {
		for _, alarm := range alarms {
			s.sink.Register(ctx, alarm)
		}
	}

	status := &Status{
		Refreshed: refreshed,
		Alarms:    alarms,
	}

	if label, at, ok := prayer.NextEvent(s.schedule, now); ok {
		status.NextLabel = label
		status.NextAt = at
	}

	if s.record != nil {
		status.PlaceCount = len(s.record.Places)

		if place, meters, ok := poi.Nearest(s.record.Places, sample); ok {
			status.NearestName = place.Name
			status.NearestMeters = meters
		}
	}

	return status
}

// Record returns a copy of the current in-memory places snapshot, or nil
// when none has been fetched yet.
func (s *Service) Record() *cache.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.record.Clone()
}

// Schedule returns a copy of the current schedule, or nil before the first
// successful fetch.
func (s *Service) Schedule() *prayer.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.schedule.Clone()
}
