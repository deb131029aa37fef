package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minaret-app/minaret/internal/domain/calendar"
	"github.com/minaret-app/minaret/internal/domain/geo"
	"github.com/minaret-app/minaret/internal/domain/prayer"
)

// dailyPrayers are the observances kept from the timings response. The API
// also reports sunrise, midnight and similar markers that are not prayer
// times and get no reminders.
//
//nolint:gochecknoglobals // Fixed lookup set.
var dailyPrayers = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// AladhanClient fetches prayer timings from an aladhan-compatible API.
type AladhanClient struct {
	baseURL    string
	method     int
	location   *time.Location
	httpClient *http.Client
}

// NewAladhanClient creates a timings client against the given base URL.
// Returned event instants are built in loc; pass nil for the local zone.
func NewAladhanClient(baseURL string, method int, loc *time.Location, timeout time.Duration) *AladhanClient {
	if loc == nil {
		loc = time.Local
	}

	return &AladhanClient{
		baseURL:  baseURL,
		method:   method,
		location: loc,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// timingsResponse mirrors the subset of the aladhan payload we consume.
type timingsResponse struct {
	Code int `json:"code"`
	Data struct {
		Timings map[string]string `json:"timings"`
	} `json:"data"`
}

// FetchSchedule obtains the prayer schedule for the given coordinate and day.
func (c *AladhanClient) FetchSchedule(
	ctx context.Context,
	at geo.Coordinate,
	day calendar.Day,
) (*prayer.Schedule, error) {
	// Noon keeps the timestamp unambiguously inside the requested day.
	noon := time.Date(day.Year, day.Month, day.DayOfMonth, 12, 0, 0, 0, c.location)

	endpoint := fmt.Sprintf("%s/v1/timings/%d", c.baseURL, noon.Unix())

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%f", at.Latitude))
	params.Set("longitude", fmt.Sprintf("%f", at.Longitude))
	params.Set("method", fmt.Sprintf("%d", c.method))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create timings request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: timings request: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: timings API returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload timingsResponse
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode timings response: %w", ErrUnavailable, err)
	}

	times := make(map[string]time.Time, len(dailyPrayers))

	for _, label := range dailyPrayers {
		raw, ok := payload.Data.Timings[label]
		if !ok {
			return nil, fmt.Errorf("%w: timings response is missing %s", ErrUnavailable, label)
		}

		parsed, err := time.Parse("15:04", raw)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed time %q for %s: %w", ErrUnavailable, raw, label, err)
		}

		times[label] = time.Date(
			day.Year, day.Month, day.DayOfMonth,
			parsed.Hour(), parsed.Minute(), 0, 0,
			c.location,
		)
	}

	return &prayer.Schedule{
		Day:      day,
		Location: at,
		Times:    times,
	}, nil
}
