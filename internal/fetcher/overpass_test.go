package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minaret-app/minaret/internal/domain/geo"
)

const overpassFixture = `{
	"elements": [
		{"type": "node", "id": 1, "lat": 24.6312, "lon": 46.7136,
			"tags": {"amenity": "place_of_worship", "name": "Imam Turki bin Abdullah Grand Mosque"}},
		{"type": "node", "id": 2, "lat": 24.7200, "lon": 46.6800,
			"tags": {"amenity": "place_of_worship"}},
		{"type": "node", "id": 3, "tags": {"name": "No Position"}}
	]
}`

// TestOverpassClient_FetchPlaces parses elements into places, substituting a
// placeholder for unnamed nodes and skipping nodes without a position.
func TestOverpassClient_FetchPlaces(t *testing.T) {
	t.Parallel()

	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		gotQuery = form.Get("data")
		_, _ = w.Write([]byte(overpassFixture))
	}))
	t.Cleanup(server.Close)

	client := NewOverpassClient(server.URL, time.Second)

	around := geo.Coordinate{Latitude: 24.7136, Longitude: 46.6753}

	places, err := client.FetchPlaces(context.Background(), around, 30_000)
	require.NoError(t, err)
	require.Len(t, places, 2)

	require.Equal(t, "Imam Turki bin Abdullah Grand Mosque", places[0].Name)
	require.InDelta(t, 24.6312, places[0].Location.Latitude, 1e-9)
	require.Equal(t, "Unnamed Mosque", places[1].Name)

	require.Contains(t, gotQuery, `"amenity"="place_of_worship"`)
	require.Contains(t, gotQuery, "around:30000")
}

// TestOverpassClient_ServerError surfaces non-200 responses as retryable.
func TestOverpassClient_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := NewOverpassClient(server.URL, time.Second)

	_, err := client.FetchPlaces(context.Background(), geo.Coordinate{}, 30_000)
	require.ErrorIs(t, err, ErrUnavailable)
}
