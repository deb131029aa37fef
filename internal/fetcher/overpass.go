package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minaret-app/minaret/internal/domain/geo"
	"github.com/minaret-app/minaret/internal/domain/poi"
)

// placeholderName is used for fetched places without a name tag.
const placeholderName = "Unnamed Mosque"

// OverpassClient looks up places of worship via the Overpass API.
type OverpassClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewOverpassClient creates a place lookup client against the given
// Overpass interpreter endpoint.
func NewOverpassClient(endpoint string, timeout time.Duration) *OverpassClient {
	return &OverpassClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// overpassResponse mirrors the subset of the Overpass payload we consume.
type overpassResponse struct {
	Elements []struct {
		Lat  *float64          `json:"lat"`
		Lon  *float64          `json:"lon"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// FetchPlaces returns the places of worship within radiusMeters of the
// coordinate. Elements without a position are skipped; elements without a
// name get a placeholder.
func (c *OverpassClient) FetchPlaces(
	ctx context.Context,
	around geo.Coordinate,
	radiusMeters float64,
) ([]poi.Place, error) {
	query := fmt.Sprintf(`[out:json];
node["amenity"="place_of_worship"]["religion"="muslim"](around:%.0f,%f,%f);
out body;`, radiusMeters, around.Latitude, around.Longitude)

	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("create place request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: place request: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: Overpass returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload overpassResponse
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode place response: %w", ErrUnavailable, err)
	}

	places := make([]poi.Place, 0, len(payload.Elements))

	for _, element := range payload.Elements {
		if element.Lat == nil || element.Lon == nil {
			continue
		}

		name := element.Tags["name"]
		if name == "" {
			name = placeholderName
		}

		places = append(places, poi.Place{
			Name: name,
			Location: geo.Coordinate{
				Latitude:  *element.Lat,
				Longitude: *element.Lon,
			},
		})
	}

	return places, nil
}
