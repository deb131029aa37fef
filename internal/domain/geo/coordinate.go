package geo

import (
	"fmt"
	"math"
)

// earthRadiusKM is the mean Earth radius used by the haversine formula.
const earthRadiusKM = 6371.0

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	// Latitude in degrees, valid range [-90, 90].
	Latitude float64 `json:"lat"`
	// Longitude in degrees, valid range [-180, 180].
	Longitude float64 `json:"lon"`
}

// RangeError reports a coordinate component outside its valid degree range.
type RangeError struct {
	// Field names the offending component, "latitude" or "longitude".
	Field string
	// Value is the rejected input.
	Value float64
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %v out of range", e.Field, e.Value)
}

// Validate rejects coordinates outside the valid degree ranges or containing
// non-finite components. Values are never clamped.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		c.Latitude < -90 || c.Latitude > 90 {
		return &RangeError{Field: "latitude", Value: c.Latitude}
	}

	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) ||
		c.Longitude < -180 || c.Longitude > 180 {
		return &RangeError{Field: "longitude", Value: c.Longitude}
	}

	return nil
}

// String renders the coordinate as "lat,lon" for logs and queries.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Distance returns the great-circle distance between two coordinates in
// meters, computed with the haversine formula on a sphere of radius 6371 km.
// It is symmetric in its arguments and zero for identical points.
func Distance(a, b Coordinate) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	deltaLat := radians(b.Latitude - a.Latitude)
	deltaLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(deltaLat / 2)
	sinLon := math.Sin(deltaLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// Guard against rounding pushing h a hair above 1, which would make
	// Sqrt(1-h) NaN for near-antipodal pairs.
	h = math.Min(h, 1)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKM * c * 1000
}

// radians converts degrees to radians.
func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
