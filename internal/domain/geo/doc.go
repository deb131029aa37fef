// Package geo contains the geodesic primitives of the watcher: the
// Coordinate value with range validation and the haversine great-circle
// distance between two coordinates.
package geo
