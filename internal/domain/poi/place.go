// Package poi models the fetched places of worship and selection helpers
// over them.
package poi

import (
	"github.com/minaret-app/minaret/internal/domain/geo"
)

// Place is one fetched place of worship. Values are immutable once fetched;
// Name may be a placeholder when the source carries no name tag.
type Place struct {
	// Name is the display name of the place.
	Name string `json:"name"`
	// Location is the place's coordinate.
	Location geo.Coordinate `json:"location"`
}

// Nearest returns the place closest to the given coordinate and its distance
// in meters. The second return is false when the list is empty.
func Nearest(places []Place, from geo.Coordinate) (Place, float64, bool) {
	if len(places) == 0 {
		return Place{}, 0, false
	}

	best := places[0]
	bestDistance := geo.Distance(from, best.Location)

	for _, p := range places[1:] {
		if d := geo.Distance(from, p.Location); d < bestDistance {
			best, bestDistance = p, d
		}
	}

	return best, bestDistance, true
}
