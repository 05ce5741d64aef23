package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Immutable delivery point supplied by the caller at planning time.
// The Location at index 0 of a planning request is the depot.
type Location struct {
	Category string
	Name     string
	Lat      float64
	Lon      float64
}

// Return the location as an orb point (longitude, latitude).
func (l Location) Point() orb.Point { return orb.Point{l.Lon, l.Lat} }

// Human-readable label used in route listings and API responses.
func (l Location) Label() string {
	if l.Category == "" {
		return l.Name
	}
	return fmt.Sprintf("%s - %s", l.Category, l.Name)
}
