// Package geocoding defines the geocoding-provider contract used to
// resolve a place name mentioned in an annotation value into coordinates.
package geocoding

import "context"

// Location is a resolved place.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Provider resolves place names to coordinates.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, query string) (*Location, error)
}
