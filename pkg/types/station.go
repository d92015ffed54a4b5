package types

import (
	"errors"
	"fmt"
)

// Station validation errors.
var (
	ErrStationCodeEmpty  = errors.New("station code is empty")
	ErrStationOutOfRange = errors.New("station coordinates out of range")
)

// Station is one gauging site to delineate.
type Station struct {
	// Code is the station's external identifier, kept as a string so that
	// leading zeros survive round-trips through CSV and SQL.
	Code string

	// Lon and Lat are the reported station coordinates in degrees.
	Lon float64
	Lat float64

	// RefAreaM2 is the published drainage area in m², or 0 when the source
	// record carries none.
	RefAreaM2 float64
}

// HasReferenceArea reports whether the station carries a usable reference
// area.
func (s Station) HasReferenceArea() bool {
	return s.RefAreaM2 > 0
}

// Validate checks that the station has a code and plausible coordinates.
func (s Station) Validate() error {
	if s.Code == "" {
		return ErrStationCodeEmpty
	}
	if s.Lon < -180 || s.Lon > 180 || s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("station %s (%g, %g): %w", s.Code, s.Lon, s.Lat, ErrStationOutOfRange)
	}
	return nil
}
