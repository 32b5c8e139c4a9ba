package sun

import (
	"errors"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/sixdouglas/suncalc"
)

// ErrUnavailable is returned when no elevation reading can be produced.
// Callers must skip the evaluation rather than fall back to defaults.
var ErrUnavailable = errors.New("sun elevation unavailable")

// Clock supplies the sun's elevation for a timestamp.
type Clock interface {
	ElevationAt(t time.Time) (float64, error)
}

// GeoClock computes elevation from a fixed observer location.
type GeoClock struct {
	lat, lng float64
	hasFix   bool
}

func NewGeoClock(lat float64, lng float64, hasFix bool) *GeoClock {
	return &GeoClock{lat: lat, lng: lng, hasFix: hasFix}
}

// ElevationAt returns the sun's elevation in degrees, negative below the
// horizon.
func (c *GeoClock) ElevationAt(t time.Time) (float64, error) {
	if !c.hasFix {
		return 0, ErrUnavailable
	}
	position := suncalc.GetPosition(t, c.lat, c.lng)
	return position.Altitude * (180.0 / math.Pi), nil
}

// SunriseSunset returns the local sunrise and sunset for the given date.
func (c *GeoClock) SunriseSunset(date time.Time) (time.Time, time.Time, error) {
	if !c.hasFix {
		return time.Time{}, time.Time{}, ErrUnavailable
	}
	rise, set := sunrise.SunriseSunset(c.lat, c.lng, date.Year(), date.Month(), date.Day())
	return rise, set, nil
}
