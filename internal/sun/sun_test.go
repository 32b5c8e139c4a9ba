package sun

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_ElevationAt_NoFix(t *testing.T) {
	clock := NewGeoClock(0, 0, false)

	_, err := clock.ElevationAt(time.Now())
	assert.ErrorIs(t, err, ErrUnavailable)

	_, _, err = clock.SunriseSunset(time.Now())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func Test_ElevationAt_Equator(t *testing.T) {
	clock := NewGeoClock(0, 0, true)

	// around the March equinox the sun passes close to the zenith at solar
	// noon on the equator/prime meridian
	noon, err := clock.ElevationAt(time.Date(2023, 3, 20, 12, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Greater(t, noon, 80.0)

	midnight, err := clock.ElevationAt(time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Less(t, midnight, -80.0)

	dusk, err := clock.ElevationAt(time.Date(2023, 3, 20, 18, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.InDelta(t, 0, dusk, 5)
}

func Test_SunriseSunset(t *testing.T) {
	clock := NewGeoClock(0, 0, true)

	rise, set, err := clock.SunriseSunset(time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.True(t, rise.Before(set))

	// close to a 12 hour day on the equator
	assert.InDelta(t, 12, set.Sub(rise).Hours(), 0.5)
}
