package curve_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sundholm/circad/internal/config"
	"github.com/sundholm/circad/internal/curve"
	"github.com/sundholm/circad/internal/sun"
)

type stubClock struct {
	elevationFn func(t time.Time) (float64, error)
}

func (s stubClock) ElevationAt(t time.Time) (float64, error) {
	return s.elevationFn(t)
}

func fixedElevation(elevation float64) stubClock {
	return stubClock{elevationFn: func(time.Time) (float64, error) { return elevation, nil }}
}

var defaultLevels = config.Levels{MinBrightness: 1, MaxBrightness: 100, MinKelvin: 2200, MaxKelvin: 6500}

// a window that never covers midday, so day-curve cases stay in the day phase
var nightWindow = window(22, 0, 6, 30)

func Test_TargetFor_DayCurve(t *testing.T) {

	tests := []struct {
		name               string
		elevation          float64
		expectedBrightness int
		expectedKelvin     int
	}{
		{name: "below lower bound clamps to minimum", elevation: -10, expectedBrightness: 1, expectedKelvin: 2200},
		{name: "at lower bound", elevation: -6, expectedBrightness: 1, expectedKelvin: 2200},
		{name: "brightness upper bound", elevation: 30, expectedBrightness: 100, expectedKelvin: 4545},
		{name: "kelvin upper bound", elevation: 60, expectedBrightness: 100, expectedKelvin: 6500},
		{name: "above all bounds clamps to maximum", elevation: 75, expectedBrightness: 100, expectedKelvin: 6500},
	}

	for _, c := range tests {
		t.Run(c.name, func(t *testing.T) {
			engine := curve.NewEngine(fixedElevation(c.elevation), defaultLevels)
			target, err := engine.TargetFor(at(1, 12, 0), nightWindow)
			assert.NoError(t, err)
			assert.Equal(t, c.expectedBrightness, target.BrightnessPct)
			assert.Equal(t, c.expectedKelvin, target.ColorTempK)
		})
	}
}

func Test_TargetFor_DayCurveIsMonotonic(t *testing.T) {

	lastBrightness, lastKelvin := 0, 0
	for elevation := -6.0; elevation <= 60.0; elevation += 0.5 {
		engine := curve.NewEngine(fixedElevation(elevation), defaultLevels)
		target, err := engine.TargetFor(at(1, 12, 0), nightWindow)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, target.BrightnessPct, lastBrightness, "brightness regressed at %v degrees", elevation)
		assert.GreaterOrEqual(t, target.ColorTempK, lastKelvin, "kelvin regressed at %v degrees", elevation)
		lastBrightness, lastKelvin = target.BrightnessPct, target.ColorTempK
	}
}

func Test_TargetFor_NightFloor(t *testing.T) {

	// inside the sleep window the floor applies regardless of elevation
	for _, elevation := range []float64{-20, 0, 45, 90} {
		engine := curve.NewEngine(fixedElevation(elevation), defaultLevels)

		for _, ts := range []time.Time{at(1, 23, 0), at(1, 3, 0), at(1, 6, 0)} {
			target, err := engine.TargetFor(ts, nightWindow)
			assert.NoError(t, err)
			assert.Equal(t, 1, target.BrightnessPct)
			assert.Equal(t, 2200, target.ColorTempK)
		}
	}
}

func Test_TargetFor_PreNightBlend(t *testing.T) {

	// elevation 12 degrees maps to (50.5%, 3372.7K) on the day curve;
	// halfway into the wind-down toward (1%, 2200K) that blends to
	// (25.75, 2786.4), rounded
	engine := curve.NewEngine(fixedElevation(12), defaultLevels)

	target, err := engine.TargetFor(at(1, 21, 30), nightWindow)
	assert.NoError(t, err)
	assert.Equal(t, 26, target.BrightnessPct)
	assert.Equal(t, 2786, target.ColorTempK)
	assert.Equal(t, at(1, 21, 30), target.ComputedAt)
}

func Test_TargetFor_PreNightFreezesDayValue(t *testing.T) {

	// the sun keeps moving during the transition; the blend endpoint must
	// come from the elevation at the instant the transition began
	clock := stubClock{elevationFn: func(ts time.Time) (float64, error) {
		if ts.Equal(at(1, 21, 0)) {
			return 12, nil
		}
		return -6, nil
	}}
	engine := curve.NewEngine(clock, defaultLevels)

	target, err := engine.TargetFor(at(1, 21, 30), nightWindow)
	assert.NoError(t, err)
	assert.Equal(t, 26, target.BrightnessPct)
	assert.Equal(t, 2786, target.ColorTempK)
}

func Test_TargetFor_PostNightBlend(t *testing.T) {

	// symmetric to pre-night, but the day endpoint tracks the current
	// elevation
	engine := curve.NewEngine(fixedElevation(12), defaultLevels)

	target, err := engine.TargetFor(at(1, 7, 0), nightWindow)
	assert.NoError(t, err)
	assert.Equal(t, 26, target.BrightnessPct)
	assert.Equal(t, 2786, target.ColorTempK)
}

func Test_TargetFor_ZeroDurationWindowAlwaysDayCurve(t *testing.T) {

	engine := curve.NewEngine(fixedElevation(30), defaultLevels)

	for hour := 0; hour < 24; hour++ {
		target, err := engine.TargetFor(at(1, hour, 0), window(22, 0, 22, 0))
		assert.NoError(t, err)
		assert.Equal(t, 100, target.BrightnessPct)
	}
}

func Test_TargetFor_ElevationUnavailable(t *testing.T) {

	clock := stubClock{elevationFn: func(time.Time) (float64, error) { return 0, sun.ErrUnavailable }}
	engine := curve.NewEngine(clock, defaultLevels)

	_, err := engine.TargetFor(at(1, 12, 0), nightWindow)
	assert.ErrorIs(t, err, sun.ErrUnavailable)

	_, err = engine.TargetFor(at(1, 21, 30), nightWindow)
	assert.ErrorIs(t, err, sun.ErrUnavailable)

	// the night floor needs no reading
	target, err := engine.TargetFor(at(1, 23, 0), nightWindow)
	assert.NoError(t, err)
	assert.Equal(t, 1, target.BrightnessPct)
}
