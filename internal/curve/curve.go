package curve

import (
	"math"
	"time"

	"github.com/sundholm/circad/internal/config"
	"github.com/sundholm/circad/internal/constants"
	"github.com/sundholm/circad/internal/models"
	"github.com/sundholm/circad/internal/sun"
)

// Engine computes target light states from time of day and sun elevation.
// Deterministic for a fixed clock; holds no mutable state.
type Engine struct {
	sun    sun.Clock
	levels config.Levels
}

func NewEngine(sunClock sun.Clock, levels config.Levels) *Engine {
	return &Engine{sun: sunClock, levels: levels}
}

// TargetFor computes the target state for the given timestamp. An elevation
// reading that cannot be produced surfaces as sun.ErrUnavailable and the
// caller must skip the evaluation.
func (e *Engine) TargetFor(ts time.Time, w config.SleepWindow) (models.Target, error) {
	phase, progress := PhaseFor(ts, w)

	var brightness, kelvin float64
	switch phase {

	case PhaseNight:
		brightness, kelvin = e.nightFloor()

	case PhasePreNight:
		// the day values are frozen at the instant the transition began,
		// so the wind-down is smooth regardless of further sun movement
		elevation, err := e.sun.ElevationAt(PreNightStart(ts, w))
		if err != nil {
			return models.Target{}, err
		}
		fromB, fromK := e.dayValues(elevation)
		toB, toK := e.nightFloor()
		brightness = lerp(fromB, toB, progress)
		kelvin = lerp(fromK, toK, progress)

	case PhasePostNight:
		elevation, err := e.sun.ElevationAt(ts)
		if err != nil {
			return models.Target{}, err
		}
		fromB, fromK := e.nightFloor()
		toB, toK := e.dayValues(elevation)
		brightness = lerp(fromB, toB, progress)
		kelvin = lerp(fromK, toK, progress)

	default:
		elevation, err := e.sun.ElevationAt(ts)
		if err != nil {
			return models.Target{}, err
		}
		brightness, kelvin = e.dayValues(elevation)
	}

	return models.Target{
		BrightnessPct: clampInt(int(math.Round(brightness)), e.levels.MinBrightness, e.levels.MaxBrightness),
		ColorTempK:    clampInt(int(math.Round(kelvin)), e.levels.MinKelvin, e.levels.MaxKelvin),
		ComputedAt:    ts,
	}, nil
}

// dayValues maps sun elevation onto the configured brightness and colour
// temperature ranges. Below -6 degrees both clamp to their minimum; above
// 30/60 degrees they clamp to their maximum.
func (e *Engine) dayValues(elevation float64) (float64, float64) {
	tb := clamp((elevation-constants.ElevationMin)/(constants.ElevationBrightnessMax-constants.ElevationMin), 0, 1)
	tk := clamp((elevation-constants.ElevationMin)/(constants.ElevationKelvinMax-constants.ElevationMin), 0, 1)
	brightness := lerp(float64(e.levels.MinBrightness), float64(e.levels.MaxBrightness), tb)
	kelvin := lerp(float64(e.levels.MinKelvin), float64(e.levels.MaxKelvin), tk)
	return brightness, kelvin
}

func (e *Engine) nightFloor() (float64, float64) {
	return float64(e.levels.MinBrightness), float64(e.levels.MinKelvin)
}

func lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
