package curve

import "math"

// KelvinToRGB approximates the RGB rendering of a colour temperature, for
// lights that accept colour but not colour temperature. Not physically
// perfect but close enough for ambient lighting.
func KelvinToRGB(kelvin int) (int, int, int) {
	k := clamp(float64(kelvin), 1000, 40000) / 100.0

	var r, g, b float64
	if k <= 66 {
		r = 255
		g = 99.4708025861*math.Log(k) - 161.1195681661
	} else {
		r = 329.698727446 * math.Pow(k-60, -0.1332047592)
		g = 288.1221695283 * math.Pow(k-60, -0.0755148492)
	}

	switch {
	case k >= 66:
		b = 255
	case k <= 19:
		b = 0
	default:
		b = 138.5177312231*math.Log(k-10) - 305.0447927307
	}

	return int(clamp(r, 0, 255)), int(clamp(g, 0, 255)), int(clamp(b, 0, 255))
}
