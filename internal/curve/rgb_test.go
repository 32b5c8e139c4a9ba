package curve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sundholm/circad/internal/curve"
)

func Test_KelvinToRGB(t *testing.T) {

	tests := []struct {
		name    string
		kelvin  int
		r, g, b int
	}{
		{name: "candle warm", kelvin: 2200, r: 255, g: 146, b: 39},
		{name: "daylight near white", kelvin: 6500, r: 255, g: 254, b: 250},
		{name: "clamps below range", kelvin: 500, r: 255, g: 67, b: 0},
	}

	for _, c := range tests {
		t.Run(c.name, func(t *testing.T) {
			r, g, b := curve.KelvinToRGB(c.kelvin)
			assert.Equal(t, c.r, r)
			assert.Equal(t, c.g, g)
			assert.Equal(t, c.b, b)
		})
	}

	t.Run("blue channel rises with temperature", func(t *testing.T) {
		_, _, bWarm := curve.KelvinToRGB(2200)
		_, _, bCool := curve.KelvinToRGB(5000)
		assert.Greater(t, bCool, bWarm)
	})
}
