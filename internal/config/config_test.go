package config

import (
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func setValidConfig() {
	viper.Reset()
	viper.Set("enabled", true)
	viper.Set("nightStart", "22:00")
	viper.Set("nightEnd", "06:30")
	viper.Set("levels.minBrightness", 1)
	viper.Set("levels.maxBrightness", 100)
	viper.Set("levels.minKelvin", 2200)
	viper.Set("levels.maxKelvin", 6500)
	viper.Set("overrides.graceSeconds", 1.5)
	viper.Set("overrides.brightnessTolerance", 1)
	viper.Set("overrides.kelvinTolerance", 50)
	viper.Set("excludeEntities", []string{"ls1", "ls2"})
}

func testLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
}

func Test_ParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input    string
		expected TimeOfDay
		wantErr  bool
	}{
		{input: "22:00", expected: TimeOfDay{Hour: 22}},
		{input: "06:30", expected: TimeOfDay{Hour: 6, Minute: 30}},
		{input: "00:00", expected: TimeOfDay{}},
		{input: "23:59", expected: TimeOfDay{Hour: 23, Minute: 59}},
		{input: "25:00", wantErr: true},
		{input: "22:61", wantErr: true},
		{input: "nonsense", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			parsed, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, parsed)
		})
	}
}

func Test_Snapshot_ReadsAllSettings(t *testing.T) {
	setValidConfig()

	store, err := NewStore(testLogger())
	assert.NoError(t, err)

	snapshot := store.Snapshot()
	assert.True(t, snapshot.Enabled)
	assert.Equal(t, TimeOfDay{Hour: 22}, snapshot.Window.Start)
	assert.Equal(t, TimeOfDay{Hour: 6, Minute: 30}, snapshot.Window.End)
	assert.Equal(t, Levels{MinBrightness: 1, MaxBrightness: 100, MinKelvin: 2200, MaxKelvin: 6500}, snapshot.Levels)
	assert.Equal(t, 1500*time.Millisecond, snapshot.Overrides.Grace)
	assert.Equal(t, 1, snapshot.Overrides.BrightnessTolerance)
	assert.Equal(t, 50, snapshot.Overrides.KelvinTolerance)
	assert.Equal(t, map[string]bool{"ls1": true, "ls2": true}, snapshot.ExcludedEntities)
}

func Test_Snapshot_KeepsLastKnownGoodOnInvalidEdit(t *testing.T) {
	setValidConfig()

	store, err := NewStore(testLogger())
	assert.NoError(t, err)

	// the file is edited to something unparseable mid-run
	viper.Set("nightStart", "late-ish")
	snapshot := store.Snapshot()
	assert.Equal(t, TimeOfDay{Hour: 22}, snapshot.Window.Start)

	// and picks the new value up once it is valid again
	viper.Set("nightStart", "21:00")
	snapshot = store.Snapshot()
	assert.Equal(t, TimeOfDay{Hour: 21}, snapshot.Window.Start)
}

func Test_NewStore_RejectsInvalidInitialConfig(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "bad night start", key: "nightStart", value: "nope"},
		{name: "bad night end", key: "nightEnd", value: "24:00"},
		{name: "brightness below range", key: "levels.minBrightness", value: 0},
		{name: "brightness above range", key: "levels.maxBrightness", value: 101},
		{name: "inverted kelvin range", key: "levels.minKelvin", value: 7000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidConfig()
			viper.Set(tt.key, tt.value)

			_, err := NewStore(testLogger())
			assert.Error(t, err)
		})
	}
}

func Test_GeoLocation(t *testing.T) {
	setValidConfig()

	viper.Set("geoLocation", "60.17, 24.94")
	lat, lng, ok := GeoLocation()
	assert.True(t, ok)
	assert.InDelta(t, 60.17, lat, 0.0001)
	assert.InDelta(t, 24.94, lng, 0.0001)

	viper.Set("geoLocation", "somewhere nice")
	_, _, ok = GeoLocation()
	assert.False(t, ok)

	viper.Set("geoLocation", "")
	_, _, ok = GeoLocation()
	assert.False(t, ok)
}
