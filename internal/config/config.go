package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/sundholm/circad/internal/constants"
)

// TimeOfDay is a wall-clock time with minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// ParseTimeOfDay parses a config time string such as "22:00".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// SleepWindow is the configured sleep period. Start > End is valid and means
// the window wraps past midnight. Start == End means the window has zero
// duration and the night floor never applies.
type SleepWindow struct {
	Start TimeOfDay
	End   TimeOfDay
}

type Levels struct {
	MinBrightness int
	MaxBrightness int
	MinKelvin     int
	MaxKelvin     int
}

type Overrides struct {
	Grace               time.Duration
	BrightnessTolerance int
	KelvinTolerance     int
}

// Snapshot is one coherent view of the settings, taken at the start of a tick.
type Snapshot struct {
	Enabled          bool
	Window           SleepWindow
	ExcludedEntities map[string]bool
	Levels           Levels
	Overrides        Overrides
}

// Store reads settings through viper and hands out validated snapshots.
// A snapshot that fails validation is discarded and the last-known-good
// snapshot stays active.
type Store struct {
	logger *log.Logger
	last   Snapshot
}

func Initialise() error {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath("/etc/circad/")
	viper.AddConfigPath("$HOME/.config/circad/")
	viper.AddConfigPath(".")

	viper.SetDefault("enabled", true)
	viper.SetDefault("nightStart", "22:00")
	viper.SetDefault("nightEnd", "06:30")
	viper.SetDefault("levels.minBrightness", constants.DefaultMinBrightness)
	viper.SetDefault("levels.maxBrightness", constants.DefaultMaxBrightness)
	viper.SetDefault("levels.minKelvin", constants.DefaultMinKelvin)
	viper.SetDefault("levels.maxKelvin", constants.DefaultMaxKelvin)
	viper.SetDefault("overrides.graceSeconds", constants.DefaultCommandEchoGrace.Seconds())
	viper.SetDefault("overrides.brightnessTolerance", constants.DefaultToleranceBrightness)
	viper.SetDefault("overrides.kelvinTolerance", constants.DefaultToleranceKelvin)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// NewStore validates the initial configuration; there is no last-known-good
// to fall back on yet, so a broken config is fatal here.
func NewStore(logger *log.Logger) (*Store, error) {
	snapshot, err := read()
	if err != nil {
		return nil, err
	}
	return &Store{logger: logger, last: snapshot}, nil
}

// Snapshot re-reads the settings. Changes take effect from the next call,
// there is no mid-tick reload.
func (s *Store) Snapshot() Snapshot {
	snapshot, err := read()
	if err != nil {
		s.logger.Warn("invalid configuration, keeping last known good", "err", err)
		return s.last
	}
	s.last = snapshot
	return snapshot
}

func read() (Snapshot, error) {
	start, err := ParseTimeOfDay(viper.GetString("nightStart"))
	if err != nil {
		return Snapshot{}, fmt.Errorf("nightStart: %w", err)
	}
	end, err := ParseTimeOfDay(viper.GetString("nightEnd"))
	if err != nil {
		return Snapshot{}, fmt.Errorf("nightEnd: %w", err)
	}

	levels := Levels{
		MinBrightness: viper.GetInt("levels.minBrightness"),
		MaxBrightness: viper.GetInt("levels.maxBrightness"),
		MinKelvin:     viper.GetInt("levels.minKelvin"),
		MaxKelvin:     viper.GetInt("levels.maxKelvin"),
	}
	if levels.MinBrightness < 1 || levels.MaxBrightness > 100 || levels.MinBrightness > levels.MaxBrightness {
		return Snapshot{}, fmt.Errorf("invalid brightness levels %d..%d", levels.MinBrightness, levels.MaxBrightness)
	}
	if levels.MinKelvin > levels.MaxKelvin {
		return Snapshot{}, fmt.Errorf("invalid kelvin levels %d..%d", levels.MinKelvin, levels.MaxKelvin)
	}

	excluded := map[string]bool{}
	for _, id := range viper.GetStringSlice("excludeEntities") {
		excluded[id] = true
	}

	return Snapshot{
		Enabled:          viper.GetBool("enabled"),
		Window:           SleepWindow{Start: start, End: end},
		ExcludedEntities: excluded,
		Levels:           levels,
		Overrides: Overrides{
			Grace:               time.Duration(viper.GetFloat64("overrides.graceSeconds") * float64(time.Second)),
			BrightnessTolerance: viper.GetInt("overrides.brightnessTolerance"),
			KelvinTolerance:     viper.GetInt("overrides.kelvinTolerance"),
		},
	}, nil
}

// GeoLocation returns the configured latitude and longitude.
func GeoLocation() (float64, float64, bool) {
	latLng := strings.Split(viper.GetString("geoLocation"), ",")
	if len(latLng) != 2 {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latLng[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(latLng[1]), 64)
	if errLat != nil || errLng != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
