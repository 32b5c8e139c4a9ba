package models

import "time"

// Target is the computed state for one evaluation of the curve engine.
type Target struct {
	BrightnessPct int
	ColorTempK    int

	// the timestamp the computation was based on, not the dispatch time
	ComputedAt time.Time
}

// Equal reports whether two targets would produce the same light state.
func (t Target) Equal(other Target) bool {
	return t.BrightnessPct == other.BrightnessPct && t.ColorTempK == other.ColorTempK
}

// Light is one controllable entity under management.
type Light struct {
	EntityID        string
	Name            string
	ZigbeeServiceID string

	// excluded lights are never written to
	Excluded bool
	On       bool

	// false means the light only accepts an RGB payload
	SupportsColorTemp bool

	// whether the light was reachable during the last attempted update
	Reachable bool

	// automation must not write to this light until it is power-cycled
	OverrideActive bool

	// the last target the engine dispatched, nil if none since power-on
	LastCommanded   *Target
	LastCommandedAt time.Time
}

// Eligible reports whether the adaptation loop may write to this light.
func (l Light) Eligible() bool {
	return !l.Excluded && !l.OverrideActive && l.On
}

// TickSummary is the per-tick observability record emitted by the loop.
type TickSummary struct {
	Updated         int
	SkippedOverride int
	SkippedExcluded int
	SkippedOff      int
	Failures        int
}

// an event received from the bridge event stream
type Event struct {
	CreationTime time.Time   `json:"creationtime"`
	Data         []EventData `json:"data"`
	Type         string      `json:"type"`
}

type EventData struct {
	Id string `json:"id"`
	On *struct {
		On bool `json:"on"`
	} `json:"on"`
	Dimming *struct {
		Brightness float64 `json:"brightness"`
	} `json:"dimming"`
	ColorTemperature *struct {
		Mirek int `json:"mirek"`
	} `json:"color_temperature"`
	Type   string `json:"type"`
	Status string `json:"status"`
}
