package curve

import (
	"time"

	"github.com/sundholm/circad/internal/config"
	"github.com/sundholm/circad/internal/constants"
)

// Phase is one of the five ordered timeline phases of a 24h cycle:
// DAY -> PRE_NIGHT -> NIGHT -> POST_NIGHT -> DAY -> ...
type Phase int

const (
	PhaseDay Phase = iota
	PhasePreNight
	PhaseNight
	PhasePostNight
)

func (p Phase) String() string {
	switch p {
	case PhasePreNight:
		return "pre-night"
	case PhaseNight:
		return "night"
	case PhasePostNight:
		return "post-night"
	default:
		return "day"
	}
}

const secondsPerDay = 24 * 60 * 60

// PhaseFor returns the phase the timestamp falls in and the progress through
// that phase, 0.0 at entry and 1.0 at exit. Transitions are keyed purely on
// wall-clock time; the sleep window may wrap past midnight. A zero-duration
// window means the night floor never applies and every moment is day.
func PhaseFor(t time.Time, w config.SleepWindow) (Phase, float64) {
	sec := float64(secondOfDay(t))
	nightStart := float64(w.Start.Minutes() * 60)
	nightEnd := float64(w.End.Minutes() * 60)

	if nightStart == nightEnd {
		return PhaseDay, sec / secondsPerDay
	}

	pre := constants.PreNightTransition.Seconds()
	post := constants.PostNightTransition.Seconds()
	preStart := wrap(nightStart - pre)
	postEnd := wrap(nightEnd + post)

	// night is checked first: with a sleep window longer than 23h the
	// transition windows fall inside it and night wins
	if inWindow(sec, nightStart, nightEnd) {
		return PhaseNight, elapsed(sec, nightStart) / wrapLen(nightStart, nightEnd)
	}
	if inWindow(sec, preStart, nightStart) {
		return PhasePreNight, elapsed(sec, preStart) / pre
	}
	if inWindow(sec, nightEnd, postEnd) {
		return PhasePostNight, elapsed(sec, nightEnd) / post
	}

	dayLen := wrapLen(postEnd, preStart)
	if dayLen == 0 {
		return PhaseDay, 0
	}
	return PhaseDay, elapsed(sec, postEnd) / dayLen
}

// PreNightStart returns the absolute instant the pre-night transition
// containing (or most recently preceding) t began. The curve engine freezes
// the day values at this instant.
func PreNightStart(t time.Time, w config.SleepWindow) time.Time {
	preStart := wrap(float64(w.Start.Minutes()*60) - constants.PreNightTransition.Seconds())
	sec := int(preStart)
	start := time.Date(t.Year(), t.Month(), t.Day(), sec/3600, (sec/60)%60, sec%60, 0, t.Location())
	if start.After(t) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

func wrap(sec float64) float64 {
	for sec < 0 {
		sec += secondsPerDay
	}
	for sec >= secondsPerDay {
		sec -= secondsPerDay
	}
	return sec
}

// inWindow reports whether sec falls in [from, to), where the window may
// wrap past midnight
func inWindow(sec, from, to float64) bool {
	if from <= to {
		return sec >= from && sec < to
	}
	return sec >= from || sec < to
}

// elapsed returns the seconds from the window start to sec, wrapping at
// midnight
func elapsed(sec, from float64) float64 {
	return wrap(sec - from)
}

// wrapLen returns the length in seconds of the window [from, to)
func wrapLen(from, to float64) float64 {
	if from == to {
		return 0
	}
	return wrap(to - from)
}
