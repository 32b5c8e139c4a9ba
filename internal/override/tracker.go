package override

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/sundholm/circad/internal/config"
	"github.com/sundholm/circad/internal/constants"
	"github.com/sundholm/circad/internal/models"
)

type lightStore interface {
	Get(entityID string) (models.Light, error)
	SetOn(entityID string, on bool) error
	SetOverride(entityID string, active bool) error
	RecordCommand(entityID string, target models.Target, at time.Time) error
	ResetCommandState(entityID string) error
}

// Tracker classifies observed light state changes as either echoes of the
// engine's own commands or manual changes. A manual change flips the light
// into override until it is power-cycled.
//
// Detection is a race between "the human changed it" and "our own write being
// reported back": changes arriving within the grace period of the last
// command are assumed to be that echo, so a very rapid manual change inside
// the window can be missed.
type Tracker struct {
	logger *log.Logger
	store  lightStore
	policy config.Overrides
}

func NewTracker(logger *log.Logger, store lightStore, policy config.Overrides) *Tracker {
	return &Tracker{logger: logger, store: store, policy: policy}
}

// SetPolicy applies the tolerances/grace from the current config snapshot.
func (t *Tracker) SetPolicy(policy config.Overrides) {
	t.policy = policy
}

// RecordCommand is called immediately after a write is dispatched, before the
// driver's echo can arrive. It never changes the override flag.
func (t *Tracker) RecordCommand(entityID string, target models.Target, at time.Time) error {
	return t.store.RecordCommand(entityID, target, at)
}

// ObservePower handles a reported power change. An off->on transition resets
// the light's command state and clears any override; the return value tells
// the caller the light just turned on so it can dispatch straight away.
func (t *Tracker) ObservePower(entityID string, on bool, at time.Time) (bool, error) {
	light, err := t.store.Get(entityID)
	if err != nil {
		return false, err
	}

	if !on {
		t.logger.Debug("light switched off", "light", entityID)
		return false, t.store.SetOn(entityID, false)
	}

	if light.On {
		// already known to be on, nothing changed
		return false, nil
	}

	t.logger.Debug("light powered on, clearing command state", "light", entityID)
	if err := t.store.ResetCommandState(entityID); err != nil {
		return false, err
	}
	return true, t.store.SetOn(entityID, true)
}

// ObserveLevel handles a reported brightness or colour temperature value.
func (t *Tracker) ObserveLevel(changeType string, entityID string, value int, at time.Time) error {
	light, err := t.store.Get(entityID)
	if err != nil {
		return err
	}

	if light.LastCommanded == nil {
		// nothing has been commanded since power-on, nothing to compare
		t.logger.Debug("state change with no preceding command, ignoring", "light", entityID, "type", changeType)
		return nil
	}

	target := light.LastCommanded.BrightnessPct
	tolerance := t.policy.BrightnessTolerance
	if changeType == constants.ChangeTypeColourTemp {
		target = light.LastCommanded.ColorTempK
		tolerance = t.policy.KelvinTolerance
	}

	if equalWithinTolerance(value, target, tolerance) {
		t.logger.Debug("state change matches last command, treating as echo", "light", entityID, "type", changeType)
		return nil
	}

	if at.Sub(light.LastCommandedAt) <= t.policy.Grace {
		t.logger.Debug("divergent state change inside echo grace period, ignoring", "light", entityID, "type", changeType)
		return nil
	}

	t.logger.Info("manual change detected, setting override", "light", entityID, "type", changeType, "observed", value, "commanded", target)
	return t.store.SetOverride(entityID, true)
}

func equalWithinTolerance(a, b, tolerance int) bool {
	return a >= b-tolerance && a <= b+tolerance
}
