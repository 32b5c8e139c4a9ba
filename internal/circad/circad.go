package circad

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/log"
	sse "github.com/r3labs/sse/v2"

	"github.com/sundholm/circad/internal/concurrency"
	"github.com/sundholm/circad/internal/config"
	"github.com/sundholm/circad/internal/constants"
	"github.com/sundholm/circad/internal/hue"
	"github.com/sundholm/circad/internal/models"
)

type targetComputer interface {
	TargetFor(ts time.Time, w config.SleepWindow) (models.Target, error)
}

type overrideTracker interface {
	SetPolicy(policy config.Overrides)
	RecordCommand(entityID string, target models.Target, at time.Time) error
	ObservePower(entityID string, on bool, at time.Time) (bool, error)
	ObserveLevel(changeType string, entityID string, value int, at time.Time) error
}

type lightStore interface {
	Add(lights []models.Light) error
	All() ([]models.Light, error)
	Get(entityID string) (models.Light, error)
	IsManaged(entityID string) (bool, error)
	EntityIDForZigbeeID(zigbeeID string) (string, error)
	SyncExclusions(excluded map[string]bool) error
	SetReachable(entityID string, reachable bool) error
}

type lightDriver interface {
	DiscoverLights(ctx context.Context) ([]models.Light, error)
	SetLightState(ctx context.Context, entityID string, target models.Target, transition time.Duration, asRGB bool) error
}

type eventSource interface {
	Subscribe(eventChannel chan *sse.Event)
	Unsubscribe()
}

type configStore interface {
	Snapshot() config.Snapshot
}

// Circad is the adaptation loop. Ticks and bridge events are handled on one
// goroutine, so no two evaluations of a light's target or override state run
// concurrently and a command is always recorded before its echo is processed.
type Circad struct {
	logger  *log.Logger
	cfg     configStore
	engine  targetComputer
	tracker overrideTracker
	store   lightStore
	driver  lightDriver
	events  eventSource

	// optional, receives the managed set after every tick (used by the TUI)
	lightsChannel chan<- []models.Light
}

func NewCircad(
	logger *log.Logger,
	cfg configStore,
	engine targetComputer,
	tracker overrideTracker,
	store lightStore,
	driver lightDriver,
	events eventSource,
	lightsChannel chan<- []models.Light,
) *Circad {
	return &Circad{
		logger:        logger,
		cfg:           cfg,
		engine:        engine,
		tracker:       tracker,
		store:         store,
		driver:        driver,
		events:        events,
		lightsChannel: lightsChannel,
	}
}

// Initialise discovers the managed lights and seeds the registry.
func (c *Circad) Initialise(ctx context.Context) error {
	c.logger.Debug("Circad.Initialise")

	lights, err := c.driver.DiscoverLights(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("Found lights", "total", len(lights))
	return c.store.Add(lights)
}

// Run drives the loop until the context is cancelled. In-flight dispatches
// finish; no new ones start after cancellation.
func (c *Circad) Run(ctx context.Context) {
	c.logger.Debug("Circad.Run")

	eventChannel := make(chan *sse.Event)
	c.events.Subscribe(eventChannel)
	defer c.events.Unsubscribe()

	ticker := time.NewTicker(constants.TickInterval)
	defer ticker.Stop()

	// evaluate all lights straight away rather than waiting a full period
	c.Tick(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Circad.Run: stop signal received")
			return

		case event := <-eventChannel:
			c.HandleBridgeEvent(ctx, event)

		case t := <-ticker.C:
			c.Tick(ctx, t)
		}
	}
}

// Tick is one periodic evaluation-and-dispatch pass over the managed set.
func (c *Circad) Tick(ctx context.Context, now time.Time) {
	snapshot := c.cfg.Snapshot()
	c.tracker.SetPolicy(snapshot.Overrides)

	if !snapshot.Enabled {
		c.logger.Debug("adaptation disabled, skipping tick")
		return
	}

	if err := c.store.SyncExclusions(snapshot.ExcludedEntities); err != nil {
		c.logger.Error("failed to apply exclusions", "err", err)
	}

	// fails closed: without an elevation reading no light is written this
	// tick, stale values are never dispatched
	target, err := c.engine.TargetFor(now, snapshot.Window)
	if err != nil {
		c.logger.Warn("target computation unavailable, skipping tick", "err", err)
		return
	}

	lights, err := c.store.All()
	if err != nil {
		c.logger.Error("failed to read lights", "err", err)
		return
	}

	var summary models.TickSummary
	var pending []models.Light
	for _, light := range lights {
		switch {
		case light.Excluded:
			summary.SkippedExcluded++
		case light.OverrideActive:
			summary.SkippedOverride++
		case !light.On:
			summary.SkippedOff++
		case light.LastCommanded != nil && light.LastCommanded.Equal(target):
			// already at target, dispatching again would be a no-op
		default:
			pending = append(pending, light)
		}
	}

	worker := concurrency.NewThrottledWorker(constants.DispatchSpacing, func(light models.Light) error {
		return c.apply(ctx, light, target)
	})
	summary.Failures = worker.Run(ctx, pending)
	summary.Updated = len(pending) - summary.Failures

	c.logger.Info("tick complete",
		"target", target.BrightnessPct,
		"kelvin", target.ColorTempK,
		"updated", summary.Updated,
		"skippedOverride", summary.SkippedOverride,
		"skippedExcluded", summary.SkippedExcluded,
		"skippedOff", summary.SkippedOff,
		"failures", summary.Failures,
	)

	c.publishLights()
}

// HandleBridgeEvent feeds driver state-change events into the override
// tracker, and fast-paths lights that just turned on.
func (c *Circad) HandleBridgeEvent(ctx context.Context, event *sse.Event) {
	events := []models.Event{}
	if err := json.Unmarshal(event.Data, &events); err != nil {
		c.logger.Error("unparseable bridge event", "err", err)
		return
	}

	for _, evt := range events {
		if evt.Type != constants.EventBatchTypeUpdate {
			continue
		}
		for _, eventData := range evt.Data {
			switch eventData.Type {

			case constants.EventTypeZigbeeConnectivity:
				entityID, err := c.store.EntityIDForZigbeeID(eventData.Id)
				if err != nil {
					c.logger.Debug("connectivity event for unmanaged device, ignoring")
					continue
				}
				switch eventData.Status {
				case constants.EventStatusConnectivityIssue:
					c.logger.Debug("light became unreachable", "light", entityID)
					if err := c.store.SetReachable(entityID, false); err != nil {
						c.logger.Error(err)
					}
				case constants.EventStatusConnected:
					// mains power restored: the light reports as freshly on
					c.handlePowerEvent(ctx, entityID, true, evt.CreationTime)
				}

			case constants.EventTypeLight:
				managed, err := c.store.IsManaged(eventData.Id)
				if err != nil {
					c.logger.Error(err)
					continue
				}
				if !managed {
					c.logger.Debug("event received for an unmanaged light, ignoring")
					continue
				}

				if eventData.On != nil {
					c.handlePowerEvent(ctx, eventData.Id, eventData.On.On, evt.CreationTime)
					continue
				}
				if eventData.Dimming != nil {
					value := int(math.Round(eventData.Dimming.Brightness))
					if err := c.tracker.ObserveLevel(constants.ChangeTypeBrightness, eventData.Id, value, evt.CreationTime); err != nil {
						c.logger.Error(err)
					}
				}
				if eventData.ColorTemperature != nil {
					value := hue.MirekToKelvin(eventData.ColorTemperature.Mirek)
					if err := c.tracker.ObserveLevel(constants.ChangeTypeColourTemp, eventData.Id, value, evt.CreationTime); err != nil {
						c.logger.Error(err)
					}
				}
			}
		}
	}
}

func (c *Circad) handlePowerEvent(ctx context.Context, entityID string, on bool, at time.Time) {
	turnedOn, err := c.tracker.ObservePower(entityID, on, at)
	if err != nil {
		c.logger.Error(err)
		return
	}
	if turnedOn {
		// a turn-on gets its target immediately rather than waiting for
		// the next tick
		c.applyNow(ctx, entityID, at)
	}
}

func (c *Circad) applyNow(ctx context.Context, entityID string, at time.Time) {
	snapshot := c.cfg.Snapshot()
	if !snapshot.Enabled {
		return
	}

	light, err := c.store.Get(entityID)
	if err != nil {
		c.logger.Error(err)
		return
	}
	if light.Excluded || light.OverrideActive {
		return
	}
	light.On = true

	target, err := c.engine.TargetFor(at, snapshot.Window)
	if err != nil {
		c.logger.Warn("target computation unavailable, light keeps its state", "light", entityID, "err", err)
		return
	}

	if err := c.apply(ctx, light, target); err != nil {
		c.logger.Warn("turn-on dispatch failed", "light", entityID, "err", err)
	}
	c.publishLights()
}

// apply dispatches one target and records the command. Failures are isolated
// to the light; the write is retried on the next tick, never sooner.
func (c *Circad) apply(ctx context.Context, light models.Light, target models.Target) error {
	dispatchCtx, cancel := context.WithTimeout(ctx, constants.DispatchTimeout)
	defer cancel()

	err := c.driver.SetLightState(dispatchCtx, light.EntityID, target, constants.TransitionDuration, !light.SupportsColorTemp)
	if err != nil {
		if errors.Is(err, hue.ErrUnreachable) {
			if storeErr := c.store.SetReachable(light.EntityID, false); storeErr != nil {
				c.logger.Error(storeErr)
			}
		}
		c.logger.Warn("dispatch failed", "light", light.Name, "err", err)
		return err
	}

	if !light.Reachable {
		if err := c.store.SetReachable(light.EntityID, true); err != nil {
			c.logger.Error(err)
		}
	}

	// recorded before the driver's echo can be observed, otherwise the
	// grace-period heuristic breaks
	return c.tracker.RecordCommand(light.EntityID, target, time.Now())
}

func (c *Circad) publishLights() {
	if c.lightsChannel == nil {
		return
	}
	lights, err := c.store.All()
	if err != nil {
		return
	}
	select {
	case c.lightsChannel <- lights:
	default:
	}
}
