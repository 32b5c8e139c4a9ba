package constants

import "time"

// main adaptation loop
const TickInterval = 2 * time.Minute
const TransitionDuration = 2 * time.Second
const DispatchTimeout = 5 * time.Second
const DispatchSpacing = 100 * time.Millisecond

// night scheduler: blending windows either side of the sleep window
const PreNightTransition = time.Hour
const PostNightTransition = time.Hour

// day curve bounds (sun elevation, degrees)
const ElevationMin = -6.0
const ElevationBrightnessMax = 30.0
const ElevationKelvinMax = 60.0

// defaults, overridable via config
const DefaultMinBrightness = 1
const DefaultMaxBrightness = 100
const DefaultMinKelvin = 2200
const DefaultMaxKelvin = 6500
const DefaultCommandEchoGrace = time.Second
const DefaultToleranceBrightness = 1
const DefaultToleranceKelvin = 50

// bridge events
const EventBatchTypeUpdate = "update"

const EventTypeZigbeeConnectivity = "zigbee_connectivity"
const EventStatusConnectivityIssue = "connectivity_issue"
const EventStatusConnected = "connected"

const EventTypeLight = "light"

const ChangeTypeBrightness = "brightness"
const ChangeTypeColourTemp = "colour temp"
