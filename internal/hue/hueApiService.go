package hue

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/sundholm/circad/internal/curve"
	"github.com/sundholm/circad/internal/models"
)

// ErrUnreachable is returned when the bridge accepts the request but the
// light itself did not respond.
var ErrUnreachable = errors.New("unreachable")

type HueAPIService struct {
	logger *log.Logger
	client *http.Client
}

func NewHueAPIService(logger *log.Logger) *HueAPIService {
	return &HueAPIService{
		logger: logger,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

func (h *HueAPIService) GET(ctx context.Context, url string) ([]byte, error) {
	return h.makeRequest(ctx, "GET", url, nil)
}

func (h *HueAPIService) PUT(ctx context.Context, url string, body []byte) ([]byte, error) {
	return h.makeRequest(ctx, "PUT", url, body)
}

// DiscoverLights reads every device from the bridge and returns those with a
// light service, with their current power state and colour capabilities.
func (h *HueAPIService) DiscoverLights(ctx context.Context) ([]models.Light, error) {
	body, err := h.GET(ctx, "/clip/v2/resource/device")
	if err != nil {
		return nil, fmt.Errorf("error reading devices from hue bridge: %w", err)
	}

	respBody := DevicesResponse{}
	if err := json.Unmarshal(body, &respBody); err != nil {
		return nil, fmt.Errorf("error parsing device response: %w", err)
	}
	h.logger.Info("Read devices", "total", len(respBody.Data))

	lights := lo.FilterMap(respBody.Data, func(device HueDevice, _ int) (models.Light, bool) {
		svcLight, isLight := lo.Find(device.Services, func(service HueDeviceService) bool {
			return service.RType == "light"
		})
		if !isLight {
			return models.Light{}, false
		}

		light, err := h.GetLight(ctx, svcLight.RID)
		if err != nil {
			h.logger.Warn("Light state couldn't be read", "name", device.Metadata.Name, "err", err)
			return models.Light{}, false
		}
		light.Name = device.Metadata.Name

		svcZigbee, hasZigbee := lo.Find(device.Services, func(service HueDeviceService) bool {
			return service.RType == "zigbee_connectivity"
		})
		if hasZigbee {
			light.ZigbeeServiceID = svcZigbee.RID
		}

		h.logger.Debug("Read state for light", "name", light.Name, "on", light.On, "ct", light.SupportsColorTemp)
		return light, true
	})

	return lights, nil
}

func (h *HueAPIService) GetLight(ctx context.Context, id string) (models.Light, error) {
	body, err := h.GET(ctx, fmt.Sprintf("/clip/v2/resource/light/%s", id))
	if err != nil {
		return models.Light{}, err
	}

	respBody := LightResponse{}
	if err := json.Unmarshal(body, &respBody); err != nil {
		return models.Light{}, err
	}
	if len(respBody.Data) == 0 {
		return models.Light{}, fmt.Errorf("no light with id %s", id)
	}

	light := respBody.Data[0]
	return models.Light{
		EntityID:          id,
		On:                light.On.On,
		SupportsColorTemp: light.ColorTemperature != nil,
		Reachable:         true,
	}, nil
}

// SetLightState dispatches a target to one light with a fade of the given
// duration. asRGB selects an xy colour payload for lights without colour
// temperature support.
func (h *HueAPIService) SetLightState(ctx context.Context, entityID string, target models.Target, transition time.Duration, asRGB bool) error {
	payload := map[string]any{
		"dimming":  map[string]any{"brightness": target.BrightnessPct},
		"dynamics": map[string]any{"duration": transition.Milliseconds()},
	}
	if asRGB {
		r, g, b := curve.KelvinToRGB(target.ColorTempK)
		x, y := rgbToXY(r, g, b)
		payload["color"] = map[string]any{"xy": map[string]any{"x": x, "y": y}}
	} else {
		payload["color_temperature"] = map[string]any{"mirek": kelvinToMirek(target.ColorTempK)}
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := h.PUT(ctx, fmt.Sprintf("/clip/v2/resource/light/%s", entityID), requestBody); err != nil {
		return err
	}
	return nil
}

func (h *HueAPIService) makeRequest(ctx context.Context, verb string, url string, body []byte) ([]byte, error) {
	bodyReader := bytes.NewReader(body)
	req, err := http.NewRequestWithContext(ctx, verb, fmt.Sprintf("https://%s%s", viper.GetString("bridgeIp"), url), bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("hue-application-key", viper.GetString("hueApplicationKey"))

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case 200:
		responseBody, _ := io.ReadAll(resp.Body)
		return responseBody, nil
	case 207:
		// the bridge reports a partial success when the light is powered
		// down at the wall
		return nil, ErrUnreachable
	default:
		h.logger.Error("Error making Hue API call", "url", url, "status", resp.Status)
		return nil, fmt.Errorf("hue api call %s %s: %s", verb, url, resp.Status)
	}
}

func kelvinToMirek(kelvin int) int {
	if kelvin <= 0 {
		return 500
	}
	return 1000000 / kelvin
}

// MirekToKelvin converts a bridge-reported colour temperature for comparison
// against commanded targets.
func MirekToKelvin(mirek int) int {
	if mirek <= 0 {
		return 0
	}
	return 1000000 / mirek
}

// rgbToXY converts gamma-corrected sRGB to the CIE xy space the bridge
// expects for colour-only lights.
func rgbToXY(r, g, b int) (float64, float64) {
	rf := inverseGamma(float64(r) / 255.0)
	gf := inverseGamma(float64(g) / 255.0)
	bf := inverseGamma(float64(b) / 255.0)

	// Wide RGB D65
	x := rf*0.4124 + gf*0.3576 + bf*0.1805
	y := rf*0.2126 + gf*0.7152 + bf*0.0722
	z := rf*0.0193 + gf*0.1192 + bf*0.9505

	sum := x + y + z
	if sum == 0 {
		return 0.3127, 0.3290
	}
	return x / sum, y / sum
}

func inverseGamma(c float64) float64 {
	if c > 0.04045 {
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return c / 12.92
}
