package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aqimet/aqipipe/internal/feature"
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")

	// ErrNoAirData is returned when the air-pollution response carries no
	// readings for the requested coordinate.
	ErrNoAirData = errors.New("no air pollution data in response")
)

// Client fetches air-pollution and current-weather readings from the
// OpenWeather API. Calls are single-attempt with a short timeout; there is no
// built-in retry — the outer collection loop provides the next attempt. A
// circuit breaker guards against hammering a failing upstream.
type Client struct {
	apiKey     string
	airURL     string
	weatherURL string
	client     *http.Client
	circuit    *gobreaker.CircuitBreaker
}

// NewClient creates a Client using the shared HTTP client. The client should
// carry a timeout on the order of 10 seconds.
func NewClient(httpClient *http.Client, apiKey string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:     apiKey,
		airURL:     "http://api.openweathermap.org/data/2.5/air_pollution",
		weatherURL: "http://api.openweathermap.org/data/2.5/weather",
		client:     httpClient,
		circuit:    cb,
	}
}

// airPollutionPayload mirrors the air_pollution endpoint document. Pointer
// fields distinguish absent components from zero readings.
type airPollutionPayload struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			CO   *float64 `json:"co"`
			NO   *float64 `json:"no"`
			NO2  *float64 `json:"no2"`
			O3   *float64 `json:"o3"`
			SO2  *float64 `json:"so2"`
			PM25 *float64 `json:"pm2_5"`
			PM10 *float64 `json:"pm10"`
			NH3  *float64 `json:"nh3"`
		} `json:"components"`
		Dt int64 `json:"dt"`
	} `json:"list"`
}

type currentWeatherPayload struct {
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Pressure  *float64 `json:"pressure"`
		Humidity  *float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
	Dt int64 `json:"dt"`
}

// FetchObservation performs both GETs and merges the documents into a single
// observation stamped with the current UTC time. Fields absent from either
// response stay nil; only a failed call or an empty air-pollution list is an
// error.
func (c *Client) FetchObservation(ctx context.Context, city string, lat, lon float64) (feature.Observation, error) {
	var air airPollutionPayload
	if err := c.getJSON(ctx, c.airURL, lat, lon, false, &air); err != nil {
		return feature.Observation{}, fmt.Errorf("fetch air pollution: %w", err)
	}
	if len(air.List) == 0 {
		return feature.Observation{}, ErrNoAirData
	}

	var weather currentWeatherPayload
	if err := c.getJSON(ctx, c.weatherURL, lat, lon, true, &weather); err != nil {
		return feature.Observation{}, fmt.Errorf("fetch current weather: %w", err)
	}

	reading := air.List[0]

	obs := feature.Observation{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		City:      city,
		AQIIndex:  reading.Main.AQI,

		PM25: reading.Components.PM25,
		PM10: reading.Components.PM10,
		O3:   reading.Components.O3,
		NO2:  reading.Components.NO2,
		SO2:  reading.Components.SO2,
		NO:   reading.Components.NO,
		NH3:  reading.Components.NH3,

		Temperature: weather.Main.Temp,
		FeelsLike:   weather.Main.FeelsLike,
		Humidity:    weather.Main.Humidity,
		Pressure:    weather.Main.Pressure,
		WindSpeed:   weather.Wind.Speed,
		WindDeg:     weather.Wind.Deg,
		Clouds:      weather.Clouds.All,

		Latitude:  lat,
		Longitude: lon,
	}

	// OpenWeather reports CO in ug/m3; normalize to mg/m3.
	if reading.Components.CO != nil {
		co := *reading.Components.CO / 1000
		obs.CO = &co
	}

	return obs, nil
}

// getJSON executes one GET through the circuit breaker and decodes the body.
func (c *Client) getJSON(ctx context.Context, baseURL string, lat, lon float64, metric bool, out any) error {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("appid", c.apiKey)
	if metric {
		values.Set("units", "metric")
	}

	u := fmt.Sprintf("%s?%s", baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, errServerError
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
