package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-bot/internal/weather"
)

// DefaultOpenWeatherBaseURL is the public OpenWeatherMap API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

const (
	currentPath      = "/data/2.5/weather"
	forecastPath     = "/data/2.5/forecast"
	airPollutionPath = "/data/2.5/air_pollution"
	geocodingPath    = "/geo/1.0/direct"
)

var errNoAirQuality = errors.New("no air quality data")

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap.
type OpenWeatherProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

var _ weather.Provider = (*OpenWeatherProvider)(nil)

// NewOpenWeatherProvider creates a provider talking to baseURL. An empty
// baseURL means DefaultOpenWeatherBaseURL.
func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	return &OpenWeatherProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) getJSON(ctx context.Context, path string, values url.Values, out interface{}) error {
	if p.apiKey == "" {
		return fmt.Errorf("openweather api key is not configured")
	}

	q := url.Values{}
	for k, v := range values {
		q[k] = v
	}
	q.Set("appid", p.apiKey)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s%s?%s", p.baseURL, path, q.Encode()), nil)
	if err != nil {
		return err
	}

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func imperial(values url.Values) url.Values {
	values.Set("units", "imperial")
	return values
}

func byQuery(query string) url.Values {
	return url.Values{"q": {query}}
}

func byCoords(lat, lon float64) url.Values {
	return url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
}

// Geocode returns the first direct-geocoding match for query.
func (p *OpenWeatherProvider) Geocode(ctx context.Context, query string) (weather.Place, error) {
	values := byQuery(query)
	values.Set("limit", "1")

	var payload []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
		State   string  `json:"state"`
	}
	if err := p.getJSON(ctx, geocodingPath, values, &payload); err != nil {
		return weather.Place{}, err
	}
	if len(payload) == 0 {
		return weather.Place{}, weather.ErrLocationNotFound
	}

	m := payload[0]
	return weather.Place{
		Name:    m.Name,
		State:   m.State,
		Country: m.Country,
		Lat:     m.Lat,
		Lon:     m.Lon,
	}, nil
}

type conditionPayload struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type currentPayload struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []conditionPayload `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Visibility *float64 `json:"visibility"`
	Wind       struct {
		Speed float64  `json:"speed"`
		Deg   *float64 `json:"deg"`
		Gust  *float64 `json:"gust"`
	} `json:"wind"`
	Clouds *struct {
		All int `json:"all"`
	} `json:"clouds"`
	Rain *struct {
		OneH *float64 `json:"1h"`
	} `json:"rain"`
	Snow *struct {
		OneH *float64 `json:"1h"`
	} `json:"snow"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone *int `json:"timezone"`
}

func (c currentPayload) toConditions() weather.Conditions {
	out := weather.Conditions{
		Name:       c.Name,
		Country:    c.Sys.Country,
		Lat:        c.Coord.Lat,
		Lon:        c.Coord.Lon,
		Temp:       c.Main.Temp,
		FeelsLike:  c.Main.FeelsLike,
		TempMin:    c.Main.TempMin,
		TempMax:    c.Main.TempMax,
		Humidity:   c.Main.Humidity,
		Pressure:   c.Main.Pressure,
		WindSpeed:  c.Wind.Speed,
		WindDeg:    c.Wind.Deg,
		WindGust:   c.Wind.Gust,
		Visibility: c.Visibility,
		UTCOffset:  c.Timezone,
	}
	if len(c.Weather) > 0 {
		out.ConditionID = c.Weather[0].ID
		out.Description = c.Weather[0].Description
		out.Icon = c.Weather[0].Icon
	}
	if c.Clouds != nil {
		all := c.Clouds.All
		out.Cloudiness = &all
	}
	if c.Rain != nil {
		out.Rain1h = c.Rain.OneH
	}
	if c.Snow != nil {
		out.Snow1h = c.Snow.OneH
	}
	if c.Sys.Sunrise > 0 {
		out.Sunrise = time.Unix(c.Sys.Sunrise, 0).UTC()
	}
	if c.Sys.Sunset > 0 {
		out.Sunset = time.Unix(c.Sys.Sunset, 0).UTC()
	}
	return out
}

// CurrentByQuery fetches current conditions for a free-text location.
func (p *OpenWeatherProvider) CurrentByQuery(ctx context.Context, query string) (weather.Conditions, error) {
	return p.current(ctx, byQuery(query))
}

// CurrentByCoords fetches current conditions for a coordinate.
func (p *OpenWeatherProvider) CurrentByCoords(ctx context.Context, lat, lon float64) (weather.Conditions, error) {
	return p.current(ctx, byCoords(lat, lon))
}

func (p *OpenWeatherProvider) current(ctx context.Context, values url.Values) (weather.Conditions, error) {
	var payload currentPayload
	if err := p.getJSON(ctx, currentPath, imperial(values), &payload); err != nil {
		return weather.Conditions{}, err
	}
	return payload.toConditions(), nil
}

type forecastPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []conditionPayload `json:"weather"`
		Pop     float64            `json:"pop"`
	} `json:"list"`
	City struct {
		Name  string `json:"name"`
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Country  string `json:"country"`
		Timezone *int   `json:"timezone"`
	} `json:"city"`
}

func (f forecastPayload) toForecast() weather.Forecast {
	out := weather.Forecast{
		City:      f.City.Name,
		Country:   f.City.Country,
		Lat:       f.City.Coord.Lat,
		Lon:       f.City.Coord.Lon,
		UTCOffset: f.City.Timezone,
		Entries:   make([]weather.ForecastEntry, 0, len(f.List)),
	}
	for _, item := range f.List {
		e := weather.ForecastEntry{
			Time: time.Unix(item.Dt, 0).UTC(),
			Temp: item.Main.Temp,
			Pop:  item.Pop,
		}
		if len(item.Weather) > 0 {
			e.ConditionID = item.Weather[0].ID
			e.Description = item.Weather[0].Description
			e.Icon = item.Weather[0].Icon
		}
		out.Entries = append(out.Entries, e)
	}
	return out
}

// ForecastByQuery fetches the 5-day forecast for a free-text location.
func (p *OpenWeatherProvider) ForecastByQuery(ctx context.Context, query string) (weather.Forecast, error) {
	return p.forecast(ctx, byQuery(query))
}

// ForecastByCoords fetches the 5-day forecast for a coordinate.
func (p *OpenWeatherProvider) ForecastByCoords(ctx context.Context, lat, lon float64) (weather.Forecast, error) {
	return p.forecast(ctx, byCoords(lat, lon))
}

func (p *OpenWeatherProvider) forecast(ctx context.Context, values url.Values) (weather.Forecast, error) {
	var payload forecastPayload
	if err := p.getJSON(ctx, forecastPath, imperial(values), &payload); err != nil {
		return weather.Forecast{}, err
	}
	return payload.toForecast(), nil
}

// AirPollution fetches the current air-quality reading for a coordinate.
func (p *OpenWeatherProvider) AirPollution(ctx context.Context, lat, lon float64) (weather.AirQuality, error) {
	var payload struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components weather.Pollutants `json:"components"`
		} `json:"list"`
	}
	if err := p.getJSON(ctx, airPollutionPath, byCoords(lat, lon), &payload); err != nil {
		return weather.AirQuality{}, err
	}
	if len(payload.List) == 0 {
		return weather.AirQuality{}, errNoAirQuality
	}
	return weather.AirQuality{
		AQI:        payload.List[0].Main.AQI,
		Pollutants: payload.List[0].Components,
	}, nil
}
