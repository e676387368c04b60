package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-bot/internal/weather"
)

const portlandCurrent = `{
  "coord": {"lon": -122.6784, "lat": 45.5152},
  "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
  "main": {"temp": 55.4, "feels_like": 53.6, "temp_min": 51.5, "temp_max": 58.3, "pressure": 1012, "humidity": 82},
  "visibility": 10000,
  "wind": {"speed": 6.2, "deg": 200},
  "clouds": {"all": 90},
  "rain": {"1h": 0.4},
  "sys": {"country": "US", "sunrise": 1710079800, "sunset": 1710122400},
  "timezone": -25200,
  "name": "Portland"
}`

const portlandForecast = `{
  "list": [
    {"dt": 1710082800, "main": {"temp": 50.2}, "weather": [{"id": 801, "description": "few clouds", "icon": "02d"}], "pop": 0},
    {"dt": 1710093600, "main": {"temp": 54.6}, "weather": [{"id": 500, "description": "light rain", "icon": "10d"}], "pop": 0.4}
  ],
  "city": {"name": "Portland", "coord": {"lat": 45.5152, "lon": -122.6784}, "country": "US", "timezone": -25200}
}`

type owmServer struct {
	mu       sync.Mutex
	requests []*http.Request
	geocode  string
	current  string
	forecast string
	air      string
	status   map[string]int
}

func (s *owmServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r)
		s.mu.Unlock()

		if code, ok := s.status[r.URL.Path]; ok {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}

		var body string
		switch r.URL.Path {
		case geocodingPath:
			body = s.geocode
		case currentPath:
			body = s.current
		case forecastPath:
			body = s.forecast
		case airPollutionPath:
			body = s.air
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func (s *owmServer) requestFor(path string) *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.URL.Path == path {
			return r
		}
	}
	return nil
}

func newTestProvider(t *testing.T, s *owmServer) *OpenWeatherProvider {
	t.Helper()
	srv := httptest.NewServer(s.handler(t))
	t.Cleanup(srv.Close)
	return NewOpenWeatherProvider(&http.Client{Timeout: 5 * time.Second}, "test-key", srv.URL)
}

func TestCurrentByQuery(t *testing.T) {
	s := &owmServer{current: portlandCurrent}
	p := newTestProvider(t, s)

	c, err := p.CurrentByQuery(context.Background(), "Portland")
	require.NoError(t, err)

	req := s.requestFor(currentPath)
	require.NotNil(t, req)
	assert.Equal(t, "Portland", req.URL.Query().Get("q"))
	assert.Equal(t, "imperial", req.URL.Query().Get("units"))
	assert.Equal(t, "test-key", req.URL.Query().Get("appid"))

	assert.Equal(t, "Portland", c.Name)
	assert.Equal(t, "US", c.Country)
	assert.Equal(t, 55.4, c.Temp)
	assert.Equal(t, 500, c.ConditionID)
	assert.Equal(t, "light rain", c.Description)
	require.NotNil(t, c.WindDeg)
	assert.Equal(t, 200.0, *c.WindDeg)
	assert.Nil(t, c.WindGust)
	require.NotNil(t, c.Cloudiness)
	assert.Equal(t, 90, *c.Cloudiness)
	require.NotNil(t, c.Rain1h)
	assert.Equal(t, 0.4, *c.Rain1h)
	assert.Nil(t, c.Snow1h)
	assert.Equal(t, time.Unix(1710079800, 0).UTC(), c.Sunrise)
	require.NotNil(t, c.UTCOffset)
	assert.Equal(t, -25200, *c.UTCOffset)
}

func TestCurrentNotFound(t *testing.T) {
	s := &owmServer{status: map[string]int{currentPath: http.StatusNotFound}}
	p := newTestProvider(t, s)

	_, err := p.CurrentByQuery(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)
}

func TestServerErrorIsNotNotFound(t *testing.T) {
	s := &owmServer{status: map[string]int{currentPath: http.StatusInternalServerError}}
	p := newTestProvider(t, s)

	_, err := p.CurrentByCoords(context.Background(), 1, 2)
	require.Error(t, err)
	assert.NotErrorIs(t, err, weather.ErrLocationNotFound)
	assert.ErrorIs(t, err, errServerError)
}

func TestMissingAPIKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "", "http://127.0.0.1:1")
	_, err := p.Geocode(context.Background(), "Portland")
	assert.Error(t, err)
}

func TestGeocode(t *testing.T) {
	s := &owmServer{geocode: `[{"name":"Portland","lat":45.5152,"lon":-122.6784,"country":"US","state":"Oregon"}]`}
	p := newTestProvider(t, s)

	place, err := p.Geocode(context.Background(), "Portland")
	require.NoError(t, err)
	assert.Equal(t, weather.Place{Name: "Portland", State: "Oregon", Country: "US", Lat: 45.5152, Lon: -122.6784}, place)

	req := s.requestFor(geocodingPath)
	require.NotNil(t, req)
	assert.Equal(t, "1", req.URL.Query().Get("limit"))
	assert.Empty(t, req.URL.Query().Get("units"))
}

func TestGeocodeEmpty(t *testing.T) {
	p := newTestProvider(t, &owmServer{geocode: `[]`})

	_, err := p.Geocode(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)
}

func TestForecastByCoords(t *testing.T) {
	s := &owmServer{forecast: portlandForecast}
	p := newTestProvider(t, s)

	fc, err := p.ForecastByCoords(context.Background(), 45.5152, -122.6784)
	require.NoError(t, err)

	req := s.requestFor(forecastPath)
	require.NotNil(t, req)
	assert.Equal(t, "45.5152", req.URL.Query().Get("lat"))
	assert.Equal(t, "-122.6784", req.URL.Query().Get("lon"))
	assert.Equal(t, "imperial", req.URL.Query().Get("units"))

	assert.Equal(t, "Portland", fc.City)
	require.NotNil(t, fc.UTCOffset)
	assert.Equal(t, -25200, *fc.UTCOffset)
	require.Len(t, fc.Entries, 2)
	assert.Equal(t, 500, fc.Entries[1].ConditionID)
	assert.Equal(t, 0.4, fc.Entries[1].Pop)
}

func TestAirPollution(t *testing.T) {
	s := &owmServer{air: `{"list":[{"main":{"aqi":3},"components":{"co":201.94,"no2":0.77,"o3":68.66,"so2":0.64,"pm2_5":0.5,"pm10":0.54}}]}`}
	p := newTestProvider(t, s)

	aq, err := p.AirPollution(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, aq.AQI)
	assert.Equal(t, 0.5, aq.Pollutants.PM25)
	assert.Equal(t, 68.66, aq.Pollutants.O3)
	assert.Empty(t, s.requestFor(airPollutionPath).URL.Query().Get("units"))
}

func TestAirPollutionEmpty(t *testing.T) {
	p := newTestProvider(t, &owmServer{air: `{"list":[]}`})

	_, err := p.AirPollution(context.Background(), 1, 2)
	assert.ErrorIs(t, err, errNoAirQuality)
}

// Geocoding finds nothing and the free-text lookup 404s: the gateway must
// report not-found.
func TestGatewayUnknownLocation(t *testing.T) {
	s := &owmServer{
		geocode: `[]`,
		status:  map[string]int{currentPath: http.StatusNotFound},
	}
	g := weather.NewGateway(newTestProvider(t, s), nil)

	_, err := g.GetCurrentConditions(context.Background(), "Qwxzzy")
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)
}

func TestGatewayAttachesAirQuality(t *testing.T) {
	s := &owmServer{
		geocode: `[{"name":"Portland","lat":45.5152,"lon":-122.6784,"country":"US","state":"Oregon"}]`,
		current: portlandCurrent,
		air:     `{"list":[{"main":{"aqi":1},"components":{}}]}`,
	}
	g := weather.NewGateway(newTestProvider(t, s), nil)

	c, err := g.GetCurrentConditions(context.Background(), "portland")
	require.NoError(t, err)
	assert.Equal(t, "Oregon", c.State)
	require.NotNil(t, c.AirQuality)
	assert.Equal(t, 1, c.AirQuality.AQI)

	req := s.requestFor(currentPath)
	require.NotNil(t, req)
	assert.True(t, strings.HasPrefix(req.URL.Query().Get("lat"), "45.5"))
}

func (s *owmServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Unknown places are an ordinary answer and must not trip the breaker.
func TestRepeatedNotFoundKeepsBreakerClosed(t *testing.T) {
	s := &owmServer{status: map[string]int{currentPath: http.StatusNotFound}}
	p := newTestProvider(t, s)

	for i := 0; i < 10; i++ {
		_, err := p.CurrentByQuery(context.Background(), "Atlantis")
		require.ErrorIs(t, err, weather.ErrLocationNotFound)
		assert.NotErrorIs(t, err, errCircuitOpen)
	}
	assert.Equal(t, 10, s.requestCount())
}

func TestRepeatedServerErrorsOpenBreaker(t *testing.T) {
	s := &owmServer{status: map[string]int{currentPath: http.StatusInternalServerError}}
	p := newTestProvider(t, s)

	for i := 0; i < 6; i++ {
		_, err := p.CurrentByCoords(context.Background(), 1, 2)
		require.ErrorIs(t, err, errServerError)
	}

	_, err := p.CurrentByCoords(context.Background(), 1, 2)
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, 6, s.requestCount())
}
