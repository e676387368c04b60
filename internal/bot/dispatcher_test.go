package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-bot/internal/store"
	"github.com/i474232898/weather-bot/internal/weather"
)

type fakeGateway struct {
	mu       sync.Mutex
	current  map[string]weather.Conditions
	forecast map[string]weather.Forecast
	panicOn  string
	lookups  []string
}

func (g *fakeGateway) GetCurrentConditions(_ context.Context, query string) (weather.Conditions, error) {
	g.mu.Lock()
	g.lookups = append(g.lookups, query)
	g.mu.Unlock()

	if query == g.panicOn {
		panic("boom")
	}
	c, ok := g.current[query]
	if !ok {
		return weather.Conditions{}, fmt.Errorf("current conditions for %q: %w", query, weather.ErrLocationNotFound)
	}
	return c, nil
}

func (g *fakeGateway) GetCurrentForAll(ctx context.Context, queries []string) []weather.Conditions {
	var out []weather.Conditions
	for _, q := range queries {
		if c, err := g.GetCurrentConditions(ctx, q); err == nil {
			out = append(out, c)
		}
	}
	return out
}

func (g *fakeGateway) GetForecast(_ context.Context, query string) (weather.Forecast, error) {
	fc, ok := g.forecast[query]
	if !ok {
		return weather.Forecast{}, weather.ErrLocationNotFound
	}
	return fc, nil
}

type failingStore struct{ locs store.Locations }

func (f *failingStore) Load() store.Locations     { return append(store.Locations{}, f.locs...) }
func (f *failingStore) Save(store.Locations) bool { return false }

func newGateway() *fakeGateway {
	return &fakeGateway{
		current: map[string]weather.Conditions{
			"London":   {Name: "London", Country: "GB", Temp: 50, ConditionID: 800, Description: "clear sky"},
			"Paris":    {Name: "Paris", Country: "FR", Temp: 61.2, ConditionID: 801, Description: "few clouds"},
			"New York": {Name: "New York", Country: "US", Temp: 70, ConditionID: 500, Description: "light rain"},
		},
		forecast: map[string]weather.Forecast{
			"Paris": {
				City:    "Paris",
				Country: "FR",
				Entries: []weather.ForecastEntry{
					{Time: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), Temp: 55, ConditionID: 500, Description: "light rain", Pop: 0.6},
					{Time: time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), Temp: 58, ConditionID: 801, Description: "few clouds"},
				},
			},
		},
	}
}

func newTestDispatcher(t *testing.T, gw Gateway) (*Dispatcher, *store.LocationStore) {
	t.Helper()
	locs := store.NewLocationStore(filepath.Join(t.TempDir(), "locations.json"))
	d := NewDispatcher(gw, locs, time.UTC)
	d.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return d, locs
}

func TestParsePrefix(t *testing.T) {
	req, ok := ParsePrefix("!", "!Weather   New   York ")
	require.True(t, ok)
	assert.Equal(t, "weather", req.Command)
	assert.Equal(t, "New York", req.Location)
	assert.Equal(t, "!", req.Prefix)

	_, ok = ParsePrefix("!", "weather London")
	assert.False(t, ok)

	_, ok = ParsePrefix("!", "!")
	assert.False(t, ok)
}

func TestValidateHints(t *testing.T) {
	assert.Equal(t, "Please provide a location to add.", Validate(Request{Command: CmdAddLocation}))
	assert.Equal(t, "Please provide a location to remove.", Validate(Request{Command: CmdRemoveLocation, Location: "  "}))
	assert.Equal(t, "Please provide a location for the forecast.", Validate(Request{Command: CmdForecast}))
	assert.Empty(t, Validate(Request{Command: CmdForecast, Location: "Paris"}))
	assert.Empty(t, Validate(Request{Command: CmdWeather}))
}

func TestLoadingText(t *testing.T) {
	assert.Equal(t, "⌛ Fetching weather for all saved locations...", LoadingText(Request{Command: CmdWeather}))
	assert.Equal(t, "⌛ Fetching the latest weather data...", LoadingText(Request{Command: CmdWeather, Location: "Paris"}))
	assert.Equal(t, "⌛ Fetching forecast data...", LoadingText(Request{Command: CmdForecast, Location: "Paris"}))
	assert.Empty(t, LoadingText(Request{Command: CmdListLocations}))
}

func TestWeatherOne(t *testing.T) {
	d, _ := newTestDispatcher(t, newGateway())

	reply := d.Handle(context.Background(), Request{Command: CmdWeather, Location: "New York"})
	require.Len(t, reply.Panels, 1)
	assert.Equal(t, "🌧️ Weather in New York, US", reply.Panels[0].Title)
	assert.Empty(t, reply.FollowUp)
}

func TestWeatherOneNotFound(t *testing.T) {
	d, _ := newTestDispatcher(t, newGateway())

	reply := d.Handle(context.Background(), Request{Command: CmdWeather, Location: "Qwxzzy"})
	assert.Equal(t, "Could not find weather data for Qwxzzy.", reply.Content)
	assert.Empty(t, reply.Panels)
}

func TestWeatherAllEmpty(t *testing.T) {
	d, _ := newTestDispatcher(t, newGateway())

	reply := d.Handle(context.Background(), Request{Command: CmdWeather, Prefix: "!"})
	assert.Equal(t, "No locations are saved. Add locations with `!addlocation <location_name>`.", reply.Content)
}

func TestWeatherAllKeepsSavedOrder(t *testing.T) {
	d, locs := newTestDispatcher(t, newGateway())
	require.True(t, locs.Save(store.Locations{"Paris", "Atlantis", "London"}))

	reply := d.Handle(context.Background(), Request{Command: CmdWeather})
	require.Len(t, reply.Panels, 1)
	p := reply.Panels[0]
	assert.Equal(t, "📍 Weather for Your Saved Locations", p.Title)
	require.Len(t, p.Fields, 3)
	assert.Equal(t, "⛅ Paris, FR", p.Fields[0].Name)
	assert.Equal(t, "☀️ London, GB", p.Fields[1].Name)
	assert.Equal(t, "Need more details?", p.Fields[2].Name)
	assert.Contains(t, p.Fields[2].Value, "`/weather <location_name>`")
}

func TestWeatherAllNoneResolve(t *testing.T) {
	d, locs := newTestDispatcher(t, newGateway())
	require.True(t, locs.Save(store.Locations{"Atlantis"}))

	reply := d.Handle(context.Background(), Request{Command: CmdWeather})
	assert.Equal(t, "Could not fetch weather data for any saved locations.", reply.Content)
}

func TestWeatherAllCapsFields(t *testing.T) {
	gw := &fakeGateway{current: map[string]weather.Conditions{}}
	var saved store.Locations
	for i := 0; i < 30; i++ {
		name := fmt.Sprintf("City%d", i)
		gw.current[name] = weather.Conditions{Name: name, ConditionID: 800}
		saved = append(saved, name)
	}
	d, locs := newTestDispatcher(t, gw)
	require.True(t, locs.Save(saved))

	reply := d.Handle(context.Background(), Request{Command: CmdWeather})
	require.Len(t, reply.Panels, 1)
	assert.Len(t, reply.Panels[0].Fields, 25)
}

func TestAddLocation(t *testing.T) {
	d, locs := newTestDispatcher(t, newGateway())
	ctx := context.Background()

	reply := d.Handle(ctx, Request{Command: CmdAddLocation, Location: "London"})
	assert.Equal(t, "Added London to saved locations.", reply.Content)

	reply = d.Handle(ctx, Request{Command: CmdAddLocation, Location: "London"})
	assert.Equal(t, "London is already in the saved locations.", reply.Content)

	assert.Equal(t, store.Locations{"London"}, locs.Load())
}

func TestAddLocationUnknownDoesNotSave(t *testing.T) {
	d, locs := newTestDispatcher(t, newGateway())

	reply := d.Handle(context.Background(), Request{Command: CmdAddLocation, Location: "Qwxzzy"})
	assert.Equal(t, "Could not find weather data for Qwxzzy. Please check the spelling and try again.", reply.Content)
	assert.Empty(t, locs.Load())
}

func TestAddLocationMissingArgumentSkipsLookup(t *testing.T) {
	gw := newGateway()
	d, _ := newTestDispatcher(t, gw)

	reply := d.Handle(context.Background(), Request{Command: CmdAddLocation})
	assert.Equal(t, "Please provide a location to add.", reply.Content)
	assert.Empty(t, gw.lookups)
}

func TestAddLocationSaveFailure(t *testing.T) {
	d := NewDispatcher(newGateway(), &failingStore{}, time.UTC)

	reply := d.Handle(context.Background(), Request{Command: CmdAddLocation, Location: "London"})
	assert.Equal(t, "Failed to save location. Please try again later.", reply.Content)
}

func TestRemoveLocation(t *testing.T) {
	d, locs := newTestDispatcher(t, newGateway())
	require.True(t, locs.Save(store.Locations{"London", "Paris"}))
	ctx := context.Background()

	reply := d.Handle(ctx, Request{Command: CmdRemoveLocation, Location: "Berlin"})
	assert.Equal(t, "Berlin is not in the saved locations.", reply.Content)

	reply = d.Handle(ctx, Request{Command: CmdRemoveLocation, Location: "London"})
	assert.Equal(t, "Removed London from saved locations.", reply.Content)
	assert.Equal(t, store.Locations{"Paris"}, locs.Load())
}

func TestRemoveLocationSaveFailure(t *testing.T) {
	d := NewDispatcher(newGateway(), &failingStore{locs: store.Locations{"London"}}, time.UTC)

	reply := d.Handle(context.Background(), Request{Command: CmdRemoveLocation, Location: "London"})
	assert.Equal(t, "Failed to remove location. Please try again later.", reply.Content)
}

func TestListLocations(t *testing.T) {
	d, locs := newTestDispatcher(t, newGateway())
	ctx := context.Background()

	reply := d.Handle(ctx, Request{Command: CmdListLocations, Prefix: "!"})
	assert.Equal(t, "No locations are saved. Add locations with `!addlocation <location_name>`.", reply.Content)

	require.True(t, locs.Save(store.Locations{"London", "Paris"}))
	reply = d.Handle(ctx, Request{Command: CmdListLocations})
	require.Len(t, reply.Panels, 1)
	assert.Equal(t, "Saved Locations", reply.Panels[0].Title)
	assert.Equal(t, "1. London\n2. Paris", reply.Panels[0].Description)
}

func TestForecast(t *testing.T) {
	d, _ := newTestDispatcher(t, newGateway())

	reply := d.Handle(context.Background(), Request{Command: CmdForecast, Location: "Paris"})
	require.Len(t, reply.Panels, 1)
	assert.Equal(t, "🌧️ 5-Day Forecast for Paris, FR", reply.Panels[0].Title)
	assert.True(t, strings.HasPrefix(reply.FollowUp, "## 🌧️ Today's Hourly Forecast"))
}

func TestForecastNotFound(t *testing.T) {
	d, _ := newTestDispatcher(t, newGateway())

	reply := d.Handle(context.Background(), Request{Command: CmdForecast, Location: "Qwxzzy"})
	assert.Equal(t, "Could not find forecast data for Qwxzzy.", reply.Content)
	assert.Empty(t, reply.FollowUp)
}

func TestHelp(t *testing.T) {
	d, _ := newTestDispatcher(t, newGateway())

	reply := d.Handle(context.Background(), Request{Command: CmdHelp, Prefix: "!"})
	require.Len(t, reply.Panels, 1)
	assert.Equal(t, "🌦️ Weather Bot Commands", reply.Panels[0].Title)
	assert.Len(t, reply.Panels[0].Fields, 4)
}

func TestHandleRecoversPanic(t *testing.T) {
	gw := newGateway()
	gw.panicOn = "Boom"
	d, _ := newTestDispatcher(t, gw)

	reply := d.Handle(context.Background(), Request{Command: CmdWeather, Location: "Boom"})
	assert.Equal(t, "There was an error processing your weather request. Please try again later.", reply.Content)
}

func TestUnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t, newGateway())
	assert.True(t, d.Handle(context.Background(), Request{Command: "dance"}).Empty())
	assert.False(t, Known("dance"))
	assert.True(t, Known(CmdForecast))
}

func TestCommandsSchema(t *testing.T) {
	cmds := Commands()
	require.Len(t, cmds, 6)

	byName := map[string]bool{}
	for _, c := range cmds {
		byName[c.Name] = true
		assert.True(t, Known(c.Name), c.Name)
	}
	assert.True(t, byName[CmdHelp])
	assert.False(t, cmds[0].Options[0].Required)
	assert.True(t, cmds[1].Options[0].Required)
}
