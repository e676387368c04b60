package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/i474232898/weather-bot/internal/store"
	"github.com/i474232898/weather-bot/internal/weather"
)

// Command names shared by the slash and prefix surfaces.
const (
	CmdWeather        = "weather"
	CmdAddLocation    = "addlocation"
	CmdRemoveLocation = "removelocation"
	CmdListLocations  = "listlocations"
	CmdForecast       = "forecast"
	CmdHelp           = "weatherhelp"
)

// SlashPrefix is how slash commands are spelled in hints.
const SlashPrefix = "/"

var validate = validator.New()

// Gateway is the weather lookup the dispatcher depends on.
type Gateway interface {
	GetCurrentConditions(ctx context.Context, query string) (weather.Conditions, error)
	GetCurrentForAll(ctx context.Context, queries []string) []weather.Conditions
	GetForecast(ctx context.Context, query string) (weather.Forecast, error)
}

// LocationStore is the saved-location persistence the dispatcher depends on.
type LocationStore interface {
	Load() store.Locations
	Save(locs store.Locations) bool
}

// Request is a parsed command from either surface.
type Request struct {
	ID       string
	Command  string
	Location string
	// Prefix is "/" for slash commands or the text command prefix, used in
	// usage hints.
	Prefix string
}

// Reply is a transport-neutral response.
type Reply struct {
	Content string
	Panels  []weather.Panel
	// FollowUp is sent as a separate plain message after the reply.
	FollowUp string
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool {
	return r.Content == "" && len(r.Panels) == 0
}

func text(format string, args ...interface{}) Reply {
	return Reply{Content: fmt.Sprintf(format, args...)}
}

type locationArg struct {
	Location string `validate:"required"`
}

// Dispatcher maps commands onto the gateway and location store.
type Dispatcher struct {
	gateway   Gateway
	locations LocationStore
	zone      *time.Location
	now       func() time.Time
}

// NewDispatcher creates a new Dispatcher. zone is the fallback display zone.
func NewDispatcher(gateway Gateway, locations LocationStore, zone *time.Location) *Dispatcher {
	if zone == nil {
		zone = time.Local
	}
	return &Dispatcher{
		gateway:   gateway,
		locations: locations,
		zone:      zone,
		now:       time.Now,
	}
}

// ParsePrefix parses a text message such as "!weather New York". It returns
// false when content does not start with prefix.
func ParsePrefix(prefix, content string) (Request, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return Request{}, false
	}
	args := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(args) == 0 {
		return Request{}, false
	}
	return Request{
		Command:  strings.ToLower(args[0]),
		Location: strings.Join(args[1:], " "),
		Prefix:   prefix,
	}, true
}

// Known reports whether command is one the dispatcher handles.
func Known(command string) bool {
	switch command {
	case CmdWeather, CmdAddLocation, CmdRemoveLocation, CmdListLocations, CmdForecast, CmdHelp:
		return true
	}
	return false
}

// LoadingText is the placeholder a text surface shows while req runs, or ""
// when the command answers without a placeholder.
func LoadingText(req Request) string {
	switch req.Command {
	case CmdWeather:
		if req.Location == "" {
			return "⌛ Fetching weather for all saved locations..."
		}
		return "⌛ Fetching the latest weather data..."
	case CmdForecast:
		if req.Location != "" {
			return "⌛ Fetching forecast data..."
		}
	}
	return ""
}

// Validate rejects a request with a missing required argument before any I/O.
// It returns the usage hint to send, or "" when the request is valid.
func Validate(req Request) string {
	var hint string
	switch req.Command {
	case CmdAddLocation:
		hint = "Please provide a location to add."
	case CmdRemoveLocation:
		hint = "Please provide a location to remove."
	case CmdForecast:
		hint = "Please provide a location for the forecast."
	default:
		return ""
	}
	if err := validate.Struct(locationArg{Location: strings.TrimSpace(req.Location)}); err != nil {
		return hint
	}
	return ""
}

// Handle runs req and returns the reply. It never panics; unexpected failures
// become a generic apology.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (reply Reply) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Location = strings.TrimSpace(req.Location)
	if req.Prefix == "" {
		req.Prefix = SlashPrefix
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: [%s] %s panicked: %v", req.ID, req.Command, r)
			reply = text("There was an error processing your %s request. Please try again later.", req.Command)
		}
	}()

	log.Printf("INFO: [%s] processing command: %s with args: %s", req.ID, req.Command, req.Location)

	if hint := Validate(req); hint != "" {
		return Reply{Content: hint}
	}

	switch req.Command {
	case CmdWeather:
		if req.Location == "" {
			return d.weatherAll(ctx, req)
		}
		return d.weatherOne(ctx, req)
	case CmdAddLocation:
		return d.addLocation(ctx, req)
	case CmdRemoveLocation:
		return d.removeLocation(req)
	case CmdListLocations:
		return d.listLocations(req)
	case CmdForecast:
		return d.forecast(ctx, req)
	case CmdHelp:
		return Reply{Panels: []weather.Panel{helpPanel(req.Prefix, d.now())}}
	default:
		return Reply{}
	}
}

func (d *Dispatcher) clock() time.Time {
	return d.now().In(d.zone)
}

func (d *Dispatcher) weatherOne(ctx context.Context, req Request) Reply {
	cond, err := d.gateway.GetCurrentConditions(ctx, req.Location)
	if err != nil {
		return text("Could not find weather data for %s.", req.Location)
	}
	return Reply{Panels: []weather.Panel{weather.FormatCurrent(cond, d.clock()).Panel()}}
}

// maxSummaryFields leaves room for the trailing tip within the platform's
// 25-field limit.
const maxSummaryFields = 24

func (d *Dispatcher) weatherAll(ctx context.Context, req Request) Reply {
	locs := d.locations.Load()
	if len(locs) == 0 {
		return text("No locations are saved. Add locations with `%saddlocation <location_name>`.", req.Prefix)
	}

	results := d.gateway.GetCurrentForAll(ctx, locs)
	if len(results) == 0 {
		return text("Could not fetch weather data for any saved locations.")
	}

	now := d.clock()
	panel := weather.Panel{
		Title:       "📍 Weather for Your Saved Locations",
		Description: "Current weather conditions for your saved locations.",
		Color:       weather.ColorDefault,
		Timestamp:   now,
	}
	for i, cond := range results {
		if i == maxSummaryFields {
			log.Printf("INFO: [%s] showing %d of %d saved locations", req.ID, maxSummaryFields, len(results))
			break
		}
		panel.Fields = append(panel.Fields, weather.FormatCurrent(cond, now).SummaryField())
	}
	panel.Fields = append(panel.Fields, weather.Field{
		Name:  "Need more details?",
		Value: fmt.Sprintf("Use `%sweather <location_name>` to get detailed weather for a specific location.", req.Prefix),
	})
	return Reply{Panels: []weather.Panel{panel}}
}

func (d *Dispatcher) addLocation(ctx context.Context, req Request) Reply {
	// Only accept names the provider can resolve.
	if _, err := d.gateway.GetCurrentConditions(ctx, req.Location); err != nil {
		return text("Could not find weather data for %s. Please check the spelling and try again.", req.Location)
	}

	locs := d.locations.Load()
	if !locs.Add(req.Location) {
		return text("%s is already in the saved locations.", req.Location)
	}
	if !d.locations.Save(locs) {
		return text("Failed to save location. Please try again later.")
	}
	log.Printf("INFO: [%s] added %s to saved locations", req.ID, req.Location)
	return text("Added %s to saved locations.", req.Location)
}

func (d *Dispatcher) removeLocation(req Request) Reply {
	locs := d.locations.Load()
	if !locs.Remove(req.Location) {
		return text("%s is not in the saved locations.", req.Location)
	}
	if !d.locations.Save(locs) {
		return text("Failed to remove location. Please try again later.")
	}
	log.Printf("INFO: [%s] removed %s from saved locations", req.ID, req.Location)
	return text("Removed %s from saved locations.", req.Location)
}

func (d *Dispatcher) listLocations(req Request) Reply {
	locs := d.locations.Load()
	if len(locs) == 0 {
		return text("No locations are saved. Add locations with `%saddlocation <location_name>`.", req.Prefix)
	}

	lines := make([]string, len(locs))
	for i, l := range locs {
		lines[i] = fmt.Sprintf("%d. %s", i+1, l)
	}
	return Reply{Panels: []weather.Panel{{
		Title:       "Saved Locations",
		Description: strings.Join(lines, "\n"),
		Color:       weather.ColorDefault,
		Timestamp:   d.clock(),
	}}}
}

func (d *Dispatcher) forecast(ctx context.Context, req Request) Reply {
	fc, err := d.gateway.GetForecast(ctx, req.Location)
	if err != nil {
		return text("Could not find forecast data for %s.", req.Location)
	}
	log.Printf("INFO: [%s] received forecast data for %s", req.ID, req.Location)

	display := weather.FormatForecast(fc, d.clock())
	return Reply{
		Panels:   []weather.Panel{display.Panel()},
		FollowUp: display.Hourly,
	}
}
