package weather

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/i474232898/weather-bot/internal/common"
)

const (
	iconURLFormat = "https://openweathermap.org/img/wn/%s@4x.png"
	mapURLFormat  = "https://openweathermap.org/weathermap?basemap=map&cities=false&layer=%s&lat=%g&lon=%g&zoom=6"
	footerText    = "Data provided by OpenWeatherMap"
	metresPerMile = 1609.34
)

// Panel is a transport-neutral titled message with a colored accent.
type Panel struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Color        int       `json:"color"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Fields       []Field   `json:"fields,omitempty"`
	Footer       string    `json:"footer,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Field is a named section of a Panel.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// MapLinks point at the provider's interactive weather maps.
type MapLinks struct {
	Rain        string `json:"rain"`
	Temperature string `json:"temperature"`
	Clouds      string `json:"clouds"`
}

// NewMapLinks builds map links centred on lat/lon.
func NewMapLinks(lat, lon float64) MapLinks {
	return MapLinks{
		Rain:        fmt.Sprintf(mapURLFormat, "radar", lat, lon),
		Temperature: fmt.Sprintf(mapURLFormat, "temperature", lat, lon),
		Clouds:      fmt.Sprintf(mapURLFormat, "clouds", lat, lon),
	}
}

// Markdown renders the links as a single line.
func (m MapLinks) Markdown() string {
	return fmt.Sprintf("[🌧️ Rain Map](%s) • [🌡️ Temperature Map](%s) • [☁️ Cloud Map](%s)",
		m.Rain, m.Temperature, m.Clouds)
}

// CurrentDisplay is the display-ready derivation of a Conditions record.
type CurrentDisplay struct {
	Name        string `json:"name"` // includes the state when known
	Country     string `json:"country"`
	Temp        int    `json:"temp"`
	FeelsLike   int    `json:"feelsLike"`
	TempMin     int    `json:"tempMin"`
	TempMax     int    `json:"tempMax"`
	HasRange    bool   `json:"hasRange"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
	Color       int    `json:"color"`
	IconURL     string `json:"iconUrl"`

	Humidity        float64  `json:"humidity"`
	Pressure        float64  `json:"pressure"`
	WindSpeed       float64  `json:"windSpeed"`
	WindDirection   string   `json:"windDirection,omitempty"`
	WindGust        *int     `json:"windGust,omitempty"`
	VisibilityMiles *float64 `json:"visibilityMiles,omitempty"`
	Cloudiness      *int     `json:"cloudiness,omitempty"`
	Rain1h          *float64 `json:"rain1h,omitempty"`
	Snow1h          *float64 `json:"snow1h,omitempty"`

	Sunrise        string `json:"sunrise,omitempty"`
	Sunset         string `json:"sunset,omitempty"`
	IsDaytime      *bool  `json:"isDaytime,omitempty"`
	TimeOfDayEmoji string `json:"timeOfDayEmoji,omitempty"`

	AQI        *int        `json:"aqi,omitempty"`
	AQIInfo    AQIInfo     `json:"aqiInfo"`
	Pollutants *Pollutants `json:"pollutants,omitempty"`

	Lat  float64   `json:"lat"`
	Lon  float64   `json:"lon"`
	Maps MapLinks  `json:"maps"`
	Now  time.Time `json:"-"`
}

// FormatCurrent derives display values from c. Times are shown in the
// location's zone, or in now's zone when the provider gave no offset.
func FormatCurrent(c Conditions, now time.Time) CurrentDisplay {
	zone := c.Zone(now.Location())

	d := CurrentDisplay{
		Name:        c.Name,
		Country:     c.Country,
		Temp:        roundInt(c.Temp),
		FeelsLike:   roundInt(c.FeelsLike),
		TempMin:     roundInt(c.TempMin),
		TempMax:     roundInt(c.TempMax),
		HasRange:    c.TempMin != 0 && c.TempMax != 0,
		Description: common.Capitalize(c.Description),
		Emoji:       EmojiFor(c.ConditionID),
		Color:       ColorFor(c.ConditionID),
		Humidity:    c.Humidity,
		Pressure:    c.Pressure,
		WindSpeed:   c.WindSpeed,
		Cloudiness:  c.Cloudiness,
		Rain1h:      c.Rain1h,
		Snow1h:      c.Snow1h,
		AQIInfo:     DescribeAQI(0),
		Lat:         c.Lat,
		Lon:         c.Lon,
		Maps:        NewMapLinks(c.Lat, c.Lon),
		Now:         now,
	}
	if c.State != "" {
		d.Name += ", " + c.State
	}
	if c.Icon != "" {
		d.IconURL = fmt.Sprintf(iconURLFormat, c.Icon)
	}
	if c.WindDeg != nil {
		d.WindDirection = WindDirection(*c.WindDeg)
	}
	if c.WindGust != nil {
		g := roundInt(*c.WindGust)
		d.WindGust = &g
	}
	if c.Visibility != nil && *c.Visibility > 0 {
		miles := math.Round(*c.Visibility/metresPerMile*10) / 10
		d.VisibilityMiles = &miles
	}

	if !c.Sunrise.IsZero() {
		d.Sunrise = c.Sunrise.In(zone).Format(time.Kitchen)
	}
	if !c.Sunset.IsZero() {
		d.Sunset = c.Sunset.In(zone).Format(time.Kitchen)
	}
	if !c.Sunrise.IsZero() && !c.Sunset.IsZero() {
		day := now.After(c.Sunrise) && now.Before(c.Sunset)
		d.IsDaytime = &day
		d.TimeOfDayEmoji = "🌙"
		if day {
			d.TimeOfDayEmoji = "☀️"
		}
	}

	if c.AirQuality != nil {
		aqi := c.AirQuality.AQI
		d.AQI = &aqi
		d.AQIInfo = DescribeAQI(aqi)
		p := c.AirQuality.Pollutants
		d.Pollutants = &p
	}

	return d
}

func (d CurrentDisplay) temperatureLine(feelsSep string) string {
	return fmt.Sprintf("%d°F (Feels like%s %d°F)", d.Temp, feelsSep, d.FeelsLike)
}

// temperatureLines renders the temperature and, when the provider reported
// one, the min/max range.
func (d CurrentDisplay) temperatureLines(feelsSep string) []string {
	lines := []string{"🌡️ **Temperature:** " + d.temperatureLine(feelsSep)}
	if d.HasRange {
		lines = append(lines, fmt.Sprintf("Range: %d°F - %d°F", d.TempMin, d.TempMax))
	}
	return lines
}

func (d CurrentDisplay) windLine() string {
	s := common.FormatNumber(d.WindSpeed) + " mph"
	if d.WindDirection != "" {
		s += " " + d.WindDirection
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Panel renders the detailed single-location view.
func (d CurrentDisplay) Panel() Panel {
	wind := d.windLine()
	if d.WindGust != nil {
		wind += fmt.Sprintf(" (Gusts: %d mph)", *d.WindGust)
	}

	cloudiness, visibility, pressure := "N/A", "N/A", "N/A"
	if d.Cloudiness != nil {
		cloudiness = fmt.Sprintf("%d%%", *d.Cloudiness)
	}
	if d.VisibilityMiles != nil {
		visibility = common.FormatNumber(*d.VisibilityMiles) + " miles"
	}
	if d.Pressure != 0 {
		pressure = common.FormatNumber(d.Pressure) + " hPa"
	}

	sunHeading := "### Sun Times"
	if d.TimeOfDayEmoji != "" {
		sunHeading += " " + d.TimeOfDayEmoji
	}

	lines := []string{
		fmt.Sprintf("**%s**", d.Description),
		fmt.Sprintf("**Coordinates:** %.2f, %.2f", d.Lat, d.Lon),
		"",
		"### Current Conditions",
	}
	lines = append(lines, d.temperatureLines("")...)
	lines = append(lines, []string{
		fmt.Sprintf("💧 **Humidity:** %s%%", common.FormatNumber(d.Humidity)),
		"🌬️ **Wind:** " + wind,
		"",
		"### Details",
		"☁️ **Cloudiness:** " + cloudiness,
		"👁️ **Visibility:** " + visibility,
		"🧭 **Pressure:** " + pressure,
		"",
		sunHeading,
		"🌅 **Sunrise:** " + orNA(d.Sunrise),
		"🌇 **Sunset:** " + orNA(d.Sunset),
	}...)

	p := Panel{
		Title:        fmt.Sprintf("%s Weather in %s, %s", d.Emoji, d.Name, d.Country),
		Description:  strings.Join(lines, "\n"),
		Color:        d.Color,
		ThumbnailURL: d.IconURL,
		Footer:       fmt.Sprintf("%s • Updated %s", footerText, d.Now.Format(time.Kitchen)),
		Timestamp:    d.Now,
	}

	if d.AQI != nil {
		value := fmt.Sprintf("%s **Air Quality:** %s (%d/5)\n%s", d.AQIInfo.Emoji, d.AQIInfo.Label, *d.AQI, d.AQIInfo.Description)
		if d.Pollutants != nil {
			value += fmt.Sprintf("\nPM2.5 %s • PM10 %s • O₃ %s • NO₂ %s μg/m³",
				common.FormatNumber(d.Pollutants.PM25), common.FormatNumber(d.Pollutants.PM10),
				common.FormatNumber(d.Pollutants.O3), common.FormatNumber(d.Pollutants.NO2))
		}
		p.Fields = append(p.Fields, Field{Name: "Air Quality", Value: value})
	}

	if line := d.precipitationLine(); line != "" {
		p.Fields = append(p.Fields, Field{Name: "Precipitation", Value: line})
	}

	p.Fields = append(p.Fields, Field{Name: "Weather Maps", Value: d.Maps.Markdown()})
	return p
}

// precipitationLine prefers rainfall over snowfall when both are reported.
func (d CurrentDisplay) precipitationLine() string {
	switch {
	case d.Rain1h != nil:
		return fmt.Sprintf("☔ **Rainfall:** %s mm", common.FormatNumber(*d.Rain1h))
	case d.Snow1h != nil:
		return fmt.Sprintf("❄️ **Snowfall:** %s mm", common.FormatNumber(*d.Snow1h))
	default:
		return ""
	}
}

// SummaryField renders the compact view used when listing many locations.
func (d CurrentDisplay) SummaryField() Field {
	aqi := ""
	if d.AQI != nil {
		aqi = fmt.Sprintf(" | %s AQI: %s", d.AQIInfo.Emoji, d.AQIInfo.Label)
	}
	lines := append([]string{fmt.Sprintf("**%s**", d.Description), ""}, d.temperatureLines(":")...)
	lines = append(lines,
		fmt.Sprintf("💧 **Humidity:** %s%% | 🌬️ **Wind:** %s%s", common.FormatNumber(d.Humidity), d.windLine(), aqi),
		fmt.Sprintf("🌅 **Sunrise:** %s | 🌇 **Sunset:** %s", orNA(d.Sunrise), orNA(d.Sunset)),
	)
	return Field{
		Name:  fmt.Sprintf("%s %s, %s", d.Emoji, d.Name, d.Country),
		Value: strings.Join(lines, "\n"),
	}
}

// DaySummary is one row of the forecast overview.
type DaySummary struct {
	Date         time.Time     `json:"date"`
	MinTemp      int           `json:"minTemp"`
	MaxTemp      int           `json:"maxTemp"`
	Condition    ForecastEntry `json:"condition"`
	Emoji        string        `json:"emoji"`
	PrecipChance *int          `json:"precipChance,omitempty"`
}

// ForecastDisplay is the display-ready derivation of a Forecast.
type ForecastDisplay struct {
	Title        string       `json:"title"`
	Emoji        string       `json:"emoji"`
	Lat          float64      `json:"lat"`
	Lon          float64      `json:"lon"`
	Days         []DaySummary `json:"days"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	Maps         MapLinks     `json:"maps"`

	// Hourly is the plain-text breakdown of the first day, sent as a
	// follow-up message. Empty when the forecast has no entries.
	Hourly string `json:"hourly,omitempty"`

	Now time.Time `json:"-"`
}

// FormatForecast buckets f by calendar day in the location's zone and derives
// per-day summaries plus the first day's hourly breakdown.
func FormatForecast(f Forecast, now time.Time) ForecastDisplay {
	zone := f.Zone(now.Location())
	buckets := BucketByDay(f.Entries, zone)

	all := make([]int, 0, len(f.Entries))
	for _, b := range buckets {
		for _, e := range b.Entries {
			all = append(all, e.ConditionID)
		}
	}

	d := ForecastDisplay{
		Emoji: EmojiFor(DominantCondition(all)),
		Lat:   f.Lat,
		Lon:   f.Lon,
		Maps:  NewMapLinks(f.Lat, f.Lon),
		Now:   now,
	}
	if len(all) == 0 {
		d.Emoji = EmojiDefault
	}

	name := f.DisplayName()
	if f.ResolvedState != "" {
		name += ", " + f.ResolvedState
	}
	d.Title = fmt.Sprintf("%s 5-Day Forecast for %s, %s", d.Emoji, name, f.DisplayCountry())

	for _, b := range buckets {
		lo, hi := b.MinMax()
		dom := b.Dominant()
		day := DaySummary{
			Date:      b.Date,
			MinTemp:   roundInt(lo),
			MaxTemp:   roundInt(hi),
			Condition: dom,
			Emoji:     EmojiFor(dom.ConditionID),
		}
		if pct, ok := b.PrecipChance(); ok {
			day.PrecipChance = &pct
		}
		d.Days = append(d.Days, day)
	}

	if len(buckets) > 0 {
		first := buckets[0]
		if icon := first.Entries[0].Icon; icon != "" {
			d.ThumbnailURL = fmt.Sprintf(iconURLFormat, icon)
		}
		d.Hourly = hourlyBreakdown(first, zone)
	}

	return d
}

// hourlyEntries is how many 3-hour steps the hourly breakdown shows.
const hourlyEntries = 6

func hourlyBreakdown(b DayBucket, zone *time.Location) string {
	dom := b.Dominant()
	lines := []string{
		fmt.Sprintf("## %s Today's Hourly Forecast: %s", EmojiFor(dom.ConditionID), b.Date.Format("Monday, Jan 2")),
		"",
	}

	entries := b.Entries
	if len(entries) > hourlyEntries {
		entries = entries[:hourlyEntries]
	}
	for _, e := range entries {
		line := fmt.Sprintf("**%s**: %s %d°F - %s", e.Time.In(zone).Format("3 PM"), EmojiFor(e.ConditionID),
			roundInt(e.Temp), common.Capitalize(e.Description))
		if e.Pop > 0 {
			line += fmt.Sprintf(" (%d%% chance of precipitation)", int(math.Round(e.Pop*100)))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Panel renders the forecast overview.
func (d ForecastDisplay) Panel() Panel {
	lines := []string{
		fmt.Sprintf("**Coordinates:** %.2f, %.2f", d.Lat, d.Lon),
		"",
		"### 5-Day Forecast Overview",
	}
	for _, day := range d.Days {
		line := fmt.Sprintf("**%s**: %s %s, 🌡️ %d°F to %d°F", day.Date.Format("Mon, Jan 2"), day.Emoji,
			common.Capitalize(day.Condition.Description), day.MinTemp, day.MaxTemp)
		if day.PrecipChance != nil {
			line += fmt.Sprintf(" ☔ %d%% chance of precipitation", *day.PrecipChance)
		}
		lines = append(lines, line)
	}

	return Panel{
		Title:        d.Title,
		Description:  strings.Join(lines, "\n"),
		Color:        ColorDefault,
		ThumbnailURL: d.ThumbnailURL,
		Fields:       []Field{{Name: "Weather Maps", Value: d.Maps.Markdown()}},
		Footer:       fmt.Sprintf("%s • Updated %s", footerText, d.Now.Format(time.Kitchen)),
		Timestamp:    d.Now,
	}
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
