package weather

import (
	"time"
)

// Place is a geocoded location.
type Place struct {
	Name    string  `json:"name"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// AirQuality holds the air-pollution reading for a coordinate.
type AirQuality struct {
	AQI        int        `json:"aqi"` // 1 (good) to 5 (very poor)
	Pollutants Pollutants `json:"components"`
}

// Pollutants are raw concentrations in μg/m³.
type Pollutants struct {
	CO   float64 `json:"co"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	PM25 float64 `json:"pm2_5"`
	PM10 float64 `json:"pm10"`
	SO2  float64 `json:"so2"`
}

// Conditions is the normalized current-weather record. All values are imperial
// except Visibility (metres) and precipitation (mm), which the provider always
// reports in metric.
type Conditions struct {
	Name    string  `json:"name"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`

	Temp      float64 `json:"tempF"`
	FeelsLike float64 `json:"feelsLikeF"`
	TempMin   float64 `json:"tempMinF"`
	TempMax   float64 `json:"tempMaxF"`

	Humidity   float64  `json:"humidityPercent"`
	Pressure   float64  `json:"pressureHpa"`
	WindSpeed  float64  `json:"windSpeedMph"`
	WindDeg    *float64 `json:"windDeg,omitempty"`
	WindGust   *float64 `json:"windGustMph,omitempty"`
	Visibility *float64 `json:"visibilityM,omitempty"`
	Cloudiness *int     `json:"cloudinessPercent,omitempty"`

	Rain1h *float64 `json:"rain1hMm,omitempty"`
	Snow1h *float64 `json:"snow1hMm,omitempty"`

	Sunrise time.Time `json:"sunrise,omitempty"`
	Sunset  time.Time `json:"sunset,omitempty"`

	ConditionID int    `json:"conditionId"`
	Description string `json:"description"`
	Icon        string `json:"icon"`

	// UTCOffset is the location's offset from UTC in seconds; nil when the
	// provider did not report one.
	UTCOffset *int `json:"utcOffset,omitempty"`

	AirQuality *AirQuality `json:"airQuality,omitempty"`
}

// Forecast is a 5-day / 3-hour forecast for a single location.
type Forecast struct {
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	UTCOffset *int    `json:"utcOffset,omitempty"`

	// Resolved* are filled when the query went through geocoding.
	ResolvedName    string `json:"resolvedName,omitempty"`
	ResolvedState   string `json:"resolvedState,omitempty"`
	ResolvedCountry string `json:"resolvedCountry,omitempty"`

	Entries []ForecastEntry `json:"entries"`
}

// ForecastEntry is a single 3-hour forecast step.
type ForecastEntry struct {
	Time        time.Time `json:"time"`
	Temp        float64   `json:"tempF"`
	ConditionID int       `json:"conditionId"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Pop         float64   `json:"pop"` // probability of precipitation, 0..1
}

// DisplayName returns the resolved name when known, falling back to the
// provider's city name.
func (f Forecast) DisplayName() string {
	if f.ResolvedName != "" {
		return f.ResolvedName
	}
	return f.City
}

// DisplayCountry returns the resolved country code when known.
func (f Forecast) DisplayCountry() string {
	if f.ResolvedCountry != "" {
		return f.ResolvedCountry
	}
	return f.Country
}

// Zone returns the location's fixed zone, or fallback when the provider gave
// no offset. An offset of zero is UTC, not missing.
func (f Forecast) Zone(fallback *time.Location) *time.Location {
	return zoneFor(f.UTCOffset, fallback)
}

// Zone returns the location's fixed zone, or fallback when the provider gave
// no offset.
func (c Conditions) Zone(fallback *time.Location) *time.Location {
	return zoneFor(c.UTCOffset, fallback)
}

func zoneFor(offset *int, fallback *time.Location) *time.Location {
	if offset != nil {
		return time.FixedZone("", *offset)
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}
