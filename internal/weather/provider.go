package weather

import (
	"context"
	"errors"
)

// ErrLocationNotFound is returned when the provider answers successfully but
// knows no place matching the query.
var ErrLocationNotFound = errors.New("location not found")

// Geocoder turns free text into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Place, error)
}

// Provider abstracts the weather data source (OpenWeatherMap).
// Every method returns imperial units.
type Provider interface {
	Geocoder

	CurrentByQuery(ctx context.Context, query string) (Conditions, error)
	CurrentByCoords(ctx context.Context, lat, lon float64) (Conditions, error)
	ForecastByQuery(ctx context.Context, query string) (Forecast, error)
	ForecastByCoords(ctx context.Context, lat, lon float64) (Forecast, error)
	AirPollution(ctx context.Context, lat, lon float64) (AirQuality, error)
}
