package providers

import (
	"context"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-bot/internal/weather"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder resolves locations through the Google Geocoding API. It only
// yields coordinates; display names come from the weather provider.
type GoogleGeocoder struct {
	apiKey string
}

var _ weather.Geocoder = (*GoogleGeocoder)(nil)

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) (weather.Place, error) {
	if err := ctx.Err(); err != nil {
		return weather.Place{}, err
	}

	googleKeyMu.Lock()
	geocoder.ApiKey = g.apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	googleKeyMu.Unlock()

	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return weather.Place{}, weather.ErrLocationNotFound
		}
		return weather.Place{}, err
	}
	return weather.Place{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}
