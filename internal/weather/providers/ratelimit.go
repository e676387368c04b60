package providers

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/i474232898/weather-bot/internal/weather"
)

// errAirQualitySkipped reports that no call budget was left for the optional
// air quality lookup.
var errAirQualitySkipped = errors.New("air quality skipped: rate limit budget exhausted")

// RateLimited wraps a weather.Provider with a token-bucket limiter shared by
// every endpoint, since the provider meters calls per API key.
type RateLimited struct {
	provider weather.Provider
	limiter  *rate.Limiter
}

var _ weather.Provider = (*RateLimited)(nil)

// NewRateLimited creates a rate limited provider. rps may be fractional;
// burst is the maximum number of calls allowed at once.
func NewRateLimited(provider weather.Provider, rps float64, burst int) *RateLimited {
	return &RateLimited{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return nil
}

func (r *RateLimited) Geocode(ctx context.Context, query string) (weather.Place, error) {
	if err := r.wait(ctx); err != nil {
		return weather.Place{}, err
	}
	return r.provider.Geocode(ctx, query)
}

func (r *RateLimited) CurrentByQuery(ctx context.Context, query string) (weather.Conditions, error) {
	if err := r.wait(ctx); err != nil {
		return weather.Conditions{}, err
	}
	return r.provider.CurrentByQuery(ctx, query)
}

func (r *RateLimited) CurrentByCoords(ctx context.Context, lat, lon float64) (weather.Conditions, error) {
	if err := r.wait(ctx); err != nil {
		return weather.Conditions{}, err
	}
	return r.provider.CurrentByCoords(ctx, lat, lon)
}

func (r *RateLimited) ForecastByQuery(ctx context.Context, query string) (weather.Forecast, error) {
	if err := r.wait(ctx); err != nil {
		return weather.Forecast{}, err
	}
	return r.provider.ForecastByQuery(ctx, query)
}

func (r *RateLimited) ForecastByCoords(ctx context.Context, lat, lon float64) (weather.Forecast, error) {
	if err := r.wait(ctx); err != nil {
		return weather.Forecast{}, err
	}
	return r.provider.ForecastByCoords(ctx, lat, lon)
}

// AirPollution never waits for a token: air quality is optional, so when the
// bucket is empty the call is skipped and the budget is left to the
// conditions and forecast lookups.
func (r *RateLimited) AirPollution(ctx context.Context, lat, lon float64) (weather.AirQuality, error) {
	if !r.limiter.Allow() {
		return weather.AirQuality{}, errAirQualitySkipped
	}
	return r.provider.AirPollution(ctx, lat, lon)
}
