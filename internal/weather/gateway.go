package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Gateway resolves free-text locations and fetches normalized weather for them.
type Gateway struct {
	provider Provider
	geocoder Geocoder
}

// NewGateway creates a new Gateway. If geocoder is nil the provider's own
// geocoding endpoint is used.
func NewGateway(provider Provider, geocoder Geocoder) *Gateway {
	if geocoder == nil {
		geocoder = provider
	}
	return &Gateway{
		provider: provider,
		geocoder: geocoder,
	}
}

// ResolveCoordinates returns the best geocoding match for query.
func (g *Gateway) ResolveCoordinates(ctx context.Context, query string) (Place, error) {
	place, err := g.geocoder.Geocode(ctx, query)
	if err != nil {
		if !errors.Is(err, ErrLocationNotFound) {
			log.Printf("ERROR: geocoding %q failed: %v", query, err)
		}
		return Place{}, err
	}
	return place, nil
}

// GetCurrentConditions fetches current conditions for query. When geocoding
// succeeds the lookup is by coordinates and air quality is attached; otherwise
// it falls back to a free-text lookup without air quality.
func (g *Gateway) GetCurrentConditions(ctx context.Context, query string) (Conditions, error) {
	place, err := g.ResolveCoordinates(ctx, query)
	if err != nil {
		cond, err := g.provider.CurrentByQuery(ctx, query)
		if err != nil {
			log.Printf("ERROR: fetching weather for %s: %v", query, err)
			return Conditions{}, fmt.Errorf("current conditions for %q: %w", query, err)
		}
		return cond, nil
	}

	var (
		wg      sync.WaitGroup
		cond    Conditions
		condErr error
		aq      AirQuality
		aqErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		cond, condErr = g.provider.CurrentByCoords(ctx, place.Lat, place.Lon)
	}()
	go func() {
		defer wg.Done()
		aq, aqErr = g.provider.AirPollution(ctx, place.Lat, place.Lon)
	}()
	wg.Wait()

	if condErr != nil {
		log.Printf("ERROR: fetching weather for coordinates (%f,%f): %v", place.Lat, place.Lon, condErr)
		return Conditions{}, fmt.Errorf("current conditions for %q: %w", query, condErr)
	}

	if aqErr != nil {
		// Air quality is optional; keep the conditions.
		log.Printf("ERROR: fetching air quality for coordinates (%f,%f): %v", place.Lat, place.Lon, aqErr)
	} else {
		cond.AirQuality = &aq
	}

	if place.Name != "" {
		cond.Name = place.Name
	}
	cond.State = place.State
	if place.Country != "" {
		cond.Country = place.Country
	}

	return cond, nil
}

// GetForecast fetches the 5-day forecast for query, preferring a coordinate
// lookup and annotating the result with the resolved place.
func (g *Gateway) GetForecast(ctx context.Context, query string) (Forecast, error) {
	place, err := g.ResolveCoordinates(ctx, query)
	if err != nil {
		fc, err := g.provider.ForecastByQuery(ctx, query)
		if err != nil {
			log.Printf("ERROR: fetching forecast for %s: %v", query, err)
			return Forecast{}, fmt.Errorf("forecast for %q: %w", query, err)
		}
		return fc, nil
	}

	fc, err := g.provider.ForecastByCoords(ctx, place.Lat, place.Lon)
	if err != nil {
		log.Printf("ERROR: fetching forecast for %s: %v", query, err)
		return Forecast{}, fmt.Errorf("forecast for %q: %w", query, err)
	}

	fc.ResolvedName = place.Name
	fc.ResolvedState = place.State
	fc.ResolvedCountry = place.Country
	return fc, nil
}

// maxConcurrentLookups bounds how many saved locations are fetched at once so
// a long list does not drain the provider's rate budget in one burst.
const maxConcurrentLookups = 4

// GetCurrentForAll fetches current conditions for every query concurrently
// and returns the successes in the order of queries. Failures are dropped.
func (g *Gateway) GetCurrentForAll(ctx context.Context, queries []string) []Conditions {
	results := make([]*Conditions, len(queries))
	sem := make(chan struct{}, maxConcurrentLookups)

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cond, err := g.GetCurrentConditions(ctx, q)
			if err != nil {
				// Logged by GetCurrentConditions; partial success is fine.
				return
			}
			results[i] = &cond
		}(i, q)
	}
	wg.Wait()

	out := make([]Conditions, 0, len(queries))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	log.Printf("DEBUG: fetched weather for %d of %d saved locations", len(out), len(queries))
	return out
}
