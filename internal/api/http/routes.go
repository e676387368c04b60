package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-bot/internal/store"
	"github.com/i474232898/weather-bot/internal/weather"
)

var validate = validator.New()

// Gateway is the weather lookup exposed over HTTP.
type Gateway interface {
	GetCurrentConditions(ctx context.Context, query string) (weather.Conditions, error)
	GetForecast(ctx context.Context, query string) (weather.Forecast, error)
}

// Locations is the read side of the saved-location store.
type Locations interface {
	Load() store.Locations
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, gateway Gateway, locations Locations, timeout time.Duration) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		cond, err := gateway.GetCurrentConditions(ctx, q.Location)
		if err != nil {
			return lookupError(err, "no weather data for requested location")
		}

		display := weather.FormatCurrent(cond, time.Now())
		return c.JSON(fiber.Map{
			"conditions": cond,
			"display":    display,
			"panel":      display.Panel(),
		})
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		q, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		fc, err := gateway.GetForecast(ctx, q.Location)
		if err != nil {
			return lookupError(err, "no forecast data for requested location")
		}

		display := weather.FormatForecast(fc, time.Now())
		return c.JSON(fiber.Map{
			"forecast": fc,
			"days":     display.Days,
			"panel":    display.Panel(),
			"hourly":   display.Hourly,
		})
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"locations": locations.Load(),
		})
	})
}

// lookupError separates "no such place" from provider failures.
func lookupError(err error, notFound string) error {
	if errors.Is(err, weather.ErrLocationNotFound) {
		return fiber.NewError(fiber.StatusNotFound, notFound)
	}
	return fiber.NewError(fiber.StatusBadGateway, "weather provider unavailable")
}

// locationQuery holds the query parameter identifying a location.
type locationQuery struct {
	Location string `validate:"required,max=100"`
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	q := locationQuery{Location: c.Query("location")}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}
