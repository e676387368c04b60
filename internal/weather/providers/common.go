package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-bot/internal/weather"
)

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// A place that does not exist says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, weather.ErrLocationNotFound)
		},
	})
}

// doRequest executes a single attempt through the circuit breaker. Failures
// surface immediately; the caller's context bounds the request.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if statusErr := checkStatus(resp.StatusCode); statusErr != nil {
			resp.Body.Close()
			return nil, statusErr
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusNotFound:
		return weather.ErrLocationNotFound
	case code == http.StatusTooManyRequests:
		return errRateLimited
	case code >= 500:
		return fmt.Errorf("%w: %d", errServerError, code)
	case code < 200 || code >= 300:
		return fmt.Errorf("%w: %d", errUnexpected, code)
	default:
		return nil
	}
}
