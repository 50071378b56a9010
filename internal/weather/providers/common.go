package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-session/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and circuit breaker settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Breaker BreakerConfig
}

// BreakerConfig controls when the circuit opens and how long it stays open.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig mirrors the settings used for every provider.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         5,
		Interval:            1 * time.Minute,
		Timeout:             2 * time.Minute,
		ConsecutiveFailures: 5,
	}
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errNoHTTPClient = errors.New("http client not configured")
)

func newCircuitBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
}

// doRequest executes exactly one HTTP round trip through the circuit breaker.
// Transport errors, 429 and 5xx responses count against the breaker; any other
// response (including 4xx) is returned to the caller with its body open.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, weather.WrapFetchFailure(errNoHTTPClient, weather.CodeRequestInvalid, "", "provider misconfigured")
	}

	req, err := buildRequest()
	if err != nil {
		return nil, weather.WrapFetchFailure(err, weather.CodeRequestInvalid, "", "building provider request")
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return resp, errRateLimited
		}
		if resp.StatusCode >= 500 {
			return resp, errServerError
		}
		return resp, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, weather.WrapFetchFailure(err, weather.CodeCircuitOpen, "", "circuit breaker open")
	}

	resp, _ := result.(*http.Response)
	if err != nil && resp == nil {
		return nil, weather.WrapFetchFailure(err, weather.CodeUpstreamFailure, "", "provider request failed")
	}
	if resp == nil {
		return nil, weather.NewFetchFailure(weather.CodeUpstreamFailure, "", fmt.Sprintf("unexpected result type %T from circuit breaker", result))
	}

	// The body of rate-limited and 5xx responses may still carry a provider message.
	return resp, nil
}
