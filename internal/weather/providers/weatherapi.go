package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-session/internal/weather"
)

// DefaultWeatherAPIBaseURL is the WeatherAPI.com v1 endpoint.
const DefaultWeatherAPIBaseURL = "https://api.weatherapi.com/v1"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewWeatherAPIProvider creates a provider against baseURL. An empty baseURL
// selects DefaultWeatherAPIBaseURL.
func NewWeatherAPIProvider(client *http.Client, apiKey, baseURL string) *WeatherAPIProvider {
	return NewWeatherAPIProviderWithConfig(HTTPClientConfig{
		Client:  client,
		Breaker: DefaultBreakerConfig(),
	}, apiKey, baseURL)
}

// NewWeatherAPIProviderWithConfig is NewWeatherAPIProvider with explicit breaker settings.
func NewWeatherAPIProviderWithConfig(cfg HTTPClientConfig, apiKey, baseURL string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIBaseURL
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: newCircuitBreaker("weatherapi", cfg.Breaker),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// Current fetches current conditions for query from the current.json resource.
func (p *WeatherAPIProvider) Current(ctx context.Context, query string) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, weather.NewFetchFailure(weather.CodeRequestInvalid, "", "weatherapi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// The query is passed through untouched; the provider resolves
		// city names, "lat,lon", postcodes and IP lookups itself.
		values.Set("q", query)

		u := fmt.Sprintf("%s/current.json?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return weather.Snapshot{}, errorFromResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return weather.Snapshot{}, weather.WrapFetchFailure(err, weather.CodeUpstreamFailure, "", "reading weatherapi response")
	}

	var payload weather.Snapshot
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Snapshot{}, weather.WrapFetchFailure(err, weather.CodeResponseInvalid, "", "decoding weatherapi response")
	}
	if payload.Location.Name == "" {
		return weather.Snapshot{}, weather.NewFetchFailure(weather.CodeResponseInvalid, "", "weatherapi response has no location name")
	}

	payload.Raw = json.RawMessage(body)
	return payload, nil
}

// errorResponse is the provider's error envelope: {"error":{"code":1006,"message":"..."}}.
type errorResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorFromResponse builds a FetchFailure from a non-2xx response, using the
// provider's error.message as the display message when the body has that shape.
func errorFromResponse(resp *http.Response) error {
	msg := fmt.Sprintf("weatherapi returned status %d", resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return weather.WrapFetchFailure(err, weather.CodeUpstreamFailure, "", msg)
	}

	var envelope errorResponse
	display := ""
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		display = envelope.Error.Message
		if envelope.Error.Code != 0 {
			msg = fmt.Sprintf("%s (provider code %d)", msg, envelope.Error.Code)
		}
	}

	return weather.NewFetchFailure(weather.CodeUpstreamFailure, display, msg)
}
