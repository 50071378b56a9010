package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-session/internal/store"
	"github.com/i474232898/weather-session/internal/weather"
)

type stubProvider struct {
	err error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Current(ctx context.Context, query string) (weather.Snapshot, error) {
	if p.err != nil {
		return weather.Snapshot{}, p.err
	}
	return weather.Snapshot{
		Location: weather.Location{Name: query},
		Current: weather.Current{
			TempC: 18, TempF: 64.4,
			FeelsLikeC: 17, FeelsLikeF: 62.6,
			WindKph: 10, WindMph: 6.2,
		},
	}, nil
}

type stateResponse struct {
	CurrentWeather *weather.Snapshot `json:"currentWeather"`
	SearchHistory  []string          `json:"searchHistory"`
	Favorites      []string          `json:"favorites"`
	IsLoading      bool              `json:"isLoading"`
	Error          *string           `json:"error"`
	Units          string            `json:"units"`
	LastSearched   *string           `json:"lastSearched"`
	Temperature    *float64          `json:"temperature"`
	FeelsLike      *float64          `json:"feelsLike"`
	WindSpeed      *string           `json:"windSpeed"`
}

func newTestApp(p weather.Provider) (*fiber.App, *store.WeatherStore) {
	app := NewApp("weather-session-test")
	s := store.New(p)
	RegisterRoutes(app, s, nil)
	return app, s
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeState(t *testing.T, resp *http.Response) stateResponse {
	t.Helper()
	defer resp.Body.Close()

	var st stateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func TestGetInitialState(t *testing.T) {
	app, _ := newTestApp(&stubProvider{})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decodeState(t, resp)
	assert.Nil(t, st.CurrentWeather)
	assert.Empty(t, st.SearchHistory)
	assert.False(t, st.IsLoading)
	assert.Nil(t, st.Error)
	assert.Equal(t, "metric", st.Units)
	assert.Nil(t, st.Temperature)
	assert.Nil(t, st.WindSpeed)
}

func TestFetchWeather(t *testing.T) {
	app, _ := newTestApp(&stubProvider{})

	resp := doJSON(t, app, http.MethodPost, "/api/v1/weather", `{"query":"Paris"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decodeState(t, resp)
	require.NotNil(t, st.CurrentWeather)
	assert.Equal(t, "Paris", st.CurrentWeather.Location.Name)
	assert.Equal(t, []string{"Paris"}, st.SearchHistory)
	require.NotNil(t, st.Temperature)
	assert.Equal(t, 18.0, *st.Temperature)
	require.NotNil(t, st.FeelsLike)
	assert.Equal(t, 17.0, *st.FeelsLike)
	require.NotNil(t, st.WindSpeed)
	assert.Equal(t, "10 km/h", *st.WindSpeed)
	assert.NotNil(t, st.LastSearched)
	assert.Nil(t, st.Error)
	assert.False(t, st.IsLoading)
}

func TestFetchWeatherFailureIsState(t *testing.T) {
	p := &stubProvider{
		err: weather.NewFetchFailure(weather.CodeUpstreamFailure, "No matching location found.", "status 400"),
	}
	app, _ := newTestApp(p)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/weather", `{"query":"Nowhere"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decodeState(t, resp)
	require.NotNil(t, st.Error)
	assert.Equal(t, "No matching location found.", *st.Error)
	assert.Nil(t, st.CurrentWeather)
	assert.False(t, st.IsLoading)
}

func TestFetchWeatherValidation(t *testing.T) {
	app, _ := newTestApp(&stubProvider{err: errors.New("must not be called")})

	for _, body := range []string{`{}`, `{"query":""}`, `not json`} {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/weather", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestFavorites(t *testing.T) {
	app, s := newTestApp(&stubProvider{})

	resp := doJSON(t, app, http.MethodPost, "/api/v1/favorites/toggle", `{"location":"New York"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, s.IsFavorite("New York"))

	resp = doJSON(t, app, http.MethodGet, "/api/v1/favorites/New%20York", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Location   string `json:"location"`
		IsFavorite bool   `json:"isFavorite"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "New York", body.Location)
	assert.True(t, body.IsFavorite)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/favorites/toggle", `{"location":"New York"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, s.IsFavorite("New York"))

	resp = doJSON(t, app, http.MethodPost, "/api/v1/favorites/toggle", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func doForm(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestFormBodiesSurviveLaterRequests(t *testing.T) {
	app, s := newTestApp(&stubProvider{})

	resp := doForm(t, app, http.MethodPost, "/api/v1/favorites/toggle", "location=Paris")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doForm(t, app, http.MethodPut, "/api/v1/units", "units=imperial")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Later requests reuse the server's request buffers.
	for i := 0; i < 50; i++ {
		resp = doForm(t, app, http.MethodPost, "/api/v1/weather", "query=Zzzzz")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Equal(t, []string{"Paris"}, s.State().Favorites)
	assert.True(t, s.IsFavorite("Paris"))
	assert.Equal(t, weather.UnitsImperial, s.Units())

	// Toggling again still finds the stored entry.
	resp = doForm(t, app, http.MethodPost, "/api/v1/favorites/toggle", "location=Paris")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, s.IsFavorite("Paris"))
	assert.Empty(t, s.State().Favorites)
}

func TestChangeUnits(t *testing.T) {
	app, s := newTestApp(&stubProvider{})
	s.FetchWeather(context.Background(), "Paris")

	resp := doJSON(t, app, http.MethodPut, "/api/v1/units", `{"units":"imperial"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decodeState(t, resp)
	assert.Equal(t, "imperial", st.Units)
	require.NotNil(t, st.Temperature)
	assert.Equal(t, 64.4, *st.Temperature)
	require.NotNil(t, st.WindSpeed)
	assert.Equal(t, "6.2 mph", *st.WindSpeed)

	resp = doJSON(t, app, http.MethodPut, "/api/v1/units", `{"units":"kelvin"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, weather.UnitsImperial, s.Units())
}

func TestErrorResponseShape(t *testing.T) {
	app, _ := newTestApp(&stubProvider{})

	resp := doJSON(t, app, http.MethodPut, "/api/v1/units", `{"units":"kelvin"}`)
	defer resp.Body.Close()

	var body struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Error)
	assert.NotEmpty(t, body.Message)
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(&stubProvider{})

	resp := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestEncodeStateEvent(t *testing.T) {
	s := store.New(&stubProvider{})
	s.FetchWeather(context.Background(), "Paris")

	var buf bytes.Buffer
	require.NoError(t, encodeStateEvent(&buf, s.State()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "event: state\ndata: {"))
	assert.True(t, strings.HasSuffix(out, "}\n\n"))
	assert.Contains(t, out, `"windSpeed":"10 km/h"`)
	assert.Contains(t, out, `"searchHistory":["Paris"]`)
}
