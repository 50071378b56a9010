package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-session/internal/store"
	"github.com/i474232898/weather-session/internal/weather"
)

type countingProvider struct {
	queries []string
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Current(ctx context.Context, query string) (weather.Snapshot, error) {
	p.queries = append(p.queries, query)
	return weather.Snapshot{Location: weather.Location{Name: "Paris"}}, nil
}

type stubTarget struct {
	location string
	loading  bool
	fetched  []string
}

func (t *stubTarget) CurrentLocation() (string, bool) { return t.location, t.location != "" }
func (t *stubTarget) IsLoading() bool                 { return t.loading }
func (t *stubTarget) FetchWeather(ctx context.Context, query string) store.State {
	t.fetched = append(t.fetched, query)
	return store.State{}
}

func TestRunOnceRefreshesCurrentLocation(t *testing.T) {
	p := &countingProvider{}
	s := store.New(p)
	s.FetchWeather(context.Background(), "paris, fr")

	sched := New(s, time.Minute, time.Second)
	sched.RunOnce()

	// The refresh uses the resolved name, not the original query.
	assert.Equal(t, []string{"paris, fr", "Paris"}, p.queries)
	assert.Equal(t, []string{"Paris"}, s.State().SearchHistory)
}

func TestRunOnceSkips(t *testing.T) {
	t.Run("nothing fetched", func(t *testing.T) {
		target := &stubTarget{}
		New(target, time.Minute, time.Second).RunOnce()
		assert.Empty(t, target.fetched)
	})

	t.Run("fetch in flight", func(t *testing.T) {
		target := &stubTarget{location: "Paris", loading: true}
		New(target, time.Minute, time.Second).RunOnce()
		assert.Empty(t, target.fetched)
	})
}

func TestStartDisabled(t *testing.T) {
	target := &stubTarget{location: "Paris"}
	sched := New(target, 0, time.Second)

	require.NoError(t, sched.Start())
	defer sched.Stop()

	assert.Empty(t, target.fetched)
}
