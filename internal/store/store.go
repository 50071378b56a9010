package store

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-session/internal/weather"
)

// State is a point-in-time copy of the session state handed to readers.
type State struct {
	CurrentWeather *weather.Snapshot `json:"currentWeather"`
	SearchHistory  []string          `json:"searchHistory"`
	Favorites      []string          `json:"favorites"`
	IsLoading      bool              `json:"isLoading"`
	Error          *string           `json:"error"`
	Units          weather.Units     `json:"units"`
	LastSearched   *time.Time        `json:"lastSearched"`

	// Version increases by one with every mutation.
	Version uint64 `json:"version"`
}

// Option configures a WeatherStore.
type Option func(*WeatherStore)

// WithClock overrides the clock used to stamp LastSearched.
func WithClock(now func() time.Time) Option {
	return func(s *WeatherStore) {
		s.now = now
	}
}

// WithHistoryLimit overrides the search history bound.
func WithHistoryLimit(n int) Option {
	return func(s *WeatherStore) {
		s.history = NewHistory(n)
	}
}

// WithUnits sets the initial units.
func WithUnits(u weather.Units) Option {
	return func(s *WeatherStore) {
		s.units = u
	}
}

// WeatherStore owns the session state: the current snapshot, recent searches,
// favorites, the busy flag, the last fetch error and the display units.
//
// Fields are only changed through the action methods. The lock is never held
// across the provider call, so overlapping fetches are not serialized and the
// last one to settle wins.
type WeatherStore struct {
	provider weather.Provider
	now      func() time.Time

	mu             sync.RWMutex
	currentWeather *weather.Snapshot
	history        *History
	favorites      *Favorites
	isLoading      bool
	err            *string
	units          weather.Units
	lastSearched   *time.Time
	version        uint64

	subsMu sync.Mutex
	subs   map[string]func(State)

	// notifyMu orders delivery; notified is the last version handed to listeners.
	notifyMu sync.Mutex
	notified uint64
}

// New creates a WeatherStore with default state: no snapshot, empty history
// and favorites, metric units.
func New(provider weather.Provider, opts ...Option) *WeatherStore {
	s := &WeatherStore{
		provider:  provider,
		now:       time.Now,
		history:   NewHistory(DefaultHistoryLimit),
		favorites: NewFavorites(),
		units:     weather.UnitsMetric,
		subs:      make(map[string]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchWeather requests current conditions for query and records the outcome.
// Failures never propagate: they are only visible through State().Error.
// The returned State is the one observed right after the fetch settled.
func (s *WeatherStore) FetchWeather(ctx context.Context, query string) (settled State) {
	s.mutate(func() {
		s.isLoading = true
		s.err = nil
	})
	defer func() {
		settled = s.mutate(func() {
			s.isLoading = false
		})
	}()

	log.Printf("DEBUG: FetchWeather called for %q via %s", query, s.provider.Name())

	snap, err := s.provider.Current(ctx, query)
	if err != nil {
		msg := weather.DisplayMessage(err)
		log.Printf("ERROR: weather fetch failed for %q: %v", query, err)
		s.mutate(func() {
			s.err = &msg
		})
		return
	}

	s.mutate(func() {
		stamp := s.now()
		s.currentWeather = &snap
		s.lastSearched = &stamp
		s.history.Add(snap.Location.Name)
	})
	return
}

// ToggleFavorite flips membership of location in the favorites set.
func (s *WeatherStore) ToggleFavorite(location string) bool {
	var member bool
	s.mutate(func() {
		member = s.favorites.Toggle(location)
	})
	return member
}

// ChangeUnits switches the display units. It does not refetch.
// Units other than metric and imperial are rejected and leave state untouched.
func (s *WeatherStore) ChangeUnits(u weather.Units) error {
	if _, err := weather.ParseUnits(string(u)); err != nil {
		return err
	}
	s.mutate(func() {
		s.units = u
	})
	return nil
}

// Temperature returns the current temperature in the selected units.
// ok is false when there is no snapshot.
func (s *WeatherStore) Temperature() (value float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentWeather == nil {
		return 0, false
	}
	return s.currentWeather.Temperature(s.units), true
}

// FeelsLike returns the feels-like temperature in the selected units.
func (s *WeatherStore) FeelsLike() (value float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentWeather == nil {
		return 0, false
	}
	return s.currentWeather.FeelsLike(s.units), true
}

// WindSpeed returns the wind speed with its unit label, e.g. "10 km/h".
func (s *WeatherStore) WindSpeed() (value string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentWeather == nil {
		return "", false
	}
	return s.currentWeather.WindSpeed(s.units), true
}

// IsFavorite reports whether location is a favorite.
func (s *WeatherStore) IsFavorite(location string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favorites.Contains(location)
}

// IsLoading reports whether a fetch is in flight.
func (s *WeatherStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// Units returns the selected display units.
func (s *WeatherStore) Units() weather.Units {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units
}

// CurrentLocation returns the location name of the current snapshot.
func (s *WeatherStore) CurrentLocation() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentWeather == nil {
		return "", false
	}
	return s.currentWeather.Location.Name, true
}

// State returns a copy of the whole session state.
func (s *WeatherStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *WeatherStore) stateLocked() State {
	st := State{
		SearchHistory: s.history.Entries(),
		Favorites:     s.favorites.Names(),
		IsLoading:     s.isLoading,
		Units:         s.units,
		Version:       s.version,
	}
	if s.currentWeather != nil {
		snap := *s.currentWeather
		if snap.Raw != nil {
			snap.Raw = append(json.RawMessage(nil), snap.Raw...)
		}
		st.CurrentWeather = &snap
	}
	if s.err != nil {
		msg := *s.err
		st.Error = &msg
	}
	if s.lastSearched != nil {
		ts := *s.lastSearched
		st.LastSearched = &ts
	}
	return st
}

// Subscribe registers fn to be called with a copy of the state after
// mutations. Listeners see versions in increasing order; a state superseded
// before it could be delivered is skipped, but the newest one always is
// delivered. fn may read the store but must not mutate it.
// The returned func removes the subscription.
func (s *WeatherStore) Subscribe(fn func(State)) (unsubscribe func()) {
	id := uuid.NewString()

	s.subsMu.Lock()
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// mutate applies fn under the write lock, notifies subscribers afterwards and
// returns the resulting state.
func (s *WeatherStore) mutate(fn func()) State {
	s.mu.Lock()
	fn()
	s.version++
	st := s.stateLocked()
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	// A newer state has already gone out.
	if st.Version <= s.notified {
		return st
	}
	s.notified = st.Version

	s.subsMu.Lock()
	listeners := make([]func(State), 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	s.subsMu.Unlock()

	for _, l := range listeners {
		l(st)
	}
	return st
}
