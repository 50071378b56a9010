package weather

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Units selects which side of the paired metric/imperial fields is displayed.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits converts user input into Units.
func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case UnitsMetric, UnitsImperial:
		return Units(s), nil
	default:
		return "", fmt.Errorf("unknown units %q: must be %q or %q", s, UnitsMetric, UnitsImperial)
	}
}

// Location is the place the provider resolved a query to.
type Location struct {
	Name      string `json:"name"`
	Region    string `json:"region,omitempty"`
	Country   string `json:"country,omitempty"`
	Localtime string `json:"localtime,omitempty"`
}

// Condition is the provider's human-readable sky description.
type Condition struct {
	Text string `json:"text,omitempty"`
}

// Current holds current conditions with paired metric/imperial fields.
type Current struct {
	TempC      float64   `json:"temp_c"`
	TempF      float64   `json:"temp_f"`
	FeelsLikeC float64   `json:"feelslike_c"`
	FeelsLikeF float64   `json:"feelslike_f"`
	WindKph    float64   `json:"wind_kph"`
	WindMph    float64   `json:"wind_mph"`
	Condition  Condition `json:"condition"`
}

// Snapshot is the full current-conditions payload for one location.
// It is replaced wholesale on every successful fetch and never merged.
// Raw holds the provider body verbatim, including fields not mapped above.
type Snapshot struct {
	Location Location        `json:"location"`
	Current  Current         `json:"current"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Temperature returns the temperature in the given units.
func (s Snapshot) Temperature(u Units) float64 {
	if u == UnitsImperial {
		return s.Current.TempF
	}
	return s.Current.TempC
}

// FeelsLike returns the feels-like temperature in the given units.
func (s Snapshot) FeelsLike(u Units) float64 {
	if u == UnitsImperial {
		return s.Current.FeelsLikeF
	}
	return s.Current.FeelsLikeC
}

// WindSpeed returns the wind speed paired with its unit label, e.g. "10 km/h".
func (s Snapshot) WindSpeed(u Units) string {
	if u == UnitsImperial {
		return formatNumber(s.Current.WindMph) + " mph"
	}
	return formatNumber(s.Current.WindKph) + " km/h"
}

// formatNumber prints the shortest representation, so 10 stays "10" and 6.2 stays "6.2".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
