package weather

import (
	"context"
)

// Provider abstracts the remote current-conditions service (e.g. WeatherAPI.com).
//
// Implementations perform at most one network round trip per call and
// report every failure as an error built by NewFetchFailure or WrapFetchFailure.
type Provider interface {
	Name() string
	Current(ctx context.Context, query string) (Snapshot, error)
}
