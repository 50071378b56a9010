package weather

import (
	"errors"

	"github.com/samber/oops"
)

// GenericFailureMessage is shown when the provider did not supply a message of its own.
const GenericFailureMessage = "Failed to fetch weather data"

// Code classifies a FetchFailure.
type Code string

const (
	CodeRequestInvalid  Code = "provider.request.invalid"
	CodeUpstreamFailure Code = "provider.upstream.failure"
	CodeResponseInvalid Code = "provider.response.invalid"
	CodeCircuitOpen     Code = "provider.circuit.open"
)

// ErrFetchFailure is matched by every error created in this file.
var ErrFetchFailure = errors.New("weather fetch failed")

// NewFetchFailure creates a FetchFailure. A non-empty display message is
// attached as the public message surfaced to users.
func NewFetchFailure(code Code, display string, msg string) error {
	return builder(code, display).Wrapf(ErrFetchFailure, "%s", msg)
}

// WrapFetchFailure wraps a transport or decoding error as a FetchFailure.
func WrapFetchFailure(err error, code Code, display string, msg string) error {
	if err == nil {
		return nil
	}
	return builder(code, display).Wrapf(errors.Join(ErrFetchFailure, err), "%s", msg)
}

func builder(code Code, display string) oops.OopsErrorBuilder {
	b := oops.Code(code).In("weather")
	if display != "" {
		b = b.Public(display)
	}
	return b
}

// CodeOf returns the FetchFailure code of err, or "" when err carries none.
func CodeOf(err error) Code {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch c := oopsErr.Code().(type) {
	case Code:
		return c
	case string:
		return Code(c)
	default:
		return ""
	}
}

// DisplayMessage returns the human-readable message for err, preferring the
// provider-supplied one and falling back to GenericFailureMessage.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	return oops.GetPublic(err, GenericFailureMessage)
}
