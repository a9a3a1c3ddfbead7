// In file: internal/weather/errors.go
package weather

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
)

var (
	// ErrLocationNotFound matches *LocationNotFoundError.
	ErrLocationNotFound = errors.New("location not found")
	// ErrDateOutOfRange matches *DateOutOfRangeError.
	ErrDateOutOfRange = errors.New("date out of forecast range")
	// ErrTransport matches *TransportError.
	ErrTransport = errors.New("weather provider request failed")
)

// LocationNotFoundError is returned when geocoding yields no result.
type LocationNotFoundError struct {
	Location string
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("location %q not found", e.Location)
}

func (e *LocationNotFoundError) Is(target error) bool { return target == ErrLocationNotFound }

// DateOutOfRangeError is returned when a forecast is requested for a past day
// or for a day beyond the provider's horizon.
type DateOutOfRangeError struct {
	Date    civil.Date
	Today   civil.Date
	MaxDays int
}

func (e *DateOutOfRangeError) Error() string {
	if e.Date.Before(e.Today) {
		return fmt.Sprintf("no forecast for past date %s (today is %s)", e.Date, e.Today)
	}
	return fmt.Sprintf("forecast only available up to %d days ahead: %s is after %s", e.MaxDays, e.Date, e.Today.AddDays(e.MaxDays))
}

func (e *DateOutOfRangeError) Is(target error) bool { return target == ErrDateOutOfRange }

// TransportError wraps network failures and non-2xx responses. StatusCode is 0
// when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request to %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
