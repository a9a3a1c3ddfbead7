// In file: internal/assistant/errors.go
package assistant

import (
	"context"
	"errors"

	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/weather"
)

// Error kinds, used as metric labels and in API error bodies.
const (
	KindOK               = "ok"
	KindEmptyQuery       = "empty_query"
	KindLocationNotFound = "location_not_found"
	KindDateOutOfRange   = "date_out_of_range"
	KindSchemaParse      = "schema_parse"
	KindTransport        = "transport"
	KindCanceled         = "canceled"
	KindInternal         = "internal"
)

// Kind classifies an error returned by the orchestrator.
func Kind(err error) string {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrEmptyQuery):
		return KindEmptyQuery
	case errors.Is(err, weather.ErrLocationNotFound):
		return KindLocationNotFound
	case errors.Is(err, weather.ErrDateOutOfRange):
		return KindDateOutOfRange
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, llm.ErrSchemaParse):
		return KindSchemaParse
	case errors.Is(err, weather.ErrTransport), errors.Is(err, llm.ErrProvider):
		return KindTransport
	default:
		return KindInternal
	}
}
