// In file: internal/assistant/orchestrator.go
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/logger"
	"github.com/dileep-u-k/weather-assistant/internal/metrics"
	"github.com/dileep-u-k/weather-assistant/internal/version"
	"github.com/dileep-u-k/weather-assistant/internal/weather"
)

// ErrEmptyQuery is returned for a blank question.
var ErrEmptyQuery = errors.New("query is empty")

// reportFields are the response keys passed on to the summary.
var reportFields = []string{"hourly_units", "hourly"}

// WeatherSource is the data side of the pipeline. *weather.Client implements it.
type WeatherSource interface {
	Current(ctx context.Context, location string, today civil.Date) (weather.Response, error)
	Historical(ctx context.Context, location string, date civil.Date) (weather.Response, error)
	Forecast(ctx context.Context, location string, date, today civil.Date) (weather.Response, error)
}

var _ WeatherSource = (*weather.Client)(nil)

// Resolution records how one sub-query was answered.
type Resolution struct {
	Query      string
	Parameters Parameters
	Path       Path
}

// Result is the full outcome of a question.
type Result struct {
	Summary    string
	Today      Day
	SubQueries []Resolution
	Report     string
}

// Orchestrator runs the decompose, extract, fetch and summarise pipeline.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	decomposer *Decomposer
	extractor  *ParameterExtractor
	summarizer llm.Capability
	source     WeatherSource

	now      func() time.Time
	location *time.Location
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLocation sets the time zone in which "today" is computed.
func WithLocation(loc *time.Location) Option {
	return func(o *Orchestrator) { o.location = loc }
}

// WithSummarizer uses a separate model configuration for the final summary.
func WithSummarizer(c llm.Capability) Option {
	return func(o *Orchestrator) { o.summarizer = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New builds an Orchestrator. parser drives decomposition and parameter
// extraction, and also the summary unless WithSummarizer is given.
func New(parser llm.Capability, source WeatherSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		decomposer: NewDecomposer(parser),
		extractor:  NewParameterExtractor(parser),
		summarizer: parser,
		source:     source,
		now:        time.Now,
		location:   time.Local,
		logger:     logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Answer returns the natural-language summary for a question.
func (o *Orchestrator) Answer(ctx context.Context, query string) (string, error) {
	res, err := o.AnswerDetailed(ctx, query)
	if err != nil {
		return "", err
	}
	return res.Summary, nil
}

// AnswerDetailed is Answer plus the intermediate sub-queries and report. Any
// failure aborts the whole question; no partial summary is produced.
func (o *Orchestrator) AnswerDetailed(ctx context.Context, query string) (res *Result, err error) {
	start := time.Now()
	log := o.logger.With(map[string]interface{}{"request_id": logger.RequestID(ctx)})
	defer func() {
		o.metrics.ObserveQuery(Kind(err), time.Since(start))
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	today := DayOf(o.now(), o.location)
	log.Info("Answering query", map[string]interface{}{
		"query":       query,
		"fingerprint": version.Fingerprint("query", query),
		"today":       today.Date.String(),
	})

	subs, err := o.decomposer.Decompose(ctx, query, today)
	if err != nil {
		return nil, err
	}
	log.Debug("Decomposed query", map[string]interface{}{"sub_queries": len(subs.Queries)})

	var report strings.Builder
	resolutions := make([]Resolution, 0, len(subs.Queries))
	for _, sq := range subs.Queries {
		params, err := o.extractor.ExtractParameters(ctx, sq.Query, today)
		if err != nil {
			return nil, err
		}

		path := Classify(params.Date, today.Date)
		data, err := o.fetch(ctx, path, params, today.Date)
		o.metrics.ObserveFetch(string(path), err)
		if err != nil {
			log.WithError(err).Warn("Weather fetch failed", map[string]interface{}{
				"location": params.Location,
				"date":     params.Date.String(),
				"path":     string(path),
			})
			return nil, fmt.Errorf("fetching %s weather for %s on %s: %w", path, params.Location, params.Date, err)
		}

		if err := writeFragment(&report, path, params, data); err != nil {
			return nil, err
		}
		resolutions = append(resolutions, Resolution{Query: sq.Query, Parameters: params, Path: path})
	}

	summary, err := o.summarizer.Generate(ctx, summaryPrompt(query, report.String(), today))
	if err != nil {
		return nil, fmt.Errorf("summarising weather data: %w", err)
	}

	log.Info("Query answered", map[string]interface{}{
		"sub_queries": len(resolutions),
		"latency_ms":  time.Since(start).Milliseconds(),
	})
	return &Result{
		Summary:    summary,
		Today:      today,
		SubQueries: resolutions,
		Report:     report.String(),
	}, nil
}

func (o *Orchestrator) fetch(ctx context.Context, path Path, p Parameters, today civil.Date) (weather.Response, error) {
	var (
		resp weather.Response
		err  error
	)
	switch path {
	case PathHistorical:
		resp, err = o.source.Historical(ctx, p.Location, p.Date)
	case PathCurrent:
		resp, err = o.source.Current(ctx, p.Location, today)
	default:
		resp, err = o.source.Forecast(ctx, p.Location, p.Date, today)
	}
	if err != nil {
		return nil, err
	}
	return weather.Restrict(resp, reportFields...), nil
}

// writeFragment appends one labelled block to the report.
func writeFragment(b *strings.Builder, path Path, p Parameters, data weather.Response) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding weather data for %s: %w", p.Location, err)
	}
	switch path {
	case PathCurrent:
		fmt.Fprintf(b, "Weather in %s for today:\n%s\n", p.Location, encoded)
	case PathForecast:
		fmt.Fprintf(b, "Weather forecast in %s for %s:\n%s\n", p.Location, p.Date, encoded)
	default:
		fmt.Fprintf(b, "Weather in %s for %s:\n%s\n", p.Location, p.Date, encoded)
	}
	return nil
}
