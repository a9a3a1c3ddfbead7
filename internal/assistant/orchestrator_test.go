package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/logger"
	"github.com/dileep-u-k/weather-assistant/internal/metrics"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
	"github.com/dileep-u-k/weather-assistant/internal/weather"
)

// scriptedModel is an llm.LLMClient that answers each pipeline stage from a script.
type scriptedModel struct {
	mu sync.Mutex

	rewrite    string
	subQueries string
	// params maps a canonical question to the record_parameters arguments.
	params  map[string]string
	summary string

	prompts map[string][]string // system prompt -> user prompts seen
}

func (m *scriptedModel) Generate(_ context.Context, messages []llm.Message, cfg *llm.GenerationConfig, _ []tools.Tool) (*llm.GenerationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	system := messages[0].Content
	user := messages[len(messages)-1].Content
	if m.prompts == nil {
		m.prompts = map[string][]string{}
	}
	m.prompts[system] = append(m.prompts[system], user)

	switch cfg.ForceTool {
	case subQueriesFunction.Name:
		return toolResult(cfg.ForceTool, m.subQueries), nil
	case parametersFunction.Name:
		for q, args := range m.params {
			if strings.Contains(user, "Query: "+q+"\n") {
				return toolResult(cfg.ForceTool, args), nil
			}
		}
		return nil, fmt.Errorf("unscripted question in %q", user)
	}

	switch system {
	case rewriteSystemPrompt:
		return &llm.GenerationResult{Content: m.rewrite}, nil
	case summarySystemPrompt:
		return &llm.GenerationResult{Content: m.summary}, nil
	}
	return nil, fmt.Errorf("unexpected prompt %q", system)
}

func (m *scriptedModel) seen(system string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[system]
}

func toolResult(name, args string) *llm.GenerationResult {
	return &llm.GenerationResult{ToolCalls: []*tools.ToolCall{{
		ID:       "call",
		Type:     tools.ToolTypeFunction,
		Function: tools.ToolCallFunction{Name: name, Arguments: args},
	}}}
}

// MockWeatherSource is a mocked WeatherSource.
type MockWeatherSource struct {
	mock.Mock
}

func (m *MockWeatherSource) response(args mock.Arguments) (weather.Response, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(weather.Response), args.Error(1)
}

func (m *MockWeatherSource) Current(ctx context.Context, location string, today civil.Date) (weather.Response, error) {
	return m.response(m.Called(ctx, location, today))
}

func (m *MockWeatherSource) Historical(ctx context.Context, location string, date civil.Date) (weather.Response, error) {
	return m.response(m.Called(ctx, location, date))
}

func (m *MockWeatherSource) Forecast(ctx context.Context, location string, date, today civil.Date) (weather.Response, error) {
	return m.response(m.Called(ctx, location, date, today))
}

func (m *MockWeatherSource) assertNoFetch(t *testing.T) {
	t.Helper()
	m.AssertNotCalled(t, "Current", mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Historical", mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Forecast", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// cannedResponse is a small provider payload for date.
func cannedResponse(date civil.Date) weather.Response {
	return weather.Response{
		"latitude":     48.86,
		"hourly_units": map[string]any{"temperature_2m": "°C"},
		"hourly": map[string]any{
			"time":           []any{date.String() + "T12:00"},
			"temperature_2m": []any{21.5},
		},
	}
}

var (
	may31 = civil.Date{Year: 2024, Month: 5, Day: 31}
	june1 = civil.Date{Year: 2024, Month: 6, Day: 1}
	june2 = civil.Date{Year: 2024, Month: 6, Day: 2}
)

// Saturday, 2024-06-01.
var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestOrchestrator(t *testing.T, model *scriptedModel, source WeatherSource, opts ...Option) (*Orchestrator, *int) {
	t.Helper()
	clockCalls := 0
	clock := func() time.Time {
		clockCalls++
		return fixedNow
	}
	capability := llm.NewAssistant(model, llm.GenerationConfig{Model: "gpt-4o"})
	base := []Option{WithClock(clock), WithLocation(time.UTC), WithLogger(logger.NewTestLogger(t))}
	return New(capability, source, append(base, opts...)...), &clockCalls
}

func TestAnswer_ParisTomorrow(t *testing.T) {
	model := &scriptedModel{
		rewrite:    "What is the weather in Paris on 2024-06-02?",
		subQueries: `{"queries":[{"query":"What is the weather in Paris on 2024-06-02?"}]}`,
		params: map[string]string{
			"What is the weather in Paris on 2024-06-02?": `{"location":"Paris","date":"2024-06-02"}`,
		},
		summary: "Tomorrow in Paris: sunny, around 21°C.",
	}
	source := new(MockWeatherSource)
	source.On("Forecast", mock.Anything, "Paris", june2, june1).Return(cannedResponse(june2), nil).Once()
	o, clockCalls := newTestOrchestrator(t, model, source)

	res, err := o.AnswerDetailed(context.Background(), "What's the weather in Paris tomorrow?")
	require.NoError(t, err)

	assert.Equal(t, "Tomorrow in Paris: sunny, around 21°C.", res.Summary)
	assert.Equal(t, 1, *clockCalls, "today must be captured once per request")

	source.AssertExpectations(t)
	source.AssertNotCalled(t, "Current", mock.Anything, mock.Anything, mock.Anything)
	source.AssertNotCalled(t, "Historical", mock.Anything, mock.Anything, mock.Anything)

	require.Len(t, res.SubQueries, 1)
	assert.Equal(t, PathForecast, res.SubQueries[0].Path)
	assert.True(t, strings.HasPrefix(res.Report, "Weather forecast in Paris for 2024-06-02:\n{"))
	assert.NotContains(t, res.Report, "latitude")
	assert.Contains(t, res.Report, `"hourly_units"`)

	rewrites := model.seen(rewriteSystemPrompt)
	require.Len(t, rewrites, 1)
	assert.Contains(t, rewrites[0], "What's the weather in Paris tomorrow?")
	assert.Contains(t, rewrites[0], "today is 2024-06-01")
	assert.Contains(t, rewrites[0], "Saturday")

	assert.Len(t, model.seen(parametersSystemPrompt), 1, "parameters are extracted once per sub-query")

	summaries := model.seen(summarySystemPrompt)
	require.Len(t, summaries, 1)
	assert.Contains(t, summaries[0], "Query: What's the weather in Paris tomorrow?")
	assert.Contains(t, summaries[0], res.Report)
}

func TestAnswer_TwoMentionsKeepOrder(t *testing.T) {
	london := "What is the weather in London on 2024-05-31?"
	berlin := "What is the weather in Berlin on 2024-06-01?"
	model := &scriptedModel{
		rewrite:    london + " " + berlin,
		subQueries: fmt.Sprintf(`{"queries":[{"query":%q},{"query":%q}]}`, london, berlin),
		params: map[string]string{
			london: `{"location":"London","date":"2024-05-31"}`,
			berlin: `{"location":"Berlin","date":"2024-06-01"}`,
		},
		summary: "London was mild yesterday; Berlin is warm today.",
	}
	source := new(MockWeatherSource)
	source.On("Historical", mock.Anything, "London", may31).Return(cannedResponse(may31), nil).Once()
	source.On("Current", mock.Anything, "Berlin", june1).Return(cannedResponse(june1), nil).Once()
	o, _ := newTestOrchestrator(t, model, source)

	res, err := o.AnswerDetailed(context.Background(), "Weather in London yesterday and Berlin today?")
	require.NoError(t, err)

	require.Len(t, res.SubQueries, 2)
	assert.Equal(t, "London", res.SubQueries[0].Parameters.Location)
	assert.Equal(t, PathHistorical, res.SubQueries[0].Path)
	assert.Equal(t, "Berlin", res.SubQueries[1].Parameters.Location)
	assert.Equal(t, PathCurrent, res.SubQueries[1].Path)

	londonAt := strings.Index(res.Report, "Weather in London for 2024-05-31:\n")
	berlinAt := strings.Index(res.Report, "Weather in Berlin for today:\n")
	require.GreaterOrEqual(t, londonAt, 0)
	require.Greater(t, berlinAt, londonAt)
	assert.Len(t, model.seen(parametersSystemPrompt), 2)
	source.AssertExpectations(t)
}

func TestAnswer_LocationNotFoundAborts(t *testing.T) {
	q := "What is the weather in Atlantis on 2024-06-01?"
	model := &scriptedModel{
		rewrite:    q,
		subQueries: fmt.Sprintf(`{"queries":[{"query":%q}]}`, q),
		params:     map[string]string{q: `{"location":"Atlantis","date":"2024-06-01"}`},
		summary:    "should never be produced",
	}
	source := new(MockWeatherSource)
	source.On("Current", mock.Anything, "Atlantis", june1).
		Return(nil, &weather.LocationNotFoundError{Location: "Atlantis"}).Once()
	o, _ := newTestOrchestrator(t, model, source)

	summary, err := o.Answer(context.Background(), "Weather in Atlantis today?")
	require.Error(t, err)
	assert.Empty(t, summary)
	assert.True(t, errors.Is(err, weather.ErrLocationNotFound))
	assert.Equal(t, KindLocationNotFound, Kind(err))
	assert.Empty(t, model.seen(summarySystemPrompt))
	source.AssertExpectations(t)
}

func TestAnswer_SchemaFailures(t *testing.T) {
	q := "What is the weather in Paris on 2024-02-30?"
	tests := []struct {
		name       string
		subQueries string
		params     string
	}{
		{name: "no sub-queries", subQueries: `{"queries":[]}`},
		{name: "sub-queries wrong shape", subQueries: `{"questions":["x"]}`},
		{name: "impossible date", subQueries: fmt.Sprintf(`{"queries":[{"query":%q}]}`, q), params: `{"location":"Paris","date":"2024-02-30"}`},
		{name: "blank location", subQueries: fmt.Sprintf(`{"queries":[{"query":%q}]}`, q), params: `{"location":"   ","date":"2024-06-02"}`},
		{name: "date not ISO", subQueries: fmt.Sprintf(`{"queries":[{"query":%q}]}`, q), params: `{"location":"Paris","date":"June 2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedModel{
				rewrite:    q,
				subQueries: tt.subQueries,
				params:     map[string]string{q: tt.params},
			}
			source := new(MockWeatherSource)
			o, _ := newTestOrchestrator(t, model, source)

			_, err := o.Answer(context.Background(), "Weather in Paris?")
			require.Error(t, err)
			assert.True(t, errors.Is(err, llm.ErrSchemaParse), err.Error())
			source.assertNoFetch(t)
			assert.Empty(t, model.seen(summarySystemPrompt))
		})
	}
}

func TestAnswer_EmptyQuery(t *testing.T) {
	source := new(MockWeatherSource)
	o, clockCalls := newTestOrchestrator(t, &scriptedModel{}, source)

	_, err := o.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, 0, *clockCalls)
	source.assertNoFetch(t)
}

func TestAnswer_SeparateSummarizerAndMetrics(t *testing.T) {
	q := "What is the weather in Paris on 2024-06-01?"
	parser := &scriptedModel{
		rewrite:    q,
		subQueries: fmt.Sprintf(`{"queries":[{"query":%q}]}`, q),
		params:     map[string]string{q: `{"location":"Paris","date":"2024-06-01"}`},
		summary:    "from the parser",
	}
	summarizer := &scriptedModel{summary: "from the summarizer"}
	m := metrics.New(prometheus.NewRegistry())

	source := new(MockWeatherSource)
	source.On("Current", mock.Anything, "Paris", june1).Return(cannedResponse(june1), nil).Once()

	o, _ := newTestOrchestrator(t, parser, source,
		WithSummarizer(llm.NewAssistant(summarizer, llm.GenerationConfig{Model: "gpt-4-turbo"})),
		WithMetrics(m),
	)

	summary, err := o.Answer(context.Background(), "Weather in Paris today?")
	require.NoError(t, err)
	assert.Equal(t, "from the summarizer", summary)
	assert.Empty(t, parser.seen(summarySystemPrompt))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(KindOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WeatherFetches.WithLabelValues(string(PathCurrent), "ok")))
}
