package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/weather-assistant/internal/api"
	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/logger"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LLM_MODEL", "SUMMARY_MODEL", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"GEMINI_API_KEY", "MISTRAL_API_KEY", "REDIS_ADDR", "PORT", "TZ_NAME", "CONFIG_FILE"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfig(t, `
weather:
  max_forecast_days: 10
  daily: [temperature_2m_max]
generation:
  extraction:
    model: claude-3-5-sonnet-latest
    temperature: 0.2
  summary:
    max_tokens: 500
  timeout: 45s
timezone: Europe/Paris
health_check_interval: 5m
`))
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := LoadConfig(logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.Extraction.Model)
	require.NotNil(t, cfg.Extraction.Temperature)
	assert.InDelta(t, 0.2, *cfg.Extraction.Temperature, 1e-6)
	assert.Equal(t, 4000, cfg.Extraction.MaxTokens)

	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.Summary.Model, "summary model defaults to the extraction model")
	assert.Equal(t, 500, cfg.Summary.MaxTokens)

	assert.Equal(t, 10, cfg.Weather.MaxForecastDays)
	assert.Equal(t, []string{"temperature_2m_max"}, cfg.Weather.Daily)
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.Weather.ForecastURL)
	assert.Equal(t, "Europe/Paris", cfg.Location.String())
	assert.Equal(t, 5*time.Minute, cfg.HealthCheckInterval)
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "sk-ant", cfg.APIKeys[providerAnthropic])
	assert.Equal(t, defaultPort, cfg.Port)
}

func TestLoadConfig_EnvOverridesAndDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SUMMARY_MODEL", "gemini-1.5-pro")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("PORT", "9090")
	t.Setenv("TZ_NAME", "UTC")

	cfg, err := LoadConfig(logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, defaultModel, cfg.Extraction.Model)
	assert.Equal(t, "gemini-1.5-pro", cfg.Summary.Model)
	assert.Equal(t, 1000, cfg.Summary.MaxTokens)
	require.NotNil(t, cfg.Extraction.Temperature)
	assert.InDelta(t, 0.01, *cfg.Extraction.Temperature, 1e-6)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Len(t, cfg.APIKeys, 2)
	assert.Equal(t, 16, cfg.Weather.MaxForecastDays)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := LoadConfig(logger.NewTestLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("malformed file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk")
		t.Setenv("CONFIG_FILE", writeConfig(t, "weather: [unterminated"))
		_, err := LoadConfig(logger.NewTestLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})

	t.Run("unknown provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
		t.Setenv("LLM_MODEL", "llama-3")
		_, err := LoadConfig(logger.NewTestLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown model provider")
	})

	t.Run("bad time zone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
		t.Setenv("OPENAI_API_KEY", "sk")
		t.Setenv("TZ_NAME", "Mars/Olympus_Mons")
		_, err := LoadConfig(logger.NewTestLogger(t))
		require.Error(t, err)
	})
}

func TestProviderFor(t *testing.T) {
	tests := map[string]string{
		"gpt-4o":                   providerOpenAI,
		"claude-3-5-sonnet-latest": providerAnthropic,
		"gemini-1.5-flash":         providerGemini,
		"mistral-large-latest":     providerMistral,
	}
	for model, want := range tests {
		got, err := providerFor(model)
		require.NoError(t, err)
		assert.Equal(t, want, got, model)
	}
	_, err := providerFor("llama-3")
	assert.Error(t, err)
}

type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Generate(ctx context.Context, messages []llm.Message, config *llm.GenerationConfig, availableTools []tools.Tool) (*llm.GenerationResult, error) {
	args := m.Called(ctx, messages, config, availableTools)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.GenerationResult), args.Error(1)
}

// MockClosingClient is an LLM client that also holds a connection.
type MockClosingClient struct {
	MockLLMClient
}

func (m *MockClosingClient) Close() error {
	return m.Called().Error(0)
}

type MockUsageRecorder struct {
	mock.Mock
}

func (m *MockUsageRecorder) RecordSuccess(ctx context.Context, model string, latency time.Duration, usage api.Usage) {
	m.Called(ctx, model, latency, usage)
}

func (m *MockUsageRecorder) RecordFailure(ctx context.Context, model string) {
	m.Called(ctx, model)
}

func TestCheckModels(t *testing.T) {
	healthy := new(MockLLMClient)
	healthy.On("Generate", mock.Anything, mock.Anything, mock.MatchedBy(func(c *llm.GenerationConfig) bool {
		return c.Model == "gpt-4o" && c.MaxTokens == 5
	}), []tools.Tool(nil)).Return(&llm.GenerationResult{Content: "OK", Usage: api.Usage{TotalTokens: 3}}, nil)
	failing := new(MockLLMClient)
	failing.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError)

	rec := new(MockUsageRecorder)
	rec.On("RecordSuccess", mock.Anything, "gpt-4o", mock.AnythingOfType("time.Duration"), api.Usage{TotalTokens: 3}).Return().Once()
	rec.On("RecordFailure", mock.Anything, "gemini-1.5-pro").Return().Once()

	clients := map[string]llm.LLMClient{
		"gpt-4o":         healthy,
		"gemini-1.5-pro": failing,
	}
	checkModels(context.Background(), clients, rec, logger.NewTestLogger(t))

	healthy.AssertExpectations(t)
	failing.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestCloseClients(t *testing.T) {
	plain := new(MockLLMClient)
	closing := new(MockClosingClient)
	closing.On("Close").Return(nil).Once()
	failing := new(MockClosingClient)
	failing.On("Close").Return(errors.New("already closed")).Once()

	closeClients(map[string]llm.LLMClient{
		"gpt-4o":           plain,
		"gemini-1.5-pro":   closing,
		"gemini-1.5-flash": failing,
	}, logger.NewTestLogger(t))

	closing.AssertExpectations(t)
	failing.AssertExpectations(t)
	plain.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInitializeLLMClients(t *testing.T) {
	cfg := &AppConfig{
		Extraction: llm.GenerationConfig{Model: "gpt-4o"},
		Summary:    llm.GenerationConfig{Model: "mistral-large-latest"},
		APIKeys:    map[string]string{providerOpenAI: "sk", providerMistral: "mk"},
		LLMTimeout: 5 * time.Second,
	}
	clients, err := initializeLLMClients(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.IsType(t, &llm.OpenAIClient{}, clients["gpt-4o"])
	assert.IsType(t, &llm.MistralClient{}, clients["mistral-large-latest"])

	cfg.Summary.Model = "gpt-4o"
	clients, err = initializeLLMClients(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, clients, 1, "a model shared by both stages gets one client")
}
