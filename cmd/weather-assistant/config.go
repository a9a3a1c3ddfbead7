// In file: cmd/weather-assistant/config.go
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/logger"
	"github.com/dileep-u-k/weather-assistant/internal/weather"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultModel      = "gpt-4o"
	defaultPort       = "8080"
	defaultConfigFile = "config.yaml"
)

// Provider names, keyed by model prefix.
const (
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"
	providerGemini    = "gemini"
	providerMistral   = "mistral"
)

// providerEnvKeys maps each provider to the environment variable holding its API key.
var providerEnvKeys = map[string]string{
	providerOpenAI:    "OPENAI_API_KEY",
	providerAnthropic: "ANTHROPIC_API_KEY",
	providerGemini:    "GEMINI_API_KEY",
	providerMistral:   "MISTRAL_API_KEY",
}

// FileConfig is the shape of config.yaml.
type FileConfig struct {
	Weather    weather.Config `yaml:"weather"`
	Generation struct {
		Extraction llm.GenerationConfig `yaml:"extraction"`
		Summary    llm.GenerationConfig `yaml:"summary"`
		// Timeout bounds each provider HTTP request. Zero keeps the client default.
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"generation"`
	Timezone            string        `yaml:"timezone"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

// AppConfig holds all configuration for the service, loaded from the environment and config.yaml.
type AppConfig struct {
	Port      string
	RedisAddr string

	// Extraction drives decomposition and parameter parsing; Summary the final answer.
	Extraction llm.GenerationConfig
	Summary    llm.GenerationConfig
	APIKeys    map[string]string
	LLMTimeout time.Duration

	Weather             weather.Config
	Location            *time.Location
	HealthCheckInterval time.Duration
}

// loadDotEnv reads a .env file for local development. In release mode the
// environment is provided by the container runtime.
func loadDotEnv(log logger.Logger) {
	if os.Getenv("GIN_MODE") == "release" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found for local development", nil)
	}
}

// LoadConfig merges environment variables over config.yaml over built-in defaults.
func LoadConfig(log logger.Logger) (*AppConfig, error) {
	path := envOr("CONFIG_FILE", defaultConfigFile)
	fileCfg, err := loadFileConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		log.Warn("Config file not found, using defaults", map[string]interface{}{"path": path})
		fileCfg = defaultFileConfig()
	}

	cfg := &AppConfig{
		Port:                envOr("PORT", defaultPort),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		Extraction:          fileCfg.Generation.Extraction,
		Summary:             fileCfg.Generation.Summary,
		APIKeys:             make(map[string]string),
		LLMTimeout:          fileCfg.Generation.Timeout,
		Weather:             fileCfg.Weather,
		HealthCheckInterval: fileCfg.HealthCheckInterval,
	}

	cfg.Extraction.Model = envOr("LLM_MODEL", firstNonEmpty(cfg.Extraction.Model, defaultModel))
	cfg.Summary.Model = envOr("SUMMARY_MODEL", firstNonEmpty(cfg.Summary.Model, cfg.Extraction.Model))

	for _, model := range []string{cfg.Extraction.Model, cfg.Summary.Model} {
		provider, err := providerFor(model)
		if err != nil {
			return nil, err
		}
		envKey := providerEnvKeys[provider]
		apiKey := os.Getenv(envKey)
		if apiKey == "" {
			return nil, fmt.Errorf("%s must be set to use model %s", envKey, model)
		}
		cfg.APIKeys[provider] = apiKey
	}

	tz := envOr("TZ_NAME", fileCfg.Timezone)
	cfg.Location = time.Local
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid time zone %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// loadFileConfig parses path on top of the defaults, so omitted keys keep their default.
func loadFileConfig(path string) (FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg := defaultFileConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func defaultFileConfig() FileConfig {
	var cfg FileConfig
	cfg.Weather = weather.DefaultConfig()
	cfg.Generation.Extraction = llm.GenerationConfig{Temperature: float32Ptr(0.01), MaxTokens: 4000}
	cfg.Generation.Summary = llm.GenerationConfig{Temperature: float32Ptr(0.01), MaxTokens: 1000}
	return cfg
}

// providerFor maps a model ID to its provider using the model's prefix.
func providerFor(model string) (string, error) {
	switch {
	case strings.HasPrefix(model, "gpt"):
		return providerOpenAI, nil
	case strings.HasPrefix(model, "claude"):
		return providerAnthropic, nil
	case strings.HasPrefix(model, "gemini"):
		return providerGemini, nil
	case strings.HasPrefix(model, "mistral"):
		return providerMistral, nil
	default:
		return "", fmt.Errorf("unknown model provider for %q", model)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func float32Ptr(v float32) *float32 { return &v }
