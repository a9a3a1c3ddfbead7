// In file: internal/weather/config.go

// Package weather fetches historical, current and forecast data from Open-Meteo.
// Responses are kept as generic JSON maps so callers can slice any of the
// parallel hourly or daily arrays without a fixed schema.
package weather

import "time"

// Config holds every endpoint and field list the client uses. It is passed to
// NewClient explicitly; the package keeps no global state.
type Config struct {
	ForecastURL  string `yaml:"forecast_url"`
	ArchiveURL   string `yaml:"archive_url"`
	GeocodingURL string `yaml:"geocoding_url"`

	// CurrentHourly is requested for today's data.
	CurrentHourly []string `yaml:"current_hourly"`
	// Hourly is requested for historical and forecast data.
	Hourly []string `yaml:"hourly"`
	// Daily is optional. Forecast responses slice it to the requested day.
	Daily []string `yaml:"daily"`

	// MaxForecastDays is the furthest day ahead the forecast endpoint serves.
	MaxForecastDays int           `yaml:"max_forecast_days"`
	Timeout         time.Duration `yaml:"timeout"`
	UserAgent       string        `yaml:"user_agent"`
}

// DefaultConfig returns the public Open-Meteo endpoints and field lists.
func DefaultConfig() Config {
	return Config{
		ForecastURL:  "https://api.open-meteo.com/v1/forecast",
		ArchiveURL:   "https://archive-api.open-meteo.com/v1/archive",
		GeocodingURL: "https://geocoding-api.open-meteo.com/v1/search",
		CurrentHourly: []string{
			"temperature_2m", "precipitation", "snowfall",
			"relative_humidity_2m", "cloudcover", "windspeed_10m",
		},
		Hourly: []string{
			"temperature_2m", "precipitation", "rain", "snowfall",
			"relative_humidity_2m", "cloudcover", "windspeed_10m",
		},
		MaxForecastDays: 16,
		Timeout:         15 * time.Second,
		UserAgent:       "weather-assistant/1.0",
	}
}

// withDefaults fills zero fields from DefaultConfig, so a partial YAML block is usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ForecastURL == "" {
		c.ForecastURL = d.ForecastURL
	}
	if c.ArchiveURL == "" {
		c.ArchiveURL = d.ArchiveURL
	}
	if c.GeocodingURL == "" {
		c.GeocodingURL = d.GeocodingURL
	}
	if len(c.CurrentHourly) == 0 {
		c.CurrentHourly = d.CurrentHourly
	}
	if len(c.Hourly) == 0 {
		c.Hourly = d.Hourly
	}
	if c.MaxForecastDays <= 0 {
		c.MaxForecastDays = d.MaxForecastDays
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}
