// In file: internal/weather/client.go
package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dileep-u-k/weather-assistant/internal/logger"
)

// Response is a decoded Open-Meteo JSON document. Numbers are json.Number so
// they re-encode exactly as the provider sent them.
type Response map[string]any

// Client talks to the Open-Meteo geocoding, forecast and archive APIs.
// Calls are made once; there is no retry or caching.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client built from Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client's logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a Client. Zero fields of cfg fall back to DefaultConfig.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// Current returns today's conditions plus today's hourly series.
func (c *Client) Current(ctx context.Context, location string, today civil.Date) (Response, error) {
	coords, err := c.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	params := coords.values()
	params.Set("current_weather", "true")
	params.Set("start_date", today.String())
	params.Set("end_date", today.String())
	params.Set("timezone", "auto")
	c.setFields(params, c.cfg.CurrentHourly)

	return c.getJSON(ctx, c.cfg.ForecastURL, params)
}

// Historical returns the archived hourly series for date. The provider decides
// which dates it serves; its errors surface as TransportError.
func (c *Client) Historical(ctx context.Context, location string, date civil.Date) (Response, error) {
	coords, err := c.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	params := coords.values()
	params.Set("start_date", date.String())
	params.Set("end_date", date.String())
	params.Set("timezone", "auto")
	c.setFields(params, c.cfg.Hourly)

	return c.getJSON(ctx, c.cfg.ArchiveURL, params)
}

// Forecast returns the forecast for date, sliced so that the hourly and daily
// sections only cover that day. date must lie in [today, today+MaxForecastDays].
func (c *Client) Forecast(ctx context.Context, location string, date, today civil.Date) (Response, error) {
	coords, err := c.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	if date.Before(today) || date.After(today.AddDays(c.cfg.MaxForecastDays)) {
		return nil, &DateOutOfRangeError{Date: date, Today: today, MaxDays: c.cfg.MaxForecastDays}
	}

	params := coords.values()
	params.Set("forecast_days", strconv.Itoa(date.DaysSince(today)+1))
	params.Set("timezone", "auto")
	c.setFields(params, c.cfg.Hourly)

	resp, err := c.getJSON(ctx, c.cfg.ForecastURL, params)
	if err != nil {
		return nil, err
	}
	FilterToDate(resp, date)
	return resp, nil
}

func (c *Client) setFields(params url.Values, hourly []string) {
	if len(hourly) > 0 {
		params.Set("hourly", strings.Join(hourly, ","))
	}
	if len(c.cfg.Daily) > 0 {
		params.Set("daily", strings.Join(c.cfg.Daily, ","))
	}
}

// getJSON performs a single GET and decodes the body into a generic Response.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values) (Response, error) {
	body, err := c.fetch(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	var out Response
	if err := decodeBody(endpoint, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// fetch performs a single GET and returns the raw body. Any failure, including a
// non-2xx status, is a *TransportError.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u := endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	c.logger.Debug("Calling weather provider", map[string]interface{}{"url": u})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{URL: endpoint, StatusCode: resp.StatusCode, Err: errors.New(providerReason(body))}
	}
	return body, nil
}

// decodeBody decodes a provider body into out. Numbers held in interface
// values stay json.Number so they are re-encoded exactly.
func decodeBody(endpoint string, body []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &TransportError{URL: endpoint, StatusCode: http.StatusOK, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	return nil
}

// providerReason extracts Open-Meteo's {"error":true,"reason":"..."} message,
// or falls back to the raw body.
func providerReason(body []byte) string {
	var e struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Reason != "" {
		return e.Reason
	}
	const maxLen = 256
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	if s == "" {
		s = "empty response"
	}
	return s
}
