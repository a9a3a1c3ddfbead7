// In file: internal/llm/assistant.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-assistant/internal/api"
	"github.com/dileep-u-k/weather-assistant/internal/logger"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

// =================================================================================
// Language-model capability
// =================================================================================

// Prompt is a single-turn exchange: a system instruction and the user text.
type Prompt struct {
	System string
	User   string
}

// Capability is everything the weather pipeline needs from a language model:
// free text generation and schema-guided extraction.
type Capability interface {
	// Generate returns the model's free-text reply.
	Generate(ctx context.Context, p Prompt) (string, error)
	// Extract obliges the model to answer with arguments for fn, validates them
	// against fn.Parameters and decodes them into out. Failures are *SchemaParseError.
	Extract(ctx context.Context, p Prompt, fn tools.Function, out any) error
}

// UsageRecorder receives per-call accounting. The Redis-backed Profiler implements it.
type UsageRecorder interface {
	RecordSuccess(ctx context.Context, model string, latency time.Duration, usage api.Usage)
	RecordFailure(ctx context.Context, model string)
}

// Assistant adapts an LLMClient to the Capability interface.
type Assistant struct {
	client   LLMClient
	config   GenerationConfig
	recorder UsageRecorder
	logger   logger.Logger
}

var _ Capability = (*Assistant)(nil)

// AssistantOption customises an Assistant.
type AssistantOption func(*Assistant)

// WithUsageRecorder reports each call's latency and token usage to r.
func WithUsageRecorder(r UsageRecorder) AssistantOption {
	return func(a *Assistant) { a.recorder = r }
}

// WithLogger sets the assistant's logger. The default discards output.
func WithLogger(l logger.Logger) AssistantOption {
	return func(a *Assistant) { a.logger = l }
}

// NewAssistant builds an Assistant that sends every call with config.
func NewAssistant(client LLMClient, config GenerationConfig, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		client: client,
		config: config,
		logger: logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Model returns the model this assistant talks to.
func (a *Assistant) Model() string { return a.config.Model }

// Generate implements Capability.
func (a *Assistant) Generate(ctx context.Context, p Prompt) (string, error) {
	cfg := a.config
	result, err := a.call(ctx, p, &cfg, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Content), nil
}

// Extract implements Capability.
func (a *Assistant) Extract(ctx context.Context, p Prompt, fn tools.Function, out any) error {
	cfg := a.config
	cfg.ForceTool = fn.Name
	result, err := a.call(ctx, p, &cfg, []tools.Tool{tools.NewFunctionTool(fn.Name, fn.Description, fn.Parameters)})
	if err != nil {
		return err
	}

	raw, err := structuredPayload(result, fn.Name)
	if err != nil {
		return &SchemaParseError{Schema: fn.Name, Raw: result.Content, Err: err}
	}
	if err := fn.Parameters.Validate([]byte(raw)); err != nil {
		a.logger.Debug("Structured output rejected", map[string]interface{}{"schema": fn.Name, "raw": raw})
		return &SchemaParseError{Schema: fn.Name, Raw: raw, Err: err}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &SchemaParseError{Schema: fn.Name, Raw: raw, Err: err}
	}
	return nil
}

// ExtractAs is a typed convenience over Capability.Extract.
func ExtractAs[T any](ctx context.Context, c Capability, p Prompt, fn tools.Function) (T, error) {
	var out T
	err := c.Extract(ctx, p, fn, &out)
	return out, err
}

func (a *Assistant) call(ctx context.Context, p Prompt, cfg *GenerationConfig, availableTools []tools.Tool) (*GenerationResult, error) {
	messages := make([]Message, 0, 2)
	if p.System != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: p.System})
	}
	messages = append(messages, Message{Role: RoleUser, Content: p.User})

	start := time.Now()
	result, err := a.client.Generate(ctx, messages, cfg, availableTools)
	latency := time.Since(start)
	if err != nil {
		if a.recorder != nil {
			a.recorder.RecordFailure(ctx, cfg.Model)
		}
		a.logger.WithError(err).Warn("LLM call failed", map[string]interface{}{"model": cfg.Model})
		return nil, fmt.Errorf("%w: %s: %w", ErrProvider, cfg.Model, err)
	}
	if a.recorder != nil {
		a.recorder.RecordSuccess(ctx, cfg.Model, latency, result.Usage)
	}
	a.logger.Debug("LLM call completed", map[string]interface{}{
		"model":         cfg.Model,
		"latency_ms":    latency.Milliseconds(),
		"total_tokens":  result.Usage.TotalTokens,
		"forced_tool":   cfg.ForceTool,
		"tool_call_cnt": len(result.ToolCalls),
	})
	return result, nil
}

// structuredPayload returns the JSON arguments the model produced for the named
// tool. Models that ignore tool_choice and answer in text are accepted when the
// text holds a JSON object.
func structuredPayload(result *GenerationResult, name string) (string, error) {
	for _, tc := range result.ToolCalls {
		if tc != nil && tc.Function.Name == name {
			return tc.Function.Arguments, nil
		}
	}
	if len(result.ToolCalls) > 0 {
		return "", fmt.Errorf("model called %q instead of %q", result.ToolCalls[0].Function.Name, name)
	}
	return jsonObjectFromText(result.Content)
}

func jsonObjectFromText(content string) (string, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", errors.New("no JSON object in model output")
	}
	return text[start : end+1], nil
}
