// In file: internal/llm/client.go
package llm

import (
	"context"
	"net/http"

	"github.com/dileep-u-k/weather-assistant/internal/api"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

// =================================================================================
// Core Data Structures
// =================================================================================

// Role represents the originator of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerationConfig holds the parameters that control a single generation.
type GenerationConfig struct {
	// The specific model to use for the generation (e.g., "gpt-4o", "claude-3-5-sonnet-latest").
	Model string `yaml:"model"`
	// Controls randomness. A pointer distinguishes 0.0 from unset.
	Temperature *float32 `yaml:"temperature"`
	// The maximum number of tokens to generate in the response.
	MaxTokens int `yaml:"max_tokens"`
	// Nucleus sampling.
	TopP *float32 `yaml:"top_p"`
	// ForceTool, when set, obliges the model to answer by calling the named tool.
	// Schema-guided extraction relies on this.
	ForceTool string `yaml:"-"`
}

// GenerationResult holds the complete output from an LLM call.
type GenerationResult struct {
	// The generated text content from the model.
	Content string
	// Tool calls requested by the model.
	ToolCalls []*tools.ToolCall
	// Token usage statistics for the generation request.
	Usage api.Usage
}

// =================================================================================
// LLM Client Interface
// =================================================================================

// LLMClient is the interface every provider client (OpenAI, Anthropic, Gemini, Mistral) implements.
type LLMClient interface {
	// Generate performs a blocking request to the LLM with the full message history
	// and returns a single, complete result.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}

// ClientOption customises the HTTP-based provider clients.
type ClientOption func(*clientOptions)

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL overrides the provider endpoint, e.g. for a proxy or a test server.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithHTTPClient replaces the default HTTP client (and its timeout).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = c }
}

func applyOptions(defaultURL string, opts []ClientOption) clientOptions {
	o := clientOptions{
		baseURL:    defaultURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
