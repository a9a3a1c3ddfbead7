// In file: internal/llm/mistral_client.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dileep-u-k/weather-assistant/internal/api"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

const mistralAPIURL = "https://api.mistral.ai/v1/chat/completions"

// --- API Data Structures ---
type mistralRequest struct {
	Model       string           `json:"model"`
	Messages    []mistralMessage `json:"messages"`
	Tools       []mistralTool    `json:"tools,omitempty"`
	ToolChoice  string           `json:"tool_choice,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature *float32         `json:"temperature,omitempty"`
	TopP        *float32         `json:"top_p,omitempty"`
}
type mistralMessage struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	ToolCalls []mistralToolCall `json:"tool_calls,omitempty"`
}
type mistralToolCall struct {
	ID       string          `json:"id"`
	Function mistralFunction `json:"function"`
}
type mistralFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
type mistralTool struct {
	Type     string         `json:"type"`
	Function tools.Function `json:"function"`
}
type mistralResponse struct {
	Choices []struct {
		Message mistralMessage `json:"message"`
	} `json:"choices"`
	Usage api.Usage `json:"usage"`
}

// --- Main Client ---

// MistralClient talks to the Mistral chat completions API.
type MistralClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

var _ LLMClient = (*MistralClient)(nil)

func NewMistralClient(apiKey string, opts ...ClientOption) (*MistralClient, error) {
	if apiKey == "" {
		return nil, errors.New("Mistral API key cannot be empty")
	}
	o := applyOptions(mistralAPIURL, opts)
	return &MistralClient{
		apiKey:     apiKey,
		url:        o.baseURL,
		httpClient: o.httpClient,
	}, nil
}

func (c *MistralClient) Generate(ctx context.Context, messages []Message, config *GenerationConfig, availableTools []tools.Tool) (*GenerationResult, error) {
	payload, err := c.buildRequestPayload(messages, config, availableTools)
	if err != nil {
		return nil, fmt.Errorf("failed to build mistral request payload: %w", err)
	}
	respBody, err := doRequestWithRetry(ctx, c.httpClient, "mistral", payload, c.createRequest)
	if err != nil {
		return nil, err
	}
	return parseMistralResponse(respBody)
}

// --- Helper Functions ---
func (c *MistralClient) buildRequestPayload(messages []Message, config *GenerationConfig, availableTools []tools.Tool) ([]byte, error) {
	mistralTools := toMistralTools(availableTools)
	req := mistralRequest{
		Model:       config.Model,
		Messages:    toMistralMessages(messages),
		Tools:       mistralTools,
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
		TopP:        config.TopP,
	}
	if len(mistralTools) > 0 {
		req.ToolChoice = "auto"
		// Mistral cannot name the tool; "any" forces a call and only one tool is offered.
		if config.ForceTool != "" {
			req.ToolChoice = "any"
		}
	}
	payloadBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	return payloadBytes, nil
}

func (c *MistralClient) createRequest(ctx context.Context, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func toMistralMessages(messages []Message) []mistralMessage {
	mistralMsgs := make([]mistralMessage, 0, len(messages))
	for _, msg := range messages {
		mistralMsgs = append(mistralMsgs, mistralMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return mistralMsgs
}

func toMistralTools(availableTools []tools.Tool) []mistralTool {
	if len(availableTools) == 0 {
		return nil
	}
	mistralTools := make([]mistralTool, 0, len(availableTools))
	for _, tool := range availableTools {
		mistralTools = append(mistralTools, mistralTool{
			Type:     tools.ToolTypeFunction,
			Function: tool.Function,
		})
	}
	return mistralTools
}

func parseMistralResponse(body []byte) (*GenerationResult, error) {
	var mistralResp mistralResponse
	if err := json.Unmarshal(body, &mistralResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mistral response: %w", err)
	}
	if len(mistralResp.Choices) == 0 {
		return nil, errors.New("no choices returned from Mistral")
	}
	choice := mistralResp.Choices[0]
	result := &GenerationResult{
		Content: choice.Message.Content,
		Usage:   mistralResp.Usage,
	}
	if len(choice.Message.ToolCalls) > 0 {
		result.ToolCalls = make([]*tools.ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, &tools.ToolCall{
				ID:   tc.ID,
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}
	return result, nil
}
