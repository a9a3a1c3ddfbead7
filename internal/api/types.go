// In file: internal/api/types.go

// Package api holds the public request/response types of the weather assistant's
// HTTP surface, plus the token usage type shared with the LLM clients.
package api

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Query string `json:"query" binding:"required"`
}

// SubQueryResult describes how one atomic sub-question was resolved.
type SubQueryResult struct {
	Query    string `json:"query"`
	Location string `json:"location"`
	Date     string `json:"date"`
	// Path is one of "historical", "current" or "forecast".
	Path string `json:"path"`
}

// AskResponse is returned by POST /api/v1/ask on success.
type AskResponse struct {
	RequestID  string           `json:"request_id"`
	Summary    string           `json:"summary"`
	SubQueries []SubQueryResult `json:"sub_queries"`
	Report     string           `json:"report,omitempty"`
	LatencyMS  int64            `json:"latency_ms"`
}

// ErrorResponse is returned for any failed request.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
	Kind      string `json:"kind"`
}

// Usage reports token accounting for a single model call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
