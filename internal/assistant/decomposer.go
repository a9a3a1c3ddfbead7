// In file: internal/assistant/decomposer.go
package assistant

import (
	"context"
	"fmt"

	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

// SubQuery is one canonical question: "What is the weather in <location> on <YYYY-MM-DD>?".
type SubQuery struct {
	Query string `json:"query"`
}

// SubQueries is the ordered result of decomposition.
type SubQueries struct {
	Queries []SubQuery `json:"queries"`
}

var subQueriesFunction = tools.Function{
	Name:        "record_sub_queries",
	Description: "Record the list of unique weather questions contained in the query, in order.",
	Parameters: tools.JSONSchema{
		Type: "object",
		Properties: map[string]*tools.JSONSchema{
			"queries": {
				Type:        "array",
				Description: "One entry per (location, date) question.",
				MinItems:    1,
				Items: &tools.JSONSchema{
					Type: "object",
					Properties: map[string]*tools.JSONSchema{
						"query": {
							Type: "string",
							Description: "Question like 'What is the weather in location on date?', where location is " +
								"the city or country and date is in format YYYY-MM-DD.",
							MinLength: 1,
						},
					},
					Required: []string{"query"},
				},
			},
		},
		Required: []string{"queries"},
	},
}

// Decomposer splits a user question into canonical sub-queries in two model
// calls: a free-text rewrite, then a structured extraction of the rewrite.
type Decomposer struct {
	llm llm.Capability
}

func NewDecomposer(c llm.Capability) *Decomposer {
	return &Decomposer{llm: c}
}

// Decompose returns at least one SubQuery. Output that does not match the
// schema is an *llm.SchemaParseError; there is no repair attempt.
func (d *Decomposer) Decompose(ctx context.Context, userQuery string, day Day) (SubQueries, error) {
	rewritten, err := d.llm.Generate(ctx, rewritePrompt(userQuery, day))
	if err != nil {
		return SubQueries{}, fmt.Errorf("rewriting query: %w", err)
	}

	subs, err := llm.ExtractAs[SubQueries](ctx, d.llm, splitPrompt(rewritten), subQueriesFunction)
	if err != nil {
		return SubQueries{}, fmt.Errorf("extracting sub-queries: %w", err)
	}
	return subs, nil
}
