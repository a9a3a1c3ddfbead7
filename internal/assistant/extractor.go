// In file: internal/assistant/extractor.go
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

// Parameters are the fetch inputs of one sub-query. Date decodes from
// "YYYY-MM-DD" and must be a real calendar date.
type Parameters struct {
	Location string     `json:"location"`
	Date     civil.Date `json:"date"`
}

var parametersFunction = tools.Function{
	Name:        "record_parameters",
	Description: "Record the place and the date the weather question is about.",
	Parameters: tools.JSONSchema{
		Type: "object",
		Properties: map[string]*tools.JSONSchema{
			"location": {
				Type:        "string",
				Description: "Place name (country or city) for checking the weather",
				MinLength:   1,
			},
			"date": {
				Type:        "string",
				Description: "Date when to check the weather in the specified place, in YYYY-MM-DD format",
				Pattern:     `^\d{4}-\d{2}-\d{2}$`,
			},
		},
		Required: []string{"location", "date"},
	},
}

// ParameterExtractor reads Parameters out of a single canonical question.
type ParameterExtractor struct {
	llm llm.Capability
}

func NewParameterExtractor(c llm.Capability) *ParameterExtractor {
	return &ParameterExtractor{llm: c}
}

// ExtractParameters makes exactly one model call.
func (e *ParameterExtractor) ExtractParameters(ctx context.Context, question string, day Day) (Parameters, error) {
	params, err := llm.ExtractAs[Parameters](ctx, e.llm, parametersPrompt(question, day), parametersFunction)
	if err != nil {
		return Parameters{}, fmt.Errorf("extracting parameters from %q: %w", question, err)
	}

	params.Location = strings.TrimSpace(params.Location)
	if params.Location == "" {
		return Parameters{}, &llm.SchemaParseError{
			Schema: parametersFunction.Name,
			Err:    errors.New("location is blank"),
		}
	}
	if !params.Date.IsValid() {
		return Parameters{}, &llm.SchemaParseError{
			Schema: parametersFunction.Name,
			Err:    fmt.Errorf("invalid date %s", params.Date),
		}
	}
	return params, nil
}
