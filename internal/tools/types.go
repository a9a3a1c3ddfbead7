// In file: internal/tools/types.go

// Package tools defines the provider-agnostic function (tool) schemas the assistant
// hands to a language model. A schema is translated into each provider's native
// tool format, and the model's reply is validated against the same schema before
// it is decoded into a Go value.
package tools

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool defines the schema for a function that can be described to an LLM.
type Tool struct {
	// Type specifies the type of tool, which is almost always "function".
	Type string `json:"type"`
	// Function holds the detailed definition of the function.
	Function Function `json:"function"`
}

// Function defines the name, description, and parameters of a callable tool.
type Function struct {
	// Name is the name of the function to be called (e.g., "record_parameters").
	Name string `json:"name"`
	// Description tells the model what the function is for and when to call it.
	Description string `json:"description"`
	// Parameters defines the arguments the function accepts, structured as a JSON Schema.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is a typed subset of JSON Schema, rich enough to describe the
// structures the assistant extracts (objects, arrays of objects, patterned strings).
type JSONSchema struct {
	// Type defines the data type for a schema node (e.g., "object", "string", "array").
	Type string `json:"type"`
	// Description explains what a specific parameter is for.
	Description string `json:"description,omitempty"`
	// Properties describes the fields of an object node.
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	// Items describes the element schema of an array node.
	Items *JSONSchema `json:"items,omitempty"`
	// Required is a list of property names that must be present.
	Required []string `json:"required,omitempty"`
	// MinItems is the minimum length of an array node.
	MinItems int `json:"minItems,omitempty"`
	// MinLength is the minimum length of a string node.
	MinLength int `json:"minLength,omitempty"`
	// Pattern is a regular expression a string node must match.
	Pattern string `json:"pattern,omitempty"`
}

// Validate checks a JSON document against the schema. The returned error lists
// every violation reported by the validator.
func (s JSONSchema) Validate(document []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(s), gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("document does not match schema: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ToolCall represents a request *from* the LLM to execute a specific tool with given arguments.
type ToolCall struct {
	// ID is a unique identifier for this specific tool call.
	ID string `json:"id"`
	// Type indicates the type of tool being called, which is almost always "function".
	Type string `json:"type"`
	// Function contains the name and arguments for the function the LLM wants to execute.
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the name and arguments of a function call requested by the LLM.
type ToolCallFunction struct {
	// Name is the name of the function the LLM has decided to call.
	Name string `json:"name"`
	// Arguments is a JSON string containing the arguments for the function.
	Arguments string `json:"arguments"`
}

// NewFunctionTool is a helper function that simplifies the creation of a new Tool.
// It ensures the tool is created with the correct "function" type.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
