package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parametersSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"location": {Type: "string", MinLength: 1},
			"date":     {Type: "string", Pattern: `^\d{4}-\d{2}-\d{2}$`},
		},
		Required: []string{"location", "date"},
	}
}

func TestJSONSchema_Validate(t *testing.T) {
	schema := parametersSchema()

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "valid", doc: `{"location":"Paris","date":"2024-06-02"}`},
		{name: "missing date", doc: `{"location":"Paris"}`, wantErr: true},
		{name: "bad date format", doc: `{"location":"Paris","date":"June 2nd"}`, wantErr: true},
		{name: "empty location", doc: `{"location":"","date":"2024-06-02"}`, wantErr: true},
		{name: "wrong type", doc: `{"location":42,"date":"2024-06-02"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate([]byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJSONSchema_ValidateArrayOfObjects(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"queries": {
				Type:     "array",
				MinItems: 1,
				Items: &JSONSchema{
					Type:       "object",
					Properties: map[string]*JSONSchema{"query": {Type: "string"}},
					Required:   []string{"query"},
				},
			},
		},
		Required: []string{"queries"},
	}

	require.NoError(t, schema.Validate([]byte(`{"queries":[{"query":"What is the weather in Paris on 2024-06-02?"}]}`)))
	assert.Error(t, schema.Validate([]byte(`{"queries":[]}`)))
	assert.Error(t, schema.Validate([]byte(`{"queries":[{"text":"no query field"}]}`)))
}

func TestJSONSchema_ValidateMalformedDocument(t *testing.T) {
	err := parametersSchema().Validate([]byte(`{"location":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation error")
}

func TestNewFunctionTool(t *testing.T) {
	tool := NewFunctionTool("record_parameters", "Record parameters.", parametersSchema())
	assert.Equal(t, ToolTypeFunction, tool.Type)
	assert.Equal(t, "record_parameters", tool.Function.Name)
	assert.Equal(t, []string{"location", "date"}, tool.Function.Parameters.Required)
}
