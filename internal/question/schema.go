package question

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a named JSON Schema definition.
type Schema struct {
	Name       string
	Definition map[string]any
}

// DocumentSchema describes a template export file.
var DocumentSchema = &Schema{
	Name: "template-document",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"variables": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"$ref": "#/$defs/rule"},
			},
			"template": map[string]any{
				"type": "string",
			},
			"template_data": map[string]any{
				"$ref": "#/$defs/spec",
			},
			"format_version": map[string]any{
				"type": "string",
			},
		},
		"required": []any{"variables", "template"},
		"$defs": map[string]any{
			"rule": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"rule_type":        map[string]any{"type": "string"},
					"rule_description": map[string]any{"type": "string"},
					"rule_data": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"type":        map[string]any{"type": "string"},
							"min":         map[string]any{"type": []any{"number", "string", "null"}},
							"max":         map[string]any{"type": []any{"number", "string", "null"}},
							"step":        map[string]any{"type": []any{"number", "string", "null"}},
							"choices":     map[string]any{"type": "array", "items": map[string]any{"type": []any{"string", "number", "boolean", "null"}}},
							"expression":  map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
						},
					},
				},
				"required": []any{"rule_data"},
			},
			"spec": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type":            map[string]any{"enum": []any{"mc", "tf", "open"}},
					"options":         map[string]any{"type": "array", "items": map[string]any{"type": []any{"string", "null"}}},
					"correct":         map[string]any{"type": []any{"integer", "string", "boolean", "null"}},
					"answer_key":      map[string]any{"type": []any{"string", "null"}},
					"general_comment": map[string]any{"type": []any{"string", "null"}},
					"include_general": map[string]any{"type": "boolean"},
				},
			},
		},
	},
}

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validateSchema checks raw JSON against schema.
func validateSchema(schema *Schema, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := getCompiledSchema(schema)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// getCompiledSchema returns a cached compiled schema or compiles and caches it.
func getCompiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants plain decoded JSON, not Go maps of typed slices.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}
