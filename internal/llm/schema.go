package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildClassificationSchema returns a JSON-Schema (draft 2020-12
// subset) as a generic map. The model is asked for JSON in this shape
// and the reply is validated against it locally before we trust it.
// The label itself is deliberately unconstrained here: the validation
// ladder in validate.go reconciles it against the allowed set, which
// copes with replies the enum keyword would simply reject.
func BuildClassificationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"primary_topic": map[string]any{"type": "string", "minLength": 1},
			"category":      map[string]any{"type": "string"},
			"confidence":    map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"tags":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"reasoning":     map[string]any{"type": "string"},
		},
		"required": []string{"primary_topic", "confidence"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
