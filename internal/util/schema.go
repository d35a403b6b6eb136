package util

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field,omitempty"` // Field that failed validation (empty for schema level failures)
	Value   any    `json:"value,omitempty"` // Value that was provided
	Message string `json:"message"`         // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema infers a JSON schema for T and returns it as a plain map, the
// representation model providers expect for tool parameters. Field
// descriptions come from `jsonschema:"..."` struct tags; fields without
// omitempty are required.
func CreateSchema[T any]() (map[string]any, error) {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("infer schema: %w", err)
	}
	return SchemaToMap(s)
}

// SchemaToMap converts a typed schema into its generic map form.
func SchemaToMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	return m, nil
}

// ValidateParameters validates params against a JSON schema given in map form.
// Missing required fields are reported by name; every other violation is
// reported by the resolved schema validator.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	if params == nil {
		params = map[string]any{}
	}

	for _, field := range requiredFields(schema) {
		if _, exists := params[field]; !exists {
			return &ValidationError{
				Field:   field,
				Message: "required field is missing",
			}
		}
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid schema: %v", err)}
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid schema: %v", err)}
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid schema: %v", err)}
	}

	// Round trip so numbers are float64 and slices []any, matching decoded JSON.
	instance, err := normalize(params)
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}

	if err := resolved.Validate(instance); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	return nil
}

// requiredFields reads "required" in either []string or []any form.
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		fields := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	default:
		return nil
	}
}

func normalize(params map[string]any) (map[string]any, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("arguments are not JSON serializable: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// DecodeArgs converts a generic argument map into T using JSON semantics.
func DecodeArgs[T any](args map[string]any) (T, error) {
	var out T

	data, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("encode arguments: %w", err)
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode arguments: %w", err)
	}

	return out, nil
}
