package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/veikko/jamb/pkg/core"
)

// Serializer defines how to read and write a specific element file format.
type Serializer interface {
	// Parse reads from r and returns the element payload.
	Parse(r io.Reader) (core.Metadata, error)
	// Serialize converts the element payload to bytes.
	Serialize(meta core.Metadata) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers.
// YAML is the primary plan format; JSON is kept for interchange.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".yaml": &YAMLSerializer{},
		".yml":  &YAMLSerializer{},
		".json": &JSONSerializer{},
	}
}

// --- YAML Serializer ---

// YAMLSerializer handles reading and writing YAML element files.
type YAMLSerializer struct{}

func (s *YAMLSerializer) Parse(r io.Reader) (core.Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	normalizeNumbers(payload)
	return payload, nil
}

// normalizeNumbers aligns YAML's typed scalars with the JSON
// serializer's: yaml.Unmarshal decodes whole-number floats (`x: 0`) as
// int, which would make a metadata value change type across a
// serialize/parse round trip. All numbers come out as float64, the
// same as encoding/json.
func normalizeNumbers(meta map[string]any) {
	for k, v := range meta {
		meta[k] = normalizedValue(v)
	}
}

func normalizedValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		normalizeNumbers(t)
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizedValue(item)
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}

func (s *YAMLSerializer) Serialize(meta core.Metadata) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any(meta)); err != nil {
		return nil, fmt.Errorf("yaml encode failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- JSON Serializer ---

// JSONSerializer handles reading and writing JSON element files.
type JSONSerializer struct{}

func (s *JSONSerializer) Parse(r io.Reader) (core.Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	return payload, nil
}

func (s *JSONSerializer) Serialize(meta core.Metadata) ([]byte, error) {
	return json.MarshalIndent(meta, "", "  ")
}
