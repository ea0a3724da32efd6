package browse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

var errNotObject = errors.New("content is not an object")

// ParseDocument parses raw file content into a Document. Names ending in
// .yaml or .yml are read as YAML mappings; everything else must be a JSON object.
func ParseDocument(name string, data []byte) (Document, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return parseJSON(data)
	}
}

func parseJSON(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotObject
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// parseYAML decodes a YAML mapping, then round-trips it through JSON so the
// value types match what a cache hit returns.
func parseYAML(data []byte) (Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errNotObject
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalise yaml: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
