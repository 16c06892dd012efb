package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// validateArgs checks raw tool arguments against the subset of JSON Schema the
// board tools declare: object type, required keys, additionalProperties,
// string/array types and string enums. An empty enum value and an explicit
// null on an optional key both mean "not provided" and pass.
func validateArgs(params map[string]any, raw json.RawMessage) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("arguments must be a JSON object")
	}

	props, _ := params["properties"].(map[string]any)
	required := stringList(params["required"])
	for _, name := range required {
		v, ok := fields[name]
		if !ok || isNull(v) {
			return nil, fmt.Errorf("missing required property %q", name)
		}
	}

	if closed, ok := params["additionalProperties"].(bool); ok && !closed {
		extra := make([]string, 0)
		for name := range fields {
			if _, ok := props[name]; !ok {
				extra = append(extra, name)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			return nil, fmt.Errorf("unexpected properties: %s", strings.Join(extra, ", "))
		}
	}

	for name, value := range fields {
		prop, _ := props[name].(map[string]any)
		if prop == nil || isNull(value) {
			continue
		}
		if err := checkValue(name, prop, value); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func checkValue(name string, prop map[string]any, value json.RawMessage) error {
	switch prop["type"] {
	case "string":
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return fmt.Errorf("property %q must be a string", name)
		}
		enum := stringList(prop["enum"])
		if len(enum) == 0 || strings.TrimSpace(s) == "" {
			return nil
		}
		for _, allowed := range enum {
			if strings.EqualFold(strings.TrimSpace(s), allowed) {
				return nil
			}
		}
		return fmt.Errorf("property %q must be one of %s", name, strings.Join(enum, ", "))
	case "array":
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil {
			return fmt.Errorf("property %q must be an array", name)
		}
		itemSchema, _ := prop["items"].(map[string]any)
		if itemSchema == nil {
			return nil
		}
		for i, item := range items {
			if err := checkValue(fmt.Sprintf("%s[%d]", name, i), itemSchema, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
