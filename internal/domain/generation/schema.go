package generation

import "sort"

// Schema is a JSON schema document.
type Schema map[string]any

// Object declares an object with the given properties, all of which are required.
func Object(props map[string]Schema) Schema {
	required := make([]string, 0, len(props))
	properties := make(map[string]any, len(props))
	for name, prop := range props {
		required = append(required, name)
		properties[name] = prop
	}
	sort.Strings(required)
	return Schema{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// String declares a string field.
func String(description string) Schema {
	return Schema{"type": "string", "description": description}
}

// Enum declares a string field restricted to values.
func Enum(description string, values ...string) Schema {
	return Schema{"type": "string", "description": description, "enum": values}
}

// Integer declares an integer bounded by [min, max].
func Integer(description string, min, max int) Schema {
	return Schema{"type": "integer", "description": description, "minimum": min, "maximum": max}
}

// Number declares a number bounded by [min, max].
func Number(description string, min, max float64) Schema {
	return Schema{"type": "number", "description": description, "minimum": min, "maximum": max}
}

// Array declares an array of items with a length bounded by [minItems, maxItems].
// A negative maxItems leaves the upper bound open.
func Array(description string, items Schema, minItems, maxItems int) Schema {
	s := Schema{"type": "array", "description": description, "items": items, "minItems": minItems}
	if maxItems >= 0 {
		s["maxItems"] = maxItems
	}
	return s
}

// Type returns the declared JSON type.
func (s Schema) Type() string {
	t, _ := s["type"].(string)
	return t
}

// Description returns the declared description.
func (s Schema) Description() string {
	d, _ := s["description"].(string)
	return d
}

// Properties returns the object properties keyed by name.
func (s Schema) Properties() map[string]Schema {
	raw, ok := s["properties"].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]Schema, len(raw))
	for name, value := range raw {
		if prop, ok := asSchema(value); ok {
			out[name] = prop
		}
	}
	return out
}

// Required lists required property names.
func (s Schema) Required() []string {
	switch v := s["required"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// Items returns the array item schema.
func (s Schema) Items() (Schema, bool) {
	return asSchema(s["items"])
}

// EnumValues returns allowed string values.
func (s Schema) EnumValues() []string {
	switch v := s["enum"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// Bound reads a numeric keyword such as "minimum" or "maxItems".
func (s Schema) Bound(keyword string) (float64, bool) {
	switch v := s[keyword].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func asSchema(value any) (Schema, bool) {
	switch v := value.(type) {
	case Schema:
		return v, true
	case map[string]any:
		return Schema(v), true
	default:
		return nil, false
	}
}
