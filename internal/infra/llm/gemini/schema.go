package gemini

import (
	genai "google.golang.org/genai"

	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
)

// toSchema converts a JSON schema document into Gemini's OpenAPI subset.
// Numeric bounds are described in the system prompt rather than enforced here.
func toSchema(s generation.Schema) *genai.Schema {
	out := &genai.Schema{
		Type:        schemaType(s.Type()),
		Description: s.Description(),
	}
	if props := s.Properties(); len(props) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			out.Properties[name] = toSchema(prop)
		}
		out.Required = s.Required()
	}
	if items, ok := s.Items(); ok {
		out.Items = toSchema(items)
	}
	if enum := s.EnumValues(); len(enum) > 0 {
		out.Enum = enum
	}
	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
