package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SchemaError reports generative output that does not match the declared contract.
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return "output does not match schema: " + e.Reason + ": " + e.Err.Error()
	}
	return "output does not match schema: " + e.Reason
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// Invalid builds a SchemaError for checks performed outside struct tags.
func Invalid(format string, args ...any) error {
	return &SchemaError{Reason: fmt.Sprintf(format, args...)}
}

// Decode parses raw model output into out and validates its struct tags.
// Unknown fields and trailing data are rejected.
func Decode(raw []byte, out any) error {
	cleaned := StripFences(string(raw))
	if cleaned == "" {
		return &SchemaError{Reason: "empty output"}
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &SchemaError{Reason: "malformed JSON", Err: err}
	}
	if dec.More() {
		return &SchemaError{Reason: "trailing data after JSON object"}
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &SchemaError{Reason: describe(verrs[0]), Err: err}
		}
		return &SchemaError{Reason: "validation failed", Err: err}
	}
	return nil
}

// StripFences removes Markdown code fences models sometimes wrap JSON in.
func StripFences(raw string) string {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimPrefix(sanitized, "```JSON")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.Trim(sanitized, "`")
	return strings.TrimSpace(sanitized)
}

func describe(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}
