package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yanqian/air-quality-advisor/pkg/metrics"
)

// Backend produces structured output for a Request, invoking its tools as it sees fit.
type Backend interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request describes one structured generation.
type Request struct {
	// Name identifies the flow in logs.
	Name string
	// System is the role prompt. The output schema contract is appended by SystemMessage.
	System string
	// Prompt is the task prompt. Input, when set, is appended as JSON by UserMessage.
	Prompt string
	Input  any
	// Output is the JSON schema the final answer must conform to.
	Output Schema
	// Tools are optional capabilities the backend may call zero or more times.
	Tools []Tool
}

// Response carries the raw JSON answer. Callers must run it through Decode.
type Response struct {
	Output    json.RawMessage
	Usage     metrics.TokenUsage
	ToolCalls int
}

// Tool is a named capability exposed to the backend.
type Tool struct {
	Name        string
	Description string
	Parameters  Schema
	Invoke      func(ctx context.Context, args json.RawMessage) (any, error)
}

// NewTool adapts a typed function into a Tool with JSON argument decoding.
func NewTool[In any, Out any](name, description string, params Schema, fn func(ctx context.Context, in In) (Out, error)) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Parameters:  params,
		Invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in In
			if len(args) > 0 && string(args) != "null" {
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, fmt.Errorf("decode %s arguments: %w", name, err)
				}
			}
			return fn(ctx, in)
		},
	}
}

// InvokeTool runs the named tool and returns its JSON encoded result.
func InvokeTool(ctx context.Context, tools []Tool, name string, args json.RawMessage) (json.RawMessage, error) {
	for _, tool := range tools {
		if tool.Name != name {
			continue
		}
		out, err := tool.Invoke(ctx, args)
		if err != nil {
			return nil, fmt.Errorf("tool %s failed: %w", name, err)
		}
		data, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unknown tool %q requested", name)
}

// SystemMessage combines the role prompt with the output contract.
func SystemMessage(req Request) string {
	base := strings.TrimSpace(req.System)
	if len(req.Output) == 0 {
		return base
	}
	schema, err := json.Marshal(req.Output)
	if err != nil {
		schema = []byte("{}")
	}
	enforcer := "Respond ONLY with a single valid JSON object that conforms to this JSON schema: " + string(schema) +
		". Do not wrap the JSON in Markdown and never add fields that are not in the schema."
	if base == "" {
		return enforcer
	}
	return base + "\n\n" + enforcer
}

// UserMessage renders the prompt followed by the input payload.
func UserMessage(req Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if req.Input == nil {
		return prompt, nil
	}
	payload, err := json.MarshalIndent(req.Input, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s input: %w", req.Name, err)
	}
	return prompt + "\n\n[INPUT JSON]\n" + string(payload), nil
}
