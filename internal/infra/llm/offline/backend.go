package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"strings"

	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
)

// Backend is a deterministic, network free generation.Backend for local runs
// and demos. It calls every declared tool once and fills the output schema
// with values derived from the request input.
type Backend struct {
	logger *slog.Logger
}

// NewBackend builds the offline backend.
func NewBackend(logger *slog.Logger) *Backend {
	return &Backend{logger: logger.With("component", "offline.backend")}
}

func (b *Backend) Generate(ctx context.Context, req generation.Request) (generation.Response, error) {
	input, err := json.Marshal(req.Input)
	if err != nil {
		return generation.Response{}, fmt.Errorf("encode %s input: %w", req.Name, err)
	}
	subject := subjectOf(input)

	observations := make(map[string]json.RawMessage, len(req.Tools))
	for _, tool := range req.Tools {
		args, err := json.Marshal(map[string]string{"location": subject})
		if err != nil {
			return generation.Response{}, err
		}
		result, err := generation.InvokeTool(ctx, req.Tools, tool.Name, args)
		if err != nil {
			return generation.Response{}, err
		}
		observations[tool.Name] = result
	}

	h := fnv.New32a()
	h.Write(input)
	for _, name := range sortedKeys(observations) {
		h.Write(observations[name])
	}
	s := synthesizer{seed: h.Sum32(), subject: subject, flow: req.Name}

	out, err := json.Marshal(s.value(req.Output, "", 0))
	if err != nil {
		return generation.Response{}, fmt.Errorf("encode %s output: %w", req.Name, err)
	}
	b.logger.Info("offline generation", "flow", req.Name, "tool_calls", len(req.Tools))
	return generation.Response{Output: out, ToolCalls: len(req.Tools)}, nil
}

type synthesizer struct {
	seed    uint32
	subject string
	flow    string
}

func (s synthesizer) value(schema generation.Schema, path string, index int) any {
	if enum := schema.EnumValues(); len(enum) > 0 {
		return enum[index%len(enum)]
	}
	switch schema.Type() {
	case "object":
		props := schema.Properties()
		obj := make(map[string]any, len(props))
		// Items of an array of objects keep their position so enums and
		// numbers differ between siblings.
		for name, prop := range props {
			obj[name] = s.value(prop, path+"."+name, index)
		}
		return obj
	case "array":
		items, ok := schema.Items()
		if !ok {
			return []any{}
		}
		n := 0
		if min, ok := schema.Bound("minItems"); ok {
			n = int(min)
		}
		list := make([]any, 0, n)
		for i := 0; i < n; i++ {
			list = append(list, s.value(items, path, i))
		}
		return list
	case "integer":
		lo, hi := s.bounds(schema, 0, 100)
		return int(lo) + int(s.pick(path, index)%uint32(hi-lo+1))
	case "number":
		lo, hi := s.bounds(schema, 0, 1)
		return lo + (hi-lo)*float64(s.pick(path, index)%1000)/1000
	case "boolean":
		return s.pick(path, index)%2 == 0
	default:
		return s.text(path)
	}
}

func (s synthesizer) bounds(schema generation.Schema, lo, hi float64) (float64, float64) {
	if v, ok := schema.Bound("minimum"); ok {
		lo = v
	}
	if v, ok := schema.Bound("maximum"); ok {
		hi = v
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func (s synthesizer) pick(path string, index int) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d|%s|%d", s.seed, path, index)
	return h.Sum32()
}

func (s synthesizer) text(path string) string {
	field := path[strings.LastIndex(path, ".")+1:]
	if field == "" {
		field = "result"
	}
	return fmt.Sprintf("Offline %s %s for %s.", s.flow, field, s.subject)
}

// subjectOf finds the location the request is about.
func subjectOf(input []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(input, &fields); err != nil {
		return "the requested location"
	}
	for _, key := range []string{"city", "location"} {
		if v, ok := fields[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return "the requested location"
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
