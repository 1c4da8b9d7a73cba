package generation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleOutput struct {
	Summary string `json:"summary" validate:"required"`
	Values  []int  `json:"values" validate:"len=3,dive,gte=0,lte=10"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{name: "plain json", raw: `{"summary":"ok","values":[1,2,3]}`},
		{name: "fenced json", raw: "```json\n{\"summary\":\"ok\",\"values\":[0,5,10]}\n```"},
		{name: "empty", raw: "  ", wantErr: "empty output"},
		{name: "not json", raw: "sure, here you go", wantErr: "malformed JSON"},
		{name: "unknown field", raw: `{"summary":"ok","values":[1,2,3],"extra":true}`, wantErr: "malformed JSON"},
		{name: "wrong length", raw: `{"summary":"ok","values":[1,2]}`, wantErr: "len=3"},
		{name: "out of range", raw: `{"summary":"ok","values":[1,2,11]}`, wantErr: "lte=10"},
		{name: "missing summary", raw: `{"values":[1,2,3]}`, wantErr: "required"},
		{name: "float where int expected", raw: `{"summary":"ok","values":[1.5,2,3]}`, wantErr: "malformed JSON"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out sampleOutput
			err := Decode([]byte(tt.raw), &out)
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.Equal(t, "ok", out.Summary)
				return
			}
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewToolDecodesArguments(t *testing.T) {
	type in struct {
		Location string `json:"location"`
	}
	type out struct {
		Length int `json:"length"`
	}
	tool := NewTool("measure", "measures", Object(map[string]Schema{"location": String("where")}),
		func(_ context.Context, req in) (out, error) {
			return out{Length: len(req.Location)}, nil
		})

	raw, err := InvokeTool(context.Background(), []Tool{tool}, "measure", json.RawMessage(`{"location":"Paris"}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"length":5}`, string(raw))

	_, err = InvokeTool(context.Background(), []Tool{tool}, "measure", json.RawMessage(`{"location":`))
	require.Error(t, err)

	_, err = InvokeTool(context.Background(), []Tool{tool}, "missing", nil)
	require.EqualError(t, err, `unknown tool "missing" requested`)
}

func TestInvokeToolPropagatesFailure(t *testing.T) {
	tool := Tool{
		Name: "broken",
		Invoke: func(context.Context, json.RawMessage) (any, error) {
			return nil, errors.New("boom")
		},
	}
	_, err := InvokeTool(context.Background(), []Tool{tool}, "broken", nil)
	require.EqualError(t, err, "tool broken failed: boom")
}

func TestMessages(t *testing.T) {
	req := Request{
		Name:   "sample",
		System: "You are a tester.",
		Prompt: "Summarize.",
		Input:  map[string]int{"aqi": 42},
		Output: Object(map[string]Schema{"summary": String("text")}),
	}

	system := SystemMessage(req)
	require.Contains(t, system, "You are a tester.")
	require.Contains(t, system, `"required":["summary"]`)

	user, err := UserMessage(req)
	require.NoError(t, err)
	require.Contains(t, user, "Summarize.\n\n[INPUT JSON]\n")
	require.Contains(t, user, `"aqi": 42`)
}

func TestSchemaAccessors(t *testing.T) {
	s := Object(map[string]Schema{
		"name":   Enum("pollutant", "PM2.5", "O3"),
		"values": Array("series", Integer("aqi", 0, 300), 30, 30),
	})

	require.Equal(t, "object", s.Type())
	require.Equal(t, []string{"name", "values"}, s.Required())

	props := s.Properties()
	require.Equal(t, []string{"PM2.5", "O3"}, props["name"].EnumValues())

	items, ok := props["values"].Items()
	require.True(t, ok)
	max, ok := items.Bound("maximum")
	require.True(t, ok)
	require.Equal(t, 300.0, max)
	minItems, ok := props["values"].Bound("minItems")
	require.True(t, ok)
	require.Equal(t, 30.0, minItems)
}
