package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	genai "google.golang.org/genai"

	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
	"github.com/yanqian/air-quality-advisor/pkg/metrics"
)

const (
	defaultModel         = "gemini-2.5-flash"
	defaultMaxToolRounds = 5
)

// ContentGenerator is satisfied by (*genai.Client).Models.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config tunes generation requests.
type Config struct {
	Model         string
	Temperature   float32
	MaxToolRounds int
}

// Backend implements generation.Backend with Gemini function calling.
type Backend struct {
	cfg    Config
	models ContentGenerator
	logger *slog.Logger
}

// NewModels builds a Gemini API client and returns its model service.
func NewModels(ctx context.Context, apiKey string) (ContentGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return cli.Models, nil
}

// NewBackend wires a model service into the generation abstraction.
func NewBackend(cfg Config, models ContentGenerator, logger *slog.Logger) *Backend {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	return &Backend{cfg: cfg, models: models, logger: logger.With("component", "gemini.backend")}
}

// Generate answers req, executing function calls until the model replies with text.
// JSON mode cannot be combined with function calling, so it is only requested for tool-free calls.
func (b *Backend) Generate(ctx context.Context, req generation.Request) (generation.Response, error) {
	user, err := generation.UserMessage(req)
	if err != nil {
		return generation.Response{}, err
	}
	temperature := b.cfg.Temperature
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: generation.SystemMessage(req)}}},
		Temperature:       &temperature,
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations(req.Tools)}}
	} else {
		config.ResponseMIMEType = "application/json"
		if len(req.Output) > 0 {
			config.ResponseSchema = toSchema(req.Output)
		}
	}

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: user}}}}
	var (
		usage     metrics.TokenUsage
		toolCalls int
	)
	for round := 0; ; round++ {
		resp, err := b.models.GenerateContent(ctx, b.cfg.Model, contents, config)
		if err != nil {
			return generation.Response{}, fmt.Errorf("%s: %w", req.Name, err)
		}
		usage = usage.Add(usageOf(resp))

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			text := strings.TrimSpace(resp.Text())
			if text == "" {
				return generation.Response{}, errors.New("gemini returned no content")
			}
			return generation.Response{Output: json.RawMessage(text), Usage: usage, ToolCalls: toolCalls}, nil
		}
		if round >= b.cfg.MaxToolRounds {
			return generation.Response{}, fmt.Errorf("gemini exceeded %d tool rounds", b.cfg.MaxToolRounds)
		}

		contents = append(contents, resp.Candidates[0].Content)
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			b.logger.Info("gemini function call", "flow", req.Name, "tool", call.Name)
			args, err := json.Marshal(call.Args)
			if err != nil {
				return generation.Response{}, fmt.Errorf("encode %s arguments: %w", call.Name, err)
			}
			result, err := generation.InvokeTool(ctx, req.Tools, call.Name, args)
			if err != nil {
				return generation.Response{}, err
			}
			toolCalls++
			parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: responseMap(result),
			}})
		}
		contents = append(contents, &genai.Content{Role: "user", Parts: parts})
	}
}

func declarations(tools []generation.Tool) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decl := &genai.FunctionDeclaration{Name: tool.Name, Description: tool.Description}
		if len(tool.Parameters) > 0 {
			decl.Parameters = toSchema(tool.Parameters)
		}
		out = append(out, decl)
	}
	return out
}

// responseMap shapes a tool result as the object Gemini expects.
func responseMap(result json.RawMessage) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(result, &obj); err == nil && obj != nil {
		return obj
	}
	var value any
	_ = json.Unmarshal(result, &value)
	return map[string]any{"output": value}
}

func usageOf(resp *genai.GenerateContentResponse) metrics.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return metrics.TokenUsage{}
	}
	meta := resp.UsageMetadata
	return metrics.TokenUsage{
		PromptTokens:     int(meta.PromptTokenCount),
		CompletionTokens: int(meta.CandidatesTokenCount),
		TotalTokens:      int(meta.TotalTokenCount),
	}
}
