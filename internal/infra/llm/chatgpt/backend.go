package chatgpt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
	"github.com/yanqian/air-quality-advisor/pkg/metrics"
)

const defaultMaxToolRounds = 5

// ChatClient is the subset of Client used by Backend.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error)
}

// BackendConfig tunes generation requests.
type BackendConfig struct {
	Model         string
	Temperature   float32
	MaxToolRounds int
}

// Backend implements generation.Backend on top of chat completions with tool calling.
type Backend struct {
	cfg     BackendConfig
	client  ChatClient
	counter TokenCounter
	logger  *slog.Logger
}

// NewBackend wires a chat client into the generation abstraction.
func NewBackend(cfg BackendConfig, client ChatClient, counter TokenCounter, logger *slog.Logger) *Backend {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	if counter == nil {
		counter = WordCounter{}
	}
	return &Backend{
		cfg:     cfg,
		client:  client,
		counter: counter,
		logger:  logger.With("component", "chatgpt.backend"),
	}
}

// Generate runs the tool loop until the model answers without tool calls.
func (b *Backend) Generate(ctx context.Context, req generation.Request) (generation.Response, error) {
	user, err := generation.UserMessage(req)
	if err != nil {
		return generation.Response{}, err
	}
	messages := []Message{
		{Role: "system", Content: generation.SystemMessage(req)},
		{Role: "user", Content: user},
	}
	tools := toChatTools(req.Tools)

	var (
		usage     metrics.TokenUsage
		toolCalls int
	)
	for round := 0; ; round++ {
		completion, err := b.client.CreateChatCompletion(ctx, ChatCompletionRequest{
			Model:          b.cfg.Model,
			Messages:       messages,
			Temperature:    b.cfg.Temperature,
			Tools:          tools,
			ResponseFormat: &ResponseFormat{Type: "json_object"},
		})
		if err != nil {
			return generation.Response{}, fmt.Errorf("%s: %w", req.Name, err)
		}
		if len(completion.Choices) == 0 {
			return generation.Response{}, errors.New("chatgpt returned no choices")
		}
		msg := completion.Choices[0].Message
		usage = usage.Add(b.usageOf(completion, messages, msg))

		if len(msg.ToolCalls) == 0 {
			b.logger.Debug("chatgpt final response", "flow", req.Name, "rounds", round+1, "content", msg.Content)
			return generation.Response{
				Output:    json.RawMessage(strings.TrimSpace(msg.Content)),
				Usage:     usage,
				ToolCalls: toolCalls,
			}, nil
		}
		if round >= b.cfg.MaxToolRounds {
			return generation.Response{}, fmt.Errorf("chatgpt exceeded %d tool rounds", b.cfg.MaxToolRounds)
		}

		messages = append(messages, Message{Role: "assistant", Content: msg.Content, ToolCalls: msg.ToolCalls})
		for _, call := range msg.ToolCalls {
			b.logger.Info("chatgpt tool call", "flow", req.Name, "tool", call.Function.Name, "arguments", call.Function.Arguments)
			result, err := generation.InvokeTool(ctx, req.Tools, call.Function.Name, json.RawMessage(call.Function.Arguments))
			if err != nil {
				return generation.Response{}, err
			}
			toolCalls++
			messages = append(messages, Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    string(result),
			})
		}
	}
}

// usageOf prefers API reported usage and estimates it otherwise.
func (b *Backend) usageOf(resp ChatCompletionResponse, sent []Message, reply Message) metrics.TokenUsage {
	if resp.Usage != nil {
		return metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	prompt := 0
	for _, m := range sent {
		prompt += b.counter.Count(m.Content)
	}
	completion := b.counter.Count(reply.Content)
	for _, call := range reply.ToolCalls {
		completion += b.counter.Count(call.Function.Arguments)
	}
	return metrics.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

func toChatTools(tools []generation.Tool) []Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]Tool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, Tool{
			Type: "function",
			Function: ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  map[string]any(tool.Parameters),
			},
		})
	}
	return out
}
