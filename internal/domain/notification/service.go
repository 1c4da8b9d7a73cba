package notification

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
	apperrors "github.com/yanqian/air-quality-advisor/pkg/errors"
	"github.com/yanqian/air-quality-advisor/pkg/retry"
)

const defaultPrompt = "You are an expert in air quality and health. You will suggest a notification strategy for the user based on their location and risk factors."

// Request captures the notification strategy payload.
type Request struct {
	Location    string `json:"location"`
	RiskFactors string `json:"riskFactors"`
}

// Response carries the suggested strategy.
type Response struct {
	Strategy string `json:"strategy" validate:"required"`
}

// Config wires runtime settings for the notification domain.
type Config struct {
	Prompt string
	Retry  generation.RetryConfig
}

// Service suggests alerting thresholds tailored to a user's risk factors.
type Service interface {
	Strategy(ctx context.Context, req Request) (Response, error)
}

type service struct {
	cfg     Config
	backend generation.Backend
	policy  retry.Policy
	logger  *slog.Logger
}

// NewService wires up the notification domain.
func NewService(cfg Config, backend generation.Backend, logger *slog.Logger) Service {
	log := logger.With("component", "notification.service")
	return &service{
		cfg:     cfg,
		backend: backend,
		policy:  generation.OverloadPolicy(cfg.Retry, log),
		logger:  log,
	}
}

func (s *service) Strategy(ctx context.Context, req Request) (Response, error) {
	req.Location = strings.TrimSpace(req.Location)
	req.RiskFactors = strings.TrimSpace(req.RiskFactors)
	if req.Location == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "location is required", errors.New("empty location"))
	}
	if req.RiskFactors == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "riskFactors is required", errors.New("empty risk factors"))
	}

	resp, err := generation.GenerateWithRetry(ctx, s.backend, generation.Request{
		Name:   "notificationStrategy",
		System: s.systemPrompt(),
		Prompt: "Location: " + req.Location + "\nRisk Factors: " + req.RiskFactors +
			"\n\nSuggest a detailed notification strategy, including specific AQI thresholds for different pollutants and their health implications.",
		Input: req,
		Output: generation.Object(map[string]generation.Schema{
			"strategy": generation.String("A notification strategy with specific thresholds based on the user's location and risk factors. Include specific AQI thresholds for different pollutants and their health implications."),
		}),
	}, s.policy, "The AI service failed to suggest a notification strategy. Please try again.")
	if err != nil {
		s.logger.Error("notification strategy failed", "location", req.Location, "code", apperrors.CodeOf(err), "error", err)
		return Response{}, err
	}

	var out Response
	if err := generation.Decode(resp.Output, &out); err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidOutput, "The AI service returned an invalid strategy. Please try again.", err)
	}
	out.Strategy = strings.TrimSpace(out.Strategy)
	if out.Strategy == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidOutput, "The AI service returned an invalid strategy. Please try again.", generation.Invalid("strategy is blank"))
	}
	s.logger.Info("notification strategy generated", "location", req.Location, "total_tokens", resp.Usage.TotalTokens)
	return out, nil
}

func (s *service) systemPrompt() string {
	if p := strings.TrimSpace(s.cfg.Prompt); p != "" {
		return p
	}
	return defaultPrompt
}
