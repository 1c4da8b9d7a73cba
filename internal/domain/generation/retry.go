package generation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/yanqian/air-quality-advisor/pkg/errors"
	"github.com/yanqian/air-quality-advisor/pkg/retry"
)

const overloadedMessage = "The AI service is currently overloaded and unable to handle the request. Please try again later."

// RetryConfig controls retries of overloaded backend calls.
type RetryConfig struct {
	MaxAttempts int
	Step        time.Duration
}

// OverloadPolicy retries only errors that signal transient overload,
// waiting Step*(n-1) before attempt n.
func OverloadPolicy(cfg RetryConfig, logger *slog.Logger) retry.Policy {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	step := cfg.Step
	if step <= 0 {
		step = time.Second
	}
	return retry.Policy{
		MaxAttempts: attempts,
		Retryable:   retry.MessageContains("503", "overloaded"),
		Backoff:     retry.Linear(step),
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Warn("backend overloaded, retrying", "attempt", attempt, "delay", delay, "error", err)
		},
	}
}

// GenerateWithRetry calls backend under policy. Exhausted retries become a
// single llm_overloaded error; any other failure is reported as llm_error.
func GenerateWithRetry(ctx context.Context, backend Backend, req Request, policy retry.Policy, failureMessage string) (Response, error) {
	var resp Response
	err := policy.Do(ctx, func(ctx context.Context) error {
		out, err := backend.Generate(ctx, req)
		if err != nil {
			return err
		}
		resp = out
		return nil
	})
	if err == nil {
		return resp, nil
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return Response{}, apperrors.Wrap(apperrors.CodeLLMOverloaded, overloadedMessage, err)
	}
	if _, ok := apperrors.As(err); ok {
		return Response{}, err
	}
	return Response{}, apperrors.Wrap(apperrors.CodeLLM, failureMessage, err)
}
