package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
	apperrors "github.com/yanqian/air-quality-advisor/pkg/errors"
)

func TestStrategySuccess(t *testing.T) {
	backend := &stubBackend{output: "```json\n{\"strategy\":\"Alert when PM2.5 AQI exceeds 100.\"}\n```"}
	svc, _ := newTestService(backend)

	resp, err := svc.Strategy(context.Background(), Request{Location: "Delhi, India", RiskFactors: "asthma, age 70"})
	require.NoError(t, err)
	require.Equal(t, "Alert when PM2.5 AQI exceeds 100.", resp.Strategy)
	require.Equal(t, 1, backend.calls)
	require.Contains(t, backend.last.Prompt, "Risk Factors: asthma, age 70")
	require.Equal(t, Request{Location: "Delhi, India", RiskFactors: "asthma, age 70"}, backend.last.Input)
}

func TestStrategyRequiresInput(t *testing.T) {
	backend := &stubBackend{output: `{"strategy":"x"}`}
	svc, _ := newTestService(backend)

	_, err := svc.Strategy(context.Background(), Request{RiskFactors: "asthma"})
	require.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
	_, err = svc.Strategy(context.Background(), Request{Location: "Delhi, India", RiskFactors: " "})
	require.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
	require.Zero(t, backend.calls)
}

func TestStrategyRetriesOverload(t *testing.T) {
	backend := &stubBackend{
		errs:   []error{errors.New("503 Service Unavailable"), errors.New("model overloaded")},
		output: `{"strategy":"Check the AQI every morning."}`,
	}
	svc, slept := newTestService(backend)

	resp, err := svc.Strategy(context.Background(), Request{Location: "Delhi, India", RiskFactors: "asthma"})
	require.NoError(t, err)
	require.Equal(t, "Check the AQI every morning.", resp.Strategy)
	require.Equal(t, 3, backend.calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestStrategyNonOverloadFailsOnce(t *testing.T) {
	backend := &stubBackend{errs: []error{errors.New("permission denied")}}
	svc, slept := newTestService(backend)

	_, err := svc.Strategy(context.Background(), Request{Location: "Delhi, India", RiskFactors: "asthma"})
	require.Equal(t, apperrors.CodeLLM, apperrors.CodeOf(err))
	require.Equal(t, 1, backend.calls)
	require.Empty(t, *slept)
}

func TestStrategyExhausted(t *testing.T) {
	overloaded := errors.New("overloaded")
	backend := &stubBackend{errs: []error{overloaded, overloaded, overloaded}}
	svc, _ := newTestService(backend)

	_, err := svc.Strategy(context.Background(), Request{Location: "Delhi, India", RiskFactors: "asthma"})
	require.Equal(t, apperrors.CodeLLMOverloaded, apperrors.CodeOf(err))
	require.Equal(t, 3, backend.calls)
}

func TestStrategyRejectsBlankOutput(t *testing.T) {
	svc, _ := newTestService(&stubBackend{output: `{"strategy":"  "}`})

	_, err := svc.Strategy(context.Background(), Request{Location: "Delhi, India", RiskFactors: "asthma"})
	require.Equal(t, apperrors.CodeInvalidOutput, apperrors.CodeOf(err))
}

func newTestService(backend generation.Backend) (*service, *[]time.Duration) {
	slept := &[]time.Duration{}
	svc := NewService(Config{}, backend, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
	svc.policy.Sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return svc, slept
}

type stubBackend struct {
	errs   []error
	output string
	calls  int
	last   generation.Request
}

func (s *stubBackend) Generate(_ context.Context, req generation.Request) (generation.Response, error) {
	s.calls++
	s.last = req
	if s.calls <= len(s.errs) {
		return generation.Response{}, s.errs[s.calls-1]
	}
	return generation.Response{Output: json.RawMessage(s.output)}, nil
}
