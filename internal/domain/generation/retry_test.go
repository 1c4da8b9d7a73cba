package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/air-quality-advisor/pkg/errors"
)

type scriptedBackend struct {
	errs  []error
	calls int
}

func (b *scriptedBackend) Generate(context.Context, Request) (Response, error) {
	b.calls++
	if b.calls <= len(b.errs) {
		return Response{}, b.errs[b.calls-1]
	}
	return Response{Output: []byte(`{"ok":true}`)}, nil
}

func TestGenerateWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCode  string
		wantCalls int
		wantSleep []time.Duration
	}{
		{name: "first try", wantCalls: 1},
		{
			name:      "overloaded twice",
			errs:      []error{errors.New("503 Service Unavailable"), errors.New("model is overloaded")},
			wantCalls: 3,
			wantSleep: []time.Duration{time.Second, 2 * time.Second},
		},
		{
			name:      "non overload",
			errs:      []error{errors.New("400 invalid argument")},
			wantCode:  apperrors.CodeLLM,
			wantCalls: 1,
		},
		{
			name:      "exhausted",
			errs:      []error{errors.New("503"), errors.New("503"), errors.New("503")},
			wantCode:  apperrors.CodeLLMOverloaded,
			wantCalls: 3,
			wantSleep: []time.Duration{time.Second, 2 * time.Second},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var slept []time.Duration
			policy := OverloadPolicy(RetryConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
			policy.Sleep = func(_ context.Context, d time.Duration) error {
				slept = append(slept, d)
				return nil
			}
			backend := &scriptedBackend{errs: tt.errs}

			resp, err := GenerateWithRetry(context.Background(), backend, Request{Name: "test"}, policy, "generation failed")
			require.Equal(t, tt.wantCalls, backend.calls)
			require.Equal(t, tt.wantSleep, slept)
			if tt.wantCode == "" {
				require.NoError(t, err)
				require.JSONEq(t, `{"ok":true}`, string(resp.Output))
				return
			}
			require.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			if tt.wantCode == apperrors.CodeLLMOverloaded {
				require.Equal(t, overloadedMessage, apperrors.MessageOf(err))
			}
		})
	}
}
